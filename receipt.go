package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// Receipt is the record written after every apply/revert so later runs
// (and the list command) can answer "what did we do and when".
type Receipt struct {
	Patch     string
	Target    string
	State     string
	Backup    string `json:",omitempty"`
	Reverted  bool   `json:",omitempty"`
	Note      string `json:",omitempty"`
	AppliedAt time.Time
	// metadata
	Path     string `json:"-"`
	Filename string `json:"-"`
}

func (r Receipt) MarshalJSON() ([]byte, error) {
	var jsonBytes bytes.Buffer
	enc := json.NewEncoder(&jsonBytes)
	enc.SetEscapeHTML(false)

	// alias avoids infinite recursion
	type ReceiptAlias Receipt
	err := enc.Encode(ReceiptAlias(r))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal receipt to json: %w", err)
	}
	return jsonBytes.Bytes(), nil
}

// SaveReceipt writes the receipt into the state dir under the patch name.
func (r Receipt) SaveReceipt(stateDir string) error {
	err := os.MkdirAll(stateDir, 0755)
	if err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}
	jsonBytes, err := r.MarshalJSON()
	if err != nil {
		return err
	}
	destPath := filepath.Join(stateDir, r.Patch+".json")
	file, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer file.Close()
	n, err := file.Write(jsonBytes)
	if err != nil {
		return err
	}
	log.Debug().Msgf("Wrote %d bytes into %s", n, destPath)

	return nil
}

func (r *Receipt) ReadReceipt(srcPath string) error {
	contents, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("failed to read receipt from file: %w", err)
	}
	err = json.Unmarshal(contents, &r)
	if err != nil {
		return fmt.Errorf("failed to unmarshal receipt from json: %w", err)
	}
	r.Path = srcPath
	r.Filename = filepath.Base(srcPath)

	return nil
}

// convert Receipt struct to map[string]any for gojq
func receiptToMap(r Receipt) (map[string]any, error) {
	jsonBytes, err := r.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal the receipt: %w", err)
	}
	var rMap map[string]any
	err = json.Unmarshal(jsonBytes, &rMap)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal the receipt back: %w", err)
	}
	rMap["Path"] = r.Path
	rMap["Filename"] = r.Filename
	return rMap, nil
}
