package main

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

func humanizeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateTime)
}

func fileExists(name string) (bool, error) {
	_, err := os.Stat(name)
	if err == nil {
		// file apparently exists
		return true, nil
	} else {
		// got error, let's see
		if errors.Is(err, os.ErrNotExist) {
			// file not exists, so no actual error here
			return false, nil
		} else {
			// other error
			return false, err
		}
	}
}

// receiptFiles retrieves all JSON receipts from the state directory.
func receiptFiles() ([]string, error) {
	stateDir := viper.GetString("state_dir")
	if ok, _ := fileExists(stateDir); !ok {
		return nil, nil
	}
	fsys := os.DirFS(stateDir)
	files, err := fs.Glob(fsys, "*.json")
	if err != nil {
		return nil, err
	}

	for i := range files {
		files[i] = path.Join(stateDir, files[i])
	}
	return files, nil
}

// namesFromArgs processes a list of arguments and returns a list of patch
// names. If the first argument is "-", it reads names from standard input,
// ignoring lines that are empty or start with a comment character (#).
func namesFromArgs(args []string) ([]string, error) {
	if len(args) == 0 || args[0] != "-" {
		return args, nil
	}

	scanner := bufio.NewScanner(os.Stdin)
	names := []string{}
	commentPattern := regexp.MustCompile(`^\s*#`)
	for scanner.Scan() {
		line := scanner.Text()
		line = strings.TrimSpace(line)
		if len(line) > 0 && !commentPattern.MatchString(line) {
			names = append(names, line)
		}
	}
	err := scanner.Err()
	if err != nil {
		return nil, err
	}

	return names, nil
}
