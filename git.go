package main

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
)

// git runs a git subcommand in dir and returns trimmed combined output.
func git(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	log.Trace().Msgf("git %s (in %s)", strings.Join(args, " "), dir)
	err := cmd.Run()
	output := strings.TrimSpace(out.String())
	if err != nil {
		return output, fmt.Errorf("git %s failed: %w (%s)", strings.Join(args, " "), err, output)
	}
	return output, nil
}

func isGitRepo(ctx context.Context, dir string) bool {
	out, err := git(ctx, dir, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// dirtyPaths reports which of the given paths have uncommitted changes.
func dirtyPaths(ctx context.Context, dir string, paths []string) ([]string, error) {
	args := append([]string{"status", "--porcelain", "--"}, paths...)
	out, err := git(ctx, dir, args...)
	if err != nil {
		return nil, err
	}
	return parsePorcelain(out), nil
}

// porcelain lines look like " M main.py"
func parsePorcelain(out string) []string {
	if out == "" {
		return nil
	}
	var dirty []string
	for _, line := range strings.Split(out, "\n") {
		if len(line) > 3 {
			dirty = append(dirty, strings.TrimSpace(line[3:]))
		}
	}
	return dirty
}

func gitCommitAndPush(ctx context.Context, dir string, paths []string, message, remote, branch string) error {
	args := append([]string{"add", "--"}, paths...)
	if _, err := git(ctx, dir, args...); err != nil {
		return err
	}
	if _, err := git(ctx, dir, "commit", "-m", message); err != nil {
		return err
	}
	out, err := git(ctx, dir, "push", remote, branch)
	if err != nil {
		return err
	}
	if out != "" {
		log.Debug().Msg(out)
	}
	return nil
}
