package main

import (
	"context"
	"fmt"
	"time"

	"divergent/wxpatch/pkg/backoff"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var deployNoWait bool

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Commit and push the patched backend so the host redeploys it",
	RunE: func(cmd *cobra.Command, args []string) error {
		return deploy(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(deployCmd)
	deployCmd.Flags().BoolVar(&deployNoWait, "no-wait", false, "skip the post-push health poll")
	deployCmd.Flags().String("message", "", "commit message (default mentions the patched files)")
	_ = viper.BindPFlag("commit_message", deployCmd.Flags().Lookup("message"))
}

func deploy(ctx context.Context) error {
	backendRoot := viper.GetString("backend_root")
	if backendRoot == "" {
		return fmt.Errorf("backend_root is not configured")
	}
	if !isGitRepo(ctx, backendRoot) {
		return fmt.Errorf("%s is not a git repository, refusing to commit", backendRoot)
	}

	patches, err := allPatches()
	if err != nil {
		return err
	}
	seen := map[string]bool{}
	var targets []string
	for _, p := range patches {
		if p.Root != "backend" || seen[p.Target] {
			continue
		}
		seen[p.Target] = true
		targets = append(targets, p.Target)
	}
	if len(targets) == 0 {
		log.Info().Msg("No backend targets to deploy")
		return nil
	}

	dirty, err := dirtyPaths(ctx, backendRoot, targets)
	if err != nil {
		return err
	}
	if len(dirty) == 0 {
		log.Info().Msg("Backend targets are unchanged, nothing to deploy")
		return nil
	}

	message := viper.GetString("commit_message")
	if message == "" {
		message = fmt.Sprintf("Patch %v", dirty)
	}
	remote := viper.GetString("git_remote")
	branch := viper.GetString("git_branch")

	log.Info().Msgf("Committing %d file(s) and pushing to %s/%s ...", len(dirty), remote, branch)
	err = gitCommitAndPush(ctx, backendRoot, dirty, message, remote, branch)
	if err != nil {
		return err
	}
	log.Info().Msg("Pushed")

	if deployNoWait {
		return nil
	}

	wait := viper.GetDuration("health_wait")
	if wait <= 0 {
		wait = 5 * time.Minute
	}
	healthURL := viper.GetString("health_url")
	log.Info().Msgf("Waiting up to %s for %s ...", wait, healthURL)
	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	err = waitForHealth(waitCtx, healthURL, backoff.New(2*time.Second, time.Minute))
	if err != nil {
		return err
	}
	log.Info().Msg("Backend is healthy")
	return nil
}
