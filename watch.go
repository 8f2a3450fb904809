package main

import (
	"context"
	"os/signal"
	"path/filepath"
	"syscall"

	"divergent/wxpatch/pkg/patch"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [patch...]",
	Short: "Watch target files and report state changes as they drift",
	RunE: func(cmd *cobra.Command, args []string) error {
		patches, err := selectPatches(args)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return watch(ctx, patches)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func watch(ctx context.Context, patches []patch.Patch) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// editors replace files instead of writing in place, so watch the
	// parent directories and filter events by target path
	byTarget := map[string][]patch.Patch{}
	states := map[string]string{}
	watched := map[string]bool{}
	for _, p := range patches {
		target := filepath.Clean(targetPath(p))
		byTarget[target] = append(byTarget[target], p)
		state, _ := checkOne(p)
		states[p.Name] = state
		log.Info().Msgf("%s\t%s\t%s", p.Name, state, target)

		dir := filepath.Dir(target)
		if watched[dir] {
			continue
		}
		err = watcher.Add(dir)
		if err != nil {
			log.Warn().Err(err).Msgf("cannot watch %s", dir)
			continue
		}
		watched[dir] = true
	}
	if len(watched) == 0 {
		log.Warn().Msg("nothing to watch")
		return nil
	}
	log.Info().Msgf("Watching %d dir(s), Ctrl-C to stop", len(watched))

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Terminated by user")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename) {
				continue
			}
			ps, ok := byTarget[filepath.Clean(event.Name)]
			if !ok {
				continue
			}
			for _, p := range ps {
				state, target := checkOne(p)
				if state == states[p.Name] {
					continue
				}
				log.Info().Msgf("%s went %s -> %s (%s)", p.Name, states[p.Name], state, target)
				states[p.Name] = state
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Err(err).Msg("watcher error")
		}
	}
}
