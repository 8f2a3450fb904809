package main

import (
	"fmt"
	"os"

	"divergent/wxpatch/pkg/patch"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [patch...]",
	Short: "Report each patch's state against its target file",
	Run: func(cmd *cobra.Command, args []string) {
		patches, err := selectPatches(args)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to select patches")
			return
		}
		check(patches)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func check(patches []patch.Patch) {
	for _, p := range patches {
		state, target := checkOne(p)
		fmt.Printf("%s\t%s\t%s\t%s\n", p.Name, state, target, p.Note)
	}
}

// checkOne classifies a single patch against the file on disk. "missing"
// means the target itself is gone, which is worse than unknown.
func checkOne(p patch.Patch) (string, string) {
	target := targetPath(p)
	contents, err := os.ReadFile(target)
	if err != nil {
		if ok, _ := fileExists(target); !ok {
			return "missing", target
		}
		log.Err(err).Msgf("failed to read %s", target)
		return "unreadable", target
	}
	return p.StateOf(contents).String(), target
}
