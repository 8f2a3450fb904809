package main

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"divergent/wxpatch/pkg/patch"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report [patch...]",
	Short: "Write a TSV snapshot of every patch's state",
	Run: func(cmd *cobra.Command, args []string) {
		patches, err := selectPatches(args)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to select patches")
			return
		}
		report(patches)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func report(patches []patch.Patch) {
	reportFilename := "report.tsv"
	log.Info().Msgf("Generating %s for %d patch(es)...", reportFilename, len(patches))

	f, err := os.Create(reportFilename)
	if err != nil {
		log.Err(err).Msg("failed to create report file")
		return
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()

	_, _ = fmt.Fprintln(w, "patch\tstate\ttarget\tlast_backup\tnote")
	reportedCnt := 0
	for _, p := range patches {
		state, target := checkOne(p)
		lastBackup := ""
		if backup, err := patch.LatestBackup(target); err == nil && backup != "" {
			if stamp, err := patch.StampFromBackup(backup); err == nil {
				lastBackup = stamp.UTC().Format(time.DateTime)
			}
		}
		_, err = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.Name, state, target, lastBackup, p.Note)
		if err != nil {
			log.Err(err).Msg("Failed to write to the report file")
			continue
		}
		reportedCnt += 1
	}

	log.Info().Msgf("Reported %d/%d", reportedCnt, len(patches))
}
