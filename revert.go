package main

import (
	"time"

	"divergent/wxpatch/pkg/patch"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var revertCmd = &cobra.Command{
	Use:   "revert [patch...]",
	Short: "Restore each patch's target from its newest backup",
	Run: func(cmd *cobra.Command, args []string) {
		patches, err := selectPatches(args)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to select patches")
			return
		}
		revert(patches)
	},
}

func init() {
	rootCmd.AddCommand(revertCmd)
}

func revert(patches []patch.Patch) {
	revertedCnt := 0
	skippedCnt := 0
	errorsCnt := 0
	for i, p := range patches {
		log.Info().Msgf("[%d/%d] Reverting %s ...", i+1, len(patches), p.Name)

		target := targetPath(p)
		restored, err := patch.RestoreBackup(target)
		if err != nil {
			log.Err(err).Msgf("Failed to restore %s", target)
			errorsCnt += 1
			continue
		}
		if restored == "" {
			log.Warn().Msgf("No backups of %s, nothing to revert", target)
			skippedCnt += 1
			continue
		}

		stamp, err := patch.StampFromBackup(restored)
		if err != nil {
			log.Debug().Err(err).Msg("could not parse the backup stamp")
		} else {
			log.Info().Msgf("Restored %s from backup taken %s", target, humanizeTime(stamp))
		}

		state, _ := checkOne(p)
		receipt := Receipt{
			Patch:     p.Name,
			Target:    target,
			State:     state,
			Backup:    restored,
			Reverted:  true,
			Note:      p.Note,
			AppliedAt: time.Now().UTC(),
		}
		err = receipt.SaveReceipt(viper.GetString("state_dir"))
		if err != nil {
			log.Err(err).Msg("Failed to save the receipt")
			errorsCnt += 1
			continue
		}
		revertedCnt += 1
	}

	log.Info().Msgf("Reverted %d/%d", revertedCnt, len(patches))
	if skippedCnt > 0 {
		log.Info().Msgf("Skipped: %d", skippedCnt)
	}
	if errorsCnt > 0 {
		log.Error().Msgf("Errors: %d", errorsCnt)
	}
}
