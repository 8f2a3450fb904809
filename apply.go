package main

import (
	"errors"
	"os"
	"time"

	"divergent/wxpatch/pkg/patch"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var applyCmd = &cobra.Command{
	Use:   "apply [patch...]",
	Short: "Apply pending patches (backup, rewrite, receipt)",
	Run: func(cmd *cobra.Command, args []string) {
		patches, err := selectPatches(args)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to select patches")
			return
		}
		apply(patches)
	},
}

func init() {
	rootCmd.AddCommand(applyCmd)
	applyCmd.Flags().Bool("dry-run", false, "report what would change, touch nothing")
	applyCmd.Flags().Bool("force", false, "re-apply patches that look applied already")
	_ = viper.BindPFlag("dry_run", applyCmd.Flags().Lookup("dry-run"))
	_ = viper.BindPFlag("force", applyCmd.Flags().Lookup("force"))
}

func apply(patches []patch.Patch) {
	dryRun := viper.GetBool("dry_run")
	force := viper.GetBool("force")

	patchedCnt := 0
	skippedCnt := 0
	errorsCnt := 0
	for i, p := range patches {
		log.Info().Msgf("[%d/%d] Applying %s ...", i+1, len(patches), p.Name)

		target := targetPath(p)
		ok, err := fileExists(target)
		if err != nil {
			log.Err(err).Msgf("Failed to stat %s", target)
			errorsCnt += 1
			continue
		}
		if !ok {
			log.Warn().Msgf("Target %s does not exist, skipping", target)
			skippedCnt += 1
			continue
		}

		contents, err := os.ReadFile(target)
		if err != nil {
			log.Err(err).Msgf("Failed to read %s", target)
			errorsCnt += 1
			continue
		}

		state := p.StateOf(contents)
		if state == patch.StateApplied && !force {
			log.Info().Msgf("%s is already applied", p.Name)
			skippedCnt += 1
			continue
		}

		patched, err := p.Apply(contents)
		if err != nil {
			if errors.Is(err, patch.ErrNeedleNotFound) {
				log.Warn().Err(err).Msgf("%s does not match %s, skipping", p.Name, target)
				skippedCnt += 1
			} else {
				log.Err(err).Msgf("Failed to apply %s", p.Name)
				errorsCnt += 1
			}
			continue
		}

		if dryRun {
			log.Info().Msgf("Would patch %s (%d -> %d bytes)", target, len(contents), len(patched))
			patchedCnt += 1
			continue
		}

		info, err := os.Stat(target)
		if err != nil {
			log.Err(err).Msgf("Failed to stat %s", target)
			errorsCnt += 1
			continue
		}
		backup, err := patch.BackupFile(target, time.Now())
		if err != nil {
			log.Err(err).Msgf("Failed to back up %s, leaving it untouched", target)
			errorsCnt += 1
			continue
		}
		log.Debug().Msgf("Backed up %s to %s", target, backup)

		err = os.WriteFile(target, patched, info.Mode().Perm())
		if err != nil {
			log.Err(err).Msgf("Failed to rewrite %s", target)
			errorsCnt += 1
			continue
		}

		receipt := Receipt{
			Patch:     p.Name,
			Target:    target,
			State:     patch.StateApplied.String(),
			Backup:    backup,
			Note:      p.Note,
			AppliedAt: time.Now().UTC(),
		}
		err = receipt.SaveReceipt(viper.GetString("state_dir"))
		if err != nil {
			log.Err(err).Msg("Failed to save the receipt")
			errorsCnt += 1
			continue
		}
		patchedCnt += 1
	}

	log.Info().Msgf("Patches processed: %d", len(patches))
	log.Info().Msgf("Skipped: %d", skippedCnt)
	log.Info().Msgf("Patched: %d/%d", patchedCnt, len(patches))
	if errorsCnt > 0 {
		log.Error().Msgf("Errors: %d", errorsCnt)
	}
}
