package main

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var verbosity int

var rootCmd = &cobra.Command{
	Use:          "wxpatch",
	Short:        "Hand-patches for the Divergent weather app and its backend",
	Long:         "wxpatch collects the one-off maintenance edits we keep applying to the weather app's Flutter client and its backend: literal search-and-replace with a timestamped backup before every rewrite, plus the git push that makes the host redeploy.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "more logging (repeatable)")
	rootCmd.PersistentFlags().String("backend-root", "", "checkout of the backend repo")
	rootCmd.PersistentFlags().String("app-root", "", "checkout of the mobile app repo")
	rootCmd.PersistentFlags().String("state-dir", ".wxpatch", "where apply/revert receipts are kept")
	rootCmd.PersistentFlags().StringSlice("patchset", nil, "extra patchset YAML file (repeatable)")

	_ = viper.BindPFlag("backend_root", rootCmd.PersistentFlags().Lookup("backend-root"))
	_ = viper.BindPFlag("app_root", rootCmd.PersistentFlags().Lookup("app-root"))
	_ = viper.BindPFlag("state_dir", rootCmd.PersistentFlags().Lookup("state-dir"))
	_ = viper.BindPFlag("patchsets", rootCmd.PersistentFlags().Lookup("patchset"))
}

func initConfig() {
	// .env first so the config file can reference the same variables
	_ = godotenv.Load()

	viper.SetConfigName("wxpatch")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home + "/.config/wxpatch")
	}

	viper.SetDefault("git_remote", "origin")
	viper.SetDefault("git_branch", "main")
	viper.SetDefault("health_url", "https://divergent-wx-backend.onrender.com/health")
	viper.SetDefault("health_wait", "5m")

	viper.SetEnvPrefix("WXPATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Err(err).Msg("failed to read config file")
		}
	}
}

func setupLogging() {
	level := zerolog.InfoLevel
	switch {
	case verbosity == 1:
		level = zerolog.DebugLevel
	case verbosity >= 2:
		level = zerolog.TraceLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
