package cmd

import (
	"fmt"
	"os"

	"Playshare/config"
	"Playshare/logger"
	"Playshare/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "playshare",
	Short: "Playshare lets users publish playlists and share songs.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start(loadConfig())
	},
}

// loadConfig reads the configuration and initialises the global logger from it.
func loadConfig() *config.Config {
	cfg := config.Load()
	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAgeDays,
		Compress:   cfg.LogCompress,
	})
	return cfg
}

// Execute executes the root command.
func Execute() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
