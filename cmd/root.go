package cmd

import (
	"fmt"
	"os"

	"github.com/Karshmistry/CrimAII/internal/config"
	"github.com/Karshmistry/CrimAII/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "crimai",
	Short: "Face-matching record service for registered criminal cases",
	Long: `CrimAI keeps a gallery of reference face images with their case records,
matches probe images against the gallery with a face verification oracle
and records every detection.

Run "crimai serve" for the HTTP API used by the dashboard, or use the
match, register and import commands from the terminal.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
	logging.Setup(config.Load().Log)
}
