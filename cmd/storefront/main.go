package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"storefront/pkg/logger"
)

// Version is injected at build time with -ldflags "-X main.Version=...".
var Version = "dev"

type rootOptions struct {
	configPath string
	envFile    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Small-business site backend: contact form, gallery and admin API",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnv(opts.envFile)
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to config.yaml (default ./config.yaml if present)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Dotenv file loaded before configuration")

	root.AddCommand(
		newServeCmd(opts),
		newGalleryCmd(opts),
		newSeedCmd(opts),
		newBenchCmd(),
	)
	return root
}

// loadEnv reads a dotenv file without overriding variables already set.
// A missing default file is not an error.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if path == ".env" {
			return nil
		}
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return err
	}
	logger.LogInfo("Loaded environment from %s", path)
	return nil
}
