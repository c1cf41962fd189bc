package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rendermodes/internal/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig string
	flagEnv    string
)

var rootCmd = &cobra.Command{
	Use:   "rendermodes",
	Short: "News rendering modes demo",
	Long: "rendermodes serves one mock news dataset through five rendering strategies " +
		"(csr, ssr, ssg, isr, mixed) and ships a client to compare how each one delivers content.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&flagEnv, "env-file", "", "load environment variables from this file (default .env)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(feedCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "rendermodes %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

// loadConfig reads .env files first so they can feed the env overrides.
func loadConfig() (*config.Config, error) {
	var envFiles []string
	if flagEnv != "" {
		envFiles = append(envFiles, flagEnv)
	}
	if err := config.LoadDotEnv(envFiles...); err != nil {
		return nil, err
	}
	return config.Load(flagConfig)
}
