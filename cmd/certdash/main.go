package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"certdash/config"
	"certdash/logging"
)

// Version is set at build time.
var Version = "dev"

var (
	configPath string
	apiURL     string
	webPort    int
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "certdash",
	Short: "Certificate analytics dashboard",
	Long: `certdash serves a server-rendered dashboard over a certificate analytics API.

Use this CLI to:
- Run the dashboard web server
- Check the configuration and the analytics API
- Write a default configuration file`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "certdash.yaml", "path to config file")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "analytics API base URL (overrides api.base_url)")
	rootCmd.PersistentFlags().IntVar(&webPort, "port", 0, "web server port (overrides web.port)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig reads the config file and applies the flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.API.BaseURL = apiURL
	}
	if flags.Changed("port") {
		cfg.Web.Port = webPort
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
