package main

import (
	"github.com/ladupla/portalsync"
	"github.com/spf13/cobra"
)

var (
	cfgDBPath    string
	cfgRemoteURL string
	cfgAPIKey    string
	cfgDebug     bool
)

var rootCmd = &cobra.Command{
	Use:   "portalctl",
	Short: "portalctl - La Dupla client portal data CLI",
	Long: `portalctl manages the local-first data layer of the La Dupla client
portal: the local cache, its remote mirror, and portal accounts.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgDBPath, "db-path", "", "Path to local cache database (default: ~/.portalsync/portal.db)")
	rootCmd.PersistentFlags().StringVar(&cfgRemoteURL, "remote-url", "", "Base URL of the remote mirror backend")
	rootCmd.PersistentFlags().StringVar(&cfgAPIKey, "api-key", "", "API key for the remote mirror")
	rootCmd.PersistentFlags().BoolVar(&cfgDebug, "debug", false, "Enable wire-level debug logging")

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(seedAdminCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig() portalsync.Config {
	cfg := portalsync.DefaultConfig()

	env := portalsync.ConfigFromEnv()
	if env.LocalPath != "" {
		cfg.LocalPath = env.LocalPath
	}
	if env.RemoteURL != "" {
		cfg.RemoteURL = env.RemoteURL
	}
	if env.APIKey != "" {
		cfg.APIKey = env.APIKey
	}
	if env.Debug {
		cfg.Debug = true
	}
	if env.DebugLogPath != "" {
		cfg.DebugLogPath = env.DebugLogPath
	}

	// Flags win over environment.
	if cfgDBPath != "" {
		cfg.LocalPath = cfgDBPath
	}
	if cfgRemoteURL != "" {
		cfg.RemoteURL = cfgRemoteURL
	}
	if cfgAPIKey != "" {
		cfg.APIKey = cfgAPIKey
	}
	if cfgDebug {
		cfg.Debug = true
	}

	return cfg
}

func openPortal() (*portalsync.Portal, error) {
	return portalsync.New(loadConfig())
}
