package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/devjibs/cvagent/internal/config"
	"github.com/devjibs/cvagent/internal/server"
)

var (
	servePort       int
	serveConfigPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for running the tailoring pipeline, polling run status, and downloading generated documents.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.json file")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	var cfg config.Config
	if serveConfigPath != "" {
		loadedCfg, err := config.LoadConfig(serveConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := loadedCfg.Validate(); err != nil {
			return err
		}
		cfg = *loadedCfg
	}
	cfg = cfg.MergeWithDefaults(*config.FromEnv())
	if cmd.Flags().Changed("port") || cfg.Port == 0 {
		cfg.Port = servePort
	}

	// Served sessions must survive lookups across requests, so a signing
	// secret is required up front rather than generated per process.
	if cfg.TokenSecret == "" {
		return fmt.Errorf("%s environment variable is required", config.EnvTokenSecret)
	}

	rt, err := buildRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	srv := server.New(server.Config{Port: cfg.Port}, rt.orchestrator, rt.sessions, rt.blobs)
	return srv.Start()
}
