package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jingkaihe/zigskill/pkg/logger"
	"github.com/jingkaihe/zigskill/pkg/presenter"
	"github.com/jingkaihe/zigskill/pkg/webui"
)

// ServeConfig holds configuration for the serve command
type ServeConfig struct {
	Host      string
	Port      int
	SkillRoot string
	Backend   string
}

// NewServeConfig creates a new ServeConfig with default values
func NewServeConfig() *ServeConfig {
	return &ServeConfig{
		Host: "localhost",
		Port: 8080,
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local skill bundle API server",
	Long: `Start a local HTTP server exposing the skill bundle read-only: the
recipe index, topic and tag listings, and reference path resolution.
Editor and agent integrations can query the bundle over HTTP instead of
shelling out to the CLI.

The server will be available at http://localhost:8080 by default.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		config, err := getServeConfigFromFlags(cmd)
		if err != nil {
			return err
		}
		runServeCommand(ctx, config)
		return nil
	},
}

func init() {
	defaults := NewServeConfig()
	serveCmd.Flags().String("host", defaults.Host, "Host to bind the server to")
	serveCmd.Flags().Int("port", defaults.Port, "Port to bind the server to")

	rootCmd.AddCommand(serveCmd)
}

// getServeConfigFromFlags extracts serve configuration from command flags
func getServeConfigFromFlags(cmd *cobra.Command) (*ServeConfig, error) {
	config := NewServeConfig()

	if host, err := cmd.Flags().GetString("host"); err == nil {
		config.Host = host
	}
	if port, err := cmd.Flags().GetInt("port"); err == nil {
		config.Port = port
	}

	root, err := skillRootFromFlags(cmd)
	if err != nil {
		return nil, err
	}
	config.SkillRoot = root
	config.Backend = viper.GetString("index.backend")

	return config, nil
}

// validateServeConfig validates the serve configuration
func validateServeConfig(config *ServeConfig) error {
	if config.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}

	// Check if host is a valid hostname or IP address
	if config.Host != "localhost" && config.Host != "0.0.0.0" {
		if ip := net.ParseIP(config.Host); ip == nil {
			// Not an IP, check if it's a valid hostname
			if strings.Contains(config.Host, " ") || strings.Contains(config.Host, ":") {
				return fmt.Errorf("invalid host: %s", config.Host)
			}
		}
	}

	if config.Port < 1 || config.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", config.Port)
	}

	// Check for privileged ports
	if config.Port < 1024 {
		logger.G(context.Background()).WithField("port", config.Port).Warn("using privileged port (< 1024) may require elevated permissions")
	}

	return nil
}

// runServeCommand starts the skill bundle API server
func runServeCommand(ctx context.Context, config *ServeConfig) {
	if err := validateServeConfig(config); err != nil {
		presenter.Error(err, "invalid server configuration")
		os.Exit(1)
	}

	logger.G(ctx).WithFields(map[string]interface{}{
		"host": config.Host,
		"port": config.Port,
		"root": config.SkillRoot,
	}).Info("Starting skill API server")

	serverConfig := &webui.ServerConfig{
		Host:      config.Host,
		Port:      config.Port,
		SkillRoot: config.SkillRoot,
		Backend:   config.Backend,
	}

	server, err := webui.NewServer(ctx, serverConfig)
	if err != nil {
		presenter.Error(err, "failed to create API server")
		os.Exit(1)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			logger.G(ctx).WithError(closeErr).Error("failed to close API server")
		}
	}()

	// Create a context that cancels on interrupt signals
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	presenter.Success(fmt.Sprintf("Skill API server starting on http://%s:%d", config.Host, config.Port))
	presenter.Info("Press Ctrl+C to stop the server")

	if err := server.Start(ctx); err != nil {
		logger.G(ctx).WithError(err).Error("API server error")
		presenter.Error(err, "API server failed")
		os.Exit(1)
	}

	presenter.Info("API server stopped")
}
