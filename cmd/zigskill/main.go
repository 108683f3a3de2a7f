package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jingkaihe/zigskill/pkg/logger"
	"github.com/jingkaihe/zigskill/pkg/presenter"
	"github.com/jingkaihe/zigskill/pkg/skills"
)

func init() {
	// Environment variables
	viper.SetEnvPrefix("ZIGSKILL")
	viper.AutomaticEnv()

	// Config file support
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.zigskill")
	viper.AddConfigPath(".")

	// Load config file if it exists (ignore errors if it doesn't)
	_ = viper.ReadInConfig()

	viper.SetDefault("log_level", "warn")
	viper.SetDefault("log_format", "fmt")
}

var rootCmd = &cobra.Command{
	Use:   "zigskill",
	Short: "Zig skill bundle tooling",
	Long: `zigskill manages a Zig programming skill bundle: reference documentation
organized per compiler version, a cookbook of worked recipes, and starter
code templates.

It detects which Zig version a project targets, resolves the matching
reference documentation, and indexes, queries, validates, and packages
the bundle.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := logger.SetLogLevel(viper.GetString("log_level")); err != nil {
			presenter.Warning(fmt.Sprintf("Invalid log level: %s", viper.GetString("log_level")))
		}
		logger.SetLogFormat(viper.GetString("log_format"))
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
		os.Exit(1)
	},
}

// skillRootFromFlags resolves the skill bundle root: the --root flag (or
// ZIGSKILL_SKILL_ROOT / config) wins, otherwise walk up from the working
// directory looking for SKILL.md, otherwise the working directory itself.
func skillRootFromFlags(cmd *cobra.Command) (string, error) {
	if root, err := cmd.Flags().GetString("root"); err == nil && root != "" {
		return root, nil
	}
	if root := viper.GetString("skill_root"); root != "" {
		return root, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if root, err := skills.FindRoot(cwd); err == nil {
		return root, nil
	}
	return cwd, nil
}

func main() {
	// Add global flags
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "fmt", "Log format (fmt, json)")
	rootCmd.PersistentFlags().String("root", "", "Skill bundle root directory (default: nearest SKILL.md)")

	// Bind flags to viper
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("skill_root", rootCmd.PersistentFlags().Lookup("root"))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdown, err := initTracing(ctx)
	if err != nil {
		logger.G(ctx).WithError(err).Warn("failed to initialize tracing")
	} else {
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.G(ctx).WithError(err).Debug("failed to shut down tracer")
			}
		}()
	}

	// Execute
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
