package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/zigskill/pkg/logger"
	"github.com/jingkaihe/zigskill/pkg/presenter"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Set up zigskill configuration",
	Long:  `Set up zigskill configuration with sensible defaults.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		override, _ := cmd.Flags().GetBool("override")

		presenter.Section("zigskill Configuration Setup")

		configDir := filepath.Join(os.Getenv("HOME"), ".zigskill")
		err := os.MkdirAll(configDir, 0755)
		if err != nil {
			presenter.Error(err, "Failed to create config directory")
			logger.G(ctx).WithError(err).WithField("config_dir", configDir).Error("Config directory creation failed")
			return
		}
		logger.G(ctx).WithField("config_dir", configDir).Debug("Config directory created")

		configFile := filepath.Join(configDir, "config.yaml")

		// Check if config already exists (unless override is specified)
		if !override {
			if _, err := os.Stat(configFile); err == nil {
				presenter.Warning(fmt.Sprintf("Configuration file already exists at %s", configFile))
				presenter.Info("To overwrite, use the --override flag or remove the file and run 'zigskill init' again")
				return
			}
		}

		configContent := `log_level: warn
log_format: fmt
index:
    backend: json
tracing:
    enabled: false
    sampler: ratio
    ratio: 1
`

		err = os.WriteFile(configFile, []byte(configContent), 0644)
		if err != nil {
			presenter.Error(err, "Failed to write configuration file")
			logger.G(ctx).WithError(err).WithField("config_file", configFile).Error("Config file creation failed")
			return
		}

		presenter.Success(fmt.Sprintf("Configuration written to %s", configFile))
		presenter.Info("Set ZIGSKILL_SKILL_ROOT or add skill_root to the config to pin the bundle location")
	},
}

func init() {
	initCmd.Flags().Bool("override", false, "Overwrite an existing configuration file")
	rootCmd.AddCommand(initCmd)
}
