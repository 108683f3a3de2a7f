package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/zigskill/pkg/presenter"
	"github.com/jingkaihe/zigskill/pkg/toolchain"
)

// DetectConfig holds configuration for the detect command
type DetectConfig struct {
	Dir        string
	JSONOutput bool
}

// NewDetectConfig creates a new DetectConfig with default values
func NewDetectConfig() *DetectConfig {
	return &DetectConfig{
		Dir:        ".",
		JSONOutput: false,
	}
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect the Zig version a project targets",
	Long: `Detect which Zig compiler version a project targets.

Detection strategies, tried in order of reliability:
  1. Running 'zig version'
  2. minimum_zig_version in build.zig.zon
  3. API markers in build.zig
  4. Syntax markers in Zig source files

When no strategy matches, the latest supported version is assumed.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getDetectConfigFromFlags(cmd)
		runDetectCommand(ctx, config)
	},
}

func init() {
	defaults := NewDetectConfig()
	detectCmd.Flags().StringP("dir", "d", defaults.Dir, "Project directory to inspect")
	detectCmd.Flags().Bool("json", defaults.JSONOutput, "Output in JSON format")

	rootCmd.AddCommand(withTracing(detectCmd))
}

// getDetectConfigFromFlags extracts detect configuration from command flags
func getDetectConfigFromFlags(cmd *cobra.Command) *DetectConfig {
	config := NewDetectConfig()

	if dir, err := cmd.Flags().GetString("dir"); err == nil {
		config.Dir = dir
	}
	if jsonOutput, err := cmd.Flags().GetBool("json"); err == nil {
		config.JSONOutput = jsonOutput
	}

	return config
}

func runDetectCommand(ctx context.Context, config *DetectConfig) {
	detector, err := toolchain.NewDetector(toolchain.WithProjectDir(config.Dir))
	if err != nil {
		presenter.Error(err, "Failed to create version detector")
		os.Exit(1)
	}

	detection := detector.Detect(ctx)

	if config.JSONOutput {
		data, err := json.MarshalIndent(detection, "", "  ")
		if err != nil {
			presenter.Error(err, "Failed to format detection result")
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}

	fmt.Println(detection.Version)
	presenter.Info(fmt.Sprintf("Confidence: %s (source: %s)", detection.Confidence, detection.Source))
	if detection.Note != "" {
		presenter.Info(detection.Note)
	}
}
