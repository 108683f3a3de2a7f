package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/zigskill/pkg/presenter"
	"github.com/jingkaihe/zigskill/pkg/references"
	"github.com/jingkaihe/zigskill/pkg/toolchain"
)

// RefsConfig holds configuration for the refs command
type RefsConfig struct {
	Version    string
	Dir        string
	SkillRoot  string
	JSONOutput bool
	Full       bool
}

// NewRefsConfig creates a new RefsConfig with default values
func NewRefsConfig() *RefsConfig {
	return &RefsConfig{
		Dir: ".",
	}
}

var refsCmd = &cobra.Command{
	Use:   "refs",
	Short: "Resolve the reference documentation path for a Zig version",
	Long: `Resolve which reference documentation subtree serves a Zig version.

Versions without their own reference snapshot fall back to the nearest
documented release, with warnings describing the differences to expect.
When --version is omitted the version is detected from the project
directory.

The relative path is printed to stdout so scripts can consume it; the
command exits non-zero when the reference directory does not exist.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		config, err := getRefsConfigFromFlags(cmd)
		if err != nil {
			return err
		}
		return runRefsCommand(ctx, config)
	},
}

func init() {
	defaults := NewRefsConfig()
	refsCmd.Flags().StringP("version", "v", "", "Zig version to resolve (default: auto-detect)")
	refsCmd.Flags().StringP("dir", "d", defaults.Dir, "Project directory for version auto-detection")
	refsCmd.Flags().Bool("json", false, "Output in JSON format")
	refsCmd.Flags().Bool("full", false, "Show the full resolution details")

	rootCmd.AddCommand(refsCmd)
}

// getRefsConfigFromFlags extracts refs configuration from command flags
func getRefsConfigFromFlags(cmd *cobra.Command) (*RefsConfig, error) {
	config := NewRefsConfig()

	if version, err := cmd.Flags().GetString("version"); err == nil {
		config.Version = version
	}
	if dir, err := cmd.Flags().GetString("dir"); err == nil {
		config.Dir = dir
	}
	if jsonOutput, err := cmd.Flags().GetBool("json"); err == nil {
		config.JSONOutput = jsonOutput
	}
	if full, err := cmd.Flags().GetBool("full"); err == nil {
		config.Full = full
	}

	root, err := skillRootFromFlags(cmd)
	if err != nil {
		return nil, err
	}
	config.SkillRoot = root

	return config, nil
}

func runRefsCommand(ctx context.Context, config *RefsConfig) error {
	resolver, err := references.NewResolver(config.SkillRoot)
	if err != nil {
		presenter.Error(err, "Failed to create reference resolver")
		os.Exit(1)
	}

	var resolution references.Resolution
	if config.Version != "" {
		resolution = resolver.ResolveDetection(toolchain.Detection{
			Version:    config.Version,
			Confidence: toolchain.ConfidenceExplicit,
			Source:     "command_line",
		})
	} else {
		detector, err := toolchain.NewDetector(toolchain.WithProjectDir(config.Dir))
		if err != nil {
			presenter.Error(err, "Failed to create version detector")
			os.Exit(1)
		}
		resolution = resolver.ResolveDetection(detector.Detect(ctx))
	}

	switch {
	case config.JSONOutput:
		data, err := json.MarshalIndent(resolution, "", "  ")
		if err != nil {
			presenter.Error(err, "Failed to format resolution")
			os.Exit(1)
		}
		fmt.Println(string(data))
	case config.Full:
		printFullResolution(resolution)
	default:
		for _, warning := range resolution.Warnings {
			presenter.Warning(warning)
		}
		fmt.Println(resolution.Path)
	}

	if !resolution.Exists {
		os.Exit(1)
	}
	return nil
}

func printFullResolution(resolution references.Resolution) {
	presenter.Section("Reference Resolution")
	fmt.Printf("Zig version:       %s\n", resolution.Version)
	fmt.Printf("Reference version: %s\n", resolution.ReferenceVersion)
	fmt.Printf("Path:              %s\n", resolution.Path)
	fmt.Printf("Absolute path:     %s\n", resolution.AbsolutePath)
	fmt.Printf("Exists:            %t\n", resolution.Exists)
	if resolution.Confidence != "" {
		fmt.Printf("Detection:         %s (source: %s)\n", resolution.Confidence, resolution.Source)
	}
	if resolution.Fallback {
		fmt.Printf("Fallback:          %s\n", resolution.FallbackReason)
	}
	for _, warning := range resolution.Warnings {
		presenter.Warning(warning)
	}
}
