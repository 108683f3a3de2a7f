package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/zigskill/pkg/codegen"
	"github.com/jingkaihe/zigskill/pkg/presenter"
)

var generateCmd = &cobra.Command{
	Use:   "generate <spec.json>",
	Short: "Generate Zig code from a JSON spec",
	Long: `Generate Zig source constructs from a JSON spec file.

Supported construct types: struct, enum, union, error_set, test,
iterator, and builder. The spec file may hold a single construct, an
array of constructs, or an object with "specs" and optional "imports".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outputPath, _ := cmd.Flags().GetString("output")
		return runGenerate(args[0], outputPath)
	},
}

func init() {
	generateCmd.Flags().StringP("output", "o", "", "Write the generated Zig source to a file instead of stdout")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(specPath, outputPath string) error {
	data, err := os.ReadFile(specPath)
	if err != nil {
		return errors.Wrap(err, "failed to read spec file")
	}

	file, err := codegen.ParseSpecFile(data)
	if err != nil {
		return errors.Wrapf(err, "invalid spec file %s", specPath)
	}

	rendered, err := codegen.NewGenerator().Render(file)
	if err != nil {
		return errors.Wrap(err, "failed to generate Zig code")
	}

	if outputPath == "" {
		fmt.Print(rendered)
		return nil
	}

	if err := os.WriteFile(outputPath, []byte(rendered), 0644); err != nil {
		return errors.Wrapf(err, "failed to write %s", outputPath)
	}
	presenter.Success(fmt.Sprintf("Generated %s", outputPath))
	return nil
}
