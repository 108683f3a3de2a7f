package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/zigskill/pkg/docs"
	"github.com/jingkaihe/zigskill/pkg/presenter"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Convert and consolidate reference documentation",
}

var docsConvertCmd = &cobra.Command{
	Use:   "convert <input.html|dir>",
	Short: "Convert Zig release documentation from HTML to markdown",
	Long: `Convert Zig release documentation from HTML to per-section markdown
files. The input is a single HTML file or a directory of them; each
top-level section becomes its own numbered markdown file plus a README
index.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outputDir, _ := cmd.Flags().GetString("output")
		version, _ := cmd.Flags().GetString("zig-version")

		converter := docs.NewConverter()
		if err := converter.ConvertPath(cmd.Context(), args[0], outputDir, version); err != nil {
			return errors.Wrap(err, "failed to convert documentation")
		}

		presenter.Success(fmt.Sprintf("Converted documentation into %s", outputDir))
		return nil
	},
}

var docsConsolidateCmd = &cobra.Command{
	Use:   "consolidate",
	Short: "Consolidate per-chapter markdown into themed reference files",
	Long: `Merge numbered per-chapter markdown files into themed reference files
(core language, data structures, memory management, and so on), each
with a generated section index. Missing chapters are skipped with a
warning.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sourceDir, _ := cmd.Flags().GetString("source")
		outputDir, _ := cmd.Flags().GetString("output")
		groupsPath, _ := cmd.Flags().GetString("groups")

		opts := []docs.ConsolidatorOption{}
		if groupsPath != "" {
			groups, err := docs.LoadGroupsFile(groupsPath)
			if err != nil {
				return errors.Wrap(err, "failed to load consolidation groups")
			}
			opts = append(opts, docs.WithGroups(groups))
		}

		consolidator := docs.NewConsolidator(sourceDir, outputDir, opts...)
		if err := consolidator.Consolidate(cmd.Context()); err != nil {
			return errors.Wrap(err, "failed to consolidate documentation")
		}

		presenter.Success(fmt.Sprintf("Consolidated references into %s", outputDir))
		return nil
	},
}

func init() {
	docsConvertCmd.Flags().StringP("output", "o", "references/latest", "Output directory for converted markdown")
	docsConvertCmd.Flags().String("zig-version", "", "Zig version the documentation describes (default: inferred from the path)")

	docsConsolidateCmd.Flags().StringP("source", "s", "references/latest", "Directory of per-chapter markdown files")
	docsConsolidateCmd.Flags().StringP("output", "o", "references/consolidated", "Output directory for themed reference files")
	docsConsolidateCmd.Flags().String("groups", "", "YAML file overriding the consolidation groups")

	docsCmd.AddCommand(docsConvertCmd)
	docsCmd.AddCommand(docsConsolidateCmd)
	rootCmd.AddCommand(docsCmd)
}
