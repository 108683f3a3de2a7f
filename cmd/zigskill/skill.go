package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/zigskill/pkg/presenter"
	"github.com/jingkaihe/zigskill/pkg/skills"
)

var skillCmd = &cobra.Command{
	Use:   "skill",
	Short: "Validate, package, and scaffold skill bundles",
}

var skillValidateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Validate a skill bundle",
	Long: `Validate a skill bundle: SKILL.md frontmatter, naming, expected
directory layout, and file references in the body. Errors fail the
command; warnings are advisory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := skillDirFromArgs(cmd, args)
		if err != nil {
			return err
		}
		return runSkillValidate(cmd.Context(), dir)
	},
}

var skillPackageCmd = &cobra.Command{
	Use:   "package [dir]",
	Short: "Package a skill bundle into a zip archive",
	Long: `Package a skill bundle into a distributable zip archive. The bundle is
validated first unless --skip-validation is given. Dotfiles, Zig build
caches, and existing archives are excluded.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := skillDirFromArgs(cmd, args)
		if err != nil {
			return err
		}

		outputDir, _ := cmd.Flags().GetString("output")
		skipValidation, _ := cmd.Flags().GetBool("skip-validation")

		return runSkillPackage(cmd.Context(), dir, outputDir, skipValidation)
	},
}

var skillInitCmd = &cobra.Command{
	Use:   "init <name>",
	Short: "Scaffold a new skill bundle",
	Long: `Scaffold a new skill bundle: SKILL.md with frontmatter, the expected
directory layout, and the Zig starter templates (basic program, build
configuration, CLI skeleton, library module, C interop).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outputDir, _ := cmd.Flags().GetString("output")
		return runSkillInit(cmd.Context(), args[0], outputDir)
	},
}

var skillInfoCmd = &cobra.Command{
	Use:   "info [dir]",
	Short: "Show skill bundle metadata",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := skillDirFromArgs(cmd, args)
		if err != nil {
			return err
		}
		return runSkillInfo(cmd.Context(), dir)
	},
}

func init() {
	skillCmd.AddCommand(skillValidateCmd)
	skillCmd.AddCommand(skillPackageCmd)
	skillCmd.AddCommand(skillInitCmd)
	skillCmd.AddCommand(skillInfoCmd)

	skillPackageCmd.Flags().StringP("output", "o", "", "Directory to write the archive into (default: alongside the bundle)")
	skillPackageCmd.Flags().Bool("skip-validation", false, "Package without validating first")

	skillInitCmd.Flags().StringP("output", "o", ".", "Directory to create the bundle under")

	rootCmd.AddCommand(skillCmd)
}

// skillDirFromArgs resolves the bundle directory from the positional
// argument, falling back to the skill root resolution
func skillDirFromArgs(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return skillRootFromFlags(cmd)
}

func runSkillValidate(_ context.Context, dir string) error {
	report := skills.NewValidator(dir).Validate()

	for _, warning := range report.Warnings {
		presenter.Warning(warning)
	}
	for _, e := range report.Errors {
		presenter.Error(errors.New(e), "validation")
	}

	if !report.OK() {
		return errors.Errorf("validation failed with %d error(s)", len(report.Errors))
	}

	presenter.Success(fmt.Sprintf("Skill bundle at %s is valid (%d warning(s))", dir, len(report.Warnings)))
	return nil
}

func runSkillPackage(ctx context.Context, dir, outputDir string, skipValidation bool) error {
	if !skipValidation {
		report := skills.NewValidator(dir).Validate()
		for _, warning := range report.Warnings {
			presenter.Warning(warning)
		}
		if err := report.Err(); err != nil {
			return errors.Wrap(err, "refusing to package an invalid bundle")
		}
	}

	opts := []skills.PackagerOption{}
	if outputDir != "" {
		opts = append(opts, skills.WithOutputDir(outputDir))
	}

	packager, err := skills.NewPackager(dir, opts...)
	if err != nil {
		return errors.Wrap(err, "failed to create packager")
	}

	archivePath, err := packager.Package(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to package skill bundle")
	}

	presenter.Success(fmt.Sprintf("Packaged skill bundle to %s", archivePath))
	return nil
}

func runSkillInit(ctx context.Context, name, outputDir string) error {
	skillDir, err := skills.Scaffold(ctx, name, outputDir)
	if err != nil {
		return errors.Wrap(err, "failed to scaffold skill bundle")
	}

	presenter.Success(fmt.Sprintf("Created skill bundle at %s", skillDir))
	presenter.Info("Edit SKILL.md to describe the skill, then add references and recipes")
	return nil
}

func runSkillInfo(_ context.Context, dir string) error {
	skill, err := skills.Load(dir)
	if err != nil {
		return errors.Wrap(err, "failed to load skill bundle")
	}

	presenter.Section("Skill Bundle")
	fmt.Printf("Name:        %s\n", skill.Metadata.Name)
	fmt.Printf("Description: %s\n", skill.Metadata.Description)
	fmt.Printf("Directory:   %s\n", skill.Directory)
	fmt.Fprintln(os.Stdout)

	return nil
}
