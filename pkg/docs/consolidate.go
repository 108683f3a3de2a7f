package docs

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/jingkaihe/zigskill/pkg/logger"
)

//go:embed templates/version-differences.md
var versionDifferencesTemplate string

// Output files produced alongside the themed groups
const (
	keywordReferenceFile   = "50-keyword-reference.md"
	quickReferenceFile     = "quick-reference.md"
	versionDifferencesFile = "version-differences.md"
)

// Group is one themed consolidation target: a set of split
// documentation files merged into a single output file
type Group struct {
	Output      string   `yaml:"output"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Files       []string `yaml:"files"`
}

// DefaultGroups returns the standard themed grouping of the split
// documentation set
func DefaultGroups() []Group {
	return []Group{
		{
			Output:      "core-language.md",
			Title:       "Core Language Features",
			Description: "Basic Zig syntax, types, literals, variables, and operators",
			Files: []string{
				"01-introduction.md", "03-hello-world.md", "04-comments.md",
				"05-values.md", "07-variables.md", "08-integers.md",
				"09-floats.md", "10-operators.md",
			},
		},
		{
			Output:      "data-structures.md",
			Title:       "Data Structures",
			Description: "How to organize and structure data in Zig",
			Files: []string{
				"11-arrays.md", "12-vectors.md", "13-pointers.md",
				"14-slices.md", "15-struct.md", "16-enum.md",
				"17-union.md", "18-opaque.md",
			},
		},
		{
			Output:      "control-flow.md",
			Title:       "Control Flow",
			Description: "Program flow control structures and patterns",
			Files: []string{
				"19-blocks.md", "20-switch.md", "21-while.md",
				"22-for.md", "23-if.md", "24-defer.md",
			},
		},
		{
			Output:      "functions-errors.md",
			Title:       "Functions and Error Handling",
			Description: "Function design, error handling patterns, and type conversions",
			Files: []string{
				"25-unreachable.md", "26-noreturn.md", "27-functions.md",
				"28-errors.md", "29-optionals.md", "30-casting.md",
			},
		},
		{
			Output:      "memory-management.md",
			Title:       "Memory Management",
			Description: "Memory allocation, ownership, and optimization",
			Files: []string{
				"31-zero-bit-types.md", "32-result-location-semantics.md", "41-memory.md",
			},
		},
		{
			Output:      "comptime-generics.md",
			Title:       "Compile-Time Programming",
			Description: "Compile-time code execution, generics, and metaprogramming",
			Files: []string{
				"33-comptime.md", "42-compile-variables.md",
			},
		},
		{
			Output:      "c-interop.md",
			Title:       "C Interoperability",
			Description: "Interfacing with C code and cross-compilation",
			Files: []string{
				"45-c.md", "46-webassembly.md", "47-targets.md",
			},
		},
		{
			Output:      "build-system.md",
			Title:       "Build System",
			Description: "Building projects with Zig",
			Files: []string{
				"38-build-mode.md", "39-single-threaded-builds.md",
				"43-compilation-model.md", "44-zig-build-system.md",
			},
		},
		{
			Output:      "testing-debugging.md",
			Title:       "Testing and Code Quality",
			Description: "Testing framework, undefined behavior, and best practices",
			Files: []string{
				"06-zig-test.md", "40-illegal-behavior.md",
				"48-style-guide.md", "49-source-encoding.md",
			},
		},
		{
			Output:      "advanced-topics.md",
			Title:       "Advanced Topics",
			Description: "Standard library internals, builtins, assembly, and atomics",
			Files: []string{
				"02-zig-standard-library.md", "34-assembly.md",
				"35-atomics.md", "37-builtin-functions.md",
			},
		},
	}
}

// LoadGroupsFile reads a custom consolidation grouping from a YAML file
func LoadGroupsFile(path string) ([]Group, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read groups file")
	}

	var parsed struct {
		Groups []Group `yaml:"groups"`
	}
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, errors.Wrap(err, "failed to parse groups file")
	}

	if len(parsed.Groups) == 0 {
		return nil, errors.New("groups file defines no groups")
	}
	for i, g := range parsed.Groups {
		if g.Output == "" {
			return nil, errors.Errorf("group %d has no output file", i)
		}
		if len(g.Files) == 0 {
			return nil, errors.Errorf("group %s lists no source files", g.Output)
		}
	}

	return parsed.Groups, nil
}

// Consolidator merges split documentation files into themed references
type Consolidator struct {
	sourceDir string
	outputDir string
	groups    []Group
}

// ConsolidatorOption is a function that configures a Consolidator
type ConsolidatorOption func(*Consolidator)

// WithGroups overrides the default consolidation grouping
func WithGroups(groups []Group) ConsolidatorOption {
	return func(c *Consolidator) {
		c.groups = groups
	}
}

// NewConsolidator creates a consolidator reading split files from
// sourceDir and writing themed references to outputDir
func NewConsolidator(sourceDir, outputDir string, opts ...ConsolidatorOption) *Consolidator {
	c := &Consolidator{
		sourceDir: sourceDir,
		outputDir: outputDir,
		groups:    DefaultGroups(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Consolidate writes every themed group plus the quick reference and
// version differences files
func (c *Consolidator) Consolidate(ctx context.Context) error {
	log := logger.G(ctx)

	if info, err := os.Stat(c.sourceDir); err != nil || !info.IsDir() {
		return errors.Errorf("source directory not found: %s", c.sourceDir)
	}
	if err := os.MkdirAll(c.outputDir, 0755); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}

	for _, group := range c.groups {
		content, err := c.consolidateGroup(ctx, group)
		if err != nil {
			return err
		}

		path := filepath.Join(c.outputDir, group.Output)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return errors.Wrapf(err, "failed to write %s", group.Output)
		}

		log.WithField("file", group.Output).WithField("bytes", len(content)).Info("Created consolidated reference")
	}

	if err := c.writeQuickReference(ctx); err != nil {
		return err
	}
	if err := c.writeVersionDifferences(); err != nil {
		return err
	}

	log.WithField("dir", c.outputDir).Info("Consolidation complete")
	return nil
}

// processedSection is one source file after consolidation processing
type processedSection struct {
	Title string
	Body  string
}

// consolidateGroup merges the group's source files into a single
// document with a title, description, and section index. Missing
// source files are skipped with a warning.
func (c *Consolidator) consolidateGroup(ctx context.Context, group Group) (string, error) {
	var sections []processedSection

	for _, filename := range group.Files {
		content, err := os.ReadFile(filepath.Join(c.sourceDir, filename))
		if err != nil {
			if os.IsNotExist(err) {
				logger.G(ctx).WithField("file", filename).Warn("Source file not found, skipping")
				continue
			}
			return "", errors.Wrapf(err, "failed to read %s", filename)
		}

		body, title := processContent(string(content), filename)
		sections = append(sections, processedSection{Title: title, Body: body})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", group.Title)
	fmt.Fprintf(&b, "*%s*\n\n", group.Description)

	var index []string
	for _, s := range sections {
		if s.Title != "" {
			index = append(index, fmt.Sprintf("- [%s](#%s)", s.Title, slugify(s.Title)))
		}
	}
	if len(index) > 0 {
		b.WriteString("Contents:\n\n")
		b.WriteString(strings.Join(index, "\n"))
		b.WriteString("\n\n")
	}

	b.WriteString("---\n")
	for _, s := range sections {
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(s.Body))
		b.WriteString("\n\n---\n")
	}

	return b.String(), nil
}

// processContent prepares one split file for consolidation: the first
// heading becomes the section heading annotated with its source file,
// every other heading is demoted one level, and links to sibling files
// become section anchors. Code fences are left untouched.
func processContent(content, filename string) (string, string) {
	lines := strings.Split(content, "\n")
	processed := make([]string, 0, len(lines)+2)

	var title string
	inCodeBlock := false
	firstHeading := true

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			processed = append(processed, line)
			continue
		}
		if inCodeBlock {
			processed = append(processed, line)
			continue
		}

		level := headingLevel(line)

		if firstHeading && level > 0 {
			firstHeading = false
			title = strings.TrimSpace(line[level:])
			processed = append(processed, fmt.Sprintf("<!-- Source: %s -->", filename), "", "## "+title)
			continue
		}

		if level > 0 && level < 6 {
			line = "#" + line
		}

		processed = append(processed, rewriteFileLinks(line))
	}

	return strings.Join(processed, "\n"), title
}

// headingLevel returns the ATX heading level of a line, or 0 when the
// line is not a heading
func headingLevel(line string) int {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level >= len(line) || line[level] != ' ' {
		return 0
	}
	return level
}

var (
	markdownLinkPattern = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	numberPrefixPattern = regexp.MustCompile(`^\d+-`)
)

// rewriteFileLinks converts links that target sibling split files into
// anchors inside the consolidated document
func rewriteFileLinks(line string) string {
	return markdownLinkPattern.ReplaceAllStringFunc(line, func(match string) string {
		m := markdownLinkPattern.FindStringSubmatch(match)
		text, link := m[1], m[2]

		if strings.HasPrefix(link, "http") || strings.Contains(link, "/") {
			return match
		}

		idx := strings.Index(link, ".md")
		if idx < 0 {
			return match
		}

		anchor := numberPrefixPattern.ReplaceAllString(link[:idx], "")
		return fmt.Sprintf("[%s](#%s)", text, anchor)
	})
}

// writeQuickReference extracts the keyword table from the split set
// into quick-reference.md
func (c *Consolidator) writeQuickReference(ctx context.Context) error {
	lines := []string{"# Quick Reference", ""}

	content, err := os.ReadFile(filepath.Join(c.sourceDir, keywordReferenceFile))
	if err != nil {
		logger.G(ctx).WithField("file", keywordReferenceFile).Warn("Keyword reference not found, writing header only")
	} else {
		keep := false
		for _, line := range strings.Split(string(content), "\n") {
			if !keep && (strings.Contains(line, "|") || strings.HasPrefix(line, "##")) {
				keep = true
			}
			if keep {
				lines = append(lines, line)
			}
		}
	}

	out := strings.TrimRight(strings.Join(lines, "\n"), "\n") + "\n"
	return errors.Wrap(
		os.WriteFile(filepath.Join(c.outputDir, quickReferenceFile), []byte(out), 0644),
		"failed to write quick reference",
	)
}

// writeVersionDifferences emits the version differences tracking file
func (c *Consolidator) writeVersionDifferences() error {
	return errors.Wrap(
		os.WriteFile(filepath.Join(c.outputDir, versionDifferencesFile), []byte(versionDifferencesTemplate), 0644),
		"failed to write version differences",
	)
}
