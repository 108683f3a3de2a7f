package skills

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Body length thresholds for SKILL.md quality warnings
const (
	minBodyLength = 100
	maxBodyLength = 20000
)

var (
	skillNamePattern = regexp.MustCompile(`^[a-z0-9-]+$`)

	secondPersonPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\byou\s+should\b`),
		regexp.MustCompile(`(?i)\byou\s+can\b`),
		regexp.MustCompile(`(?i)\byou\s+will\b`),
		regexp.MustCompile(`(?i)\byou\s+must\b`),
		regexp.MustCompile(`(?i)\byour\s+`),
	}

	fileReferencePattern = regexp.MustCompile("`((?:scripts|references|recipes|assets)/[^`]+)`")
)

// expectedDirs are the optional bundle directories checked for shape
var expectedDirs = []string{"scripts", "references", "recipes", "assets"}

// Report holds the results of validating a skill bundle
type Report struct {
	Errors   []string
	Warnings []string
}

// OK reports whether validation passed without errors
func (r *Report) OK() bool {
	return len(r.Errors) == 0
}

// Err returns all validation errors as a single error, or nil when
// validation passed. Warnings are not included.
func (r *Report) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}

	var result *multierror.Error
	for _, e := range r.Errors {
		result = multierror.Append(result, errors.New(e))
	}
	return result.ErrorOrNil()
}

func (r *Report) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Report) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validator checks skill bundle structure and content
type Validator struct {
	skillDir string
}

// NewValidator creates a validator for the given skill directory
func NewValidator(skillDir string) *Validator {
	return &Validator{skillDir: skillDir}
}

// Validate runs all validation checks and returns the combined report
func (v *Validator) Validate() *Report {
	report := &Report{}

	v.checkSkillFile(report)
	v.checkDirectories(report)
	v.checkFileReferences(report)

	return report
}

// checkSkillFile validates SKILL.md presence, frontmatter, and body quality
func (v *Validator) checkSkillFile(report *Report) {
	path := filepath.Join(v.skillDir, SkillFileName)
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			report.addError("SKILL.md is required but not found")
		} else {
			report.addError("failed to read SKILL.md: %v", err)
		}
		return
	}

	text := string(content)
	if !strings.HasPrefix(text, "---") {
		report.addError("SKILL.md must start with YAML frontmatter")
		return
	}

	parts := strings.SplitN(text, "---", 3)
	if len(parts) < 3 {
		report.addError("invalid YAML frontmatter format")
		return
	}
	frontmatter, body := parts[1], parts[2]

	var m Metadata
	if err := yaml.Unmarshal([]byte(frontmatter), &m); err != nil {
		report.addError("error parsing frontmatter: %v", err)
	} else {
		if m.Name == "" {
			report.addError("'name' field is required in frontmatter")
		} else if !skillNamePattern.MatchString(m.Name) {
			report.addWarning("skill name '%s' should use lowercase letters, numbers, and hyphens only", m.Name)
		}

		if m.Description == "" {
			report.addError("'description' field is required in frontmatter")
		}
	}

	if len(body) < minBodyLength {
		report.addWarning("SKILL.md body seems very short")
	}
	if len(body) > maxBodyLength {
		report.addWarning("SKILL.md body is very long (>20k chars), consider moving content to references/")
	}

	for _, pattern := range secondPersonPatterns {
		if pattern.MatchString(body) {
			report.addWarning("avoid second-person language (you/your) in skills")
			break
		}
	}
}

// checkDirectories validates the optional bundle directory layout
func (v *Validator) checkDirectories(report *Report) {
	for _, name := range expectedDirs {
		path := filepath.Join(v.skillDir, name)

		info, err := os.Stat(path)
		if err != nil {
			continue
		}

		if !info.IsDir() {
			report.addError("%s exists but is not a directory", name)
			continue
		}

		entries, err := os.ReadDir(path)
		if err == nil && len(entries) == 0 {
			report.addWarning("%s/ directory is empty", name)
		}
	}
}

// checkFileReferences validates that files referenced in SKILL.md with
// backticked paths exist in the bundle
func (v *Validator) checkFileReferences(report *Report) {
	content, err := os.ReadFile(filepath.Join(v.skillDir, SkillFileName))
	if err != nil {
		return
	}

	for _, match := range fileReferencePattern.FindAllStringSubmatch(string(content), -1) {
		ref := match[1]
		if _, err := os.Stat(filepath.Join(v.skillDir, filepath.FromSlash(ref))); err != nil {
			report.addWarning("referenced file not found: %s", ref)
		}
	}
}
