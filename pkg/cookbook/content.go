package cookbook

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/jingkaihe/zigskill/pkg/types/cookbook"
)

var (
	// ErrTopicFileNotFound is returned when a recipe's topic markdown
	// file is missing from the recipes directory
	ErrTopicFileNotFound = errors.New("topic file not found")
	// ErrSectionNotFound is returned when a topic file exists but does
	// not contain the recipe's section
	ErrSectionNotFound = errors.New("recipe section not found")
)

var (
	nextRecipeHeadingPattern = regexp.MustCompile(`(?m)^## Recipe \d+\.\d+:`)
	trailingRulePattern      = regexp.MustCompile(`\n---\n*$`)
)

// ExtractSection returns the full markdown section for the recipe with
// the given ID from a topic file's content. A section starts at its
// "## Recipe <id>:" heading and runs to the next recipe heading or the
// trailing rule at the end of the file.
func ExtractSection(content, id string) (string, bool) {
	startPattern := regexp.MustCompile(`(?m)^## Recipe ` + regexp.QuoteMeta(id) + `:`)
	loc := startPattern.FindStringIndex(content)
	if loc == nil {
		return "", false
	}

	section := content[loc[0]:]
	if next := nextRecipeHeadingPattern.FindStringIndex(section[1:]); next != nil {
		section = section[:next[0]+1]
	} else if rule := trailingRulePattern.FindStringIndex(section); rule != nil {
		section = section[:rule[0]]
	}
	return strings.TrimSpace(section), true
}

// Content reads the full markdown section for a recipe from its topic
// file under recipesDir
func Content(recipesDir string, recipe cookbook.Recipe) (string, error) {
	path := filepath.Join(recipesDir, recipe.Topic+".md")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrapf(ErrTopicFileNotFound, "%s.md", recipe.Topic)
		}
		return "", errors.Wrapf(err, "failed to read topic file %s", path)
	}

	section, ok := ExtractSection(string(data), recipe.ID)
	if !ok {
		return "", errors.Wrapf(ErrSectionNotFound, "recipe %s in %s.md", recipe.ID, recipe.Topic)
	}
	return section, nil
}
