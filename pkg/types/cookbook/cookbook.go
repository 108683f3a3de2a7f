// Package cookbook defines types for cookbook recipes, the recipe index,
// and query options used throughout zigskill's recipe management system.
package cookbook

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Difficulty levels recognized in recipe metadata
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// ErrRecipeNotFound is returned when a recipe ID does not exist in the index
var ErrRecipeNotFound = errors.New("recipe not found")

// ValidDifficulty reports whether s is a recognized difficulty level
func ValidDifficulty(s string) bool {
	switch strings.ToLower(s) {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// Recipe represents a single cookbook entry as recorded in the index
type Recipe struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Topic      string   `json:"topic"`
	Difficulty string   `json:"difficulty"`
	Tags       []string `json:"tags"`
	CodeFile   string   `json:"code_file,omitempty"`
	SeeAlso    []string `json:"see_also,omitempty"`
}

// HasTag reports whether the recipe carries the given tag (case-insensitive)
func (r Recipe) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// TopicInfo describes one topic file in the cookbook
type TopicInfo struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// TagCount pairs a tag with the number of recipes carrying it
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Index is the generated recipe index persisted as recipes-index.json
type Index struct {
	GeneratedAt  time.Time            `json:"generated_at"`
	TotalRecipes int                  `json:"total_recipes"`
	Recipes      []Recipe             `json:"recipes"`
	TopicInfo    map[string]TopicInfo `json:"topic_info"`
}

// QueryOptions provides filtering options for recipe queries. String
// filters match case-insensitively; Search matches a substring of the
// title, any tag, or the topic slug.
type QueryOptions struct {
	Topic      string // Filter by topic slug
	Tag        string // Filter by tag
	Difficulty string // Filter by difficulty level
	Search     string // Text to search for in title, tags, and topic
	Limit      int    // Maximum number of results, 0 means no limit
	Offset     int    // Offset for pagination
}

// QueryResult represents the result of a recipe query
type QueryResult struct {
	Recipes []Recipe `json:"recipes"`
	Total   int      `json:"total"` // Total number of matches without pagination
	QueryOptions
}

// CompareIDs orders recipe IDs of the form "chapter.number" numerically,
// so that "1.2" sorts before "1.10". Malformed IDs fall back to string
// comparison.
func CompareIDs(a, b string) int {
	aMajor, aMinor, aOK := splitID(a)
	bMajor, bMinor, bOK := splitID(b)
	if !aOK || !bOK {
		return strings.Compare(a, b)
	}
	if aMajor != bMajor {
		if aMajor < bMajor {
			return -1
		}
		return 1
	}
	if aMinor != bMinor {
		if aMinor < bMinor {
			return -1
		}
		return 1
	}
	return 0
}

// SplitID parses a recipe ID into its chapter and number components
func SplitID(id string) (major, minor int, err error) {
	major, minor, ok := splitID(id)
	if !ok {
		return 0, 0, errors.Errorf("invalid recipe ID: %s", id)
	}
	return major, minor, nil
}

func splitID(id string) (major, minor int, ok bool) {
	parts := strings.SplitN(id, ".", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return major, minor, true
}

// SortRecipes sorts recipes in place by numeric recipe ID
func SortRecipes(recipes []Recipe) {
	sort.Slice(recipes, func(i, j int) bool {
		return CompareIDs(recipes[i].ID, recipes[j].ID) < 0
	})
}
