package sqlite

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/jingkaihe/zigskill/pkg/types/cookbook"
)

// JSONField is a generic type for handling JSON marshaling/unmarshaling in database
type JSONField[T any] struct {
	Data T
}

// Scan implements the sql.Scanner interface for reading from database
func (j *JSONField[T]) Scan(value any) error {
	if value == nil {
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.Errorf("cannot scan %T into JSONField", value)
		}
		bytes = []byte(str)
	}

	return json.Unmarshal(bytes, &j.Data)
}

// Value implements the driver.Valuer interface for writing to database
func (j JSONField[T]) Value() (driver.Value, error) {
	return json.Marshal(j.Data)
}

// dbRecipe represents the recipes table structure
type dbRecipe struct {
	ID         string              `db:"id"`
	IDMajor    int                 `db:"id_major"`
	IDMinor    int                 `db:"id_minor"`
	Title      string              `db:"title"`
	Topic      string              `db:"topic"`
	Difficulty string              `db:"difficulty"`
	Tags       JSONField[[]string] `db:"tags"`
	CodeFile   *string             `db:"code_file"` // NULL in database
	SeeAlso    JSONField[[]string] `db:"see_also"`
}

// dbTopic represents the topics table structure
type dbTopic struct {
	Slug        string `db:"slug"`
	Name        string `db:"name"`
	RecipeCount int    `db:"recipe_count"`
}

// ToRecipe converts a database row to the domain model
func (dbr *dbRecipe) ToRecipe() cookbook.Recipe {
	recipe := cookbook.Recipe{
		ID:         dbr.ID,
		Title:      dbr.Title,
		Topic:      dbr.Topic,
		Difficulty: dbr.Difficulty,
		SeeAlso:    dbr.SeeAlso.Data,
	}

	// Ensure Tags is always a non-nil slice
	if dbr.Tags.Data == nil {
		recipe.Tags = []string{}
	} else {
		recipe.Tags = dbr.Tags.Data
	}

	if dbr.CodeFile != nil {
		recipe.CodeFile = *dbr.CodeFile
	}

	return recipe
}

// fromRecipe converts the domain model to a database row
func fromRecipe(recipe cookbook.Recipe) (*dbRecipe, error) {
	major, minor, err := cookbook.SplitID(recipe.ID)
	if err != nil {
		return nil, err
	}

	dbr := &dbRecipe{
		ID:         recipe.ID,
		IDMajor:    major,
		IDMinor:    minor,
		Title:      recipe.Title,
		Topic:      recipe.Topic,
		Difficulty: recipe.Difficulty,
		Tags:       JSONField[[]string]{Data: recipe.Tags},
		SeeAlso:    JSONField[[]string]{Data: recipe.SeeAlso},
	}

	if recipe.CodeFile != "" {
		dbr.CodeFile = &recipe.CodeFile
	}

	return dbr, nil
}
