// Package graph discovers simple paths over a directed self relation stored
// as a two column edge table.
//
// Paths are expanded by a recursive query that refuses to revisit a node, so
// cyclic graphs terminate. PostgreSQL keeps the path as a text array, SQLite
// as a delimited string; the builder is chosen once from the handle's dialect.
package graph

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-repository-audit/pagination"
)

// Edge is one directed adjacency pair.
type Edge struct {
	A string `bun:"a" json:"A"`
	B string `bun:"b" json:"B"`
}

// Path runs from A to B through Path, which starts with A and ends with B.
type Path struct {
	A    string   `json:"A"`
	B    string   `json:"B"`
	Path []string `json:"path"`
}

// Config names the edge table and its source and destination columns.
type Config struct {
	Table   string
	ColumnA string
	ColumnB string
}

// Validate checks that every name is a plain SQL identifier.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Table, validation.Required, validation.By(identifier)),
		validation.Field(&c.ColumnA, validation.Required, validation.By(identifier)),
		validation.Field(&c.ColumnB, validation.Required, validation.By(identifier)),
	)
}

func (c Config) withDefaults() Config {
	if c.ColumnA == "" {
		c.ColumnA = "A"
	}
	if c.ColumnB == "" {
		c.ColumnB = "B"
	}
	return c
}

func identifier(value any) error {
	s, _ := value.(string)
	if s != "" && !pagination.ValidIdentifier(s) {
		return errors.New("must be a plain identifier")
	}
	return nil
}
