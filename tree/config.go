package tree

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-repository-audit/pagination"
)

// Config names the adjacency list table and its columns.
type Config struct {
	Table        string
	IDColumn     string
	ParentColumn string
	NameColumn   string
}

// DefaultConfig returns the column names used when a Config leaves them empty.
func DefaultConfig(table string) Config {
	return Config{
		Table:        table,
		IDColumn:     "id",
		ParentColumn: "parent_id",
		NameColumn:   "name",
	}
}

// Validate checks that every name is a plain SQL identifier.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Table, validation.Required, validation.By(identifier)),
		validation.Field(&c.IDColumn, validation.Required, validation.By(identifier)),
		validation.Field(&c.ParentColumn, validation.Required, validation.By(identifier)),
		validation.Field(&c.NameColumn, validation.Required, validation.By(identifier)),
	)
}

func (c Config) withDefaults() Config {
	def := DefaultConfig(c.Table)
	if c.IDColumn == "" {
		c.IDColumn = def.IDColumn
	}
	if c.ParentColumn == "" {
		c.ParentColumn = def.ParentColumn
	}
	if c.NameColumn == "" {
		c.NameColumn = def.NameColumn
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
