// Package naming derives entity and table names from bun model types.
package naming

import (
	"reflect"
	"strings"

	"github.com/jinzhu/inflection"
)

// EntityName returns the snake_case name of the model's struct type,
// e.g. *SensorReading -> "sensor_reading".
func EntityName(model any) string {
	typ := structType(model)
	if typ == nil {
		return ""
	}
	return Snake(typ.Name())
}

// TableName returns the table from the model's `bun:"table:..."` tag, or the
// pluralised snake_case type name the way bun derives it.
func TableName(model any) string {
	typ := structType(model)
	if typ == nil {
		return ""
	}

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.Anonymous || field.Type.Name() != "BaseModel" {
			continue
		}
		if table := tagOption(field.Tag.Get("bun"), "table"); table != "" {
			return table
		}
	}

	return inflection.Plural(Snake(typ.Name()))
}

func structType(model any) reflect.Type {
	if model == nil {
		return nil
	}
	typ := reflect.TypeOf(model)
	for typ.Kind() == reflect.Ptr || typ.Kind() == reflect.Slice {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil
	}
	return typ
}

func tagOption(tag, key string) string {
	for _, part := range strings.Split(tag, ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), ":")
		if ok && name == key {
			return value
		}
	}
	return ""
}
