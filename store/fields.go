package store

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-repository-audit/internal/naming"
)

// fieldIndex finds the struct field mapped to column, first by bun tag, then
// by snake_case field name, then by one of the fallback field names.
func fieldIndex(typ reflect.Type, column string, fallbacks ...string) ([]int, bool) {
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() || field.Anonymous {
			continue
		}
		tag := field.Tag.Get("bun")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "" {
			name = naming.Snake(field.Name)
		}
		if name == column {
			return field.Index, true
		}
	}

	for _, fallback := range fallbacks {
		if field, ok := typ.FieldByName(fallback); ok {
			return field.Index, true
		}
	}
	return nil, false
}

func structValue(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func stringify(field reflect.Value) string {
	field = structValue(field)
	if !field.IsValid() {
		return ""
	}
	if field.Kind() == reflect.String {
		return field.String()
	}
	return fmt.Sprint(field.Interface())
}

func (s *Store[T]) idOf(row T) string {
	v := structValue(reflect.ValueOf(&row))
	if !v.IsValid() {
		return ""
	}
	return stringify(v.FieldByIndex(s.idField))
}

func (s *Store[T]) nameOf(row T) string {
	if s.nameField == nil {
		return ""
	}
	v := structValue(reflect.ValueOf(&row))
	if !v.IsValid() {
		return ""
	}
	return stringify(v.FieldByIndex(s.nameField))
}

// ensureID assigns a UUID when the id field is an empty string. Numeric ids
// are left to the database.
func (s *Store[T]) ensureID(row *T) {
	v := structValue(reflect.ValueOf(row))
	if !v.IsValid() {
		return
	}
	field := v.FieldByIndex(s.idField)
	if field.Kind() == reflect.String && field.String() == "" && field.CanSet() {
		field.SetString(uuid.NewString())
	}
}

func (s *Store[T]) ensureName(row *T, name string) {
	if s.nameField == nil {
		return
	}
	v := structValue(reflect.ValueOf(row))
	if !v.IsValid() {
		return
	}
	field := v.FieldByIndex(s.nameField)
	if field.Kind() == reflect.String && field.String() == "" && field.CanSet() {
		field.SetString(name)
	}
}
