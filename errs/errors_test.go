package errs

import (
	"database/sql"
	"errors"
	"testing"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantNotFound bool
		wantInternal bool
	}{
		{name: "no rows", err: sql.ErrNoRows, wantNotFound: true},
		{name: "not found", err: ErrNotFound, wantNotFound: true},
		{name: "invalid query", err: ErrInvalidQuery},
		{name: "driver failure", err: errors.New("UNIQUE constraint failed"), wantInternal: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Wrap("get", "device", tt.err)

			var se *StoreError
			if !errors.As(err, &se) {
				t.Fatalf("expected *StoreError, got %T", err)
			}
			if se.Op != "get" || se.Entity != "device" {
				t.Errorf("unexpected context: %+v", se)
			}
			if got := IsNotFound(err); got != tt.wantNotFound {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.wantNotFound)
			}
			if got := errors.Is(err, ErrInternal); got != tt.wantInternal {
				t.Errorf("errors.Is(err, ErrInternal) = %v, want %v", got, tt.wantInternal)
			}
		})
	}
}

func TestWrapOnce(t *testing.T) {
	inner := Wrap("get", "device", errors.New("boom"))
	outer := Wrap("update", "device", inner)

	if outer != inner {
		t.Fatalf("expected the already wrapped error to pass through, got %v", outer)
	}
	if outer.Error() != "get device: boom" {
		t.Errorf("unexpected message: %q", outer.Error())
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap("get", "device", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
