package db

import (
	"errors"
	"testing"
	"time"
)

func TestMapDBError_DuplicateStrings(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"mysql duplicate entry", errors.New("Error 1062: Duplicate entry 'x' for key 'PRIMARY'")},
		{"postgres unique violation", errors.New("ERROR: duplicate key value violates unique constraint \"ca_accounts_id_key\" (SQLSTATE 23505)")},
		{"sqlite unique constraint", errors.New("constraint failed: UNIQUE constraint failed: managed_certificates.id (2067)")},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if mapped := MapDBError(c.err); !errors.Is(mapped, ErrDuplicate) {
				t.Fatalf("expected ErrDuplicate for case %s, got: %v", c.name, mapped)
			}
		})
	}
}

func TestMapDBError_NonDuplicatePassthrough(t *testing.T) {
	e := errors.New("some network error")
	mapped := MapDBError(e)
	if mapped != e {
		t.Fatalf("expected original error to be returned unchanged, got: %v", mapped)
	}
	if MapDBError(nil) != nil {
		t.Fatalf("expected nil for nil input")
	}
}

func TestLockHeldErrorMatchesErrLocked(t *testing.T) {
	err := error(&LockHeldError{Holder: "host:1", Since: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)})
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("expected errors.Is(err, ErrLocked)")
	}
	if err.Error() != "import lock is held by host:1 since 2026-01-01T00:00:00Z" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}
