package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	plain := New(TypeCatalog, "fetch failed")
	if plain.Error() != "[CATALOG_ERROR] fetch failed" {
		t.Errorf("unexpected message: %s", plain.Error())
	}

	wrapped := Storage("save failed", fmt.Errorf("disk full"))
	if wrapped.Error() != "[STORAGE_ERROR] save failed: disk full" {
		t.Errorf("unexpected message: %s", wrapped.Error())
	}
}

func TestTypeSurvivesWrapping(t *testing.T) {
	base := InvalidArgument("unknown category %q", "fan")
	err := fmt.Errorf("select: %w", base)

	if !IsPrecondition(err) {
		t.Fatal("expected precondition error through fmt wrapping")
	}
	if TypeOf(err) != TypeInvalidArgument {
		t.Errorf("expected %s, got %s", TypeInvalidArgument, TypeOf(err))
	}
	if !stderrors.Is(err, New(TypeInvalidArgument, "")) {
		t.Error("errors.Is should match on type")
	}
	if stderrors.Is(err, New(TypeStorage, "")) {
		t.Error("errors.Is matched a different type")
	}
}

func TestIsTypeSearchesChain(t *testing.T) {
	err := Catalog("failed to resolve component", NotFound("component", "gpu-9"))
	if TypeOf(err) != TypeCatalog {
		t.Errorf("outermost type should win, got %s", TypeOf(err))
	}
	if !IsType(err, TypeNotFound) || !IsType(err, TypeCatalog) {
		t.Error("IsType should match every type in the chain")
	}
	if IsType(err, TypeStorage) {
		t.Error("IsType matched a type not in the chain")
	}
}

func TestUnwrapReachesCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(TypeNetwork, "catalog unreachable", cause)
	if !stderrors.Is(err, cause) {
		t.Error("cause not reachable via errors.Is")
	}
}

func TestWithContext(t *testing.T) {
	err := NotFound("component", "cpu-1").WithContext("category", "cpu")
	if err.Context["category"] != "cpu" {
		t.Errorf("context not stored: %v", err.Context)
	}
	if IsType(nil, TypeNotFound) {
		t.Error("nil error should have no type")
	}
}
