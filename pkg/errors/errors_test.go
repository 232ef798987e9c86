package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

var (
	testCode          = MustNewCode("test.code")
	testCode2         = MustNewCode("test.code2")
	tableNotFoundCode = MustNewCode("store.table_not_found")
)

func TestNew(t *testing.T) {
	err := New(CommonInternal, "test error", nil)

	if err.Message != "test error" {
		t.Errorf("Expected message 'test error', got '%s'", err.Message)
	}

	if err.Code.String() != "common.internal" {
		t.Errorf("Expected code 'common.internal', got '%s'", err.Code.String())
	}

	if err.Timestamp.IsZero() {
		t.Error("Expected timestamp to be set")
	}

	if len(err.Stack) == 0 {
		t.Error("Expected stack trace to be captured")
	}
}

func TestNewWithCause(t *testing.T) {
	originalErr := errors.New("original error")
	err := New(testCode, "wrapped error", originalErr)

	if err.Cause != originalErr {
		t.Error("Expected cause to be set to original error")
	}

	if err.Error() != "wrapped error: original error" {
		t.Errorf("Unexpected error string '%s'", err.Error())
	}

	if !errors.Is(err, originalErr) {
		t.Error("Expected errors.Is to find the cause")
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CommonInternal, "test error with %s", "formatting")

	expected := "test error with formatting"
	if err.Message != expected {
		t.Errorf("Expected message '%s', got '%s'", expected, err.Message)
	}
}

func TestWrapf(t *testing.T) {
	originalErr := errors.New("original error")
	err := Wrapf(testCode, originalErr, "wrapped %d", 7)

	if err.Message != "wrapped 7" || err.Cause != originalErr {
		t.Errorf("Unexpected wrap result: %+v", err)
	}
}

func TestAddContext(t *testing.T) {
	err := New(testCode, "test error", nil).
		AddContext("key1", "value1").
		AddContext("key2", "value2")

	if err.Context["key1"] != "value1" {
		t.Errorf("Expected context key1='value1', got '%s'", err.Context["key1"])
	}

	if err.Context["key2"] != "value2" {
		t.Errorf("Expected context key2='value2', got '%s'", err.Context["key2"])
	}
}

func TestWithCause(t *testing.T) {
	originalErr := errors.New("original error")
	err := New(testCode, "test error", nil).WithCause(originalErr)

	if err.Cause != originalErr {
		t.Error("Expected cause to be set to original error")
	}
}

func TestIsMatchesCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(tableNotFoundCode, "table missing", nil))

	if !errors.Is(err, New(tableNotFoundCode, "", nil)) {
		t.Error("Expected errors.Is to match on code")
	}

	if errors.Is(err, New(testCode2, "", nil)) {
		t.Error("Expected errors.Is not to match a different code")
	}
}

func TestHasCategory(t *testing.T) {
	inner := New(tableNotFoundCode, "table missing", nil)
	outer := New(MustNewCode("load.table_not_found"), "cannot load", inner)

	if !HasCategory(outer, CategoryLoad) {
		t.Error("Expected load category on outer error")
	}

	if !HasCategory(outer, CategoryStore) {
		t.Error("Expected store category on the wrapped error")
	}

	if HasCategory(outer, CategoryAuth) {
		t.Error("Did not expect auth category")
	}

	if Category(outer) != CategoryLoad {
		t.Errorf("Expected outermost category 'load', got '%s'", Category(outer))
	}

	if HasCategory(errors.New("plain"), CategoryStore) {
		t.Error("Plain errors have no category")
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("context: %w", New(testCode, "boom", nil))

	if !HasCode(err, testCode) {
		t.Error("Expected HasCode to find code through fmt wrapping")
	}

	if GetCode(err) != "test.code" {
		t.Errorf("Expected code 'test.code', got '%s'", GetCode(err))
	}
}

func TestFormatError(t *testing.T) {
	err := New(testCode, "boom", errors.New("root")).
		AddContext("table", "patients").
		AddContext("column", "id")

	formatted := FormatError(err)
	if !strings.Contains(formatted, "Code: test.code") {
		t.Errorf("Missing code in %q", formatted)
	}

	if strings.Index(formatted, "column: id") > strings.Index(formatted, "table: patients") {
		t.Errorf("Expected sorted context keys in %q", formatted)
	}

	if FormatError(errors.New("plain")) != "plain" {
		t.Error("Expected plain errors to format as their message")
	}
}

func TestAsError(t *testing.T) {
	if AsError(nil) != nil {
		t.Error("Expected nil for nil error")
	}

	own := New(testCode, "own", nil)
	if AsError(own) != own {
		t.Error("Expected own errors to be returned unchanged")
	}

	converted := AsError(errors.New("foreign"))
	if !converted.Code.Equals(CommonInternal) {
		t.Errorf("Expected common.internal, got '%s'", converted.Code)
	}
}
