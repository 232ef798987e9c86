package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// Categories group codes by their package prefix. A code such as
// "store.exec_failed" belongs to CategoryStore.
const (
	CategorySchema      = "schema"
	CategoryStore       = "store"
	CategoryLoad        = "load"
	CategoryConsistency = "consistency"
	CategoryAuth        = "auth"
)

// As returns the outermost *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// GetCode returns the code of the outermost *Error in the chain, or "".
func GetCode(err error) string {
	if e, ok := As(err); ok {
		return e.Code.String()
	}
	return ""
}

// GetContext returns the context of the outermost *Error in the chain.
func GetContext(err error) map[string]string {
	if e, ok := As(err); ok {
		return e.Context
	}
	return nil
}

// HasCode reports whether any *Error in the chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Code.Equals(code) {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// HasCategory reports whether any *Error in the chain has a code in category.
func HasCategory(err error, category string) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Code.Package() == category {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// Category returns the category of the outermost *Error in the chain.
func Category(err error) string {
	if e, ok := As(err); ok {
		return e.Code.Package()
	}
	return ""
}

// FormatError renders err with its code and sorted context for logs.
func FormatError(err error) string {
	e, ok := err.(*Error)
	if !ok {
		return err.Error()
	}

	parts := []string{
		fmt.Sprintf("Code: %s", e.Code),
		fmt.Sprintf("Message: %s", e.Message),
	}
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts = append(parts, "Context:")
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("  %s: %s", k, e.Context[k]))
		}
	}
	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("Cause: %v", e.Cause))
	}
	return strings.Join(parts, "\n")
}

// AsError converts any error to *Error, wrapping foreign errors as
// CommonInternal.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return New(CommonInternal, err.Error(), err)
}
