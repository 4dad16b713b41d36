package access

import (
	"errors"
	"sort"
	"strings"
)

// ErrValidation matches every *ValidationError.
var ErrValidation = errors.New("access: validation failed")

// Editor sections a validation error can be attributed to.
const (
	SectionBasic       = "basic"
	SectionPermissions = "permissions"
)

// Field keys used in ValidationError.Fields.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldPrivileges  = "privileges"
	FieldPermissions = "permissions"
)

// ValidationError is a local rejection attributed to an editor section.
type ValidationError struct {
	Section string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "access: validation failed (" + e.Section + "): " + strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrValidation) true.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// FieldMessages returns the per-field messages.
func (e *ValidationError) FieldMessages() map[string]string {
	return e.Fields
}
