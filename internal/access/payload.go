package access

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// RoleForm holds the basic-info fields of the role editor.
type RoleForm struct {
	Name        string `form:"name" validate:"required,max=80"`
	Description string `form:"description" validate:"required,max=255"`
	Active      bool   `form:"active"`
}

// Validate checks the basic-info fields.
func (f RoleForm) Validate() error {
	f.Name = strings.TrimSpace(f.Name)
	f.Description = strings.TrimSpace(f.Description)
	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	verr := &ValidationError{Section: SectionBasic, Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		verr.Fields[fe.Field()] = fieldMessage(fe)
	}
	return verr
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}

// BuildPayload validates the form and selection and builds the write body:
// every selected privilege, and each real permission owning at least one of
// them exactly once. Basic-info errors take precedence over an empty
// selection.
func BuildPayload(form RoleForm, sel *Selection) (RolePayload, error) {
	if err := form.Validate(); err != nil {
		return RolePayload{}, err
	}
	if err := sel.Validate(); err != nil {
		return RolePayload{}, err
	}
	return RolePayload{
		Nombre:      strings.TrimSpace(form.Name),
		Descripcion: strings.TrimSpace(form.Description),
		Estado:      form.Active,
		Permisos:    sel.SelectedPermissionIDs(),
		Privilegios: sel.SelectedPrivilegeIDs(),
	}, nil
}

// ReconcilePayload checks a received write body against the catalog: fields
// are validated, every privilege must exist, and permisos must be exactly the
// permissions owning the privileges. It returns the selection the payload
// describes.
func ReconcilePayload(catalog []Permission, p RolePayload) (*Selection, error) {
	form := RoleForm{Name: p.Nombre, Description: p.Descripcion, Active: p.Estado}
	if err := form.Validate(); err != nil {
		return nil, err
	}
	sel := NewSelection(catalog, p.Privilegios)
	if dropped := sel.Dropped(); len(dropped) > 0 {
		return nil, &ValidationError{
			Section: SectionPermissions,
			Fields:  map[string]string{FieldPrivileges: fmt.Sprintf("unknown privileges %v", dropped)},
		}
	}
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	if !sameSet(sel.SelectedPermissionIDs(), p.Permisos) {
		return nil, &ValidationError{
			Section: SectionPermissions,
			Fields: map[string]string{
				FieldPermissions: fmt.Sprintf("must be %v for the selected privileges", sel.SelectedPermissionIDs()),
			},
		}
	}
	return sel, nil
}

func sameSet(a, b []int64) bool {
	set := make(map[int64]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	other := make(map[int64]struct{}, len(b))
	for _, v := range b {
		if _, ok := set[v]; !ok {
			return false
		}
		other[v] = struct{}{}
	}
	return len(other) == len(set)
}
