package v1

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/duynhne/user-console/internal/core/domain"
)

var looseEmail = regexp.MustCompile(`\S+@\S+\.\S+`)

// draftRules carries the submit-time checks for a user draft. Username and
// website are free text.
type draftRules struct {
	Name  string `form:"name" validate:"required"`
	Email string `form:"email" validate:"required,loose_email"`
	Phone string `form:"phone" validate:"required"`
}

var fieldLabels = map[string]string{
	domain.FieldName:  "Name",
	domain.FieldEmail: "Email",
	domain.FieldPhone: "Phone",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})
	if err := v.RegisterValidation("loose_email", func(fl validator.FieldLevel) bool {
		return looseEmail.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// Form is the create/edit user form: a draft plus per-field errors.
type Form struct {
	mode   domain.FormMode
	draft  domain.Draft
	errors map[string]string
}

// NewForm builds a form for mode. Edit mode seeds every field from the user.
func NewForm(mode domain.FormMode) *Form {
	f := &Form{mode: mode, errors: map[string]string{}}
	if u, ok := mode.Editing(); ok {
		f.draft = domain.DraftFrom(u)
	}
	return f
}

func (f *Form) Mode() domain.FormMode { return f.mode }

// Editing reports whether this is an edit form
func (f *Form) Editing() bool {
	_, ok := f.mode.Editing()
	return ok
}

// Draft returns the current values as typed
func (f *Form) Draft() domain.Draft { return f.draft }

// Value returns one field's current value
func (f *Form) Value(field string) string {
	if p := f.fieldPtr(field); p != nil {
		return *p
	}
	return ""
}

// Set changes one field and clears that field's error only.
func (f *Form) Set(field, value string) {
	p := f.fieldPtr(field)
	if p == nil {
		return
	}
	*p = value
	delete(f.errors, field)
}

// Fill applies a whole posted draft, touching only the fields that changed.
func (f *Form) Fill(d domain.Draft) {
	next := map[string]string{
		domain.FieldName:     d.Name,
		domain.FieldEmail:    d.Email,
		domain.FieldPhone:    d.Phone,
		domain.FieldUsername: d.Username,
		domain.FieldWebsite:  d.Website,
	}
	for _, field := range domain.DraftFields {
		if f.Value(field) != next[field] {
			f.Set(field, next[field])
		}
	}
}

// Error returns the message for field, or ""
func (f *Form) Error(field string) string {
	return f.errors[field]
}

// Errors returns a copy of the field error map
func (f *Form) Errors() map[string]string {
	out := make(map[string]string, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// Validate recomputes the error map from scratch and reports whether the
// draft is submittable.
func (f *Form) Validate() bool {
	f.errors = map[string]string{}

	rules := draftRules{
		Name:  strings.TrimSpace(f.draft.Name),
		Email: strings.TrimSpace(f.draft.Email),
		Phone: strings.TrimSpace(f.draft.Phone),
	}
	err := validate.Struct(rules)
	if err == nil {
		return true
	}

	// draftRules is a struct, so the only error kind is ValidationErrors
	verrs, _ := err.(validator.ValidationErrors)
	for _, fe := range verrs {
		f.errors[fe.Field()] = messageFor(fe)
	}
	return false
}

func messageFor(fe validator.FieldError) string {
	label := fieldLabels[fe.Field()]
	switch fe.Tag() {
	case "required":
		return label + " is required"
	default:
		return label + " is invalid"
	}
}

// Submit validates the draft and, when valid, calls onSubmit exactly once
// with the draft as typed. A busy form ignores the call.
func (f *Form) Submit(busy bool, onSubmit func(domain.Draft) error) error {
	if busy {
		return domain.ErrBusy
	}
	if !f.Validate() {
		return fmt.Errorf("submit user form: %w", domain.ErrValidation)
	}
	return onSubmit(f.draft)
}

// Title is the form heading
func (f *Form) Title() string {
	if f.Editing() {
		return "Edit User"
	}
	return "Create New User"
}

// SubmitLabel is the submit button text, which changes while busy
func (f *Form) SubmitLabel(busy bool) string {
	switch {
	case f.Editing() && busy:
		return "Updating..."
	case f.Editing():
		return "Update User"
	case busy:
		return "Creating..."
	default:
		return "Create User"
	}
}

func (f *Form) fieldPtr(field string) *string {
	switch field {
	case domain.FieldName:
		return &f.draft.Name
	case domain.FieldEmail:
		return &f.draft.Email
	case domain.FieldPhone:
		return &f.draft.Phone
	case domain.FieldUsername:
		return &f.draft.Username
	case domain.FieldWebsite:
		return &f.draft.Website
	}
	return nil
}
