package v1

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/duynhne/user-console/internal/core/domain"
)

func TestForm_Validation(t *testing.T) {
	tests := []struct {
		name  string
		draft domain.Draft
		want  map[string]string
	}{
		{
			name:  "all required missing",
			draft: domain.Draft{},
			want: map[string]string{
				domain.FieldName:  "Name is required",
				domain.FieldEmail: "Email is required",
				domain.FieldPhone: "Phone is required",
			},
		},
		{
			name:  "whitespace only counts as empty",
			draft: domain.Draft{Name: "   ", Email: "\t", Phone: " "},
			want: map[string]string{
				domain.FieldName:  "Name is required",
				domain.FieldEmail: "Email is required",
				domain.FieldPhone: "Phone is required",
			},
		},
		{
			name:  "email without domain dot",
			draft: domain.Draft{Name: "Ada", Email: "ada@example", Phone: "1"},
			want:  map[string]string{domain.FieldEmail: "Email is invalid"},
		},
		{
			name:  "email without local part",
			draft: domain.Draft{Name: "Ada", Email: "@x.io", Phone: "1"},
			want:  map[string]string{domain.FieldEmail: "Email is invalid"},
		},
		{
			name:  "loose email accepted",
			draft: domain.Draft{Name: "Ada", Email: "a@b.c", Phone: "1"},
			want:  map[string]string{},
		},
		{
			name:  "optional fields unchecked",
			draft: domain.Draft{Name: "Ada", Email: "ada@x.io", Phone: "1", Username: " ", Website: "not a url"},
			want:  map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewForm(domain.CreateMode())
			f.Fill(tt.draft)
			require.Equal(t, len(tt.want) == 0, f.Validate())
			require.Equal(t, tt.want, f.Errors())
		})
	}
}

func TestForm_SetClearsOnlyThatField(t *testing.T) {
	f := NewForm(domain.CreateMode())
	require.False(t, f.Validate())
	require.Len(t, f.Errors(), 3)

	f.Set(domain.FieldEmail, "x")

	errs := f.Errors()
	require.NotContains(t, errs, domain.FieldEmail)
	require.Equal(t, "Name is required", errs[domain.FieldName])
	require.Equal(t, "Phone is required", errs[domain.FieldPhone])
}

func TestForm_EditSeedsFromUser(t *testing.T) {
	u := domain.User{ID: 3, Name: "Clementine", Email: "c@x.io", Phone: "1-463", Username: "Samantha", Website: "ramiro.info"}
	f := NewForm(domain.EditMode(u))

	require.Equal(t, domain.DraftFrom(u), f.Draft())
	require.Equal(t, "Edit User", f.Title())
	require.Equal(t, "Update User", f.SubmitLabel(false))
	require.Equal(t, "Updating...", f.SubmitLabel(true))
}

func TestForm_CreateLabels(t *testing.T) {
	f := NewForm(domain.CreateMode())
	require.Equal(t, domain.Draft{}, f.Draft())
	require.Equal(t, "Create New User", f.Title())
	require.Equal(t, "Create User", f.SubmitLabel(false))
	require.Equal(t, "Creating...", f.SubmitLabel(true))
}

func TestForm_SubmitPassesDraftUnmodified(t *testing.T) {
	f := NewForm(domain.CreateMode())
	typed := domain.Draft{Name: "  Ada Lovelace ", Email: "ada@x.io", Phone: "555", Username: "ada"}
	f.Fill(typed)

	var calls []domain.Draft
	err := f.Submit(false, func(d domain.Draft) error {
		calls = append(calls, d)
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, []domain.Draft{typed}, calls)
}

func TestForm_SubmitInvalidSkipsCallback(t *testing.T) {
	f := NewForm(domain.CreateMode())
	called := false

	err := f.Submit(false, func(domain.Draft) error {
		called = true
		return nil
	})

	require.ErrorIs(t, err, domain.ErrValidation)
	require.False(t, called)
}

func TestForm_SubmitWhileBusyIsNoop(t *testing.T) {
	f := NewForm(domain.CreateMode())
	called := false

	err := f.Submit(true, func(domain.Draft) error {
		called = true
		return nil
	})

	require.ErrorIs(t, err, domain.ErrBusy)
	require.False(t, called)
	require.Empty(t, f.Errors())
}

func TestForm_SubmitReturnsCallbackError(t *testing.T) {
	f := NewForm(domain.CreateMode())
	f.Fill(domain.Draft{Name: "Ada", Email: "ada@x.io", Phone: "1"})
	boom := errors.New("boom")

	require.ErrorIs(t, f.Submit(false, func(domain.Draft) error { return boom }), boom)
}
