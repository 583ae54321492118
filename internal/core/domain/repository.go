package domain

import "context"

// UserRepository is the in-memory list of users owned by the list view.
// It is the session's source of truth for what is rendered.
type UserRepository interface {
	List() []User
	Get(id int) (User, bool)
	Has(id int) bool
	Reset(users []User)
	Prepend(u User)
	Replace(id int, u User) bool
	Remove(id int) bool
	Len() int
}

// UserAPI is the backing service as seen by the views.
type UserAPI interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int) (*User, error)
	CreateUser(ctx context.Context, draft Draft) (*User, error)
	UpdateUser(ctx context.Context, id int, draft Draft) (*User, error)
	DeleteUser(ctx context.Context, id int) error
}
