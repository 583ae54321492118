package v1

import (
	"context"
	"sync"

	"github.com/duynhne/user-console/internal/core/domain"
)

// fakeAPI is an in-process backend. Nil funcs fall back to serving users.
type fakeAPI struct {
	mu    sync.Mutex
	users []domain.User
	calls map[string]int

	listFn   func(ctx context.Context) ([]domain.User, error)
	getFn    func(ctx context.Context, id int) (*domain.User, error)
	createFn func(ctx context.Context, d domain.Draft) (*domain.User, error)
	updateFn func(ctx context.Context, id int, d domain.Draft) (*domain.User, error)
	deleteFn func(ctx context.Context, id int) error
}

func newFakeAPI(users ...domain.User) *fakeAPI {
	return &fakeAPI{users: users, calls: map[string]int{}}
}

func (f *fakeAPI) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeAPI) hit(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func (f *fakeAPI) ListUsers(ctx context.Context) ([]domain.User, error) {
	f.hit("list")
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	out := make([]domain.User, len(f.users))
	copy(out, f.users)
	return out, nil
}

func (f *fakeAPI) GetUser(ctx context.Context, id int) (*domain.User, error) {
	f.hit("get")
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	for _, u := range f.users {
		if u.ID == id {
			u := u
			return &u, nil
		}
	}
	return nil, domain.NewHTTPError(404)
}

func (f *fakeAPI) CreateUser(ctx context.Context, d domain.Draft) (*domain.User, error) {
	f.hit("create")
	if f.createFn != nil {
		return f.createFn(ctx, d)
	}
	u := d.Apply(domain.User{ID: 11})
	return &u, nil
}

func (f *fakeAPI) UpdateUser(ctx context.Context, id int, d domain.Draft) (*domain.User, error) {
	f.hit("update")
	if f.updateFn != nil {
		return f.updateFn(ctx, id, d)
	}
	u := d.Apply(domain.User{ID: id})
	return &u, nil
}

func (f *fakeAPI) DeleteUser(ctx context.Context, id int) error {
	f.hit("delete")
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

type note struct {
	Message  string
	Severity domain.Severity
}

// recorder is a Notifier that keeps everything published to it.
type recorder struct {
	mu    sync.Mutex
	notes []note
}

func (r *recorder) Publish(message string, severity domain.Severity) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, note{message, severity})
	return true
}

func (r *recorder) all() []note {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]note, len(r.notes))
	copy(out, r.notes)
	return out
}

func seedUsers(n int) []domain.User {
	users := make([]domain.User, 0, n)
	for i := 1; i <= n; i++ {
		users = append(users, domain.User{
			ID:    i,
			Name:  "User " + string(rune('A'+i-1)),
			Email: "user@example.com",
			Phone: "555-0100",
		})
	}
	return users
}
