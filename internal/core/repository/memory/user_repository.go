package memory

import (
	"sync"

	"github.com/duynhne/user-console/internal/core/domain"
)

// UserRepository implements domain.UserRepository as an ordered in-memory list.
// The backing service does not persist writes, so this list is what a
// session sees for its whole lifetime.
type UserRepository struct {
	mu    sync.RWMutex
	users []domain.User
}

// NewUserRepository creates an empty repository
func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

// List returns a copy of the users in display order
func (r *UserRepository) List() []domain.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.User, len(r.users))
	copy(out, r.users)
	return out
}

// Get returns the user with the given id
func (r *UserRepository) Get(id int) (domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexOf(id); i >= 0 {
		return r.users[i], true
	}
	return domain.User{}, false
}

// Has reports whether a user with the given id is present
func (r *UserRepository) Has(id int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.indexOf(id) >= 0
}

// Reset replaces the whole list, e.g. after a full fetch
func (r *UserRepository) Reset(users []domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users = make([]domain.User, len(users))
	copy(r.users, users)
}

// Prepend puts u at the front of the list
func (r *UserRepository) Prepend(u domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users = append([]domain.User{u}, r.users...)
}

// Replace swaps the user matching id for u, in place.
// Returns false if no user matches.
func (r *UserRepository) Replace(id int, u domain.User) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return false
	}
	r.users[i] = u
	return true
}

// Remove drops the user matching id. Returns false if no user matches.
func (r *UserRepository) Remove(id int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return false
	}
	r.users = append(r.users[:i:i], r.users[i+1:]...)
	return true
}

// Len returns the number of users
func (r *UserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

func (r *UserRepository) indexOf(id int) int {
	for i := range r.users {
		if r.users[i].ID == id {
			return i
		}
	}
	return -1
}

var _ domain.UserRepository = (*UserRepository)(nil)
