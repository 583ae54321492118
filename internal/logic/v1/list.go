package v1

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/duynhne/user-console/internal/core/domain"
	"github.com/duynhne/user-console/middleware"
)

// Notification texts shown by the list view.
const (
	MsgLoadFailed    = "Failed to load users"
	MsgCreated       = "User created successfully"
	MsgCreateFailed  = "Failed to create user"
	MsgUpdated       = "User updated successfully"
	MsgUpdateFailed  = "Failed to update user"
	MsgDeleted       = "User deleted successfully"
	MsgDeleteFailed  = "Failed to delete user"
	MsgDetailFailed  = "Failed to load user details"
	EmptyListMessage = "No users found"
)

// Phase is the list view lifecycle state.
type Phase string

const (
	PhaseLoading   Phase = "loading"
	PhaseReady     Phase = "ready"
	PhaseModalOpen Phase = "modal-open"
)

// IDPolicy decides which id a newly created user gets in the local list.
type IDPolicy int

const (
	// LocalIDs ignores the server id and synthesizes one from the clock.
	// The default backend hands every new record the same id and keeps
	// nothing, so its ids are useless as list keys.
	LocalIDs IDPolicy = iota
	// ServerIDs keeps the id returned by the backend when it is usable.
	ServerIDs
)

// ListView is the state behind the users page: the local user list, the
// open modal form, and the in-flight submission flag.
type ListView struct {
	api      domain.UserAPI
	repo     domain.UserRepository
	notifier domain.Notifier
	logger   *zap.Logger
	policy   IDPolicy
	now      func() time.Time

	mu          sync.Mutex
	mounted     bool
	unmounted   bool
	loading     bool
	generation  uint64
	form        *Form
	busy        bool
	lastLocalID int
}

// ListOption configures a ListView
type ListOption func(*ListView)

func WithIDPolicy(p IDPolicy) ListOption {
	return func(v *ListView) { v.policy = p }
}

func WithClock(now func() time.Time) ListOption {
	return func(v *ListView) { v.now = now }
}

func WithLogger(l *zap.Logger) ListOption {
	return func(v *ListView) {
		if l != nil {
			v.logger = l
		}
	}
}

// NewListView creates an unmounted list view. Nothing is fetched until Mount.
func NewListView(api domain.UserAPI, repo domain.UserRepository, notifier domain.Notifier, opts ...ListOption) *ListView {
	v := &ListView{
		api:      api,
		repo:     repo,
		notifier: notifier,
		logger:   zap.NewNop(),
		policy:   LocalIDs,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Mount loads the list the first time the view is shown. Later calls are
// no-ops so that local edits survive navigation.
func (v *ListView) Mount(ctx context.Context) {
	v.mu.Lock()
	if v.mounted || v.unmounted {
		v.mu.Unlock()
		return
	}
	v.mounted = true
	v.mu.Unlock()

	v.load(ctx)
}

// Reload discards the local list and fetches it again.
func (v *ListView) Reload(ctx context.Context) {
	v.mu.Lock()
	if v.unmounted {
		v.mu.Unlock()
		return
	}
	v.mounted = true
	v.mu.Unlock()

	v.load(ctx)
}

func (v *ListView) load(ctx context.Context) {
	ctx, span := middleware.StartSpan(ctx, "users.list", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	v.mu.Lock()
	v.generation++
	gen := v.generation
	v.loading = true
	v.mu.Unlock()

	users, err := v.api.ListUsers(ctx)

	v.mu.Lock()
	if v.unmounted || gen != v.generation {
		v.mu.Unlock()
		span.SetAttributes(attribute.Bool("users.stale", true))
		return
	}
	v.loading = false
	if err != nil {
		v.repo.Reset(nil)
	} else {
		v.repo.Reset(users)
	}
	v.mu.Unlock()

	if err != nil {
		span.RecordError(err)
		v.logger.Warn("Failed to load users", zap.Error(err))
		v.notifier.Publish(MsgLoadFailed, domain.SeverityError)
		return
	}
	span.SetAttributes(attribute.Int("users.count", len(users)))
}

// OpenCreate opens the create modal. An already open create form keeps its
// draft; an open edit form is replaced.
func (v *ListView) OpenCreate() bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.unmounted || v.busy {
		return false
	}
	if v.form != nil && !v.form.Editing() {
		return true
	}
	v.form = NewForm(domain.CreateMode())
	return true
}

// OpenEdit opens the edit modal seeded from the local copy of user id.
// Re-opening the user that is already being edited keeps the draft.
func (v *ListView) OpenEdit(id int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.unmounted || v.busy {
		return false
	}
	u, ok := v.repo.Get(id)
	if !ok {
		return false
	}
	if v.form != nil {
		if cur, editing := v.form.Mode().Editing(); editing && cur.ID == id {
			return true
		}
	}
	v.form = NewForm(domain.EditMode(u))
	return true
}

// CloseModal dismisses the open form and drops its draft. It is refused
// while a submission is in flight.
func (v *ListView) CloseModal() bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.busy {
		return false
	}
	v.form = nil
	return true
}

// SubmitCreate runs the create form with the posted values. On success the
// new user is prepended under a fresh local id and the modal closes; on a
// backend failure the modal stays open with the draft intact.
func (v *ListView) SubmitCreate(ctx context.Context, values domain.Draft) error {
	ctx, span := middleware.StartSpan(ctx, "users.create", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	form, draft, err := v.begin(values, false, 0)
	if err != nil {
		span.SetAttributes(attribute.Bool("user.created", false))
		return err
	}

	created, err := v.api.CreateUser(ctx, draft)

	v.mu.Lock()
	v.busy = false
	if v.unmounted {
		v.mu.Unlock()
		return nil
	}
	if err != nil {
		v.mu.Unlock()
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("user.created", false))
		v.logger.Warn("Failed to create user", zap.Error(err))
		v.notifier.Publish(MsgCreateFailed, domain.SeverityError)
		return fmt.Errorf("create user: %w", err)
	}

	var u domain.User
	if created != nil {
		u = *created
	} else {
		u = draft.Apply(u)
	}
	u.ID = v.assignID(u.ID)
	v.repo.Prepend(u)
	if v.form == form {
		v.form = nil
	}
	v.mu.Unlock()

	span.SetAttributes(
		attribute.Int("user.id", u.ID),
		attribute.Bool("user.created", true),
	)
	v.logger.Info("User created", zap.Int("user_id", u.ID))
	v.notifier.Publish(MsgCreated, domain.SeveritySuccess)
	return nil
}

// SubmitEdit runs the edit form for user id with the posted values. It is
// refused unless id is the user currently being edited. On success the
// local entry is replaced by the server's answer under its original id.
func (v *ListView) SubmitEdit(ctx context.Context, id int, values domain.Draft) error {
	ctx, span := middleware.StartSpan(ctx, "users.update", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	form, draft, err := v.begin(values, true, id)
	if err != nil {
		return err
	}
	original, _ := form.Mode().Editing()
	span.SetAttributes(attribute.Int("user.id", original.ID))

	updated, err := v.api.UpdateUser(ctx, original.ID, draft)

	v.mu.Lock()
	v.busy = false
	if v.unmounted {
		v.mu.Unlock()
		return nil
	}
	if err != nil {
		v.mu.Unlock()
		span.RecordError(err)
		v.logger.Warn("Failed to update user", zap.Int("user_id", original.ID), zap.Error(err))
		v.notifier.Publish(MsgUpdateFailed, domain.SeverityError)
		return fmt.Errorf("update user %d: %w", original.ID, err)
	}

	u := draft.Apply(original)
	if updated != nil {
		u = *updated
	}
	u.ID = original.ID
	replaced := v.repo.Replace(original.ID, u)
	if v.form == form {
		v.form = nil
	}
	v.mu.Unlock()

	// deleted while the edit was in flight or open
	if !replaced {
		v.logger.Warn("Updated user is no longer listed", zap.Int("user_id", original.ID))
		v.notifier.Publish(MsgUpdateFailed, domain.SeverityError)
		return fmt.Errorf("update user %d: %w", original.ID, domain.ErrUserNotFound)
	}

	v.logger.Info("User updated", zap.Int("user_id", u.ID))
	v.notifier.Publish(MsgUpdated, domain.SeveritySuccess)
	return nil
}

// begin validates the open form against values and marks the view busy.
// For edits the open form must target editID. The lock is released before
// any network call.
func (v *ListView) begin(values domain.Draft, editing bool, editID int) (*Form, domain.Draft, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.unmounted || v.form == nil || v.form.Editing() != editing {
		return nil, domain.Draft{}, domain.ErrNoModal
	}
	if u, ok := v.form.Mode().Editing(); ok && u.ID != editID {
		return nil, domain.Draft{}, domain.ErrNoModal
	}
	if v.busy {
		return nil, domain.Draft{}, domain.ErrBusy
	}

	v.form.Fill(values)
	var draft domain.Draft
	err := v.form.Submit(v.busy, func(d domain.Draft) error {
		draft = d
		return nil
	})
	if err != nil {
		return nil, domain.Draft{}, err
	}
	v.busy = true
	return v.form, draft, nil
}

// Delete removes user id after the user confirmed it. Without confirmation
// nothing happens.
func (v *ListView) Delete(ctx context.Context, id int, confirmed bool) error {
	if !confirmed {
		return nil
	}

	ctx, span := middleware.StartSpan(ctx, "users.delete", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int("user.id", id),
	))
	defer span.End()

	v.mu.Lock()
	if v.unmounted {
		v.mu.Unlock()
		return nil
	}
	if !v.repo.Has(id) {
		v.mu.Unlock()
		return fmt.Errorf("delete user %d: %w", id, domain.ErrUserNotFound)
	}
	v.mu.Unlock()

	err := v.api.DeleteUser(ctx, id)

	v.mu.Lock()
	if v.unmounted {
		v.mu.Unlock()
		return nil
	}
	if err == nil {
		v.repo.Remove(id)
	}
	v.mu.Unlock()

	if err != nil {
		span.RecordError(err)
		v.logger.Warn("Failed to delete user", zap.Int("user_id", id), zap.Error(err))
		v.notifier.Publish(MsgDeleteFailed, domain.SeverityError)
		return fmt.Errorf("delete user %d: %w", id, err)
	}

	v.logger.Info("User deleted", zap.Int("user_id", id))
	v.notifier.Publish(MsgDeleted, domain.SeveritySuccess)
	return nil
}

// Unmount detaches the view. Responses that arrive afterwards are dropped.
func (v *ListView) Unmount() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.unmounted = true
	v.form = nil
	v.busy = false
}

// Lookup returns the local copy of user id
func (v *ListView) Lookup(id int) (domain.User, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.repo.Get(id)
}

// FormSnapshot is the render state of the open modal form.
type FormSnapshot struct {
	Editing     bool
	UserID      int
	Title       string
	SubmitLabel string
	Values      domain.Draft
	Errors      map[string]string
}

// ListSnapshot is everything the users page renders.
type ListSnapshot struct {
	Phase Phase
	Users []domain.User
	Form  *FormSnapshot
	Busy  bool
}

// Empty reports whether the empty state should be shown
func (s ListSnapshot) Empty() bool {
	return s.Phase != PhaseLoading && len(s.Users) == 0
}

// Snapshot returns a consistent copy of the view state.
func (v *ListView) Snapshot() ListSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := ListSnapshot{
		Phase: PhaseReady,
		Users: v.repo.List(),
		Busy:  v.busy,
	}
	if v.form != nil {
		s.Phase = PhaseModalOpen
		fs := &FormSnapshot{
			Editing:     v.form.Editing(),
			Title:       v.form.Title(),
			SubmitLabel: v.form.SubmitLabel(v.busy),
			Values:      v.form.Draft(),
			Errors:      v.form.Errors(),
		}
		if u, ok := v.form.Mode().Editing(); ok {
			fs.UserID = u.ID
		}
		s.Form = fs
	}
	if v.loading || !v.mounted {
		s.Phase = PhaseLoading
	}
	return s
}

// assignID picks the list id for a created user. Callers hold v.mu.
func (v *ListView) assignID(serverID int) int {
	if v.policy == ServerIDs && serverID > 0 && !v.repo.Has(serverID) {
		return serverID
	}

	id := int(v.now().UnixMilli())
	if id <= v.lastLocalID {
		id = v.lastLocalID + 1
	}
	for v.repo.Has(id) {
		id++
	}
	v.lastLocalID = id
	return id
}
