package v1

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/duynhne/user-console/internal/core/domain"
	"github.com/duynhne/user-console/internal/core/repository/memory"
)

var fixedNow = time.UnixMilli(1700000000000)

func newTestList(api *fakeAPI, opts ...ListOption) (*ListView, *recorder) {
	rec := &recorder{}
	opts = append([]ListOption{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewListView(api, memory.NewUserRepository(), rec, opts...), rec
}

func mounted(t *testing.T, api *fakeAPI, opts ...ListOption) (*ListView, *recorder) {
	t.Helper()
	v, rec := newTestList(api, opts...)
	v.Mount(context.Background())
	require.Equal(t, PhaseReady, v.Snapshot().Phase)
	return v, rec
}

var validDraft = domain.Draft{Name: "Ada", Email: "ada@x.io", Phone: "555"}

func TestListView_MountLoadsOnce(t *testing.T) {
	api := newFakeAPI(seedUsers(10)...)
	v, rec := newTestList(api)

	require.Equal(t, PhaseLoading, v.Snapshot().Phase)

	v.Mount(context.Background())
	v.Mount(context.Background())

	s := v.Snapshot()
	require.Equal(t, PhaseReady, s.Phase)
	require.Len(t, s.Users, 10)
	require.Equal(t, 1, api.count("list"))
	require.Empty(t, rec.all())
}

func TestListView_MountFailure(t *testing.T) {
	api := newFakeAPI()
	api.listFn = func(context.Context) ([]domain.User, error) {
		return nil, domain.NewNetworkError(errors.New("dial tcp: refused"))
	}
	v, rec := newTestList(api)

	v.Mount(context.Background())

	s := v.Snapshot()
	require.Equal(t, PhaseReady, s.Phase)
	require.Empty(t, s.Users)
	require.True(t, s.Empty())
	require.Equal(t, []note{{MsgLoadFailed, domain.SeverityError}}, rec.all())
}

func TestListView_CreateScenario(t *testing.T) {
	api := newFakeAPI(seedUsers(10)...)
	v, rec := mounted(t, api)

	require.True(t, v.OpenCreate())
	require.Equal(t, PhaseModalOpen, v.Snapshot().Phase)

	draft := domain.Draft{Name: "Ada Lovelace", Email: "ada@example.com", Phone: "555-0100"}
	require.NoError(t, v.SubmitCreate(context.Background(), draft))

	s := v.Snapshot()
	require.Equal(t, PhaseReady, s.Phase)
	require.Nil(t, s.Form)
	require.Len(t, s.Users, 11)
	require.Equal(t, "Ada Lovelace", s.Users[0].Name)
	require.Equal(t, int(fixedNow.UnixMilli()), s.Users[0].ID)
	require.Equal(t, []note{{MsgCreated, domain.SeveritySuccess}}, rec.all())
	require.Equal(t, 1, api.count("list"))
}

func TestListView_LocalIDsStayUnique(t *testing.T) {
	api := newFakeAPI(seedUsers(10)...)
	// a clock that collides with existing ids
	v, _ := mounted(t, api, WithClock(func() time.Time { return time.UnixMilli(5) }))

	for i := 0; i < 3; i++ {
		require.True(t, v.OpenCreate())
		require.NoError(t, v.SubmitCreate(context.Background(), validDraft))
	}

	seen := map[int]bool{}
	for _, u := range v.Snapshot().Users {
		require.False(t, seen[u.ID], "duplicate id %d", u.ID)
		seen[u.ID] = true
	}
	require.Len(t, seen, 13)
}

func TestListView_ServerIDPolicy(t *testing.T) {
	api := newFakeAPI(seedUsers(10)...)
	v, _ := mounted(t, api, WithIDPolicy(ServerIDs))

	require.True(t, v.OpenCreate())
	require.NoError(t, v.SubmitCreate(context.Background(), validDraft))
	require.Equal(t, 11, v.Snapshot().Users[0].ID)

	// the same server id again is not usable as a key
	require.True(t, v.OpenCreate())
	require.NoError(t, v.SubmitCreate(context.Background(), validDraft))
	require.Equal(t, int(fixedNow.UnixMilli()), v.Snapshot().Users[0].ID)
}

func TestListView_CreateFailureKeepsModal(t *testing.T) {
	api := newFakeAPI(seedUsers(3)...)
	api.createFn = func(context.Context, domain.Draft) (*domain.User, error) {
		return nil, domain.NewHTTPError(500)
	}
	v, rec := mounted(t, api)

	require.True(t, v.OpenCreate())
	err := v.SubmitCreate(context.Background(), validDraft)
	require.Error(t, err)
	require.Equal(t, 500, domain.StatusOf(err))

	s := v.Snapshot()
	require.Equal(t, PhaseModalOpen, s.Phase)
	require.Equal(t, validDraft, s.Form.Values)
	require.False(t, s.Busy)
	require.Len(t, s.Users, 3)
	require.Equal(t, []note{{MsgCreateFailed, domain.SeverityError}}, rec.all())
}

func TestListView_InvalidSubmitMakesNoCall(t *testing.T) {
	api := newFakeAPI(seedUsers(3)...)
	v, rec := mounted(t, api)

	require.True(t, v.OpenCreate())
	err := v.SubmitCreate(context.Background(), domain.Draft{Name: "Ada", Email: "nope", Phone: "1"})

	require.ErrorIs(t, err, domain.ErrValidation)
	require.Zero(t, api.count("create"))
	require.Empty(t, rec.all())
	require.Equal(t, "Email is invalid", v.Snapshot().Form.Errors[domain.FieldEmail])
}

func TestListView_SubmitWithoutModal(t *testing.T) {
	api := newFakeAPI(seedUsers(3)...)
	v, _ := mounted(t, api)

	require.ErrorIs(t, v.SubmitCreate(context.Background(), validDraft), domain.ErrNoModal)
	require.ErrorIs(t, v.SubmitEdit(context.Background(), 1, validDraft), domain.ErrNoModal)

	require.True(t, v.OpenCreate())
	require.ErrorIs(t, v.SubmitEdit(context.Background(), 1, validDraft), domain.ErrNoModal)
	require.Zero(t, api.count("create")+api.count("update"))
}

func TestListView_BusyRejectsSecondSubmit(t *testing.T) {
	api := newFakeAPI(seedUsers(3)...)
	release := make(chan struct{})
	api.createFn = func(_ context.Context, d domain.Draft) (*domain.User, error) {
		<-release
		u := d.Apply(domain.User{ID: 11})
		return &u, nil
	}
	v, _ := mounted(t, api)
	require.True(t, v.OpenCreate())

	done := make(chan error, 1)
	go func() { done <- v.SubmitCreate(context.Background(), validDraft) }()

	require.Eventually(t, func() bool { return v.Snapshot().Busy }, time.Second, time.Millisecond)
	require.Equal(t, "Creating...", v.Snapshot().Form.SubmitLabel)
	require.ErrorIs(t, v.SubmitCreate(context.Background(), validDraft), domain.ErrBusy)
	require.False(t, v.CloseModal())

	close(release)
	require.NoError(t, <-done)
	require.Equal(t, 1, api.count("create"))
	require.Len(t, v.Snapshot().Users, 4)
}

func TestListView_EditReplacesInPlace(t *testing.T) {
	api := newFakeAPI(seedUsers(5)...)
	api.updateFn = func(_ context.Context, id int, d domain.Draft) (*domain.User, error) {
		u := d.Apply(domain.User{ID: 999})
		return &u, nil
	}
	v, rec := mounted(t, api)

	require.True(t, v.OpenEdit(3))
	s := v.Snapshot()
	require.True(t, s.Form.Editing)
	require.Equal(t, 3, s.Form.UserID)
	require.Equal(t, "User C", s.Form.Values.Name)

	edited := s.Form.Values
	edited.Name = "Clementine"
	require.NoError(t, v.SubmitEdit(context.Background(), 3, edited))

	users := v.Snapshot().Users
	require.Len(t, users, 5)
	require.Equal(t, 3, users[2].ID)
	require.Equal(t, "Clementine", users[2].Name)
	require.Equal(t, []note{{MsgUpdated, domain.SeveritySuccess}}, rec.all())
	require.Nil(t, v.Snapshot().Form)
}

func TestListView_EditFailure(t *testing.T) {
	api := newFakeAPI(seedUsers(5)...)
	api.updateFn = func(context.Context, int, domain.Draft) (*domain.User, error) {
		return nil, domain.NewHTTPError(500)
	}
	v, rec := mounted(t, api)

	require.True(t, v.OpenEdit(2))
	edited := v.Snapshot().Form.Values
	edited.Phone = "000"
	require.Error(t, v.SubmitEdit(context.Background(), 2, edited))

	s := v.Snapshot()
	require.Equal(t, PhaseModalOpen, s.Phase)
	require.Equal(t, "000", s.Form.Values.Phone)
	require.Equal(t, "555-0100", s.Users[1].Phone)
	require.Equal(t, []note{{MsgUpdateFailed, domain.SeverityError}}, rec.all())
}

func TestListView_ModalsAreExclusive(t *testing.T) {
	api := newFakeAPI(seedUsers(3)...)
	v, _ := mounted(t, api)

	require.True(t, v.OpenEdit(1))
	require.True(t, v.OpenCreate())
	s := v.Snapshot()
	require.False(t, s.Form.Editing)
	require.Equal(t, domain.Draft{}, s.Form.Values)

	require.True(t, v.OpenEdit(2))
	require.True(t, v.Snapshot().Form.Editing)

	// switching to another user drops the previous draft
	require.True(t, v.OpenEdit(3))
	require.Equal(t, "User C", v.Snapshot().Form.Values.Name)

	require.False(t, v.OpenEdit(42))
	require.True(t, v.CloseModal())
	require.Equal(t, PhaseReady, v.Snapshot().Phase)
}

func TestListView_DeleteRequiresConfirmation(t *testing.T) {
	api := newFakeAPI(seedUsers(3)...)
	v, rec := mounted(t, api)

	require.NoError(t, v.Delete(context.Background(), 2, false))

	require.Zero(t, api.count("delete"))
	require.Len(t, v.Snapshot().Users, 3)
	require.Empty(t, rec.all())
}

func TestListView_Delete(t *testing.T) {
	api := newFakeAPI(seedUsers(3)...)
	v, rec := mounted(t, api)

	require.NoError(t, v.Delete(context.Background(), 2, true))

	users := v.Snapshot().Users
	require.Len(t, users, 2)
	require.Equal(t, 1, users[0].ID)
	require.Equal(t, 3, users[1].ID)
	require.Equal(t, []note{{MsgDeleted, domain.SeveritySuccess}}, rec.all())
}

func TestListView_DeleteFailureKeepsList(t *testing.T) {
	api := newFakeAPI(seedUsers(3)...)
	api.deleteFn = func(context.Context, int) error {
		return domain.NewNetworkError(errors.New("reset"))
	}
	v, rec := mounted(t, api)

	require.Error(t, v.Delete(context.Background(), 2, true))

	require.Len(t, v.Snapshot().Users, 3)
	require.Equal(t, []note{{MsgDeleteFailed, domain.SeverityError}}, rec.all())
}

func TestListView_DeleteUnknownMakesNoCall(t *testing.T) {
	api := newFakeAPI(seedUsers(3)...)
	v, rec := mounted(t, api)

	require.ErrorIs(t, v.Delete(context.Background(), 42, true), domain.ErrUserNotFound)
	require.Zero(t, api.count("delete"))
	require.Empty(t, rec.all())
}

func TestListView_MutationsNeverRefetch(t *testing.T) {
	api := newFakeAPI(seedUsers(3)...)
	v, _ := mounted(t, api)

	require.True(t, v.OpenCreate())
	require.NoError(t, v.SubmitCreate(context.Background(), validDraft))
	require.True(t, v.OpenEdit(1))
	require.NoError(t, v.SubmitEdit(context.Background(), 1, validDraft))
	require.NoError(t, v.Delete(context.Background(), 2, true))

	require.Equal(t, 1, api.count("list"))
	require.Len(t, v.Snapshot().Users, 3)
}

func TestListView_ReloadDropsStaleResponse(t *testing.T) {
	api := newFakeAPI()
	entered := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	api.listFn = func(context.Context) ([]domain.User, error) {
		if calls.Add(1) == 1 {
			close(entered)
			<-release
			return seedUsers(1), nil
		}
		return seedUsers(4), nil
	}
	v, _ := newTestList(api)

	done := make(chan struct{})
	go func() {
		v.Mount(context.Background())
		close(done)
	}()
	<-entered

	v.Reload(context.Background())
	require.Len(t, v.Snapshot().Users, 4)

	close(release)
	<-done
	require.Len(t, v.Snapshot().Users, 4)
}

func TestListView_UnmountIgnoresLateResponse(t *testing.T) {
	api := newFakeAPI(seedUsers(2)...)
	release := make(chan struct{})
	api.createFn = func(_ context.Context, d domain.Draft) (*domain.User, error) {
		<-release
		u := d.Apply(domain.User{ID: 11})
		return &u, nil
	}
	v, rec := mounted(t, api)
	require.True(t, v.OpenCreate())

	done := make(chan error, 1)
	go func() { done <- v.SubmitCreate(context.Background(), validDraft) }()
	require.Eventually(t, func() bool { return v.Snapshot().Busy }, time.Second, time.Millisecond)

	v.Unmount()
	close(release)
	require.NoError(t, <-done)

	require.Len(t, v.Snapshot().Users, 2)
	require.Empty(t, rec.all())
}

func TestListView_SubmitEditChecksTarget(t *testing.T) {
	api := newFakeAPI(seedUsers(3)...)
	v, rec := mounted(t, api)

	require.True(t, v.OpenEdit(1))
	require.ErrorIs(t, v.SubmitEdit(context.Background(), 2, validDraft), domain.ErrNoModal)

	require.Zero(t, api.count("update"))
	require.Empty(t, rec.all())
	require.Equal(t, "User A", v.Snapshot().Users[0].Name)
	require.Equal(t, "User B", v.Snapshot().Users[1].Name)
}

func TestListView_EditOfDeletedUserFails(t *testing.T) {
	api := newFakeAPI(seedUsers(3)...)
	v, rec := mounted(t, api)

	require.True(t, v.OpenEdit(2))
	require.NoError(t, v.Delete(context.Background(), 2, true))

	err := v.SubmitEdit(context.Background(), 2, validDraft)
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	users := v.Snapshot().Users
	require.Len(t, users, 2)
	require.Equal(t, []note{
		{MsgDeleted, domain.SeveritySuccess},
		{MsgUpdateFailed, domain.SeverityError},
	}, rec.all())
}
