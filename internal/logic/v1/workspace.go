package v1

import (
	"time"

	"go.uber.org/zap"

	"github.com/duynhne/user-console/internal/core/domain"
	"github.com/duynhne/user-console/internal/core/notify"
	"github.com/duynhne/user-console/internal/core/repository/memory"
)

// WorkspaceOptions tunes a per-session workspace
type WorkspaceOptions struct {
	ToastDuration time.Duration
	IDPolicy      IDPolicy
	Logger        *zap.Logger
	Clock         func() time.Time
}

// Workspace is everything one browser session owns: its notification
// channel with the tray listening on it, the users list view and the
// detail view.
type Workspace struct {
	Channel *notify.Channel
	Tray    *notify.Tray
	List    *ListView
	Detail  *DetailView
}

// NewWorkspace wires a fresh workspace against api.
func NewWorkspace(api domain.UserAPI, opts WorkspaceOptions) *Workspace {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ch := notify.NewChannel()
	tray := notify.NewTray(ch, opts.ToastDuration)

	listOpts := []ListOption{WithIDPolicy(opts.IDPolicy), WithLogger(logger)}
	if opts.Clock != nil {
		listOpts = append(listOpts, WithClock(opts.Clock))
	}

	return &Workspace{
		Channel: ch,
		Tray:    tray,
		List:    NewListView(api, memory.NewUserRepository(), ch, listOpts...),
		Detail:  NewDetailView(api, ch, logger),
	}
}

// Close detaches the workspace. Late backend responses are dropped.
func (w *Workspace) Close() {
	w.List.Unmount()
	w.Tray.Stop()
	w.Channel.Close()
}
