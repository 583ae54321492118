package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/duynhne/user-console/internal/core/domain"
	"github.com/duynhne/user-console/internal/core/session"
	logicv1 "github.com/duynhne/user-console/internal/logic/v1"
	"github.com/duynhne/user-console/middleware"
)

const appTitle = "User Management"

// userForm is the posted create/edit form.
type userForm struct {
	Name     string `form:"name"`
	Email    string `form:"email"`
	Phone    string `form:"phone"`
	Username string `form:"username"`
	Website  string `form:"website"`
}

func (f userForm) draft() domain.Draft {
	return domain.Draft{
		Name:     f.Name,
		Email:    f.Email,
		Phone:    f.Phone,
		Username: f.Username,
		Website:  f.Website,
	}
}

// page is the data every template needs.
type page struct {
	Title  string
	Path   string
	Toasts []domain.Notification
}

type fieldView struct {
	Name     string
	Label    string
	Type     string
	Value    string
	Error    string
	Required bool
}

type listPage struct {
	page
	List         logicv1.ListSnapshot
	Fields       []fieldView
	EmptyMessage string
}

type userPage struct {
	page
	User *domain.User
}

type errorPage struct {
	page
	Code    int
	Heading string
	Message string
}

// UserHandler serves the users pages for the session's workspace.
type UserHandler struct {
	sessions *session.Store[*logicv1.Workspace]
	logger   *zap.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(sessions *session.Store[*logicv1.Workspace], logger *zap.Logger) *UserHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserHandler{sessions: sessions, logger: logger}
}

func (h *UserHandler) workspace(c *gin.Context) *logicv1.Workspace {
	sid, ok := middleware.SessionIDFromGin(c)
	if !ok {
		sid = c.ClientIP()
	}
	return h.sessions.Get(sid)
}

// startSpan opens the handler span. The returned context outlives the
// client connection so that issued backend calls always complete.
func startSpan(c *gin.Context, name string) (context.Context, trace.Span) {
	ctx, span := middleware.StartSpan(c.Request.Context(), name, trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	return context.WithoutCancel(ctx), span
}

func (h *UserHandler) newPage(c *gin.Context, ws *logicv1.Workspace, title string) page {
	return page{
		Title:  title,
		Path:   c.Request.URL.Path,
		Toasts: ws.Tray.Visible(),
	}
}

func redirectHome(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, "/")
}

// ListUsers renders the users page, loading the list on the first visit.
func (h *UserHandler) ListUsers(c *gin.Context) {
	ctx, span := startSpan(c, "web.users.list")
	defer span.End()

	ws := h.workspace(c)
	ws.List.Mount(ctx)
	h.renderList(c, ws)
}

func (h *UserHandler) renderList(c *gin.Context, ws *logicv1.Workspace) {
	snap := ws.List.Snapshot()
	data := listPage{
		page:         h.newPage(c, ws, appTitle),
		List:         snap,
		EmptyMessage: logicv1.EmptyListMessage,
	}
	if snap.Form != nil {
		data.Fields = formFields(snap.Form)
	}
	c.HTML(http.StatusOK, "list", data)
}

func formFields(fs *logicv1.FormSnapshot) []fieldView {
	return []fieldView{
		{Name: domain.FieldName, Label: "Name", Type: "text", Value: fs.Values.Name, Error: fs.Errors[domain.FieldName], Required: true},
		{Name: domain.FieldEmail, Label: "Email", Type: "email", Value: fs.Values.Email, Error: fs.Errors[domain.FieldEmail], Required: true},
		{Name: domain.FieldPhone, Label: "Phone", Type: "tel", Value: fs.Values.Phone, Error: fs.Errors[domain.FieldPhone], Required: true},
		{Name: domain.FieldUsername, Label: "Username", Type: "text", Value: fs.Values.Username, Error: fs.Errors[domain.FieldUsername]},
		{Name: domain.FieldWebsite, Label: "Website", Type: "text", Value: fs.Values.Website, Error: fs.Errors[domain.FieldWebsite]},
	}
}

// Refresh refetches the list from the backend.
func (h *UserHandler) Refresh(c *gin.Context) {
	ctx, span := startSpan(c, "web.users.refresh")
	defer span.End()

	h.workspace(c).List.Reload(ctx)
	redirectHome(c)
}

// NewUser opens the create modal.
func (h *UserHandler) NewUser(c *gin.Context) {
	ctx, span := startSpan(c, "web.users.new")
	defer span.End()

	ws := h.workspace(c)
	ws.List.Mount(ctx)
	ws.List.OpenCreate()
	h.renderList(c, ws)
}

// CreateUser handles the create form post.
func (h *UserHandler) CreateUser(c *gin.Context) {
	ctx, span := startSpan(c, "web.users.create")
	defer span.End()
	logger := middleware.LoggerFrom(c, h.logger)

	var form userForm
	if err := c.ShouldBind(&form); err != nil {
		span.RecordError(err)
		logger.Warn("Invalid form post", zap.Error(err))
		redirectHome(c)
		return
	}

	err := h.workspace(c).List.SubmitCreate(ctx, form.draft())
	h.logSubmit(logger, span, "create", err)
	redirectHome(c)
}

// EditUser opens the edit modal for a user in the local list.
func (h *UserHandler) EditUser(c *gin.Context) {
	ctx, span := startSpan(c, "web.users.edit")
	defer span.End()

	ws := h.workspace(c)
	ws.List.Mount(ctx)

	id, ok := parseUserID(c.Param("id"))
	if !ok || !ws.List.OpenEdit(id) {
		span.SetAttributes(attribute.Bool("user.found", false))
		redirectHome(c)
		return
	}
	span.SetAttributes(attribute.Int("user.id", id))
	h.renderList(c, ws)
}

// UpdateUser handles the edit form post. The id in the path must match the
// user being edited.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	ctx, span := startSpan(c, "web.users.update")
	defer span.End()
	logger := middleware.LoggerFrom(c, h.logger)

	ws := h.workspace(c)
	id, ok := parseUserID(c.Param("id"))
	if !ok {
		h.logSubmit(logger, span, "update", domain.ErrNoModal)
		redirectHome(c)
		return
	}

	var posted userForm
	if err := c.ShouldBind(&posted); err != nil {
		span.RecordError(err)
		logger.Warn("Invalid form post", zap.Error(err))
		redirectHome(c)
		return
	}

	err := ws.List.SubmitEdit(ctx, id, posted.draft())
	h.logSubmit(logger, span, "update", err)
	redirectHome(c)
}

func (h *UserHandler) logSubmit(logger *zap.Logger, span trace.Span, op string, err error) {
	switch {
	case err == nil:
		span.SetAttributes(attribute.String("submit.outcome", "ok"))
	case errors.Is(err, domain.ErrValidation):
		span.SetAttributes(attribute.String("submit.outcome", "invalid"))
	case errors.Is(err, domain.ErrBusy), errors.Is(err, domain.ErrNoModal):
		span.SetAttributes(attribute.String("submit.outcome", "ignored"))
		logger.Debug("Submit ignored", zap.String("op", op), zap.Error(err))
	default:
		span.RecordError(err)
		span.SetAttributes(attribute.String("submit.outcome", "failed"))
		logger.Warn("Submit failed", zap.String("op", op), zap.Int("status", domain.StatusOf(err)), zap.Error(err))
	}
}

// CloseModal cancels the open form.
func (h *UserHandler) CloseModal(c *gin.Context) {
	h.workspace(c).List.CloseModal()
	redirectHome(c)
}

// ConfirmDelete renders the delete confirmation prompt.
func (h *UserHandler) ConfirmDelete(c *gin.Context) {
	ws := h.workspace(c)
	id, ok := parseUserID(c.Param("id"))
	if !ok {
		redirectHome(c)
		return
	}
	u, found := ws.List.Lookup(id)
	if !found {
		redirectHome(c)
		return
	}

	c.HTML(http.StatusOK, "confirm", userPage{
		page: h.newPage(c, ws, "Delete "+u.Name),
		User: &u,
	})
}

// DeleteUser deletes a user when the prompt was answered with yes.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	ctx, span := startSpan(c, "web.users.delete")
	defer span.End()
	logger := middleware.LoggerFrom(c, h.logger)

	id, ok := parseUserID(c.Param("id"))
	if !ok {
		redirectHome(c)
		return
	}
	confirmed := c.PostForm("confirm") == "yes"
	span.SetAttributes(attribute.Int("user.id", id), attribute.Bool("delete.confirmed", confirmed))

	if err := h.workspace(c).List.Delete(ctx, id, confirmed); err != nil {
		span.RecordError(err)
		logger.Warn("Delete failed", zap.Int("user_id", id), zap.Error(err))
	}
	redirectHome(c)
}

// GetUser renders the detail page straight from the backend.
func (h *UserHandler) GetUser(c *gin.Context) {
	ctx, span := startSpan(c, "web.users.detail")
	defer span.End()

	ws := h.workspace(c)
	res := ws.Detail.Load(ctx, c.Param("id"))
	if res.Redirect != "" {
		c.Redirect(http.StatusSeeOther, res.Redirect)
		return
	}

	status := http.StatusOK
	title := "User Not Found"
	if res.User != nil {
		title = res.User.Name
	} else {
		status = http.StatusNotFound
	}
	c.HTML(status, "detail", userPage{
		page: h.newPage(c, ws, title),
		User: res.User,
	})
}

type toastView struct {
	domain.Notification
	ExpiresInMs int64 `json:"expires_in_ms"`
}

// ListToasts returns the visible notifications as JSON.
func (h *UserHandler) ListToasts(c *gin.Context) {
	ws := h.workspace(c)
	visible := ws.Tray.Visible()
	out := make([]toastView, 0, len(visible))
	for _, n := range visible {
		out = append(out, toastView{Notification: n, ExpiresInMs: remaining(n, ws.Tray.Duration()).Milliseconds()})
	}
	c.JSON(http.StatusOK, gin.H{"toasts": out})
}

// DismissToast removes one notification before it expires.
func (h *UserHandler) DismissToast(c *gin.Context) {
	found := h.workspace(c).Tray.Dismiss(c.Param("id"))

	if c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON {
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
			return
		}
		c.Status(http.StatusNoContent)
		return
	}
	c.Redirect(http.StatusSeeOther, safeReturnPath(c.PostForm("return_to")))
}

// NotFound renders the catch-all 404 page.
func (h *UserHandler) NotFound(c *gin.Context) {
	h.renderError(c, http.StatusNotFound, "Page Not Found", "The page you're looking for doesn't exist or has been moved.")
}

// TooManyRequests is shown when a session posts faster than allowed.
func (h *UserHandler) TooManyRequests(c *gin.Context) {
	h.renderError(c, http.StatusTooManyRequests, "Too Many Requests", "You're doing that too often. Please wait a moment and try again.")
}

// Recover renders a 500 page after a handler panic.
func (h *UserHandler) Recover(c *gin.Context, recovered any) {
	middleware.LoggerFrom(c, h.logger).Error("Handler panic", zap.Any("panic", recovered))
	h.renderError(c, http.StatusInternalServerError, "Something Went Wrong", "An unexpected error occurred.")
	c.Abort()
}

// renderError shows toasts only for sessions that already have a workspace;
// stray requests must not allocate one.
func (h *UserHandler) renderError(c *gin.Context, code int, heading, message string) {
	p := page{Title: heading, Path: c.Request.URL.Path}
	if sid, ok := middleware.SessionIDFromGin(c); ok {
		if ws, found := h.sessions.Peek(sid); found {
			p = h.newPage(c, ws, heading)
		}
	}
	c.HTML(code, "error", errorPage{
		page:    p,
		Code:    code,
		Heading: heading,
		Message: message,
	})
}

// remaining is how long n stays on screen given the tray duration.
func remaining(n domain.Notification, d time.Duration) time.Duration {
	left := time.Until(n.CreatedAt.Add(d))
	if left < 0 {
		return 0
	}
	return left
}
