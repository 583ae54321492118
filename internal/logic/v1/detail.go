package v1

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/duynhne/user-console/internal/core/domain"
	"github.com/duynhne/user-console/middleware"
)

// DetailView loads a single user straight from the backend.
type DetailView struct {
	api      domain.UserAPI
	notifier domain.Notifier
	logger   *zap.Logger
}

// NewDetailView creates a detail view
func NewDetailView(api domain.UserAPI, notifier domain.Notifier, logger *zap.Logger) *DetailView {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DetailView{api: api, notifier: notifier, logger: logger}
}

// DetailResult is the outcome of a detail load. A non-empty Redirect means
// the page must not render; a nil User without Redirect renders the
// not-found card.
type DetailResult struct {
	User     *domain.User
	Redirect string
}

// Load fetches the user named by rawID. Any failure, including an id that is
// not an integer, produces one error notification and a redirect home.
func (d *DetailView) Load(ctx context.Context, rawID string) DetailResult {
	ctx, span := middleware.StartSpan(ctx, "users.detail", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("user.raw_id", rawID),
	))
	defer span.End()

	id, err := strconv.Atoi(rawID)
	if err != nil {
		span.SetAttributes(attribute.Bool("user.found", false))
		d.logger.Warn("Invalid user id", zap.String("raw_id", rawID))
		d.notifier.Publish(MsgDetailFailed, domain.SeverityError)
		return DetailResult{Redirect: "/"}
	}

	u, err := d.api.GetUser(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("user.found", false))
		d.logger.Warn("Failed to load user details", zap.Int("user_id", id), zap.Error(err))
		d.notifier.Publish(MsgDetailFailed, domain.SeverityError)
		return DetailResult{Redirect: "/"}
	}

	span.SetAttributes(attribute.Bool("user.found", u != nil))
	return DetailResult{User: u}
}
