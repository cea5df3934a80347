// Package httpapi exposes the tracker engagement operations as a JSON HTTP API.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	apperrors "github.com/MannLester/GovTrackerPH-sub000/internal/platform/errors"
	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/httpx"
	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/pagination"
	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/principal"
	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/requestctx"
	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/telemetry/metrics"
	"github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/catalog"
	"github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/comment"
	"github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/reaction"
	"github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/storage"
)

// Route patterns served by the API.
const (
	RouteProjects         = "/projects"
	RouteProject          = "/projects/{id}"
	RouteProjectReactions = "/projects/{id}/reactions"
	RouteProjectComments  = "/projects/{id}/comments"
	RouteComment          = "/comments/{id}"
	RouteCommentReactions = "/comments/{id}/reactions"
	RouteCommentReplies   = "/comments/{id}/replies"
	RouteHealth           = "/healthz"
	RouteMetrics          = "/metrics"
)

// ReactionService toggles likes and dislikes.
type ReactionService interface {
	Toggle(ctx context.Context, kind storage.TargetKind, targetID, userID string, vote storage.Vote) (reaction.Result, error)
}

// CommentService manages comment threads.
type CommentService interface {
	Create(ctx context.Context, actor requestctx.Principal, input comment.CreateInput) (storage.CommentView, error)
	Edit(ctx context.Context, actor requestctx.Principal, commentID, content string) (storage.CommentView, error)
	Delete(ctx context.Context, actor requestctx.Principal, commentID string) error
	ListTopLevel(ctx context.Context, projectID, viewerID string, page pagination.Request) (comment.Page, error)
	ListReplies(ctx context.Context, parentID, viewerID string) ([]storage.CommentView, error)
}

// CatalogService reads projects.
type CatalogService interface {
	ListProjects(ctx context.Context, params catalog.ListParams) (catalog.Page, error)
	GetProject(ctx context.Context, projectID, viewerID string) (catalog.Detail, error)
}

// Config wires the API to its services.
type Config struct {
	Reactions ReactionService
	Comments  CommentService
	Catalog   CatalogService
	// Health reports store readiness for /healthz; nil always reports ok.
	Health func(context.Context) error
	Auth   principal.Config
	Logger *slog.Logger
}

type handlers struct {
	reactions ReactionService
	comments  CommentService
	catalog   CatalogService
	health    func(context.Context) error
}

// NewHandler builds the API handler with its middleware chain.
func NewHandler(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := handlers{
		reactions: cfg.Reactions,
		comments:  cfg.Comments,
		catalog:   cfg.Catalog,
		health:    cfg.Health,
	}

	api := http.NewServeMux()
	handle := func(method, route string, fn http.HandlerFunc) {
		api.Handle(method+" "+route, metrics.Instrument(method+" "+route, fn))
	}
	handle(http.MethodGet, RouteProjects, h.handleListProjects)
	handle(http.MethodGet, RouteProject, h.handleGetProject)
	handle(http.MethodPost, RouteProjectReactions, h.handleToggle(storage.TargetProject))
	handle(http.MethodGet, RouteProjectComments, h.handleListComments)
	handle(http.MethodPost, RouteProjectComments, h.handleCreateComment)
	handle(http.MethodPut, RouteComment, h.handleEditComment)
	handle(http.MethodDelete, RouteComment, h.handleDeleteComment)
	handle(http.MethodPost, RouteCommentReactions, h.handleToggle(storage.TargetComment))
	handle(http.MethodGet, RouteCommentReplies, h.handleListReplies)
	api.HandleFunc("/", h.handleNotFound)

	root := http.NewServeMux()
	root.HandleFunc(http.MethodGet+" "+RouteHealth, h.handleHealth)
	root.Handle(http.MethodGet+" "+RouteMetrics, metrics.Handler())
	root.Handle("/", httpx.Chain(api, principal.Middleware(cfg.Auth)))

	return httpx.Chain(root, httpx.RequestID(), httpx.RecoverPanic(logger))
}

func (h handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			httpx.WriteError(w, apperrors.Wrap(apperrors.CodeUnavailable, "store unavailable", err))
			return
		}
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h handlers) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteError(w, apperrors.New(apperrors.CodeNotFound, "route not found"))
}
