// Package comment implements project comments and their one-level reply
// threads.
package comment

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/MannLester/GovTrackerPH-sub000/internal/platform/errors"
	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/events"
	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/id"
	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/otel"
	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/pagination"
	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/requestctx"
	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/telemetry/metrics"
	"github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/storage"
)

const tracerName = "tracker/comment"

// MaxContentLength caps comment bodies, counted in runes after trimming.
const MaxContentLength = 5000

// PageSize bounds top-level listings.
var PageSize = pagination.PageSizeConfig{Default: 10, Max: 100}

// CreateInput describes a new comment or reply.
type CreateInput struct {
	ProjectID string
	Content   string
	// ParentID is empty for a top-level comment.
	ParentID string
}

// Page is one page of top-level comments.
type Page struct {
	Comments   []storage.CommentView
	Pagination pagination.Info
}

// ChangedEvent is published after a comment is created, edited or deleted.
type ChangedEvent struct {
	CommentID string `json:"commentId"`
	ProjectID string `json:"projectId"`
	ParentID  string `json:"parentId,omitempty"`
	AuthorID  string `json:"authorId"`
}

// Service manages comments.
type Service struct {
	store   storage.CommentStore
	emitter *events.Emitter
	logger  *slog.Logger
	clock   func() time.Time
	newID   func() (string, error)
}

// NewService creates a comment service. A nil emitter disables events.
func NewService(store storage.CommentStore, emitter *events.Emitter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   store,
		emitter: emitter,
		logger:  logger.With("component", "comment"),
		clock:   time.Now,
		newID:   id.NewID,
	}
}

// Create stores a comment authored by actor and returns it with author
// display data and zero reaction counts.
func (s *Service) Create(ctx context.Context, actor requestctx.Principal, input CreateInput) (view storage.CommentView, err error) {
	ctx, span := otel.StartSpan(ctx, tracerName, "comment.Create",
		attribute.String("project.id", input.ProjectID),
	)
	defer func() { otel.EndSpan(span, err) }()

	if err := s.configured(); err != nil {
		return storage.CommentView{}, err
	}
	if strings.TrimSpace(actor.ID) == "" {
		return storage.CommentView{}, apperrors.New(apperrors.CodeUnauthenticated, "authentication is required")
	}
	content, err := normalizeContent(input.Content)
	if err != nil {
		return storage.CommentView{}, err
	}
	projectID := strings.TrimSpace(input.ProjectID)
	parentID := strings.TrimSpace(input.ParentID)
	if projectID == "" {
		return storage.CommentView{}, apperrors.New(apperrors.CodeInvalidArgument, "project id is required")
	}

	found, err := s.store.ProjectExists(ctx, projectID)
	if err != nil {
		return storage.CommentView{}, storeError("check project", err)
	}
	if !found {
		return storage.CommentView{}, apperrors.New(apperrors.CodeNotFound, "project not found")
	}
	if parentID != "" {
		if err := s.checkParent(ctx, projectID, parentID); err != nil {
			return storage.CommentView{}, err
		}
	}

	commentID, err := s.newID()
	if err != nil {
		return storage.CommentView{}, apperrors.Wrap(apperrors.CodeUnknown, "generate comment id", err)
	}
	now := s.clock().UTC()
	record := storage.Comment{
		ID:        commentID,
		ProjectID: projectID,
		UserID:    actor.ID,
		ParentID:  parentID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateComment(ctx, record); err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidParent):
			return storage.CommentView{}, invalidParent()
		case errors.Is(err, storage.ErrAlreadyExists):
			return storage.CommentView{}, apperrors.Wrap(apperrors.CodeConflict, "comment id collision, please retry", err)
		case errors.Is(err, storage.ErrNotFound):
			return storage.CommentView{}, apperrors.Wrap(apperrors.CodeNotFound, "project not found", err)
		}
		return storage.CommentView{}, storeError("create comment", err)
	}

	view, err = s.store.GetCommentView(ctx, commentID, actor.ID)
	if err != nil {
		return storage.CommentView{}, storeError("load comment", err)
	}
	metrics.ObserveCommentWrite("create")
	s.emit(ctx, events.SubjectCommentCreated, actor.ID, record)
	return view, nil
}

// Edit replaces the content of a comment owned by actor.
func (s *Service) Edit(ctx context.Context, actor requestctx.Principal, commentID, content string) (view storage.CommentView, err error) {
	ctx, span := otel.StartSpan(ctx, tracerName, "comment.Edit",
		attribute.String("comment.id", commentID),
	)
	defer func() { otel.EndSpan(span, err) }()

	if err := s.configured(); err != nil {
		return storage.CommentView{}, err
	}
	if strings.TrimSpace(actor.ID) == "" {
		return storage.CommentView{}, apperrors.New(apperrors.CodeUnauthenticated, "authentication is required")
	}
	content, err = normalizeContent(content)
	if err != nil {
		return storage.CommentView{}, err
	}

	existing, err := s.load(ctx, commentID)
	if err != nil {
		return storage.CommentView{}, err
	}
	if existing.UserID != actor.ID {
		return storage.CommentView{}, apperrors.New(apperrors.CodeForbidden, "only the author may edit this comment")
	}
	if err := s.store.UpdateCommentContent(ctx, existing.ID, content, s.clock().UTC()); err != nil {
		return storage.CommentView{}, storeError("update comment", err)
	}

	view, err = s.store.GetCommentView(ctx, existing.ID, actor.ID)
	if err != nil {
		return storage.CommentView{}, storeError("load comment", err)
	}
	metrics.ObserveCommentWrite("edit")
	s.emit(ctx, events.SubjectCommentUpdated, actor.ID, existing)
	return view, nil
}

// Delete soft-deletes a comment. The author and administrators may delete.
func (s *Service) Delete(ctx context.Context, actor requestctx.Principal, commentID string) (err error) {
	ctx, span := otel.StartSpan(ctx, tracerName, "comment.Delete",
		attribute.String("comment.id", commentID),
	)
	defer func() { otel.EndSpan(span, err) }()

	if err := s.configured(); err != nil {
		return err
	}
	if strings.TrimSpace(actor.ID) == "" {
		return apperrors.New(apperrors.CodeUnauthenticated, "authentication is required")
	}

	existing, err := s.load(ctx, commentID)
	if err != nil {
		return err
	}
	if existing.UserID != actor.ID && !actor.IsAdmin() {
		return apperrors.New(apperrors.CodeForbidden, "only the author or an administrator may delete this comment")
	}
	if err := s.store.SoftDeleteComment(ctx, existing.ID, s.clock().UTC()); err != nil {
		return storeError("delete comment", err)
	}

	metrics.ObserveCommentWrite("delete")
	s.emit(ctx, events.SubjectCommentDeleted, actor.ID, existing)
	return nil
}

// ListTopLevel returns newest-first top-level comments of a project.
func (s *Service) ListTopLevel(ctx context.Context, projectID, viewerID string, page pagination.Request) (result Page, err error) {
	ctx, span := otel.StartSpan(ctx, tracerName, "comment.ListTopLevel",
		attribute.String("project.id", projectID),
	)
	defer func() { otel.EndSpan(span, err) }()

	if err := s.configured(); err != nil {
		return Page{}, err
	}
	projectID = strings.TrimSpace(projectID)
	found, err := s.store.ProjectExists(ctx, projectID)
	if err != nil {
		return Page{}, storeError("check project", err)
	}
	if !found {
		return Page{}, apperrors.New(apperrors.CodeNotFound, "project not found")
	}

	req := pagination.Normalize(page.Page, page.Limit, PageSize)
	rows, err := s.store.ListTopLevelComments(ctx, projectID, strings.TrimSpace(viewerID), req.Limit, req.Offset())
	if err != nil {
		return Page{}, storeError("list comments", err)
	}
	return Page{
		Comments:   rows.Comments,
		Pagination: pagination.NewInfo(req, rows.TotalCount),
	}, nil
}

// ListReplies returns oldest-first live replies to parentID. An unknown
// parent yields an empty list.
func (s *Service) ListReplies(ctx context.Context, parentID, viewerID string) (replies []storage.CommentView, err error) {
	ctx, span := otel.StartSpan(ctx, tracerName, "comment.ListReplies",
		attribute.String("comment.id", parentID),
	)
	defer func() { otel.EndSpan(span, err) }()

	if err := s.configured(); err != nil {
		return nil, err
	}
	parentID = strings.TrimSpace(parentID)
	if parentID == "" {
		return []storage.CommentView{}, nil
	}
	replies, err = s.store.ListReplies(ctx, parentID, strings.TrimSpace(viewerID))
	if err != nil {
		return nil, storeError("list replies", err)
	}
	if replies == nil {
		replies = []storage.CommentView{}
	}
	return replies, nil
}

func (s *Service) configured() error {
	if s == nil || s.store == nil {
		return apperrors.New(apperrors.CodeUnavailable, "comment store is not configured")
	}
	return nil
}

// checkParent requires a live top-level comment on the same project.
func (s *Service) checkParent(ctx context.Context, projectID, parentID string) error {
	parent, err := s.store.GetComment(ctx, parentID)
	if errors.Is(err, storage.ErrNotFound) {
		return invalidParent()
	}
	if err != nil {
		return storeError("get parent comment", err)
	}
	if parent.IsReply() || parent.ProjectID != projectID {
		return invalidParent()
	}
	return nil
}

func (s *Service) load(ctx context.Context, commentID string) (storage.Comment, error) {
	commentID = strings.TrimSpace(commentID)
	if commentID == "" {
		return storage.Comment{}, apperrors.New(apperrors.CodeNotFound, "comment not found")
	}
	existing, err := s.store.GetComment(ctx, commentID)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.Comment{}, apperrors.Wrap(apperrors.CodeNotFound, "comment not found", err)
	}
	if err != nil {
		return storage.Comment{}, storeError("get comment", err)
	}
	return existing, nil
}

func (s *Service) emit(ctx context.Context, subject, actorID string, c storage.Comment) {
	s.emitter.Emit(ctx, subject, actorID, ChangedEvent{
		CommentID: c.ID,
		ProjectID: c.ProjectID,
		ParentID:  c.ParentID,
		AuthorID:  c.UserID,
	})
}

func normalizeContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperrors.WithMetadata(apperrors.CodeInvalidArgument, "comment content is required", map[string]string{"Field": "content"})
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return "", apperrors.WithMetadata(apperrors.CodeInvalidArgument, "comment content is too long", map[string]string{"Field": "content"})
	}
	return content, nil
}

func invalidParent() error {
	return apperrors.WithMetadata(
		apperrors.CodeInvalidArgument,
		"replies must answer a live top-level comment on the same project",
		map[string]string{"Field": "parentId"},
	)
}

func storeError(op string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.Wrap(apperrors.CodeNotFound, "comment not found", err)
	}
	return apperrors.Wrap(apperrors.CodeUnavailable, op+": storage unavailable", err)
}
