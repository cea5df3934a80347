// Package reaction implements the like/dislike ledger shared by projects and
// comments.
package reaction

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/MannLester/GovTrackerPH-sub000/internal/platform/errors"
	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/events"
	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/otel"
	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/telemetry/metrics"
	"github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/storage"
)

const tracerName = "tracker/reaction"

// maxToggleAttempts bounds the retry after losing a race on one pair.
const maxToggleAttempts = 2

// Action reports what a toggle did to the caller's ledger row.
type Action string

const (
	ActionAdded   Action = "added"
	ActionRemoved Action = "removed"
	ActionUpdated Action = "updated"
)

// Result is the outcome of a toggle with counts read after the write.
type Result struct {
	Action   Action
	Likes    int
	Dislikes int
	// Vote is the caller's resulting vote; VoteNone after a removal.
	Vote storage.Vote
}

// ToggledEvent is published after every applied toggle.
type ToggledEvent struct {
	TargetKind storage.TargetKind `json:"targetKind"`
	TargetID   string             `json:"targetId"`
	UserID     string             `json:"userId"`
	Action     Action             `json:"action"`
	Vote       storage.Vote       `json:"vote,omitempty"`
	Likes      int                `json:"likes"`
	Dislikes   int                `json:"dislikes"`
}

// errRaced marks a write that lost to a concurrent writer on the same pair.
var errRaced = errors.New("concurrent reaction write")

// Service toggles and reads reactions.
type Service struct {
	store   storage.ReactionStore
	emitter *events.Emitter
	logger  *slog.Logger
	clock   func() time.Time
}

// NewService creates a reaction service. A nil emitter disables events.
func NewService(store storage.ReactionStore, emitter *events.Emitter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   store,
		emitter: emitter,
		logger:  logger.With("component", "reaction"),
		clock:   time.Now,
	}
}

// ParseVote validates a wire vote value.
func ParseVote(value string) (storage.Vote, error) {
	vote := storage.Vote(strings.ToLower(strings.TrimSpace(value)))
	if !vote.Valid() {
		return storage.VoteNone, apperrors.WithMetadata(
			apperrors.CodeInvalidArgument,
			"vote must be like or dislike",
			map[string]string{"Field": "vote"},
		)
	}
	return vote, nil
}

// Toggle applies vote for userID on the target:
// no row inserts it, the same vote removes it, the other vote flips it.
func (s *Service) Toggle(ctx context.Context, kind storage.TargetKind, targetID, userID string, vote storage.Vote) (result Result, err error) {
	ctx, span := otel.StartSpan(ctx, tracerName, "reaction.Toggle",
		attribute.String("target.kind", string(kind)),
		attribute.String("target.id", targetID),
	)
	defer func() { otel.EndSpan(span, err) }()

	if s == nil || s.store == nil {
		return Result{}, apperrors.New(apperrors.CodeUnavailable, "reaction store is not configured")
	}
	if !vote.Valid() {
		return Result{}, apperrors.WithMetadata(
			apperrors.CodeInvalidArgument,
			"vote must be like or dislike",
			map[string]string{"Field": "vote"},
		)
	}
	if !kind.Valid() {
		return Result{}, apperrors.Newf(apperrors.CodeInvalidArgument, "unknown target kind %q", kind)
	}
	targetID = strings.TrimSpace(targetID)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Result{}, apperrors.New(apperrors.CodeUnauthenticated, "authentication is required")
	}
	if targetID == "" {
		return Result{}, apperrors.Newf(apperrors.CodeInvalidArgument, "%s id is required", kind)
	}

	found, err := s.store.TargetExists(ctx, kind, targetID)
	if err != nil {
		return Result{}, storeError("check target", err)
	}
	if !found {
		return Result{}, apperrors.Newf(apperrors.CodeNotFound, "%s not found", kind)
	}

	var action Action
	for attempt := 1; ; attempt++ {
		action, err = s.apply(ctx, kind, targetID, userID, vote)
		if err == nil {
			break
		}
		if !errors.Is(err, errRaced) {
			return Result{}, err
		}
		metrics.ObserveToggleRetry(string(kind))
		if attempt >= maxToggleAttempts {
			s.logger.Warn("toggle retries exhausted", "target_kind", kind, "target_id", targetID, "user_id", userID)
			return Result{}, apperrors.Wrap(apperrors.CodeConflict, "reaction changed concurrently, please retry", err)
		}
	}

	counts, err := s.store.CountReactions(ctx, kind, targetID)
	if err != nil {
		return Result{}, storeError("count reactions", err)
	}
	result = Result{
		Action:   action,
		Likes:    counts.Likes,
		Dislikes: counts.Dislikes,
		Vote:     vote,
	}
	if action == ActionRemoved {
		result.Vote = storage.VoteNone
	}

	metrics.ObserveToggle(string(kind), string(action))
	s.emitter.Emit(ctx, events.SubjectReactionToggled, userID, ToggledEvent{
		TargetKind: kind,
		TargetID:   targetID,
		UserID:     userID,
		Action:     action,
		Vote:       result.Vote,
		Likes:      result.Likes,
		Dislikes:   result.Dislikes,
	})
	return result, nil
}

// apply runs one attempt of the toggle state machine. Writes are conditional
// on the state just read, so a concurrent writer surfaces as errRaced.
func (s *Service) apply(ctx context.Context, kind storage.TargetKind, targetID, userID string, vote storage.Vote) (Action, error) {
	now := s.clock().UTC()
	existing, err := s.store.GetReaction(ctx, kind, targetID, userID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		err := s.store.InsertReaction(ctx, storage.Reaction{
			TargetKind: kind,
			TargetID:   targetID,
			UserID:     userID,
			Vote:       vote,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if errors.Is(err, storage.ErrAlreadyExists) {
			return "", errRaced
		}
		if err != nil {
			return "", storeError("insert reaction", err)
		}
		return ActionAdded, nil
	case err != nil:
		return "", storeError("get reaction", err)
	case existing.Vote == vote:
		err := s.store.DeleteReaction(ctx, kind, targetID, userID, vote)
		if errors.Is(err, storage.ErrNotFound) {
			return "", errRaced
		}
		if err != nil {
			return "", storeError("delete reaction", err)
		}
		return ActionRemoved, nil
	default:
		err := s.store.UpdateReactionVote(ctx, kind, targetID, userID, existing.Vote, vote, now)
		if errors.Is(err, storage.ErrNotFound) {
			return "", errRaced
		}
		if err != nil {
			return "", storeError("update reaction", err)
		}
		return ActionUpdated, nil
	}
}

// GetVote returns the caller's current vote, or VoteNone.
func (s *Service) GetVote(ctx context.Context, kind storage.TargetKind, targetID, userID string) (storage.Vote, error) {
	if s == nil || s.store == nil {
		return storage.VoteNone, apperrors.New(apperrors.CodeUnavailable, "reaction store is not configured")
	}
	if !kind.Valid() {
		return storage.VoteNone, apperrors.Newf(apperrors.CodeInvalidArgument, "unknown target kind %q", kind)
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return storage.VoteNone, nil
	}
	existing, err := s.store.GetReaction(ctx, kind, strings.TrimSpace(targetID), userID)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.VoteNone, nil
	}
	if err != nil {
		return storage.VoteNone, storeError("get reaction", err)
	}
	return existing.Vote, nil
}

// storeError translates unclassified storage failures.
func storeError(op string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.Wrap(apperrors.CodeNotFound, "target not found", err)
	}
	return apperrors.Wrap(apperrors.CodeUnavailable, op+": storage unavailable", err)
}
