package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/storage"
)

// TargetExists reports whether a project or live comment exists.
func (s *Store) TargetExists(ctx context.Context, kind storage.TargetKind, targetID string) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return false, nil
	}
	switch kind {
	case storage.TargetProject:
		return s.ProjectExists(ctx, targetID)
	case storage.TargetComment:
		return exists(ctx, s.sqlDB, "comment exists",
			`SELECT 1 FROM comments c WHERE c.id = ? AND `+liveComment("c").Clause(),
			targetID,
		)
	default:
		return false, fmt.Errorf("unknown target kind %q", kind)
	}
}

// GetReaction returns the caller's ledger row for a target.
func (s *Store) GetReaction(ctx context.Context, kind storage.TargetKind, targetID, userID string) (storage.Reaction, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Reaction{}, err
	}
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT vote, created_at, updated_at
		   FROM reactions
		  WHERE target_kind = ? AND target_id = ? AND user_id = ?`,
		string(kind), targetID, userID,
	)

	reaction := storage.Reaction{TargetKind: kind, TargetID: targetID, UserID: userID}
	var vote string
	var createdAt, updatedAt int64
	if err := row.Scan(&vote, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Reaction{}, storage.ErrNotFound
		}
		return storage.Reaction{}, unavailable("get reaction", err)
	}
	reaction.Vote = storage.Vote(vote)
	reaction.CreatedAt = fromMillis(createdAt)
	reaction.UpdatedAt = fromMillis(updatedAt)
	return reaction, nil
}

// InsertReaction creates the ledger row for a (target, user) pair.
func (s *Store) InsertReaction(ctx context.Context, reaction storage.Reaction) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if !reaction.TargetKind.Valid() {
		return fmt.Errorf("unknown target kind %q", reaction.TargetKind)
	}
	if !reaction.Vote.Valid() {
		return fmt.Errorf("unknown vote %q", reaction.Vote)
	}
	if strings.TrimSpace(reaction.TargetID) == "" || strings.TrimSpace(reaction.UserID) == "" {
		return fmt.Errorf("target id and user id are required")
	}
	createdAt := reaction.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	updatedAt := reaction.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO reactions (target_kind, target_id, user_id, vote, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		string(reaction.TargetKind),
		reaction.TargetID,
		reaction.UserID,
		string(reaction.Vote),
		toMillis(createdAt),
		toMillis(updatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return unavailable("insert reaction", err)
	}
	return nil
}

// UpdateReactionVote flips a row from one vote to the other.
func (s *Store) UpdateReactionVote(ctx context.Context, kind storage.TargetKind, targetID, userID string, from, to storage.Vote, updatedAt time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if !to.Valid() {
		return fmt.Errorf("unknown vote %q", to)
	}
	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE reactions
		    SET vote = ?, updated_at = ?
		  WHERE target_kind = ? AND target_id = ? AND user_id = ? AND vote = ?`,
		string(to),
		toMillis(updatedAt),
		string(kind),
		targetID,
		userID,
		string(from),
	)
	if err != nil {
		return unavailable("update reaction", err)
	}
	return requireAffected("update reaction", result)
}

// DeleteReaction removes a row that still holds vote.
func (s *Store) DeleteReaction(ctx context.Context, kind storage.TargetKind, targetID, userID string, vote storage.Vote) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM reactions
		  WHERE target_kind = ? AND target_id = ? AND user_id = ? AND vote = ?`,
		string(kind),
		targetID,
		userID,
		string(vote),
	)
	if err != nil {
		return unavailable("delete reaction", err)
	}
	return requireAffected("delete reaction", result)
}

// CountReactions counts current likes and dislikes for a target.
func (s *Store) CountReactions(ctx context.Context, kind storage.TargetKind, targetID string) (storage.ReactionCounts, error) {
	if err := s.ready(ctx); err != nil {
		return storage.ReactionCounts{}, err
	}
	var counts storage.ReactionCounts
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT COALESCE(SUM(vote = 'like'), 0), COALESCE(SUM(vote = 'dislike'), 0)
		   FROM reactions
		  WHERE target_kind = ? AND target_id = ?`,
		string(kind), targetID,
	).Scan(&counts.Likes, &counts.Dislikes)
	if err != nil {
		return storage.ReactionCounts{}, unavailable("count reactions", err)
	}
	return counts, nil
}
