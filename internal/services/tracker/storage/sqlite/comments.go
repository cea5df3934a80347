package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/query"
	"github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/storage"
)

const (
	colCommentID        query.Column = "c.id"
	colCommentProjectID query.Column = "c.project_id"
	colCommentParentID  query.Column = "c.parent_id"
	colCommentCreatedAt query.Column = "c.created_at"
)

// commentViewSelect projects a comment row with author data, reaction
// counts, the viewer's vote (first bind argument) and its live reply count.
var commentViewSelect = `SELECT c.id, c.project_id, c.user_id, COALESCE(c.parent_id, ''), c.content,
        c.created_at, c.updated_at,
        COALESCE(u.display_name, ''), COALESCE(u.avatar_url, ''),
        (SELECT COUNT(*) FROM reactions rl
          WHERE rl.target_kind = 'comment' AND rl.target_id = c.id AND rl.vote = 'like'),
        (SELECT COUNT(*) FROM reactions rd
          WHERE rd.target_kind = 'comment' AND rd.target_id = c.id AND rd.vote = 'dislike'),
        COALESCE(v.vote, ''),
        (SELECT COUNT(*) FROM comments r
          WHERE r.parent_id = c.id AND ` + liveComment("r").Clause() + `)
   FROM comments c
   LEFT JOIN users u ON u.id = c.user_id
   LEFT JOIN reactions v
     ON v.target_kind = 'comment' AND v.target_id = c.id AND v.user_id = ?`

// ProjectExists reports whether a project row exists.
func (s *Store) ProjectExists(ctx context.Context, projectID string) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	return exists(ctx, s.sqlDB, "project exists", `SELECT 1 FROM projects WHERE id = ?`, strings.TrimSpace(projectID))
}

// GetComment returns one live comment.
func (s *Store) GetComment(ctx context.Context, commentID string) (storage.Comment, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Comment{}, err
	}
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT c.id, c.project_id, c.user_id, COALESCE(c.parent_id, ''), c.content, c.created_at, c.updated_at
		   FROM comments c
		  WHERE c.id = ? AND `+liveComment("c").Clause(),
		strings.TrimSpace(commentID),
	)
	var comment storage.Comment
	var createdAt, updatedAt int64
	err := row.Scan(
		&comment.ID,
		&comment.ProjectID,
		&comment.UserID,
		&comment.ParentID,
		&comment.Content,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Comment{}, storage.ErrNotFound
		}
		return storage.Comment{}, unavailable("get comment", err)
	}
	comment.CreatedAt = fromMillis(createdAt)
	comment.UpdatedAt = fromMillis(updatedAt)
	return comment, nil
}

// CreateComment inserts a comment or reply.
func (s *Store) CreateComment(ctx context.Context, comment storage.Comment) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(comment.ID) == "" {
		return fmt.Errorf("comment id is required")
	}
	if strings.TrimSpace(comment.Content) == "" {
		return fmt.Errorf("comment content is required")
	}
	createdAt := comment.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	updatedAt := comment.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}
	var parentID sql.NullString
	if comment.ParentID != "" {
		parentID = sql.NullString{String: comment.ParentID, Valid: true}
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO comments (id, project_id, user_id, content, parent_id, is_deleted, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		comment.ID,
		comment.ProjectID,
		comment.UserID,
		comment.Content,
		parentID,
		toMillis(createdAt),
		toMillis(updatedAt),
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return storage.ErrAlreadyExists
		case isReplyDepthViolation(err):
			return storage.ErrInvalidParent
		case isForeignKeyViolation(err):
			return storage.ErrNotFound
		}
		return unavailable("create comment", err)
	}
	return nil
}

// UpdateCommentContent replaces the content of a live comment.
func (s *Store) UpdateCommentContent(ctx context.Context, commentID, content string, updatedAt time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("comment content is required")
	}
	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE comments SET content = ?, updated_at = ?
		  WHERE id = ? AND `+liveComment("comments").Clause(),
		content,
		toMillis(updatedAt),
		commentID,
	)
	if err != nil {
		return unavailable("update comment", err)
	}
	return requireAffected("update comment", result)
}

// SoftDeleteComment flags a live comment as deleted. The row and its replies
// are retained.
func (s *Store) SoftDeleteComment(ctx context.Context, commentID string, updatedAt time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE comments SET is_deleted = 1, updated_at = ?
		  WHERE id = ? AND `+liveComment("comments").Clause(),
		toMillis(updatedAt),
		commentID,
	)
	if err != nil {
		return unavailable("delete comment", err)
	}
	return requireAffected("delete comment", result)
}

// GetCommentView returns one live comment annotated for viewerID.
func (s *Store) GetCommentView(ctx context.Context, commentID, viewerID string) (storage.CommentView, error) {
	if err := s.ready(ctx); err != nil {
		return storage.CommentView{}, err
	}
	where := query.Where{}.And(query.Eq(colCommentID, commentID), liveComment("c"))
	whereSQL, whereArgs := where.SQL()
	args := append([]any{viewerID}, whereArgs...)

	view, err := scanCommentView(s.sqlDB.QueryRowContext(ctx, commentViewSelect+whereSQL, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.CommentView{}, storage.ErrNotFound
		}
		return storage.CommentView{}, unavailable("get comment view", err)
	}
	return view, nil
}

// ListTopLevelComments returns one newest-first page of live top-level
// comments and the count of the same filtered set.
func (s *Store) ListTopLevelComments(ctx context.Context, projectID, viewerID string, limit, offset int) (storage.CommentPage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.CommentPage{}, err
	}
	if limit <= 0 {
		return storage.CommentPage{}, fmt.Errorf("limit must be greater than zero")
	}
	where := query.Where{}.And(
		query.Eq(colCommentProjectID, projectID),
		query.IsNull(colCommentParentID),
		liveComment("c"),
	)
	whereSQL, whereArgs := where.SQL()

	total, err := countRows(ctx, s.sqlDB, "count comments", `SELECT COUNT(*) FROM comments c`+whereSQL, whereArgs...)
	if err != nil {
		return storage.CommentPage{}, err
	}

	order := query.OrderBy(colCommentCreatedAt, query.Desc).Then(colCommentID, query.Desc)
	limitSQL, limitArgs := query.Limit(limit, offset)
	args := append([]any{viewerID}, whereArgs...)
	args = append(args, limitArgs...)

	views, err := s.queryCommentViews(ctx, "list comments", commentViewSelect+whereSQL+order.SQL()+limitSQL, args...)
	if err != nil {
		return storage.CommentPage{}, err
	}
	return storage.CommentPage{Comments: views, TotalCount: total}, nil
}

// ListReplies returns the oldest-first live replies to parentID. Replies are
// listed even when the parent itself has been soft-deleted.
func (s *Store) ListReplies(ctx context.Context, parentID, viewerID string) ([]storage.CommentView, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	where := query.Where{}.And(query.Eq(colCommentParentID, parentID), liveComment("c"))
	whereSQL, whereArgs := where.SQL()
	order := query.OrderBy(colCommentCreatedAt, query.Asc).Then(colCommentID, query.Asc)
	args := append([]any{viewerID}, whereArgs...)
	return s.queryCommentViews(ctx, "list replies", commentViewSelect+whereSQL+order.SQL(), args...)
}

func (s *Store) queryCommentViews(ctx context.Context, op, stmt string, args ...any) ([]storage.CommentView, error) {
	rows, err := s.sqlDB.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	views := make([]storage.CommentView, 0)
	for rows.Next() {
		view, err := scanCommentView(rows)
		if err != nil {
			return nil, unavailable(op, err)
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}
	return views, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCommentView(row rowScanner) (storage.CommentView, error) {
	var view storage.CommentView
	var createdAt, updatedAt int64
	var vote string
	err := row.Scan(
		&view.ID,
		&view.ProjectID,
		&view.UserID,
		&view.ParentID,
		&view.Content,
		&createdAt,
		&updatedAt,
		&view.Author.Name,
		&view.Author.AvatarURL,
		&view.Likes,
		&view.Dislikes,
		&vote,
		&view.ReplyCount,
	)
	if err != nil {
		return storage.CommentView{}, err
	}
	view.Author.ID = view.UserID
	view.CreatedAt = fromMillis(createdAt)
	view.UpdatedAt = fromMillis(updatedAt)
	view.ViewerVote = storage.Vote(vote)
	return view, nil
}
