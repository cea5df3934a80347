package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/query"
	"github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/storage"
)

const (
	colProjectID          query.Column = "p.id"
	colProjectTitle       query.Column = "p.title"
	colProjectDescription query.Column = "p.description"
	colStatusName         query.Column = "s.name"
	colLocationRegion     query.Column = "l.region"
)

var projectSortColumns = map[storage.SortField]query.Column{
	storage.SortCreatedAt: "p.created_at",
	storage.SortUpdatedAt: "p.updated_at",
	storage.SortTitle:     "p.title",
	storage.SortAmount:    "p.amount",
	storage.SortProgress:  "p.progress",
	storage.SortViewCount: "p.view_count",
}

// projectFrom joins the reference tables every catalog read resolves. The
// joins are on primary keys so they never multiply project rows.
const projectFrom = `
   FROM projects p
   JOIN statuses s ON s.id = p.status_id
   JOIN locations l ON l.id = p.location_id
   LEFT JOIN contractors k ON k.id = p.contractor_id`

// projectViewSelect projects a catalog row with derived engagement counts and
// the viewer's vote (first bind argument).
var projectViewSelect = `SELECT p.id, p.title, p.description, p.amount,
        s.name, l.region, l.city, COALESCE(k.name, ''),
        p.progress, p.reason, p.expected_outcome, p.created_by, p.view_count,
        p.created_at, p.updated_at,
        (SELECT COUNT(*) FROM reactions rl
          WHERE rl.target_kind = 'project' AND rl.target_id = p.id AND rl.vote = 'like'),
        (SELECT COUNT(*) FROM reactions rd
          WHERE rd.target_kind = 'project' AND rd.target_id = p.id AND rd.vote = 'dislike'),
        (SELECT COUNT(*) FROM comments cc
          WHERE cc.project_id = p.id AND ` + liveComment("cc").Clause() + `),
        COALESCE(v.vote, '')` + projectFrom + `
   LEFT JOIN reactions v
     ON v.target_kind = 'project' AND v.target_id = p.id AND v.user_id = ?`

// projectWhere folds each present filter into one predicate. Absent filters
// contribute nothing.
func projectWhere(filter storage.ProjectFilter) query.Where {
	where := query.Where{}
	if status := strings.TrimSpace(filter.Status); status != "" {
		where = where.And(query.FoldEq(colStatusName, status))
	}
	if region := strings.TrimSpace(filter.Region); region != "" {
		where = where.And(query.FoldEq(colLocationRegion, region))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		where = where.And(query.Or(
			query.FoldContains(colProjectTitle, search),
			query.FoldContains(colProjectDescription, search),
		))
	}
	return where
}

// ListProjects returns one page of the filtered catalog and the filtered total.
func (s *Store) ListProjects(ctx context.Context, q storage.ProjectQuery) (storage.ProjectPage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.ProjectPage{}, err
	}
	if q.Limit <= 0 {
		return storage.ProjectPage{}, fmt.Errorf("limit must be greater than zero")
	}
	sortField := q.SortField
	if sortField == "" {
		sortField = storage.SortCreatedAt
	}
	sortColumn, ok := projectSortColumns[sortField]
	if !ok {
		return storage.ProjectPage{}, fmt.Errorf("unsupported sort field %q", sortField)
	}
	direction := query.Asc
	if q.Descending {
		direction = query.Desc
	}

	whereSQL, whereArgs := projectWhere(q.Filter).SQL()
	total, err := countRows(ctx, s.sqlDB, "count projects", `SELECT COUNT(*)`+projectFrom+whereSQL, whereArgs...)
	if err != nil {
		return storage.ProjectPage{}, err
	}

	order := query.OrderBy(sortColumn, direction).Then(colProjectID, direction)
	limitSQL, limitArgs := query.Limit(q.Limit, q.Offset)
	args := append([]any{q.ViewerID}, whereArgs...)
	args = append(args, limitArgs...)

	rows, err := s.sqlDB.QueryContext(ctx, projectViewSelect+whereSQL+order.SQL()+limitSQL, args...)
	if err != nil {
		return storage.ProjectPage{}, unavailable("list projects", err)
	}
	defer rows.Close()

	page := storage.ProjectPage{Projects: make([]storage.ProjectView, 0, q.Limit), TotalCount: total}
	for rows.Next() {
		view, err := scanProjectView(rows)
		if err != nil {
			return storage.ProjectPage{}, unavailable("list projects", err)
		}
		page.Projects = append(page.Projects, view)
	}
	if err := rows.Err(); err != nil {
		return storage.ProjectPage{}, unavailable("list projects", err)
	}
	return page, nil
}

// GetProjectView returns one project annotated for viewerID.
func (s *Store) GetProjectView(ctx context.Context, projectID, viewerID string) (storage.ProjectView, error) {
	if err := s.ready(ctx); err != nil {
		return storage.ProjectView{}, err
	}
	whereSQL, whereArgs := query.Where{}.And(query.Eq(colProjectID, projectID)).SQL()
	args := append([]any{viewerID}, whereArgs...)

	view, err := scanProjectView(s.sqlDB.QueryRowContext(ctx, projectViewSelect+whereSQL, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ProjectView{}, storage.ErrNotFound
		}
		return storage.ProjectView{}, unavailable("get project", err)
	}
	return view, nil
}

// ListMilestones returns a project's milestones in display order.
func (s *Store) ListMilestones(ctx context.Context, projectID string) ([]storage.Milestone, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, project_id, title, description, target_date, completed, position
		   FROM project_milestones
		  WHERE project_id = ?
		  ORDER BY position ASC, id ASC`,
		projectID,
	)
	if err != nil {
		return nil, unavailable("list milestones", err)
	}
	defer rows.Close()

	milestones := make([]storage.Milestone, 0)
	for rows.Next() {
		var m storage.Milestone
		var targetDate sql.NullInt64
		var completed int
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Title, &m.Description, &targetDate, &completed, &m.Position); err != nil {
			return nil, unavailable("list milestones", err)
		}
		if targetDate.Valid {
			m.TargetDate = fromMillis(targetDate.Int64)
		}
		m.Completed = completed != 0
		milestones = append(milestones, m)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list milestones", err)
	}
	return milestones, nil
}

// ListImages returns a project's images in display order.
func (s *Store) ListImages(ctx context.Context, projectID string) ([]storage.Image, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, project_id, url, caption, position
		   FROM project_images
		  WHERE project_id = ?
		  ORDER BY position ASC, id ASC`,
		projectID,
	)
	if err != nil {
		return nil, unavailable("list images", err)
	}
	defer rows.Close()

	images := make([]storage.Image, 0)
	for rows.Next() {
		var img storage.Image
		if err := rows.Scan(&img.ID, &img.ProjectID, &img.URL, &img.Caption, &img.Position); err != nil {
			return nil, unavailable("list images", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list images", err)
	}
	return images, nil
}

// IncrementViewCount adds one to a project's view counter.
func (s *Store) IncrementViewCount(ctx context.Context, projectID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `UPDATE projects SET view_count = view_count + 1 WHERE id = ?`, projectID)
	if err != nil {
		return unavailable("increment view count", err)
	}
	return requireAffected("increment view count", result)
}

func scanProjectView(row rowScanner) (storage.ProjectView, error) {
	var view storage.ProjectView
	var createdAt, updatedAt int64
	var vote string
	err := row.Scan(
		&view.ID,
		&view.Title,
		&view.Description,
		&view.Amount,
		&view.Status,
		&view.Region,
		&view.City,
		&view.Contractor,
		&view.Progress,
		&view.Reason,
		&view.ExpectedOutcome,
		&view.CreatedBy,
		&view.ViewCount,
		&createdAt,
		&updatedAt,
		&view.Likes,
		&view.Dislikes,
		&view.CommentCount,
		&vote,
	)
	if err != nil {
		return storage.ProjectView{}, err
	}
	view.CreatedAt = fromMillis(createdAt)
	view.UpdatedAt = fromMillis(updatedAt)
	view.ViewerVote = storage.Vote(vote)
	return view, nil
}
