package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/storage"
)

// PutStatus upserts a status row.
func (s *Store) PutStatus(ctx context.Context, status storage.Status) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(status.ID) == "" || strings.TrimSpace(status.Name) == "" {
		return fmt.Errorf("status id and name are required")
	}
	return s.upsert(ctx, "put status",
		`INSERT INTO statuses (id, name) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		status.ID, status.Name,
	)
}

// PutLocation upserts a location row.
func (s *Store) PutLocation(ctx context.Context, location storage.Location) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(location.ID) == "" || strings.TrimSpace(location.Region) == "" {
		return fmt.Errorf("location id and region are required")
	}
	return s.upsert(ctx, "put location",
		`INSERT INTO locations (id, region, city) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET region = excluded.region, city = excluded.city`,
		location.ID, location.Region, location.City,
	)
}

// PutContractor upserts a contractor row.
func (s *Store) PutContractor(ctx context.Context, contractor storage.Contractor) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(contractor.ID) == "" {
		return fmt.Errorf("contractor id is required")
	}
	return s.upsert(ctx, "put contractor",
		`INSERT INTO contractors (id, name) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		contractor.ID, contractor.Name,
	)
}

// PutUser upserts the display data of a user.
func (s *Store) PutUser(ctx context.Context, user storage.User) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(user.ID) == "" {
		return fmt.Errorf("user id is required")
	}
	role := user.Role
	if role == "" {
		role = "user"
	}
	return s.upsert(ctx, "put user",
		`INSERT INTO users (id, display_name, avatar_url, role) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   display_name = excluded.display_name,
		   avatar_url = excluded.avatar_url,
		   role = excluded.role`,
		user.ID, user.DisplayName, user.AvatarURL, role,
	)
}

// PutProject upserts a project row. The view counter is preserved.
func (s *Store) PutProject(ctx context.Context, project storage.ProjectRecord) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(project.ID) == "" || strings.TrimSpace(project.Title) == "" {
		return fmt.Errorf("project id and title are required")
	}
	if project.Progress < 0 || project.Progress > 100 {
		return fmt.Errorf("project progress must be between 0 and 100")
	}
	createdAt := project.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	updatedAt := project.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}
	var contractorID sql.NullString
	if project.ContractorID != "" {
		contractorID = sql.NullString{String: project.ContractorID, Valid: true}
	}
	return s.upsert(ctx, "put project",
		`INSERT INTO projects (
		   id, title, description, amount, status_id, location_id, contractor_id,
		   progress, reason, expected_outcome, created_by, view_count, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title = excluded.title,
		   description = excluded.description,
		   amount = excluded.amount,
		   status_id = excluded.status_id,
		   location_id = excluded.location_id,
		   contractor_id = excluded.contractor_id,
		   progress = excluded.progress,
		   reason = excluded.reason,
		   expected_outcome = excluded.expected_outcome,
		   created_by = excluded.created_by,
		   updated_at = excluded.updated_at`,
		project.ID,
		project.Title,
		project.Description,
		project.Amount,
		project.StatusID,
		project.LocationID,
		contractorID,
		project.Progress,
		project.Reason,
		project.ExpectedOutcome,
		project.CreatedBy,
		toMillis(createdAt),
		toMillis(updatedAt),
	)
}

// PutMilestone upserts a milestone row.
func (s *Store) PutMilestone(ctx context.Context, milestone storage.Milestone) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(milestone.ID) == "" || strings.TrimSpace(milestone.ProjectID) == "" {
		return fmt.Errorf("milestone id and project id are required")
	}
	var targetDate sql.NullInt64
	if !milestone.TargetDate.IsZero() {
		targetDate = sql.NullInt64{Int64: toMillis(milestone.TargetDate), Valid: true}
	}
	completed := 0
	if milestone.Completed {
		completed = 1
	}
	return s.upsert(ctx, "put milestone",
		`INSERT INTO project_milestones (id, project_id, title, description, target_date, completed, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   project_id = excluded.project_id,
		   title = excluded.title,
		   description = excluded.description,
		   target_date = excluded.target_date,
		   completed = excluded.completed,
		   position = excluded.position`,
		milestone.ID,
		milestone.ProjectID,
		milestone.Title,
		milestone.Description,
		targetDate,
		completed,
		milestone.Position,
	)
}

// PutImage upserts a project image row.
func (s *Store) PutImage(ctx context.Context, image storage.Image) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(image.ID) == "" || strings.TrimSpace(image.ProjectID) == "" {
		return fmt.Errorf("image id and project id are required")
	}
	return s.upsert(ctx, "put image",
		`INSERT INTO project_images (id, project_id, url, caption, position)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   project_id = excluded.project_id,
		   url = excluded.url,
		   caption = excluded.caption,
		   position = excluded.position`,
		image.ID, image.ProjectID, image.URL, image.Caption, image.Position,
	)
}

func (s *Store) upsert(ctx context.Context, op, stmt string, args ...any) error {
	if _, err := s.sqlDB.ExecContext(ctx, stmt, args...); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return unavailable(op, err)
	}
	return nil
}
