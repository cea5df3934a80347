package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/storage"
)

// Store is the write surface a fixture needs.
type Store interface {
	storage.SeedStore
	CreateComment(ctx context.Context, comment storage.Comment) error
	InsertReaction(ctx context.Context, reaction storage.Reaction) error
}

// Summary counts what Apply wrote. Comments and reactions that already
// exist are skipped, so reapplying a fixture is safe.
type Summary struct {
	Projects         int
	Comments         int
	Reactions        int
	SkippedComments  int
	SkippedReactions int
}

// Apply writes the fixture. Missing timestamps default to now.
func Apply(ctx context.Context, store Store, f Fixture, now time.Time) (Summary, error) {
	if store == nil {
		return Summary{}, errors.New("seed store is required")
	}
	if err := f.Validate(); err != nil {
		return Summary{}, err
	}
	now = now.UTC()
	var summary Summary

	for _, s := range f.Statuses {
		if err := store.PutStatus(ctx, storage.Status{ID: s.ID, Name: s.Name}); err != nil {
			return summary, fmt.Errorf("status %s: %w", s.ID, err)
		}
	}
	for _, l := range f.Locations {
		if err := store.PutLocation(ctx, storage.Location{ID: l.ID, Region: l.Region, City: l.City}); err != nil {
			return summary, fmt.Errorf("location %s: %w", l.ID, err)
		}
	}
	for _, c := range f.Contractors {
		if err := store.PutContractor(ctx, storage.Contractor{ID: c.ID, Name: c.Name}); err != nil {
			return summary, fmt.Errorf("contractor %s: %w", c.ID, err)
		}
	}
	for _, u := range f.Users {
		user := storage.User{ID: u.ID, DisplayName: u.Name, AvatarURL: u.AvatarURL, Role: u.Role}
		if err := store.PutUser(ctx, user); err != nil {
			return summary, fmt.Errorf("user %s: %w", u.ID, err)
		}
	}

	for _, p := range f.Projects {
		createdAt := orNow(p.CreatedAt, now)
		err := store.PutProject(ctx, storage.ProjectRecord{
			ID:              p.ID,
			Title:           p.Title,
			Description:     p.Description,
			Amount:          p.Amount,
			StatusID:        p.Status,
			LocationID:      p.Location,
			ContractorID:    p.Contractor,
			Progress:        p.Progress,
			Reason:          p.Reason,
			ExpectedOutcome: p.ExpectedOutcome,
			CreatedBy:       p.CreatedBy,
			CreatedAt:       createdAt,
			UpdatedAt:       createdAt,
		})
		if err != nil {
			return summary, fmt.Errorf("project %s: %w", p.ID, err)
		}
		for i, m := range p.Milestones {
			err := store.PutMilestone(ctx, storage.Milestone{
				ID:          m.ID,
				ProjectID:   p.ID,
				Title:       m.Title,
				Description: m.Description,
				TargetDate:  m.TargetDate,
				Completed:   m.Completed,
				Position:    i + 1,
			})
			if err != nil {
				return summary, fmt.Errorf("milestone %s: %w", m.ID, err)
			}
		}
		for i, img := range p.Images {
			err := store.PutImage(ctx, storage.Image{
				ID:        img.ID,
				ProjectID: p.ID,
				URL:       img.URL,
				Caption:   img.Caption,
				Position:  i + 1,
			})
			if err != nil {
				return summary, fmt.Errorf("image %s: %w", img.ID, err)
			}
		}
		summary.Projects++
	}

	// Parents go first so the reply-depth trigger can see them.
	topLevel := lo.Filter(f.Comments, func(c Comment, _ int) bool { return c.Parent == "" })
	replies := lo.Filter(f.Comments, func(c Comment, _ int) bool { return c.Parent != "" })
	for _, c := range append(topLevel, replies...) {
		createdAt := orNow(c.CreatedAt, now)
		err := store.CreateComment(ctx, storage.Comment{
			ID:        c.ID,
			ProjectID: c.Project,
			UserID:    c.User,
			ParentID:  c.Parent,
			Content:   c.Content,
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		})
		if errors.Is(err, storage.ErrAlreadyExists) {
			summary.SkippedComments++
			continue
		}
		if err != nil {
			return summary, fmt.Errorf("comment %s: %w", c.ID, err)
		}
		summary.Comments++
	}

	for i, r := range f.Reactions {
		reaction := storage.Reaction{
			TargetKind: storage.TargetProject,
			TargetID:   r.Project,
			UserID:     r.User,
			Vote:       storage.Vote(r.Vote),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if r.Comment != "" {
			reaction.TargetKind, reaction.TargetID = storage.TargetComment, r.Comment
		}
		if !reaction.Vote.Valid() {
			return summary, fmt.Errorf("reaction %d: vote must be like or dislike", i)
		}
		err := store.InsertReaction(ctx, reaction)
		if errors.Is(err, storage.ErrAlreadyExists) {
			summary.SkippedReactions++
			continue
		}
		if err != nil {
			return summary, fmt.Errorf("reaction %d: %w", i, err)
		}
		summary.Reactions++
	}
	return summary, nil
}

func orNow(value, now time.Time) time.Time {
	if value.IsZero() {
		return now
	}
	return value
}
