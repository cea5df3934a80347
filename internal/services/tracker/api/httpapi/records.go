package httpapi

import (
	"time"

	"github.com/samber/lo"

	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/pagination"
	"github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/catalog"
	"github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/reaction"
	"github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/storage"
)

type listResponse[T any] struct {
	Items      []T              `json:"items"`
	Pagination *pagination.Info `json:"pagination,omitempty"`
}

type reactionRequest struct {
	Vote string `json:"vote"`
}

type reactionResponse struct {
	Action   reaction.Action `json:"action"`
	Likes    int             `json:"likes"`
	Dislikes int             `json:"dislikes"`
	UserVote *storage.Vote   `json:"userVote"`
}

type createCommentRequest struct {
	Content  string `json:"content"`
	ParentID string `json:"parentId"`
}

type editCommentRequest struct {
	Content string `json:"content"`
}

type deleteResponse struct {
	Deleted bool `json:"deleted"`
}

type authorRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
}

type commentRecord struct {
	ID         string        `json:"id"`
	ProjectID  string        `json:"projectId"`
	ParentID   *string       `json:"parentId"`
	Content    string        `json:"content"`
	Author     authorRecord  `json:"author"`
	Likes      int           `json:"likes"`
	Dislikes   int           `json:"dislikes"`
	UserVote   *storage.Vote `json:"userVote"`
	ReplyCount *int          `json:"replyCount,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

type projectRecord struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	Amount          float64       `json:"amount"`
	Status          string        `json:"status"`
	Region          string        `json:"region"`
	City            string        `json:"city"`
	Contractor      string        `json:"contractor"`
	Progress        int           `json:"progress"`
	Reason          string        `json:"reason"`
	ExpectedOutcome string        `json:"expectedOutcome"`
	CreatedBy       string        `json:"createdBy"`
	ViewCount       int64         `json:"viewCount"`
	Likes           int           `json:"likes"`
	Dislikes        int           `json:"dislikes"`
	CommentCount    int           `json:"commentCount"`
	UserVote        *storage.Vote `json:"userVote"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

type projectDetailRecord struct {
	projectRecord
	Milestones []milestoneRecord `json:"milestones"`
	Images     []imageRecord     `json:"images"`
}

type milestoneRecord struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	TargetDate  *time.Time `json:"targetDate"`
	Completed   bool       `json:"completed"`
	Position    int        `json:"position"`
}

type imageRecord struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Caption  string `json:"caption"`
	Position int    `json:"position"`
}

func votePtr(vote storage.Vote) *storage.Vote {
	if vote == storage.VoteNone {
		return nil
	}
	return &vote
}

func toReactionResponse(result reaction.Result) reactionResponse {
	return reactionResponse{
		Action:   result.Action,
		Likes:    result.Likes,
		Dislikes: result.Dislikes,
		UserVote: votePtr(result.Vote),
	}
}

func toCommentRecord(view storage.CommentView, _ int) commentRecord {
	record := commentRecord{
		ID:        view.ID,
		ProjectID: view.ProjectID,
		Content:   view.Content,
		Author: authorRecord{
			ID:        view.Author.ID,
			Name:      view.Author.Name,
			AvatarURL: view.Author.AvatarURL,
		},
		Likes:     view.Likes,
		Dislikes:  view.Dislikes,
		UserVote:  votePtr(view.ViewerVote),
		CreatedAt: view.CreatedAt,
		UpdatedAt: view.UpdatedAt,
	}
	if view.IsReply() {
		record.ParentID = lo.ToPtr(view.ParentID)
	} else {
		record.ReplyCount = lo.ToPtr(view.ReplyCount)
	}
	return record
}

func toProjectRecord(view storage.ProjectView, _ int) projectRecord {
	return projectRecord{
		ID:              view.ID,
		Title:           view.Title,
		Description:     view.Description,
		Amount:          view.Amount,
		Status:          view.Status,
		Region:          view.Region,
		City:            view.City,
		Contractor:      view.Contractor,
		Progress:        view.Progress,
		Reason:          view.Reason,
		ExpectedOutcome: view.ExpectedOutcome,
		CreatedBy:       view.CreatedBy,
		ViewCount:       view.ViewCount,
		Likes:           view.Likes,
		Dislikes:        view.Dislikes,
		CommentCount:    view.CommentCount,
		UserVote:        votePtr(view.ViewerVote),
		CreatedAt:       view.CreatedAt,
		UpdatedAt:       view.UpdatedAt,
	}
}

func toProjectDetailRecord(detail catalog.Detail) projectDetailRecord {
	return projectDetailRecord{
		projectRecord: toProjectRecord(detail.ProjectView, 0),
		Milestones: lo.Map(detail.Milestones, func(m storage.Milestone, _ int) milestoneRecord {
			var target *time.Time
			if !m.TargetDate.IsZero() {
				target = lo.ToPtr(m.TargetDate)
			}
			return milestoneRecord{
				ID:          m.ID,
				Title:       m.Title,
				Description: m.Description,
				TargetDate:  target,
				Completed:   m.Completed,
				Position:    m.Position,
			}
		}),
		Images: lo.Map(detail.Images, func(img storage.Image, _ int) imageRecord {
			return imageRecord{ID: img.ID, URL: img.URL, Caption: img.Caption, Position: img.Position}
		}),
	}
}
