// Package storage defines persistence contracts for tracker engagement state.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested record is missing, deleted, or did
	// not match the expected state of a conditional write.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrInvalidParent indicates a reply whose parent is not a top-level
	// comment of the same project.
	ErrInvalidParent = errors.New("invalid parent comment")
	// ErrUnavailable tags driver failures that are not one of the sentinels above.
	ErrUnavailable = errors.New("storage unavailable")
)

// TargetKind discriminates the entity a reaction applies to.
type TargetKind string

const (
	TargetProject TargetKind = "project"
	TargetComment TargetKind = "comment"
)

// Valid reports whether k is a known target kind.
func (k TargetKind) Valid() bool {
	return k == TargetProject || k == TargetComment
}

// Vote is a reaction polarity. The empty vote means "no reaction".
type Vote string

const (
	VoteNone    Vote = ""
	VoteLike    Vote = "like"
	VoteDislike Vote = "dislike"
)

// Valid reports whether v is like or dislike.
func (v Vote) Valid() bool {
	return v == VoteLike || v == VoteDislike
}

// Reaction is one ledger row.
type Reaction struct {
	TargetKind TargetKind
	TargetID   string
	UserID     string
	Vote       Vote
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ReactionCounts aggregates current ledger rows for one target.
type ReactionCounts struct {
	Likes    int
	Dislikes int
}

// ReactionStore persists the reaction ledger. At most one row exists per
// (target kind, target id, user id).
type ReactionStore interface {
	// TargetExists reports whether the target resolves to a live row.
	TargetExists(ctx context.Context, kind TargetKind, targetID string) (bool, error)
	GetReaction(ctx context.Context, kind TargetKind, targetID, userID string) (Reaction, error)
	// InsertReaction returns ErrAlreadyExists when a row for the pair exists.
	InsertReaction(ctx context.Context, reaction Reaction) error
	// UpdateReactionVote flips the vote only while the row still holds from;
	// otherwise it returns ErrNotFound.
	UpdateReactionVote(ctx context.Context, kind TargetKind, targetID, userID string, from, to Vote, updatedAt time.Time) error
	// DeleteReaction removes the row only while it still holds vote;
	// otherwise it returns ErrNotFound.
	DeleteReaction(ctx context.Context, kind TargetKind, targetID, userID string, vote Vote) error
	CountReactions(ctx context.Context, kind TargetKind, targetID string) (ReactionCounts, error)
}

// Author is the display data joined onto comments.
type Author struct {
	ID        string
	Name      string
	AvatarURL string
}

// Comment is one comment row. ParentID is empty for top-level comments.
type Comment struct {
	ID        string
	ProjectID string
	UserID    string
	ParentID  string
	Content   string
	Deleted   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsReply reports whether the comment answers another comment.
func (c Comment) IsReply() bool {
	return c.ParentID != ""
}

// CommentView is a live comment annotated for one viewer.
type CommentView struct {
	Comment
	Author     Author
	Likes      int
	Dislikes   int
	ViewerVote Vote
	// ReplyCount counts live replies; always zero for replies.
	ReplyCount int
}

// CommentPage is one page of top-level comments plus the size of the
// filtered set the page was cut from.
type CommentPage struct {
	Comments   []CommentView
	TotalCount int
}

// CommentStore persists comments. Every read excludes soft-deleted rows.
type CommentStore interface {
	ProjectExists(ctx context.Context, projectID string) (bool, error)
	// GetComment returns a live comment or ErrNotFound.
	GetComment(ctx context.Context, commentID string) (Comment, error)
	CreateComment(ctx context.Context, comment Comment) error
	UpdateCommentContent(ctx context.Context, commentID, content string, updatedAt time.Time) error
	SoftDeleteComment(ctx context.Context, commentID string, updatedAt time.Time) error
	GetCommentView(ctx context.Context, commentID, viewerID string) (CommentView, error)
	// ListTopLevelComments returns newest-first live top-level comments.
	ListTopLevelComments(ctx context.Context, projectID, viewerID string, limit, offset int) (CommentPage, error)
	// ListReplies returns oldest-first live replies to parentID.
	ListReplies(ctx context.Context, parentID, viewerID string) ([]CommentView, error)
}

// Project is one catalog row with its reference names resolved.
type Project struct {
	ID              string
	Title           string
	Description     string
	Amount          float64
	Status          string
	Region          string
	City            string
	Contractor      string
	Progress        int
	Reason          string
	ExpectedOutcome string
	CreatedBy       string
	ViewCount       int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ProjectView is a project annotated with engagement aggregates for one viewer.
type ProjectView struct {
	Project
	Likes        int
	Dislikes     int
	CommentCount int
	ViewerVote   Vote
}

// SortField names a sortable project column.
type SortField string

const (
	SortCreatedAt SortField = "created_at"
	SortUpdatedAt SortField = "updated_at"
	SortTitle     SortField = "title"
	SortAmount    SortField = "amount"
	SortProgress  SortField = "progress"
	SortViewCount SortField = "view_count"
)

// SortFields lists every sortable column.
var SortFields = []SortField{SortCreatedAt, SortUpdatedAt, SortTitle, SortAmount, SortProgress, SortViewCount}

// ProjectFilter is a conjunction of optional predicates. Empty fields are ignored.
type ProjectFilter struct {
	Status string
	Region string
	Search string
}

// ProjectQuery describes one catalog page.
type ProjectQuery struct {
	Filter     ProjectFilter
	SortField  SortField
	Descending bool
	Limit      int
	Offset     int
	ViewerID   string
}

// ProjectPage is one page of projects plus the filtered total.
type ProjectPage struct {
	Projects   []ProjectView
	TotalCount int
}

// Milestone is one entry of a project's ordered milestone list.
type Milestone struct {
	ID          string
	ProjectID   string
	Title       string
	Description string
	TargetDate  time.Time
	Completed   bool
	Position    int
}

// Image is one entry of a project's ordered image list.
type Image struct {
	ID        string
	ProjectID string
	URL       string
	Caption   string
	Position  int
}

// ProjectStore reads the catalog.
type ProjectStore interface {
	ListProjects(ctx context.Context, query ProjectQuery) (ProjectPage, error)
	GetProjectView(ctx context.Context, projectID, viewerID string) (ProjectView, error)
	ListMilestones(ctx context.Context, projectID string) ([]Milestone, error)
	ListImages(ctx context.Context, projectID string) ([]Image, error)
	IncrementViewCount(ctx context.Context, projectID string) error
}

// Status, Location, Contractor and User are reference rows written by the
// seed tool.
type Status struct {
	ID   string
	Name string
}

type Location struct {
	ID     string
	Region string
	City   string
}

type Contractor struct {
	ID   string
	Name string
}

type User struct {
	ID          string
	DisplayName string
	AvatarURL   string
	Role        string
}

// ProjectRecord is the writable shape of a project, referencing rows by id.
type ProjectRecord struct {
	ID              string
	Title           string
	Description     string
	Amount          float64
	StatusID        string
	LocationID      string
	ContractorID    string
	Progress        int
	Reason          string
	ExpectedOutcome string
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SeedStore writes reference and catalog data. Writes are upserts keyed by id.
type SeedStore interface {
	PutStatus(ctx context.Context, status Status) error
	PutLocation(ctx context.Context, location Location) error
	PutContractor(ctx context.Context, contractor Contractor) error
	PutUser(ctx context.Context, user User) error
	PutProject(ctx context.Context, project ProjectRecord) error
	PutMilestone(ctx context.Context, milestone Milestone) error
	PutImage(ctx context.Context, image Image) error
}
