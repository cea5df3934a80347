package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/storage"
)

func TestReactionInsertGetAndDuplicate(t *testing.T) {
	t.Parallel()

	store := openSeededStore(t)
	ctx := context.Background()
	reaction := storage.Reaction{
		TargetKind: storage.TargetProject,
		TargetID:   "proj-1",
		UserID:     "user-1",
		Vote:       storage.VoteLike,
		CreatedAt:  baseTime,
	}
	if err := store.InsertReaction(ctx, reaction); err != nil {
		t.Fatalf("insert reaction: %v", err)
	}

	got, err := store.GetReaction(ctx, storage.TargetProject, "proj-1", "user-1")
	if err != nil {
		t.Fatalf("get reaction: %v", err)
	}
	if got.Vote != storage.VoteLike || !got.CreatedAt.Equal(baseTime) || !got.UpdatedAt.Equal(baseTime) {
		t.Fatalf("reaction = %+v", got)
	}

	reaction.Vote = storage.VoteDislike
	if err := store.InsertReaction(ctx, reaction); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("duplicate insert err = %v, want %v", err, storage.ErrAlreadyExists)
	}

	if _, err := store.GetReaction(ctx, storage.TargetComment, "proj-1", "user-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("other kind err = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestReactionUpdateAndDeleteAreConditional(t *testing.T) {
	t.Parallel()

	store := openSeededStore(t)
	ctx := context.Background()
	if err := store.InsertReaction(ctx, storage.Reaction{
		TargetKind: storage.TargetProject, TargetID: "proj-1", UserID: "user-1", Vote: storage.VoteLike,
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	later := baseTime.Add(time.Hour)
	err := store.UpdateReactionVote(ctx, storage.TargetProject, "proj-1", "user-1", storage.VoteDislike, storage.VoteLike, later)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("stale update err = %v, want %v", err, storage.ErrNotFound)
	}
	if err := store.UpdateReactionVote(ctx, storage.TargetProject, "proj-1", "user-1", storage.VoteLike, storage.VoteDislike, later); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := store.GetReaction(ctx, storage.TargetProject, "proj-1", "user-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Vote != storage.VoteDislike || !got.UpdatedAt.Equal(later) {
		t.Fatalf("reaction = %+v", got)
	}

	if err := store.DeleteReaction(ctx, storage.TargetProject, "proj-1", "user-1", storage.VoteLike); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("stale delete err = %v, want %v", err, storage.ErrNotFound)
	}
	if err := store.DeleteReaction(ctx, storage.TargetProject, "proj-1", "user-1", storage.VoteDislike); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetReaction(ctx, storage.TargetProject, "proj-1", "user-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get after delete err = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestCountReactions(t *testing.T) {
	t.Parallel()

	store := openSeededStore(t)
	ctx := context.Background()

	counts, err := store.CountReactions(ctx, storage.TargetProject, "proj-1")
	if err != nil {
		t.Fatalf("count empty: %v", err)
	}
	if counts != (storage.ReactionCounts{}) {
		t.Fatalf("empty counts = %+v", counts)
	}

	votes := map[string]storage.Vote{
		"u1": storage.VoteLike, "u2": storage.VoteLike, "u3": storage.VoteLike, "u4": storage.VoteDislike,
	}
	for user, vote := range votes {
		if err := store.InsertReaction(ctx, storage.Reaction{
			TargetKind: storage.TargetProject, TargetID: "proj-1", UserID: user, Vote: vote,
		}); err != nil {
			t.Fatalf("insert %s: %v", user, err)
		}
	}
	// Same id under the other kind must not leak into project counts.
	if err := store.InsertReaction(ctx, storage.Reaction{
		TargetKind: storage.TargetComment, TargetID: "proj-1", UserID: "u1", Vote: storage.VoteDislike,
	}); err != nil {
		t.Fatalf("insert comment reaction: %v", err)
	}

	counts, err = store.CountReactions(ctx, storage.TargetProject, "proj-1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts.Likes != 3 || counts.Dislikes != 1 {
		t.Fatalf("counts = %+v, want 3 likes 1 dislike", counts)
	}
}

func TestConcurrentInsertKeepsOneRow(t *testing.T) {
	t.Parallel()

	store := openSeededStore(t)
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	results := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- store.InsertReaction(ctx, storage.Reaction{
				TargetKind: storage.TargetProject, TargetID: "proj-1", UserID: "user-1", Vote: storage.VoteLike,
			})
		}()
	}
	wg.Wait()
	close(results)

	inserted := 0
	for err := range results {
		switch {
		case err == nil:
			inserted++
		case errors.Is(err, storage.ErrAlreadyExists):
		default:
			t.Fatalf("unexpected insert error: %v", err)
		}
	}
	if inserted != 1 {
		t.Fatalf("inserted = %d, want 1", inserted)
	}
	counts, err := store.CountReactions(ctx, storage.TargetProject, "proj-1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts.Likes != 1 {
		t.Fatalf("likes = %d, want 1", counts.Likes)
	}
}

func TestTargetExists(t *testing.T) {
	t.Parallel()

	store := openSeededStore(t)
	ctx := context.Background()
	createComment(t, store, "c-1", "proj-1", "user-1", "", baseTime)
	createComment(t, store, "c-2", "proj-1", "user-1", "", baseTime)
	if err := store.SoftDeleteComment(ctx, "c-2", baseTime); err != nil {
		t.Fatalf("delete: %v", err)
	}

	tests := []struct {
		kind storage.TargetKind
		id   string
		want bool
	}{
		{storage.TargetProject, "proj-1", true},
		{storage.TargetProject, "proj-missing", false},
		{storage.TargetComment, "c-1", true},
		{storage.TargetComment, "c-2", false},
		{storage.TargetComment, "proj-1", false},
		{storage.TargetProject, "  ", false},
	}
	for _, tc := range tests {
		got, err := store.TargetExists(ctx, tc.kind, tc.id)
		if err != nil {
			t.Fatalf("TargetExists(%s, %q): %v", tc.kind, tc.id, err)
		}
		if got != tc.want {
			t.Fatalf("TargetExists(%s, %q) = %v, want %v", tc.kind, tc.id, got, tc.want)
		}
	}
	if _, err := store.TargetExists(ctx, "post", "x"); err == nil {
		t.Fatal("expected unknown kind error")
	}
}
