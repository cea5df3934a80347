package reaction

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/storage"
)

type reactionKey struct {
	kind     storage.TargetKind
	targetID string
	userID   string
}

type fakeReactionStore struct {
	mu      sync.Mutex
	targets map[storage.TargetKind]map[string]bool
	rows    map[reactionKey]storage.Reaction
	writes  int

	// beforeWrite runs before each conditional write with the lock released,
	// letting tests interleave a competing writer.
	beforeWrite func(op string)
	failWith    error
}

func newFakeReactionStore() *fakeReactionStore {
	return &fakeReactionStore{
		targets: map[storage.TargetKind]map[string]bool{
			storage.TargetProject: {},
			storage.TargetComment: {},
		},
		rows: map[reactionKey]storage.Reaction{},
	}
}

func (s *fakeReactionStore) addTarget(kind storage.TargetKind, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets[kind][id] = true
}

func (s *fakeReactionStore) seed(kind storage.TargetKind, targetID, userID string, vote storage.Vote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := reactionKey{kind, targetID, userID}
	s.rows[key] = storage.Reaction{TargetKind: kind, TargetID: targetID, UserID: userID, Vote: vote}
}

func (s *fakeReactionStore) rowCount(kind storage.TargetKind, targetID, userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[reactionKey{kind, targetID, userID}]; ok {
		return 1
	}
	return 0
}

func (s *fakeReactionStore) hook(op string) {
	if s.beforeWrite != nil {
		s.beforeWrite(op)
	}
}

func (s *fakeReactionStore) TargetExists(_ context.Context, kind storage.TargetKind, targetID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.targets[kind][targetID], nil
}

func (s *fakeReactionStore) GetReaction(_ context.Context, kind storage.TargetKind, targetID, userID string) (storage.Reaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return storage.Reaction{}, s.failWith
	}
	row, ok := s.rows[reactionKey{kind, targetID, userID}]
	if !ok {
		return storage.Reaction{}, storage.ErrNotFound
	}
	return row, nil
}

func (s *fakeReactionStore) InsertReaction(_ context.Context, reaction storage.Reaction) error {
	s.hook("insert")
	s.mu.Lock()
	defer s.mu.Unlock()
	key := reactionKey{reaction.TargetKind, reaction.TargetID, reaction.UserID}
	if _, ok := s.rows[key]; ok {
		return storage.ErrAlreadyExists
	}
	s.rows[key] = reaction
	s.writes++
	return nil
}

func (s *fakeReactionStore) UpdateReactionVote(_ context.Context, kind storage.TargetKind, targetID, userID string, from, to storage.Vote, updatedAt time.Time) error {
	s.hook("update")
	s.mu.Lock()
	defer s.mu.Unlock()
	key := reactionKey{kind, targetID, userID}
	row, ok := s.rows[key]
	if !ok || row.Vote != from {
		return storage.ErrNotFound
	}
	row.Vote = to
	row.UpdatedAt = updatedAt
	s.rows[key] = row
	s.writes++
	return nil
}

func (s *fakeReactionStore) DeleteReaction(_ context.Context, kind storage.TargetKind, targetID, userID string, vote storage.Vote) error {
	s.hook("delete")
	s.mu.Lock()
	defer s.mu.Unlock()
	key := reactionKey{kind, targetID, userID}
	row, ok := s.rows[key]
	if !ok || row.Vote != vote {
		return storage.ErrNotFound
	}
	delete(s.rows, key)
	s.writes++
	return nil
}

func (s *fakeReactionStore) CountReactions(_ context.Context, kind storage.TargetKind, targetID string) (storage.ReactionCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var counts storage.ReactionCounts
	for key, row := range s.rows {
		if key.kind != kind || key.targetID != targetID {
			continue
		}
		switch row.Vote {
		case storage.VoteLike:
			counts.Likes++
		case storage.VoteDislike:
			counts.Dislikes++
		}
	}
	return counts, nil
}

var errStoreDown = errors.New("database is locked")

var _ storage.ReactionStore = (*fakeReactionStore)(nil)
