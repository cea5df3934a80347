package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/storage"
)

var baseTime = time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)

func openTempStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tracker.sqlite")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

type projectFixture struct {
	id, title, description, statusID, locationID string
	amount                                       float64
	progress                                     int
	createdAt                                    time.Time
}

func seedReference(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()
	for _, st := range []storage.Status{
		{ID: "st-ongoing", Name: "Ongoing"},
		{ID: "st-completed", Name: "Completed"},
	} {
		if err := store.PutStatus(ctx, st); err != nil {
			t.Fatalf("put status: %v", err)
		}
	}
	for _, loc := range []storage.Location{
		{ID: "loc-cebu", Region: "Cebu", City: "Cebu City"},
		{ID: "loc-davao", Region: "Davao", City: "Davao City"},
		{ID: "loc-ncr", Region: "NCR", City: "Quezon City"},
	} {
		if err := store.PutLocation(ctx, loc); err != nil {
			t.Fatalf("put location: %v", err)
		}
	}
	if err := store.PutContractor(ctx, storage.Contractor{ID: "ctr-1", Name: "Mabuhay Builders"}); err != nil {
		t.Fatalf("put contractor: %v", err)
	}
	if err := store.PutUser(ctx, storage.User{ID: "user-1", DisplayName: "Ana", AvatarURL: "https://img.example/ana.png"}); err != nil {
		t.Fatalf("put user: %v", err)
	}
}

func seedProjects(t *testing.T, store *Store, fixtures ...projectFixture) {
	t.Helper()
	for _, fx := range fixtures {
		createdAt := fx.createdAt
		if createdAt.IsZero() {
			createdAt = baseTime
		}
		err := store.PutProject(context.Background(), storage.ProjectRecord{
			ID:           fx.id,
			Title:        fx.title,
			Description:  fx.description,
			Amount:       fx.amount,
			StatusID:     fx.statusID,
			LocationID:   fx.locationID,
			ContractorID: "ctr-1",
			Progress:     fx.progress,
			CreatedBy:    "admin-1",
			CreatedAt:    createdAt,
			UpdatedAt:    createdAt,
		})
		if err != nil {
			t.Fatalf("put project %s: %v", fx.id, err)
		}
	}
}

func openSeededStore(t *testing.T) *Store {
	t.Helper()
	store := openTempStore(t)
	seedReference(t, store)
	seedProjects(t, store, projectFixture{
		id: "proj-1", title: "Bridge repair", description: "Repair of the old bridge",
		statusID: "st-ongoing", locationID: "loc-cebu", amount: 1000, progress: 40,
	})
	return store
}

func createComment(t *testing.T, store *Store, id, projectID, userID, parentID string, at time.Time) {
	t.Helper()
	err := store.CreateComment(context.Background(), storage.Comment{
		ID:        id,
		ProjectID: projectID,
		UserID:    userID,
		ParentID:  parentID,
		Content:   "comment " + id,
		CreatedAt: at,
		UpdatedAt: at,
	})
	if err != nil {
		t.Fatalf("create comment %s: %v", id, err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestOpenIsIdempotentAcrossReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tracker.sqlite")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := first.PutStatus(context.Background(), storage.Status{ID: "st-1", Name: "Planned"}); err != nil {
		t.Fatalf("put status: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer second.Close()
	if err := second.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestNilStoreReportsNotConfigured(t *testing.T) {
	t.Parallel()

	var store *Store
	if _, err := store.GetComment(context.Background(), "c-1"); err == nil {
		t.Fatal("expected not configured error")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close nil store: %v", err)
	}
}

func TestCanceledContextIsReturned(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.CountReactions(ctx, storage.TargetProject, "proj-1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want %v", err, context.Canceled)
	}
}

func TestCasefoldFunction(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	var folded string
	if err := store.sqlDB.QueryRowContext(context.Background(), `SELECT casefold('Straße ÑAGA')`).Scan(&folded); err != nil {
		t.Fatalf("casefold: %v", err)
	}
	if folded != "strasse ñaga" {
		t.Fatalf("casefold = %q, want %q", folded, "strasse ñaga")
	}

	var isNull bool
	if err := store.sqlDB.QueryRowContext(context.Background(), `SELECT casefold(NULL) IS NULL`).Scan(&isNull); err != nil {
		t.Fatalf("casefold null: %v", err)
	}
	if !isNull {
		t.Fatal("casefold(NULL) should stay NULL")
	}
}
