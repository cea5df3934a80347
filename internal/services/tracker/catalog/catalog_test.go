package catalog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/MannLester/GovTrackerPH-sub000/internal/platform/errors"
	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/logging"
	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/pagination"
	"github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/storage"
	"github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/storage/sqlite"
)

var catalogStart = time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)

func openCatalog(t *testing.T) *sqlite.Store {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "tracker.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	must(store.PutStatus(ctx, storage.Status{ID: "st-ongoing", Name: "Ongoing"}))
	must(store.PutStatus(ctx, storage.Status{ID: "st-completed", Name: "Completed"}))
	must(store.PutLocation(ctx, storage.Location{ID: "loc-cebu", Region: "Cebu", City: "Cebu City"}))
	must(store.PutLocation(ctx, storage.Location{ID: "loc-ncr", Region: "NCR", City: "Manila"}))
	must(store.PutContractor(ctx, storage.Contractor{ID: "ctr-1", Name: "Mabuhay Builders"}))

	projects := []struct {
		id, title, status, location string
		amount                      float64
	}{
		{"p-1", "Cebu seawall", "st-completed", "loc-cebu", 500},
		{"p-2", "Cebu school roof", "st-completed", "loc-cebu", 120},
		{"p-3", "Cebu flood pumps", "st-ongoing", "loc-cebu", 900},
		{"p-4", "Manila bike lanes", "st-completed", "loc-ncr", 300},
		{"p-5", "Manila drainage", "st-ongoing", "loc-ncr", 750},
	}
	for i, p := range projects {
		at := catalogStart.Add(time.Duration(i) * time.Hour)
		must(store.PutProject(ctx, storage.ProjectRecord{
			ID:           p.id,
			Title:        p.title,
			Description:  "Public works " + p.id,
			Amount:       p.amount,
			StatusID:     p.status,
			LocationID:   p.location,
			ContractorID: "ctr-1",
			Progress:     i * 20,
			CreatedAt:    at,
			UpdatedAt:    at,
		}))
	}
	must(store.PutMilestone(ctx, storage.Milestone{ID: "m-2", ProjectID: "p-1", Title: "Handover", Position: 2}))
	must(store.PutMilestone(ctx, storage.Milestone{ID: "m-1", ProjectID: "p-1", Title: "Groundwork", Position: 1, Completed: true}))
	must(store.PutImage(ctx, storage.Image{ID: "img-1", ProjectID: "p-1", URL: "https://img.example/p1.jpg", Caption: "Site"}))
	return store
}

func projectIDs(views []storage.ProjectView) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.ID)
	}
	return out
}

func TestParseSort(t *testing.T) {
	t.Parallel()

	valid := []struct {
		sort, order string
		field       storage.SortField
		desc        bool
	}{
		{"", "", storage.SortCreatedAt, true},
		{"title", "asc", storage.SortTitle, false},
		{" amount ", "DESC", storage.SortAmount, true},
		{"view_count", "", storage.SortViewCount, true},
	}
	for _, tc := range valid {
		field, desc, err := ParseSort(tc.sort, tc.order)
		if err != nil {
			t.Fatalf("ParseSort(%q, %q): %v", tc.sort, tc.order, err)
		}
		if field != tc.field || desc != tc.desc {
			t.Fatalf("ParseSort(%q, %q) = %s %v, want %s %v", tc.sort, tc.order, field, desc, tc.field, tc.desc)
		}
	}

	invalid := []struct{ sort, order string }{
		{"password", "asc"},
		{"title,amount", "asc"},
		{"title desc", "asc"},
		{"title; DROP TABLE projects", "asc"},
		{"title", "sideways"},
	}
	for _, tc := range invalid {
		if _, _, err := ParseSort(tc.sort, tc.order); !apperrors.IsCode(err, apperrors.CodeInvalidArgument) {
			t.Fatalf("ParseSort(%q, %q) err = %v, want INVALID_ARGUMENT", tc.sort, tc.order, err)
		}
	}
}

func TestListProjectsFiltersConjunction(t *testing.T) {
	t.Parallel()

	svc := NewService(openCatalog(t), logging.Discard())
	page, err := svc.ListProjects(context.Background(), ListParams{
		Status: "Completed",
		Region: "Cebu",
		Page:   pagination.Request{Page: 1, Limit: 10},
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := projectIDs(page.Projects)
	if len(got) != 2 || got[0] != "p-2" || got[1] != "p-1" {
		t.Fatalf("ids = %v, want [p-2 p-1]", got)
	}
	if page.Pagination.TotalCount != 2 || page.Pagination.TotalPages != 1 {
		t.Fatalf("pagination = %+v", page.Pagination)
	}
	for _, p := range page.Projects {
		if p.Status != "Completed" || p.Region != "Cebu" || p.Contractor != "Mabuhay Builders" {
			t.Fatalf("project = %+v", p.Project)
		}
	}
}

func TestListProjectsEmptyFilterReturnsCatalog(t *testing.T) {
	t.Parallel()

	svc := NewService(openCatalog(t), logging.Discard())
	page, err := svc.ListProjects(context.Background(), ListParams{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Pagination.TotalCount != 5 || len(page.Projects) != 5 {
		t.Fatalf("total = %d rows = %d, want 5", page.Pagination.TotalCount, len(page.Projects))
	}
	if page.Pagination.Limit != PageSize.Default || page.Pagination.Page != 1 {
		t.Fatalf("pagination = %+v", page.Pagination)
	}
}

func TestListProjectsTotalMatchesIteration(t *testing.T) {
	t.Parallel()

	svc := NewService(openCatalog(t), logging.Discard())
	filters := []ListParams{
		{},
		{Status: "completed"},
		{Region: "ncr"},
		{Search: "CEBU"},
		{Search: "works p-3"},
		{Status: "Ongoing", Search: "manila"},
		{Region: "Nowhere"},
	}
	for _, filter := range filters {
		seen := map[string]bool{}
		total := -1
		for page := 1; page <= 10; page++ {
			filter.Page = pagination.Request{Page: page, Limit: 2}
			filter.Sort, filter.Order = "amount", "asc"
			result, err := svc.ListProjects(context.Background(), filter)
			if err != nil {
				t.Fatalf("list %+v: %v", filter, err)
			}
			total = result.Pagination.TotalCount
			if len(result.Projects) == 0 {
				break
			}
			for _, p := range result.Projects {
				if seen[p.ID] {
					t.Fatalf("filter %+v: %s repeated across pages", filter, p.ID)
				}
				seen[p.ID] = true
			}
		}
		if len(seen) != total {
			t.Fatalf("filter %+v: iterated %d, total %d", filter, len(seen), total)
		}
	}
}

func TestListProjectsSortsByAllowedColumn(t *testing.T) {
	t.Parallel()

	svc := NewService(openCatalog(t), logging.Discard())
	page, err := svc.ListProjects(context.Background(), ListParams{Sort: "amount", Order: "desc"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"p-3", "p-5", "p-1", "p-4", "p-2"}
	if got := projectIDs(page.Projects); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}

	if _, err := svc.ListProjects(context.Background(), ListParams{Sort: "created_by"}); !apperrors.IsCode(err, apperrors.CodeInvalidArgument) {
		t.Fatalf("disallowed sort err = %v, want INVALID_ARGUMENT", err)
	}
}

func TestListProjectsAnnotatesViewerVote(t *testing.T) {
	t.Parallel()

	store := openCatalog(t)
	ctx := context.Background()
	for _, r := range []storage.Reaction{
		{TargetKind: storage.TargetProject, TargetID: "p-1", UserID: "u-1", Vote: storage.VoteLike},
		{TargetKind: storage.TargetProject, TargetID: "p-1", UserID: "u-2", Vote: storage.VoteDislike},
	} {
		r.CreatedAt, r.UpdatedAt = catalogStart, catalogStart
		if err := store.InsertReaction(ctx, r); err != nil {
			t.Fatalf("insert reaction: %v", err)
		}
	}
	svc := NewService(store, logging.Discard())

	page, err := svc.ListProjects(ctx, ListParams{Search: "seawall", ViewerID: "u-2"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Projects) != 1 {
		t.Fatalf("rows = %d, want 1", len(page.Projects))
	}
	p := page.Projects[0]
	if p.Likes != 1 || p.Dislikes != 1 || p.ViewerVote != storage.VoteDislike {
		t.Fatalf("aggregates = likes %d dislikes %d vote %q", p.Likes, p.Dislikes, p.ViewerVote)
	}
}

func TestGetProjectDetailAndViewCount(t *testing.T) {
	t.Parallel()

	svc := NewService(openCatalog(t), logging.Discard())
	ctx := context.Background()

	first, err := svc.GetProject(ctx, "p-1", "")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(first.Milestones) != 2 || first.Milestones[0].ID != "m-1" || !first.Milestones[0].Completed {
		t.Fatalf("milestones = %+v", first.Milestones)
	}
	if len(first.Images) != 1 || first.Images[0].URL != "https://img.example/p1.jpg" {
		t.Fatalf("images = %+v", first.Images)
	}
	svc.Wait()

	second, err := svc.GetProject(ctx, "p-1", "")
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if second.ViewCount != first.ViewCount+1 {
		t.Fatalf("view count = %d, want %d", second.ViewCount, first.ViewCount+1)
	}

	empty, err := svc.GetProject(ctx, "p-2", "")
	if err != nil {
		t.Fatalf("get p-2: %v", err)
	}
	if empty.Milestones == nil || empty.Images == nil {
		t.Fatal("expected empty, non-nil milestone and image lists")
	}
	svc.Wait()

	if _, err := svc.GetProject(ctx, "p-404", ""); !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("missing project err = %v, want NOT_FOUND", err)
	}
}

type flakyViews struct {
	storage.ProjectStore
	calls chan string
}

func (f flakyViews) IncrementViewCount(_ context.Context, projectID string) error {
	f.calls <- projectID
	return errors.New("database is locked")
}

func TestGetProjectSurvivesViewCountFailure(t *testing.T) {
	t.Parallel()

	store := flakyViews{ProjectStore: openCatalog(t), calls: make(chan string, 1)}
	svc := NewService(store, logging.Discard())

	detail, err := svc.GetProject(context.Background(), "p-1", "")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if detail.ID != "p-1" {
		t.Fatalf("id = %q, want p-1", detail.ID)
	}
	svc.Wait()
	if got := <-store.calls; got != "p-1" {
		t.Fatalf("incremented %q, want p-1", got)
	}
}

func TestGetProjectOutlivesCanceledRequest(t *testing.T) {
	t.Parallel()

	store := openCatalog(t)
	svc := NewService(store, logging.Discard())
	ctx, cancel := context.WithCancel(context.Background())

	if _, err := svc.GetProject(ctx, "p-3", ""); err != nil {
		t.Fatalf("get: %v", err)
	}
	cancel()
	svc.Wait()

	detail, err := svc.GetProject(context.Background(), "p-3", "")
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if detail.ViewCount != 1 {
		t.Fatalf("view count = %d, want 1", detail.ViewCount)
	}
	svc.Wait()
}

func TestNilServiceIsUnavailable(t *testing.T) {
	t.Parallel()

	var svc *Service
	if _, err := svc.ListProjects(context.Background(), ListParams{}); !apperrors.IsCode(err, apperrors.CodeUnavailable) {
		t.Fatalf("err = %v, want UNAVAILABLE", err)
	}
	svc.Wait()
}
