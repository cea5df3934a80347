// Package catalog lists and reads projects with their engagement aggregates.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/samber/lo"
	"go.einride.tech/aip/ordering"
	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/MannLester/GovTrackerPH-sub000/internal/platform/errors"
	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/otel"
	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/pagination"
	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/telemetry/metrics"
	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/timeouts"
	"github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/storage"
)

const tracerName = "tracker/catalog"

// Sort defaults applied when the request leaves them empty.
const (
	DefaultSort  = storage.SortCreatedAt
	DefaultOrder = "desc"
)

// PageSize bounds catalog listings.
var PageSize = pagination.PageSizeConfig{Default: 10, Max: 100}

var sortPaths = lo.Map(storage.SortFields, func(field storage.SortField, _ int) string {
	return string(field)
})

// ListParams describes one catalog request. Empty filters are ignored.
type ListParams struct {
	Status   string
	Region   string
	Search   string
	Sort     string
	Order    string
	Page     pagination.Request
	ViewerID string
}

// Page is one page of projects.
type Page struct {
	Projects   []storage.ProjectView
	Pagination pagination.Info
}

// Detail is a project with its milestones and images.
type Detail struct {
	storage.ProjectView
	Milestones []storage.Milestone
	Images     []storage.Image
}

// Service reads the project catalog.
type Service struct {
	store  storage.ProjectStore
	logger *slog.Logger
	views  sync.WaitGroup
}

// NewService creates a catalog service.
func NewService(store storage.ProjectStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger.With("component", "catalog")}
}

type orderByRequest string

func (r orderByRequest) GetOrderBy() string { return string(r) }

// ParseSort validates a sort column and direction against the allow-list.
func ParseSort(sort, order string) (storage.SortField, bool, error) {
	sort = strings.TrimSpace(sort)
	if sort == "" {
		sort = string(DefaultSort)
	}
	order = strings.ToLower(strings.TrimSpace(order))
	if order == "" {
		order = DefaultOrder
	}
	if order != "asc" && order != "desc" {
		return "", false, apperrors.WithMetadata(apperrors.CodeInvalidArgument,
			"order must be asc or desc", map[string]string{"Field": "order"})
	}

	orderBy, err := ordering.ParseOrderBy(orderByRequest(sort + " " + order))
	if err != nil || len(orderBy.Fields) != 1 {
		return "", false, invalidSort()
	}
	if err := orderBy.ValidateForPaths(sortPaths...); err != nil {
		return "", false, invalidSort()
	}
	field := orderBy.Fields[0]
	return storage.SortField(field.Path), field.Desc, nil
}

// ListProjects returns one filtered, sorted page of the catalog.
func (s *Service) ListProjects(ctx context.Context, params ListParams) (result Page, err error) {
	ctx, span := otel.StartSpan(ctx, tracerName, "catalog.ListProjects",
		attribute.String("sort", params.Sort),
	)
	defer func() { otel.EndSpan(span, err) }()

	if err := s.configured(); err != nil {
		return Page{}, err
	}
	sortField, desc, err := ParseSort(params.Sort, params.Order)
	if err != nil {
		return Page{}, err
	}
	req := pagination.Normalize(params.Page.Page, params.Page.Limit, PageSize)

	rows, err := s.store.ListProjects(ctx, storage.ProjectQuery{
		Filter: storage.ProjectFilter{
			Status: strings.TrimSpace(params.Status),
			Region: strings.TrimSpace(params.Region),
			Search: strings.TrimSpace(params.Search),
		},
		SortField:  sortField,
		Descending: desc,
		Limit:      req.Limit,
		Offset:     req.Offset(),
		ViewerID:   strings.TrimSpace(params.ViewerID),
	})
	if err != nil {
		return Page{}, storeError("list projects", err)
	}
	return Page{
		Projects:   rows.Projects,
		Pagination: pagination.NewInfo(req, rows.TotalCount),
	}, nil
}

// GetProject returns one project with milestones and images and counts the
// view in the background. A failed count never fails the read.
func (s *Service) GetProject(ctx context.Context, projectID, viewerID string) (detail Detail, err error) {
	ctx, span := otel.StartSpan(ctx, tracerName, "catalog.GetProject",
		attribute.String("project.id", projectID),
	)
	defer func() { otel.EndSpan(span, err) }()

	if err := s.configured(); err != nil {
		return Detail{}, err
	}
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return Detail{}, apperrors.New(apperrors.CodeNotFound, "project not found")
	}

	view, err := s.store.GetProjectView(ctx, projectID, strings.TrimSpace(viewerID))
	if err != nil {
		return Detail{}, storeError("get project", err)
	}
	milestones, err := s.store.ListMilestones(ctx, projectID)
	if err != nil {
		return Detail{}, storeError("list milestones", err)
	}
	images, err := s.store.ListImages(ctx, projectID)
	if err != nil {
		return Detail{}, storeError("list images", err)
	}

	s.countView(ctx, projectID)
	return Detail{
		ProjectView: view,
		Milestones:  lo.Ternary(milestones == nil, []storage.Milestone{}, milestones),
		Images:      lo.Ternary(images == nil, []storage.Image{}, images),
	}, nil
}

// Wait blocks until pending view increments finish.
func (s *Service) Wait() {
	if s != nil {
		s.views.Wait()
	}
}

func (s *Service) countView(ctx context.Context, projectID string) {
	ctx = context.WithoutCancel(ctx)
	s.views.Add(1)
	go func() {
		defer s.views.Done()
		ctx, cancel := context.WithTimeout(ctx, timeouts.Background)
		defer cancel()
		err := s.store.IncrementViewCount(ctx, projectID)
		metrics.ObserveProjectView(err)
		if err != nil {
			s.logger.Warn("increment view count", "project_id", projectID, "error", err)
		}
	}()
}

func (s *Service) configured() error {
	if s == nil || s.store == nil {
		return apperrors.New(apperrors.CodeUnavailable, "project store is not configured")
	}
	return nil
}

func invalidSort() error {
	return apperrors.WithMetadata(apperrors.CodeInvalidArgument,
		"sort must be one of "+strings.Join(sortPaths, ", "),
		map[string]string{"Field": "sort"})
}

func storeError(op string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.Wrap(apperrors.CodeNotFound, "project not found", err)
	}
	return apperrors.Wrap(apperrors.CodeUnavailable, op+": storage unavailable", err)
}
