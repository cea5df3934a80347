package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/MannLester/GovTrackerPH-sub000/internal/platform/errors"
	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/pagination"
)

// pageParams reads page and limit. Missing values are left zero for the
// services to default; values that are not integers are rejected.
func pageParams(r *http.Request) (pagination.Request, error) {
	page, err := intParam(r, "page")
	if err != nil {
		return pagination.Request{}, err
	}
	limit, err := intParam(r, "limit")
	if err != nil {
		return pagination.Request{}, err
	}
	return pagination.Request{Page: page, Limit: limit}, nil
}

func intParam(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.WithMetadata(apperrors.CodeInvalidArgument,
			name+" must be an integer", map[string]string{"Field": name})
	}
	return value, nil
}

func pathID(r *http.Request) string {
	return strings.TrimSpace(r.PathValue("id"))
}
