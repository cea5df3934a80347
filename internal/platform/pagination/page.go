// Package pagination normalizes offset-based page requests.
package pagination

// PageSizeConfig configures page size normalization.
type PageSizeConfig struct {
	Default int
	Max     int
}

// Request is a normalized one-based page request.
type Request struct {
	Page  int
	Limit int
}

// Info describes the page returned alongside list results.
type Info struct {
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
	TotalCount int `json:"totalCount"`
	Limit      int `json:"limit"`
}

// ClampPageSize applies defaults and limits for page sizes.
func ClampPageSize(value int, cfg PageSizeConfig) int {
	pageSize := value
	if pageSize <= 0 {
		pageSize = cfg.Default
	}
	if cfg.Max > 0 && pageSize > cfg.Max {
		pageSize = cfg.Max
	}
	if pageSize <= 0 {
		pageSize = 1
	}
	return pageSize
}

// Normalize clamps page to at least 1 and limit to cfg.
func Normalize(page, limit int, cfg PageSizeConfig) Request {
	if page < 1 {
		page = 1
	}
	return Request{Page: page, Limit: ClampPageSize(limit, cfg)}
}

// Offset returns the number of rows preceding this page.
func (r Request) Offset() int {
	if r.Page < 1 {
		return 0
	}
	return (r.Page - 1) * r.Limit
}

// NewInfo derives page metadata from the total row count of the filtered set.
func NewInfo(req Request, totalCount int) Info {
	return Info{
		Page:       req.Page,
		TotalPages: TotalPages(totalCount, req.Limit),
		TotalCount: totalCount,
		Limit:      req.Limit,
	}
}

// TotalPages returns ceil(totalCount / limit).
func TotalPages(totalCount, limit int) int {
	if totalCount <= 0 || limit <= 0 {
		return 0
	}
	return (totalCount + limit - 1) / limit
}
