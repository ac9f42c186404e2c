package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz and /readyz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of a dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// EngineMetrics is returned by GET /v1/metrics/engine.
type EngineMetrics struct {
	SchedulesComputed  map[string]float64 `json:"schedulesComputed"`
	InvestmentsCreated float64            `json:"investmentsCreated"`
	CacheHits          float64            `json:"cacheHits"`
	CacheMisses        float64            `json:"cacheMisses"`
	CacheHitRate       float64            `json:"cacheHitRate"`
	StoreErrors        float64            `json:"storeErrors"`
}

// ============================================================
// Generic API Response wrappers
// ============================================================

// Pagination selects a page of a list. Page is 1-based.
type Pagination struct {
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Normalize clamps p to a valid page.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset is the index of the first row of the page.
func (p Pagination) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.PageSize
}

// ListResponse wraps paginated list results.
type ListResponse[T any] struct {
	Data       []T  `json:"data"`
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalPages int  `json:"total_pages"`
	HasMore    bool `json:"has_more"`
}

// NewListResponse builds the envelope for one page of total rows.
func NewListResponse[T any](data []T, total int, p Pagination) ListResponse[T] {
	p = p.Normalize()
	if data == nil {
		data = []T{}
	}
	pages := (total + p.PageSize - 1) / p.PageSize
	return ListResponse[T]{
		Data:       data,
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: pages,
		HasMore:    p.Page < pages,
	}
}

// SuccessResponse wraps a successful single-entity response.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}
