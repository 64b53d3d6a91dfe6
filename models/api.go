package models

// Tier selects the subpage budget for a run.
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// ScrapeRequest is the payload for POST /api/v1/scrape.
type ScrapeRequest struct {
	// URL is the site to scrape. A missing scheme defaults to https.
	URL string `json:"url" binding:"required"`

	// Tier controls how many subpages are fetched.
	// Allowed: "free" (default), "pro".
	Tier Tier `json:"tier,omitempty" binding:"omitempty,oneof=free pro"`

	// MaxAge allows serving a cached aggregate younger than this many
	// milliseconds. 0 disables the cache for this request.
	MaxAge int64 `json:"max_age,omitempty" binding:"omitempty,min=0"`
}

// Defaults applies default values to unset fields.
func (r *ScrapeRequest) Defaults() {
	if r.Tier == "" {
		r.Tier = TierFree
	}
}

// ScrapeResponse is the response for POST /api/v1/scrape.
type ScrapeResponse struct {
	Success bool                    `json:"success"`
	Result  *AggregatedScrapeResult `json:"result,omitempty"`

	// CacheStatus is "hit" or "miss"; empty when caching was not requested.
	CacheStatus string `json:"cache_status,omitempty"`

	Timing TimingInfo   `json:"timing"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// GenerateRequest is the payload for POST /api/v1/generate.
type GenerateRequest struct {
	URL    string `json:"url" binding:"required"`
	UserID string `json:"user_id,omitempty"`
	Tier   Tier   `json:"tier,omitempty" binding:"omitempty,oneof=free pro"`

	// WebhookURL switches the request to asynchronous mode: the response
	// carries a job id and the result is POSTed here when the run ends.
	WebhookURL    string `json:"webhook_url,omitempty" binding:"omitempty,url"`
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *GenerateRequest) Defaults() {
	if r.Tier == "" {
		r.Tier = TierFree
	}
}

// GenerateResponse is the response for POST /api/v1/generate and the body
// of GET /api/v1/jobs/:id once a job has finished.
type GenerateResponse struct {
	Success        bool          `json:"success"`
	Brief          *ContentBrief `json:"brief,omitempty"`
	Blueprint      *Blueprint    `json:"blueprint,omitempty"`
	DesignGuidance bool          `json:"design_guidance"`
	Timing         TimingInfo    `json:"timing"`
	Error          *ErrorDetail  `json:"error,omitempty"`
}

// Job states.
const (
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// JobStatus reports the state of an asynchronous generate job.
type JobStatus struct {
	ID        string            `json:"id"`
	Status    string            `json:"status"`
	URL       string            `json:"url"`
	CreatedAt int64             `json:"created_at"`
	Result    *GenerateResponse `json:"result,omitempty"`
}

// JobAccepted is returned for asynchronous generate requests.
type JobAccepted struct {
	Success bool   `json:"success"`
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
}

// ErrorResponse is the body of a failed request, except for generate runs
// which fail with a GenerateResponse.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Timing  *TimingInfo  `json:"timing,omitempty"`
	Error   *ErrorDetail `json:"error"`
}

// TimingInfo breaks down the time spent in each stage.
type TimingInfo struct {
	TotalMs    int64 `json:"total_ms"`
	ScrapeMs   int64 `json:"scrape_ms,omitempty"`
	AnalyzeMs  int64 `json:"analyze_ms,omitempty"`
	ConsultMs  int64 `json:"consult_ms,omitempty"`
	GenerateMs int64 `json:"generate_ms,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`

	// Strategies lists the fetch strategies in chain order.
	Strategies []string `json:"strategies"`

	// ScrapeServiceOpen is true while the scraping service breaker is open.
	ScrapeServiceOpen bool `json:"scrape_service_open"`
}
