package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/use-agent/sitebrief/models"
)

// JobStore holds in-flight and finished asynchronous generate jobs. Jobs
// older than the retention window are expired by a background sweeper.
// It is safe for concurrent use.
type JobStore struct {
	jobs      sync.Map // id -> *models.JobStatus
	retention time.Duration
	now       func() time.Time

	stop chan struct{}
	once sync.Once
}

// NewJobStore creates a JobStore keeping jobs for retention.
func NewJobStore(retention time.Duration) *JobStore {
	s := &JobStore{
		retention: retention,
		now:       time.Now,
		stop:      make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

// Create registers a new processing job for siteURL.
func (s *JobStore) Create(siteURL string) *models.JobStatus {
	job := &models.JobStatus{
		ID:        uuid.NewString(),
		Status:    models.JobProcessing,
		URL:       siteURL,
		CreatedAt: s.now().Unix(),
	}
	s.jobs.Store(job.ID, job)
	return job
}

// Finish records the final response of a job. Stored jobs are never
// mutated, so readers may hold on to what Get returned.
func (s *JobStore) Finish(id string, resp *models.GenerateResponse) {
	val, ok := s.jobs.Load(id)
	if !ok {
		return
	}
	done := *val.(*models.JobStatus)
	done.Result = resp
	done.Status = models.JobCompleted
	if !resp.Success {
		done.Status = models.JobFailed
	}
	s.jobs.Store(id, &done)
}

// Get returns the job with the given id.
func (s *JobStore) Get(id string) (*models.JobStatus, bool) {
	val, ok := s.jobs.Load(id)
	if !ok {
		return nil, false
	}
	return val.(*models.JobStatus), true
}

// Close stops the background sweeper.
func (s *JobStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *JobStore) expire() {
	cutoff := s.now().Add(-s.retention).Unix()
	s.jobs.Range(func(key, value any) bool {
		if value.(*models.JobStatus).CreatedAt < cutoff {
			s.jobs.Delete(key)
		}
		return true
	})
}

func (s *JobStore) sweepLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.expire()
		}
	}
}

// GetJob returns a handler for GET /api/v1/jobs/:id.
func GetJob(jobs *JobStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, ok := jobs.Get(c.Param("id"))
		if !ok {
			respondError(c, models.NewError(models.KindPrecondition, models.ErrCodeJobNotFound,
				"job not found", nil), nil)
			return
		}
		c.JSON(http.StatusOK, job)
	}
}
