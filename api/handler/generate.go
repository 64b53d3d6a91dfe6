package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/sitebrief/api/middleware"
	"github.com/use-agent/sitebrief/models"
	"github.com/use-agent/sitebrief/pipeline"
	"github.com/use-agent/sitebrief/webhook"
)

// Runner executes one pipeline run. *pipeline.Coordinator satisfies it.
type Runner interface {
	Run(ctx context.Context, req pipeline.RunRequest) (*pipeline.RunResult, error)
}

// Generate returns a handler for POST /api/v1/generate.
//
// Without webhook_url the run is synchronous and the response carries the
// brief and blueprint. With webhook_url the handler answers 202 with a job
// id; the run continues in the background, its result is kept in jobs and
// POSTed to the webhook.
func Generate(runner Runner, jobs *JobStore, notifier *webhook.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		// ── 1. Parse request ────────────────────────────────────────
		var req models.GenerateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, invalidInput(err), nil)
			return
		}
		req.Defaults()

		runReq := pipeline.RunRequest{
			URL:    req.URL,
			UserID: req.UserID,
			Tier:   req.Tier,
		}
		if runReq.UserID == "" {
			runReq.UserID = c.GetString(middleware.IdentityKey)
		}

		// ── 2a. Asynchronous ────────────────────────────────────────
		if req.WebhookURL != "" {
			job := jobs.Create(req.URL)
			ctx := context.WithoutCancel(c.Request.Context())
			go runJob(ctx, runner, jobs, notifier, job.ID, runReq, req.WebhookURL, req.WebhookSecret)

			c.JSON(http.StatusAccepted, models.JobAccepted{
				Success: true,
				JobID:   job.ID,
				Status:  job.Status,
			})
			return
		}

		// ── 2b. Synchronous ─────────────────────────────────────────
		start := time.Now()
		res, err := runner.Run(c.Request.Context(), runReq)
		resp := generateResponse(res, err, time.Since(start))
		status := http.StatusOK
		if err != nil {
			status = mapErrorToStatus(models.AsError(err))
		}
		c.JSON(status, resp)
	}
}

func runJob(ctx context.Context, runner Runner, jobs *JobStore, notifier *webhook.Notifier,
	jobID string, req pipeline.RunRequest, hookURL, secret string) {
	start := time.Now()
	res, err := runner.Run(ctx, req)
	resp := generateResponse(res, err, time.Since(start))
	jobs.Finish(jobID, resp)

	event := &webhook.Event{
		Type:      webhook.EventGenerationCompleted,
		JobID:     jobID,
		Timestamp: time.Now().Unix(),
		Data:      resp,
	}
	if err != nil {
		event.Type = webhook.EventGenerationFailed
		slog.Warn("generate job failed", "job_id", jobID, "url", req.URL, "error", err)
	}
	if notifier != nil {
		notifier.DeliverAsync(hookURL, secret, event)
	}
}

func generateResponse(res *pipeline.RunResult, err error, elapsed time.Duration) *models.GenerateResponse {
	if err != nil {
		return &models.GenerateResponse{
			Success: false,
			Timing:  models.TimingInfo{TotalMs: elapsed.Milliseconds()},
			Error:   models.AsError(err).ToDetail(),
		}
	}
	return &models.GenerateResponse{
		Success:        true,
		Brief:          res.Brief,
		Blueprint:      res.Blueprint,
		DesignGuidance: res.HasGuidance,
		Timing:         res.Timing,
	}
}
