package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/sunsetbot/sunsetbot/internal/api/middleware"
	"github.com/sunsetbot/sunsetbot/internal/api/models"
	"github.com/sunsetbot/sunsetbot/internal/api/response"
	"github.com/sunsetbot/sunsetbot/internal/bot"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context) bot.Result
}

// RunHandler triggers pipeline runs over HTTP.
type RunHandler struct {
	runner Runner
	logger zerolog.Logger
}

// NewRunHandler creates a new RunHandler.
func NewRunHandler(runner Runner, logger zerolog.Logger) *RunHandler {
	return &RunHandler{runner: runner, logger: logger}
}

// Run handles POST /v1/run. The response is 200 for every outcome, failed
// included: the failure has already been sent to the chat, and a non-2xx
// would make the scheduler retry and send it again.
func (h *RunHandler) Run(w http.ResponseWriter, r *http.Request) {
	h.logger.Info().
		Str("request_id", middleware.GetRequestID(r.Context())).
		Str("subject", middleware.GetSubject(r.Context())).
		Msg("run triggered over http")

	res := h.runner.Run(r.Context())

	response.JSON(w, r, http.StatusOK, ToRunResult(res))
}

// ToRunResult maps a run result to its response body.
func ToRunResult(res bot.Result) models.RunResult {
	out := models.RunResult{
		RunID:      res.RunID,
		Outcome:    string(res.Outcome),
		Quality:    string(res.Quality),
		Delivered:  res.Delivered,
		DurationMs: res.Duration.Milliseconds(),
	}
	if res.Err != nil {
		msg := res.Err.Error()
		out.Error = &msg
	}
	return out
}
