package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sunsetbot/sunsetbot/internal/bot"
)

// ErrUpstreamsNotReady is returned by a health check job while any upstream
// circuit breaker is open.
var ErrUpstreamsNotReady = errors.New("upstreams not ready")

// TriggerMessage is the Pub/Sub payload that starts a job.
type TriggerMessage struct {
	JobType string `json:"job_type"`
}

// Runner executes one bot run.
type Runner interface {
	Run(ctx context.Context) bot.Result
}

// ReadinessChecker reports whether upstreams are usable.
type ReadinessChecker interface {
	Ready() bool
}

// Dispatcher maps trigger messages to jobs.
type Dispatcher struct {
	runner Runner
	health ReadinessChecker
	logger zerolog.Logger
}

// NewDispatcher creates a dispatcher. health may be nil.
func NewDispatcher(runner Runner, health ReadinessChecker, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{runner: runner, health: health, logger: logger}
}

// ParseTrigger decodes a trigger message payload.
func ParseTrigger(data []byte) (TriggerMessage, error) {
	var msg TriggerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return TriggerMessage{}, fmt.Errorf("parsing trigger message: %w", err)
	}
	return msg, nil
}

// Dispatch runs the job named by msg. Unknown job types are logged and
// ignored. A failed bot run is not an error here: it has already been
// reported through the notifier and redelivery would notify twice.
func (d *Dispatcher) Dispatch(ctx context.Context, msg TriggerMessage) error {
	switch msg.JobType {
	case JobSunsetCheck:
		res := d.runner.Run(ctx)
		d.logger.Info().
			Str("run_id", res.RunID).
			Str("outcome", string(res.Outcome)).
			Bool("delivered", res.Delivered).
			Msg("sunset check completed")
		return nil
	case JobHealthCheck:
		if d.health != nil && !d.health.Ready() {
			return ErrUpstreamsNotReady
		}
		d.logger.Debug().Msg("health check passed")
		return nil
	default:
		d.logger.Warn().Str("job_type", msg.JobType).Msg("unknown job type")
		return nil
	}
}
