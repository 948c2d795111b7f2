package worker

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// PubSubHandler receives trigger messages from a Pub/Sub subscription.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	dispatcher       *Dispatcher
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Dispatcher       *Dispatcher
	Receive          ReceiveConfig
	Logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	receive := cfg.Receive
	defaults := DefaultReceiveConfig()
	if receive.MaxOutstandingMessages == 0 {
		receive.MaxOutstandingMessages = defaults.MaxOutstandingMessages
	}
	if receive.MaxExtension == 0 {
		receive.MaxExtension = defaults.MaxExtension
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)
	subscriber.ReceiveSettings.MaxOutstandingMessages = receive.MaxOutstandingMessages
	subscriber.ReceiveSettings.MaxExtension = receive.MaxExtension

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		dispatcher:       cfg.Dispatcher,
		logger:           cfg.Logger,
	}, nil
}

// Start receives messages until ctx is done.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().Str("subscription", h.subscriptionName).Msg("listening for triggers")
	if err := h.subscriber.Receive(ctx, h.handleMessage); err != nil {
		return fmt.Errorf("receiving from %s: %w", h.subscriptionName, err)
	}
	return nil
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	started := time.Now()
	ev := h.logger.With().Str("message_id", msg.ID)
	if msg.DeliveryAttempt != nil {
		ev = ev.Int("delivery_attempt", *msg.DeliveryAttempt)
	}
	log := ev.Logger()

	if h.process(ctx, log, msg.Data) {
		log.Debug().Dur("duration", time.Since(started)).Msg("message acked")
		msg.Ack()
		return
	}
	msg.Nack()
}

// process handles one payload and reports whether it should be acked.
// Malformed payloads are acked since redelivery cannot fix them.
func (h *PubSubHandler) process(ctx context.Context, log zerolog.Logger, data []byte) bool {
	trigger, err := ParseTrigger(data)
	if err != nil {
		log.Error().Err(err).Msg("dropping malformed trigger")
		return true
	}
	if err := h.dispatcher.Dispatch(ctx, trigger); err != nil {
		log.Error().Err(err).Str("job_type", trigger.JobType).Msg("job failed")
		return false
	}
	return true
}
