package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// Job types accepted on the refresh subscription.
const (
	JobIndexRefresh = "index_refresh"
	JobHealthCheck  = "health_check"
)

// ErrUnknownJob is returned for a message with an unrecognised job type.
var ErrUnknownJob = errors.New("unknown job type")

// RefreshMessage represents a refresh job message.
type RefreshMessage struct {
	JobType string `json:"job_type"`

	// Points overrides the configured points when non-empty.
	Points []MessagePoint `json:"points,omitempty"`
}

// MessagePoint is a point carried by a refresh message.
type MessagePoint struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// healthCheckPoint is refreshed to verify upstream connectivity.
var healthCheckPoint = Point{Name: "health-check", Lat: 50.8466, Lon: 4.3528}

// Dispatcher runs the job described by a message payload.
type Dispatcher struct {
	refreshJob *RefreshJob
	logger     zerolog.Logger
}

// NewDispatcher creates a Dispatcher running jobs on refreshJob.
func NewDispatcher(refreshJob *RefreshJob, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{refreshJob: refreshJob, logger: logger}
}

// Dispatch decodes data and runs the job. A malformed payload or an unknown
// job type is returned wrapped in ErrUnknownJob.
func (d *Dispatcher) Dispatch(ctx context.Context, data []byte) error {
	var msg RefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownJob, err)
	}

	switch msg.JobType {
	case JobIndexRefresh:
		return d.indexRefresh(ctx, msg)
	case JobHealthCheck:
		return d.healthCheck(ctx)
	}
	return fmt.Errorf("%w: %q", ErrUnknownJob, msg.JobType)
}

func (d *Dispatcher) indexRefresh(ctx context.Context, msg RefreshMessage) error {
	var result *RefreshResult
	if len(msg.Points) > 0 {
		points := make([]Point, 0, len(msg.Points))
		for _, p := range msg.Points {
			points = append(points, Point(p))
		}
		result = d.refreshJob.RunPoints(ctx, points)
	} else {
		result = d.refreshJob.Run(ctx)
	}

	// Consider it successful if at least half succeeded.
	if result.Failed > result.Successful {
		return fmt.Errorf("too many refresh failures: %d/%d", result.Failed, result.TotalPoints)
	}
	return nil
}

func (d *Dispatcher) healthCheck(ctx context.Context) error {
	d.logger.Debug().Msg("running health check")

	result := d.refreshJob.RunPoints(ctx, []Point{healthCheckPoint})
	if result.Failed > 0 {
		return fmt.Errorf("health check failed: %s", result.Errors[0].Error)
	}

	d.logger.Debug().Msg("health check passed")
	return nil
}

// PubSubHandler receives refresh jobs from a Pub/Sub subscription.
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
	RefreshJob       *RefreshJob
	Logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// A forecast refresh of every point can take minutes.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 2
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		dispatcher:       NewDispatcher(cfg.RefreshJob, cfg.Logger),
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages. It blocks until ctx is done.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	err := h.dispatcher.Dispatch(ctx, msg.Data)
	switch {
	case errors.Is(err, ErrUnknownJob):
		logger.Warn().Err(err).Msg("discarding message")
		msg.Ack() // Ack unknown messages to prevent redelivery
	case err != nil:
		logger.Error().Err(err).Msg("job failed")
		msg.Nack()
	default:
		logger.Info().
			Dur("duration", time.Since(startTime)).
			Msg("job completed successfully")
		msg.Ack()
	}
}
