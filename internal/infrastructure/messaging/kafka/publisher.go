package kafka

import (
	"context"

	"github.com/turtacn/syclop/internal/domain/run"
	"github.com/turtacn/syclop/pkg/errors"
)

// publisher is the subset of Producer used by RunEventPublisher.
type publisher interface {
	Publish(ctx context.Context, msg *Message) error
}

// RunEventPublisher publishes run completion events wrapped in an
// EventEnvelope and keyed by run id, so events of one run stay ordered.
type RunEventPublisher struct {
	producer publisher
	topic    string
}

var _ run.EventPublisher = (*RunEventPublisher)(nil)

// NewRunEventPublisher returns a publisher writing to topic, or to
// TopicPlanningRunCompleted when topic is empty.
func NewRunEventPublisher(p publisher, topic string) *RunEventPublisher {
	if topic == "" {
		topic = TopicPlanningRunCompleted
	}
	return &RunEventPublisher{producer: p, topic: topic}
}

// PublishRunCompleted publishes evt keyed by its run id.
func (r *RunEventPublisher) PublishRunCompleted(ctx context.Context, evt *run.CompletedEvent) error {
	env, err := NewEventEnvelope(EventTypeRunCompleted, evt)
	if err != nil {
		return err
	}
	msg, err := env.ToMessage(r.topic, evt.RunID)
	if err != nil {
		return err
	}
	if err := r.producer.Publish(ctx, msg); err != nil {
		return errors.Wrap(err, errors.ErrCodeRunPublishFailed, "failed to publish run completion").
			WithDetail("run_id=" + evt.RunID)
	}
	return nil
}
