package kafka

import (
	"context"
	"encoding/json"

	"github.com/turtacn/syclop/internal/domain/run"
	"github.com/turtacn/syclop/pkg/errors"
)

// RunRequestQueue enqueues planning requests for the worker pool.
type RunRequestQueue struct {
	producer publisher
	topic    string
}

var _ run.RequestQueue = (*RunRequestQueue)(nil)

// NewRunRequestQueue returns a queue publishing to topic, or to
// TopicPlanningRunRequested when topic is empty.
func NewRunRequestQueue(p publisher, topic string) *RunRequestQueue {
	if topic == "" {
		topic = TopicPlanningRunRequested
	}
	return &RunRequestQueue{producer: p, topic: topic}
}

// Enqueue publishes req keyed by its id.
func (q *RunRequestQueue) Enqueue(ctx context.Context, req *run.Request) error {
	env, err := NewEventEnvelope(EventTypeRunRequested, req)
	if err != nil {
		return err
	}
	msg, err := env.ToMessage(q.topic, req.ID.String())
	if err != nil {
		return err
	}
	if err := q.producer.Publish(ctx, msg); err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to enqueue run request").
			WithDetail("request_id=" + req.ID.String())
	}
	return nil
}

// DecodeRunRequest extracts the request carried by msg.
func DecodeRunRequest(msg *Message) (*run.Request, error) {
	var env EventEnvelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "malformed run request envelope")
	}
	if env.EventType != EventTypeRunRequested {
		return nil, errors.Newf(errors.ErrCodeValidation, "unexpected event type %q", env.EventType)
	}
	if len(env.Payload) == 0 || string(env.Payload) == "null" {
		return nil, errors.New(errors.ErrCodeValidation, "run request payload is empty")
	}
	var req run.Request
	if err := env.DecodePayload(&req); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "malformed run request payload")
	}
	return &req, nil
}
