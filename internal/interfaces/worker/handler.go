// Package worker adapts queued run requests to the planning service.
package worker

import (
	"context"
	"time"

	"github.com/turtacn/syclop/internal/application/planning"
	"github.com/turtacn/syclop/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/syclop/internal/infrastructure/monitoring/logging"
)

// RunRequestHandler plans the requests delivered on the request topic.
type RunRequestHandler struct {
	service planning.Service
	timeout time.Duration
	logger  logging.Logger
}

// NewRunRequestHandler creates a handler.  timeout bounds one request
// including its sinks; zero means no bound beyond the planner time limit.
func NewRunRequestHandler(service planning.Service, timeout time.Duration, logger logging.Logger) *RunRequestHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &RunRequestHandler{service: service, timeout: timeout, logger: logger}
}

// Handle decodes msg and runs it.  A run that was created and then failed is
// already recorded with status failed, so Handle reports success for it and
// the message is not redelivered.  Errors raised before the run exists are
// returned to the consumer, which retries server-side ones.
func (h *RunRequestHandler) Handle(ctx context.Context, msg *kafka.Message) error {
	req, err := kafka.DecodeRunRequest(msg)
	if err != nil {
		return err
	}
	log := h.logger.With(logging.String(logging.FieldRequestID, req.ID.String()))

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	queued := time.Since(req.SubmittedAt)
	report, err := h.service.RunRequest(ctx, req)
	switch {
	case err == nil:
		log.Info("run request processed",
			logging.String(logging.FieldRunID, report.Run.ID.String()),
			logging.String("status", string(report.Run.Status)),
			logging.Duration("queued", queued))
		return nil
	case report != nil:
		log.Warn("run request failed",
			logging.String(logging.FieldRunID, report.Run.ID.String()),
			logging.Err(err))
		return nil
	default:
		log.Error("run request rejected", logging.Err(err))
		return err
	}
}

// MessageHandler returns Handle as a consumer callback.
func (h *RunRequestHandler) MessageHandler() kafka.MessageHandler {
	return h.Handle
}
