package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/syclop/internal/config"
	"github.com/turtacn/syclop/internal/domain/run"
	"github.com/turtacn/syclop/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/syclop/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/syclop/internal/testutil"
	apperrors "github.com/turtacn/syclop/pkg/errors"
)

type MockService struct{ mock.Mock }

func (m *MockService) Run(ctx context.Context, sc *config.ScenarioConfig) (*run.Report, error) {
	args := m.Called(ctx, sc)
	if r := args.Get(0); r != nil {
		return r.(*run.Report), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) Submit(ctx context.Context, sc *config.ScenarioConfig) (*run.Request, error) {
	args := m.Called(ctx, sc)
	if r := args.Get(0); r != nil {
		return r.(*run.Request), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) RunRequest(ctx context.Context, req *run.Request) (*run.Report, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*run.Report), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) GetRun(ctx context.Context, id uuid.UUID) (*run.Run, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*run.Run), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) ListRuns(ctx context.Context, limit int) ([]*run.Run, error) {
	args := m.Called(ctx, limit)
	if r := args.Get(0); r != nil {
		return r.([]*run.Run), args.Error(1)
	}
	return nil, args.Error(1)
}

func requestMessage(t *testing.T, req *run.Request) *kafka.Message {
	t.Helper()
	env, err := kafka.NewEventEnvelope(kafka.EventTypeRunRequested, req)
	require.NoError(t, err)
	msg, err := env.ToMessage(kafka.TopicPlanningRunRequested, req.ID.String())
	require.NoError(t, err)
	return msg
}

func reportFor(t *testing.T, req *run.Request, status run.Status) *run.Report {
	t.Helper()
	r, err := run.NewRun(req.Scenario.Name, req.Scenario.Seed)
	require.NoError(t, err)
	r.ID = req.ID
	r.Status = status
	return &run.Report{Run: r}
}

func TestHandle_Success(t *testing.T) {
	svc := new(MockService)
	logs := testutil.NewRecordingLogger()
	req := run.NewRequest(*testutil.OpenScenario())
	svc.On("RunRequest", mock.Anything, mock.MatchedBy(func(got *run.Request) bool {
		return got.ID == req.ID && got.Scenario.Name == "open"
	})).Return(reportFor(t, req, run.StatusSuccess), nil)

	h := NewRunRequestHandler(svc, time.Minute, logs)
	require.NoError(t, h.MessageHandler()(context.Background(), requestMessage(t, req)))
	svc.AssertExpectations(t)

	msg, ok := logs.Find("info", "run request processed")
	require.True(t, ok)
	id, _ := msg.Field(logging.FieldRequestID)
	assert.Equal(t, req.ID.String(), id)
	status, _ := msg.Field("status")
	assert.Equal(t, "success", status)
}

func TestHandle_FailedRunIsNotRedelivered(t *testing.T) {
	svc := new(MockService)
	logs := testutil.NewRecordingLogger()
	req := run.NewRequest(*testutil.OpenScenario())
	svc.On("RunRequest", mock.Anything, mock.Anything).
		Return(reportFor(t, req, run.StatusFailed), errors.New("planner exploded"))

	h := NewRunRequestHandler(svc, 0, logs)
	assert.NoError(t, h.Handle(context.Background(), requestMessage(t, req)))
	assert.True(t, logs.HasMessage("warn", "run request failed"))
}

func TestHandle_RejectedRequestReturnsError(t *testing.T) {
	svc := new(MockService)
	logs := testutil.NewRecordingLogger()
	req := run.NewRequest(*testutil.OpenScenario())
	rejected := apperrors.New(apperrors.ErrCodeStartInvalid, "start state is invalid")
	svc.On("RunRequest", mock.Anything, mock.Anything).Return(nil, rejected)

	h := NewRunRequestHandler(svc, 0, logs)
	err := h.Handle(context.Background(), requestMessage(t, req))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeStartInvalid))
	assert.True(t, apperrors.IsClientError(apperrors.GetCode(err)))
	assert.True(t, logs.HasMessage("error", "run request rejected"))
}

func TestHandle_MalformedMessage(t *testing.T) {
	svc := new(MockService)
	h := NewRunRequestHandler(svc, 0, nil)

	payload, err := json.Marshal(map[string]string{"event_type": kafka.EventTypeRunCompleted})
	require.NoError(t, err)
	err = h.Handle(context.Background(), &kafka.Message{Value: payload})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
	svc.AssertNotCalled(t, "RunRequest", mock.Anything, mock.Anything)
}

func TestHandle_AppliesTimeout(t *testing.T) {
	svc := new(MockService)
	req := run.NewRequest(*testutil.OpenScenario())
	svc.On("RunRequest", mock.MatchedBy(func(ctx context.Context) bool {
		deadline, ok := ctx.Deadline()
		return ok && time.Until(deadline) <= time.Second
	}), mock.Anything).Return(reportFor(t, req, run.StatusExhausted), nil)

	h := NewRunRequestHandler(svc, time.Second, nil)
	require.NoError(t, h.Handle(context.Background(), requestMessage(t, req)))
	svc.AssertExpectations(t)
}
