package testutil_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/syclop/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/syclop/internal/testutil"
)

func TestRecordingLogger(t *testing.T) {
	logger := testutil.NewRecordingLogger()

	logger.Info("test info", logging.String("key", "value"))
	messages := logger.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "info", messages[0].Level)
	assert.Equal(t, "test info", messages[0].Message)

	logger.Clear()
	assert.Empty(t, logger.Messages())

	logger.Error("test error", logging.Err(errors.New("boom")))
	assert.True(t, logger.HasMessage("error", "test error"))
	assert.False(t, logger.HasMessage("info", "test info"))
}

func TestRecordingLogger_ChildrenShareStore(t *testing.T) {
	logger := testutil.NewRecordingLogger()
	child := logger.Named("planning").With(logging.String(logging.FieldRunID, "r1")).Named("syclop")

	child.Warn("stalled", logging.Int("iterations", 3))

	msg, ok := logger.Find("warn", "stalled")
	require.True(t, ok)
	assert.Equal(t, "planning.syclop", msg.Logger)
	id, ok := msg.Field(logging.FieldRunID)
	require.True(t, ok)
	assert.Equal(t, "r1", id)
	_, ok = msg.Field("missing")
	assert.False(t, ok)
}

func TestFixtures(t *testing.T) {
	require.NoError(t, testutil.OpenScenario().Validate())
	pc := testutil.PlannerConfig()
	require.NoError(t, pc.Validate())
}
