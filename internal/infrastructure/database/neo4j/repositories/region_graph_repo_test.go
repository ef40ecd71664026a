package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/syclop/internal/domain/run"
	infraNeo4j "github.com/turtacn/syclop/internal/infrastructure/database/neo4j"
	apperrors "github.com/turtacn/syclop/pkg/errors"
)

// fakeDriver executes work directly against a mocked transaction.
type fakeDriver struct {
	tx       *mockTx
	writeErr error
}

func (d *fakeDriver) ExecuteRead(_ context.Context, work infraNeo4j.TransactionWork) (any, error) {
	return work(d.tx)
}

func (d *fakeDriver) ExecuteWrite(_ context.Context, work infraNeo4j.TransactionWork) (any, error) {
	if d.writeErr != nil {
		return nil, d.writeErr
	}
	return work(d.tx)
}

func (d *fakeDriver) HealthCheck(context.Context) error { return nil }

type mockTx struct{ mock.Mock }

func (m *mockTx) Run(ctx context.Context, cypher string, params map[string]any) (infraNeo4j.Result, error) {
	args := m.Called(ctx, cypher, params)
	if r := args.Get(0); r != nil {
		return r.(infraNeo4j.Result), args.Error(1)
	}
	return nil, args.Error(1)
}

type recordsResult struct {
	records []*neo4j.Record
	pos     int
}

func (r *recordsResult) Next(context.Context) bool {
	if r.pos >= len(r.records) {
		return false
	}
	r.pos++
	return true
}

func (r *recordsResult) Record() *neo4j.Record { return r.records[r.pos-1] }
func (r *recordsResult) Err() error            { return nil }
func (r *recordsResult) Consume(context.Context) (neo4j.ResultSummary, error) {
	return nil, nil
}

type RegionGraphExporterSuite struct {
	suite.Suite
	tx       *mockTx
	driver   *fakeDriver
	exporter *RegionGraphExporter
	snapshot *run.GraphSnapshot
}

func (s *RegionGraphExporterSuite) SetupTest() {
	s.tx = &mockTx{}
	s.driver = &fakeDriver{tx: s.tx}
	s.exporter = NewRegionGraphExporter(s.driver, nil)
	s.snapshot = &run.GraphSnapshot{
		RunID:       uuid.New(),
		StartRegion: 0,
		GoalRegion:  3,
		Regions: []run.RegionSnapshot{
			{Index: 0, Volume: 1, FreeVolume: 1, PercentValidCells: 1, NumSelections: 4, Weight: 0.2, Alpha: 0.5, CoverageCells: 3, TreeStates: 7},
			{Index: 1, Volume: 1, FreeVolume: 0.5, PercentValidCells: 0.5, Weight: 0.06},
		},
		Adjacencies: []run.AdjacencySnapshot{{Source: 0, Target: 1, Cost: 2.5, NumSelections: 1, CoverageCells: 2}},
	}
}

func (s *RegionGraphExporterSuite) TestExportGraph_WritesRunRegionsAndEdges() {
	runID := s.snapshot.RunID.String()
	s.tx.On("Run", mock.Anything, mergeRunCypher, map[string]any{
		"run_id": runID, "start_region": int64(0), "goal_region": int64(3),
	}).Return(&recordsResult{}, nil).Once()
	s.tx.On("Run", mock.Anything, mergeRegionsCypher, mock.MatchedBy(func(p map[string]any) bool {
		regions, ok := p["regions"].([]map[string]any)
		return ok && p["run_id"] == runID && len(regions) == 2 && regions[0]["tree_states"] == int64(7)
	})).Return(&recordsResult{}, nil).Once()
	s.tx.On("Run", mock.Anything, mergeAdjacenciesCypher, mock.MatchedBy(func(p map[string]any) bool {
		adjs, ok := p["adjacencies"].([]map[string]any)
		return ok && len(adjs) == 1 && adjs[0]["cost"] == 2.5 && adjs[0]["target"] == int64(1)
	})).Return(&recordsResult{}, nil).Once()

	s.Require().NoError(s.exporter.ExportGraph(context.Background(), s.snapshot))
	s.tx.AssertExpectations(s.T())
}

func (s *RegionGraphExporterSuite) TestExportGraph_SkipsEmptyBatches() {
	s.snapshot.Regions = nil
	s.snapshot.Adjacencies = nil
	s.tx.On("Run", mock.Anything, mergeRunCypher, mock.Anything).Return(&recordsResult{}, nil).Once()

	s.Require().NoError(s.exporter.ExportGraph(context.Background(), s.snapshot))
	s.tx.AssertNumberOfCalls(s.T(), "Run", 1)
}

func (s *RegionGraphExporterSuite) TestExportGraph_QueryFailure() {
	s.tx.On("Run", mock.Anything, mergeRunCypher, mock.Anything).Return(nil, errors.New("constraint violated"))

	err := s.exporter.ExportGraph(context.Background(), s.snapshot)
	s.Require().Error(err)
	s.True(apperrors.IsCode(err, apperrors.ErrCodeRunExportFailed))
	s.Contains(err.Error(), s.snapshot.RunID.String())
}

func (s *RegionGraphExporterSuite) TestExportGraph_TransactionFailure() {
	s.driver.writeErr = errors.New("leader switched")
	err := s.exporter.ExportGraph(context.Background(), s.snapshot)
	s.True(apperrors.IsCode(err, apperrors.ErrCodeRunExportFailed))
}

func (s *RegionGraphExporterSuite) TestExportGraph_NilSnapshot() {
	err := s.exporter.ExportGraph(context.Background(), nil)
	s.True(apperrors.IsCode(err, apperrors.CodeInvalidParam))
}

func (s *RegionGraphExporterSuite) TestListRegions() {
	keys := []string{"index", "volume", "free_volume", "percent_valid_cells", "num_selections", "weight", "alpha", "coverage_cells", "tree_states"}
	s.tx.On("Run", mock.Anything, listRegionsCypher, map[string]any{"run_id": s.snapshot.RunID.String()}).
		Return(&recordsResult{records: []*neo4j.Record{
			{Keys: keys, Values: []any{int64(0), 1.0, 1.0, 1.0, int64(4), 0.2, 0.5, int64(3), int64(7)}},
			{Keys: keys, Values: []any{int64(1), 1.0, 0.5, 0.5, int64(0), 0.06, 1.0, int64(0), int64(0)}},
		}}, nil)

	regions, err := s.exporter.ListRegions(context.Background(), s.snapshot.RunID)
	s.Require().NoError(err)
	s.Require().Len(regions, 2)
	s.Equal(s.snapshot.Regions[0], regions[0])
	s.Equal(0.5, regions[1].FreeVolume)
}

func (s *RegionGraphExporterSuite) TestDeleteRun() {
	s.tx.On("Run", mock.Anything, deleteRunCypher, map[string]any{"run_id": s.snapshot.RunID.String()}).
		Return(&recordsResult{}, nil)
	s.NoError(s.exporter.DeleteRun(context.Background(), s.snapshot.RunID))
}

func TestRegionGraphExporterSuite(t *testing.T) {
	suite.Run(t, new(RegionGraphExporterSuite))
}

func TestNumericCoercion(t *testing.T) {
	assert.Equal(t, int64(3), asInt64(3))
	assert.Equal(t, int64(2), asInt64(2.0))
	assert.Equal(t, int64(0), asInt64("x"))
	assert.Equal(t, 4.0, asFloat64(int64(4)))
	require.Equal(t, 0.0, asFloat64(nil))
}
