package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/turtacn/syclop/internal/domain/run"
	infraNeo4j "github.com/turtacn/syclop/internal/infrastructure/database/neo4j"
	"github.com/turtacn/syclop/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/syclop/pkg/errors"
)

const (
	mergeRunCypher = `
MERGE (r:PlanningRun {id: $run_id})
SET r.start_region = $start_region, r.goal_region = $goal_region`

	mergeRegionsCypher = `
UNWIND $regions AS reg
MATCH (r:PlanningRun {id: $run_id})
MERGE (n:Region {run_id: $run_id, index: reg.index})
SET n.volume = reg.volume,
    n.free_volume = reg.free_volume,
    n.percent_valid_cells = reg.percent_valid_cells,
    n.num_selections = reg.num_selections,
    n.weight = reg.weight,
    n.alpha = reg.alpha,
    n.coverage_cells = reg.coverage_cells,
    n.tree_states = reg.tree_states
MERGE (r)-[:HAS_REGION]->(n)`

	mergeAdjacenciesCypher = `
UNWIND $adjacencies AS adj
MATCH (s:Region {run_id: $run_id, index: adj.source})
MATCH (t:Region {run_id: $run_id, index: adj.target})
MERGE (s)-[e:ADJACENT]->(t)
SET e.cost = adj.cost,
    e.num_selections = adj.num_selections,
    e.coverage_cells = adj.coverage_cells`

	listRegionsCypher = `
MATCH (n:Region {run_id: $run_id})
RETURN n.index AS index, n.volume AS volume, n.free_volume AS free_volume,
       n.percent_valid_cells AS percent_valid_cells, n.num_selections AS num_selections,
       n.weight AS weight, n.alpha AS alpha, n.coverage_cells AS coverage_cells,
       n.tree_states AS tree_states
ORDER BY n.index`

	deleteRunCypher = `
MATCH (r:PlanningRun {id: $run_id})
OPTIONAL MATCH (r)-[:HAS_REGION]->(n:Region)
DETACH DELETE r, n`
)

// RegionGraphExporter mirrors a run's region graph into Neo4j as
// (:PlanningRun)-[:HAS_REGION]->(:Region)-[:ADJACENT]->(:Region).
type RegionGraphExporter struct {
	driver infraNeo4j.DriverInterface
	logger logging.Logger
}

var _ run.GraphExporter = (*RegionGraphExporter)(nil)

func NewRegionGraphExporter(driver infraNeo4j.DriverInterface, log logging.Logger) *RegionGraphExporter {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &RegionGraphExporter{driver: driver, logger: log}
}

// ExportGraph writes the snapshot in a single write transaction.  Re-exporting
// the same run overwrites the stored estimates.
func (e *RegionGraphExporter) ExportGraph(ctx context.Context, snapshot *run.GraphSnapshot) error {
	if snapshot == nil {
		return errors.InvalidParam("graph snapshot is nil")
	}
	runID := snapshot.RunID.String()

	_, err := e.driver.ExecuteWrite(ctx, func(tx infraNeo4j.Transaction) (any, error) {
		if err := runAndConsume(ctx, tx, mergeRunCypher, map[string]any{
			"run_id":       runID,
			"start_region": int64(snapshot.StartRegion),
			"goal_region":  int64(snapshot.GoalRegion),
		}); err != nil {
			return nil, err
		}
		if len(snapshot.Regions) > 0 {
			if err := runAndConsume(ctx, tx, mergeRegionsCypher, map[string]any{
				"run_id":  runID,
				"regions": regionParams(snapshot.Regions),
			}); err != nil {
				return nil, err
			}
		}
		if len(snapshot.Adjacencies) > 0 {
			if err := runAndConsume(ctx, tx, mergeAdjacenciesCypher, map[string]any{
				"run_id":      runID,
				"adjacencies": adjacencyParams(snapshot.Adjacencies),
			}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeRunExportFailed, "failed to export region graph").
			WithDetail(fmt.Sprintf("run_id=%s", runID))
	}

	e.logger.Debug("region graph exported",
		logging.String(logging.FieldRunID, runID),
		logging.Int("regions", len(snapshot.Regions)),
		logging.Int("adjacencies", len(snapshot.Adjacencies)))
	return nil
}

// ListRegions reads back the exported regions of a run ordered by index.
func (e *RegionGraphExporter) ListRegions(ctx context.Context, runID uuid.UUID) ([]run.RegionSnapshot, error) {
	res, err := e.driver.ExecuteRead(ctx, func(tx infraNeo4j.Transaction) (any, error) {
		result, err := tx.Run(ctx, listRegionsCypher, map[string]any{"run_id": runID.String()})
		if err != nil {
			return nil, err
		}
		return infraNeo4j.CollectRecords(ctx, result, mapRegion)
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list regions")
	}
	regions, _ := res.([]run.RegionSnapshot)
	return regions, nil
}

// DeleteRun removes a run and its regions.
func (e *RegionGraphExporter) DeleteRun(ctx context.Context, runID uuid.UUID) error {
	_, err := e.driver.ExecuteWrite(ctx, func(tx infraNeo4j.Transaction) (any, error) {
		return nil, runAndConsume(ctx, tx, deleteRunCypher, map[string]any{"run_id": runID.String()})
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete run graph")
	}
	return nil
}

func runAndConsume(ctx context.Context, tx infraNeo4j.Transaction, cypher string, params map[string]any) error {
	result, err := tx.Run(ctx, cypher, params)
	if err != nil {
		return err
	}
	_, err = result.Consume(ctx)
	return err
}

func regionParams(regions []run.RegionSnapshot) []map[string]any {
	out := make([]map[string]any, 0, len(regions))
	for _, r := range regions {
		out = append(out, map[string]any{
			"index":               int64(r.Index),
			"volume":              r.Volume,
			"free_volume":         r.FreeVolume,
			"percent_valid_cells": r.PercentValidCells,
			"num_selections":      int64(r.NumSelections),
			"weight":              r.Weight,
			"alpha":               r.Alpha,
			"coverage_cells":      int64(r.CoverageCells),
			"tree_states":         int64(r.TreeStates),
		})
	}
	return out
}

func adjacencyParams(adjs []run.AdjacencySnapshot) []map[string]any {
	out := make([]map[string]any, 0, len(adjs))
	for _, a := range adjs {
		out = append(out, map[string]any{
			"source":         int64(a.Source),
			"target":         int64(a.Target),
			"cost":           a.Cost,
			"num_selections": int64(a.NumSelections),
			"coverage_cells": int64(a.CoverageCells),
		})
	}
	return out
}

func mapRegion(rec *neo4j.Record) (run.RegionSnapshot, error) {
	m := rec.AsMap()
	return run.RegionSnapshot{
		Index:             int(asInt64(m["index"])),
		Volume:            asFloat64(m["volume"]),
		FreeVolume:        asFloat64(m["free_volume"]),
		PercentValidCells: asFloat64(m["percent_valid_cells"]),
		NumSelections:     int(asInt64(m["num_selections"])),
		Weight:            asFloat64(m["weight"]),
		Alpha:             asFloat64(m["alpha"]),
		CoverageCells:     int(asInt64(m["coverage_cells"])),
		TreeStates:        int(asInt64(m["tree_states"])),
	}, nil
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func asFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}
