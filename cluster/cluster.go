package cluster

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/Stainlessbrown/StampZ-II-sub001/internal/kmeans"
	"github.com/Stainlessbrown/StampZ-II-sub001/rowmap"
	"github.com/Stainlessbrown/StampZ-II-sub001/table"
	"github.com/Stainlessbrown/StampZ-II-sub001/writer"
)

// MinK is the smallest usable cluster count; smaller requests are coerced
// up to it.
const MinK = 2

// ErrTooFewSamples reports that the range held fewer valid samples than
// clusters were requested. Valid counts only complete samples before the
// first provenance gap.
type ErrTooFewSamples struct {
	Valid int
	K     int
}

func (e *ErrTooFewSamples) Error() string {
	return fmt.Sprintf("clustering needs at least %d valid samples, range has %d", e.K, e.Valid)
}

// ErrNoCentroid reports a cluster that ended a run without a centroid.
// This is fatal for the run; partial assignments are not returned.
type ErrNoCentroid struct {
	Cluster int
}

func (e *ErrNoCentroid) Error() string {
	return fmt.Sprintf("cluster %d has no centroid", e.Cluster)
}

// Assignment records one retained sample's clustering outcome.
type Assignment struct {
	// Index is the position in the in-memory sample array.
	Index int
	// UserRow is the 1-based sheet row.
	UserRow int
	// ClusterID is 0-based and consecutive across the run.
	ClusterID int
	// Centroid is the mean coordinate of the cluster's members.
	Centroid [3]float64
}

// Config bounds an Engine.
type Config struct {
	Seed     int64
	MaxIter  int
	Restarts int
	Logger   *slog.Logger
}

// Engine runs clustering over a loaded table. One Engine serves one
// load-compute-save cycle; callers must not invoke it concurrently on the
// same table.
type Engine struct {
	opts   kmeans.Options
	logger *slog.Logger
}

// NewEngine creates an Engine. Zero config fields take the kmeans
// defaults (seed 42, 300 iterations, 4 restarts).
func NewEngine(cfg Config) *Engine {
	opts := kmeans.DefaultOptions()
	if cfg.Seed != 0 {
		opts.Seed = cfg.Seed
	}
	if cfg.MaxIter > 0 {
		opts.MaxIter = cfg.MaxIter
	}
	if cfg.Restarts > 0 {
		opts.Restarts = cfg.Restarts
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{opts: opts, logger: logger}
}

// Apply clusters the complete samples of the given row range into k groups
// and writes cluster id and centroid into the in-memory samples of the
// retained rows only. Samples outside the filtered set are not touched.
//
// k below MinK is coerced up. A blank-row provenance gap inside the range
// is a hard boundary: samples past the first gap are dropped, so a run
// never silently spans an operator-inserted separator.
func (e *Engine) Apply(t *table.Table, rng rowmap.Range, k int) ([]Assignment, error) {
	if k < MinK {
		e.logger.Warn("cluster count coerced up", "requested", k, "using", MinK)
		k = MinK
	}

	mapper := rowmap.New(t, e.logger)
	indices, err := mapper.ResolveRange(rng)
	if err != nil {
		return nil, err
	}

	retained := filterCandidates(t.Samples, indices)
	if len(retained) < k {
		return nil, &ErrTooFewSamples{Valid: len(retained), K: k}
	}

	points := make([][]float64, len(retained))
	for i, idx := range retained {
		c := t.Samples[idx].Coords()
		points[i] = []float64{c[0], c[1], c[2]}
	}

	res, err := kmeans.Train(points, k, e.opts)
	if err != nil {
		return nil, err
	}

	ids, centroids, err := renumber(points, res.Assignments, k)
	if err != nil {
		return nil, err
	}

	assignments := make([]Assignment, len(retained))
	for i, idx := range retained {
		id := ids[i]
		s := &t.Samples[idx]
		s.ClusterID = id
		s.SetCentroid(centroids[id])
		assignments[i] = Assignment{
			Index:     idx,
			UserRow:   mapper.ToUserRow(idx),
			ClusterID: id,
			Centroid:  centroids[id],
		}
	}

	e.logger.Info("clustering applied", "range", rng.String(), "k", len(centroids), "samples", len(retained))
	return assignments, nil
}

// filterCandidates keeps complete samples and stops at the first
// provenance gap within the range.
func filterCandidates(samples []table.Sample, indices []int) []int {
	var retained []int
	prevOrig := -1
	for _, idx := range indices {
		s := &samples[idx]
		if s.OriginalRow >= 0 {
			if prevOrig >= 0 && s.OriginalRow > prevOrig+1 {
				break
			}
			prevOrig = s.OriginalRow
		}
		if !s.Complete() {
			continue
		}
		retained = append(retained, idx)
	}
	return retained
}

// renumber maps raw k-means cluster ids to 0-based consecutive ids in
// order of first appearance and recomputes each cluster's centroid as the
// per-dimension mean of its members. Every emitted id is guaranteed a
// finite centroid.
func renumber(points [][]float64, raw []int, k int) ([]int, [][3]float64, error) {
	remap := make(map[int]int, k)
	members := make(map[int][]int)
	ids := make([]int, len(raw))
	for i, r := range raw {
		id, ok := remap[r]
		if !ok {
			id = len(remap)
			remap[r] = id
		}
		ids[i] = id
		members[id] = append(members[id], i)
	}

	centroids := make([][3]float64, len(remap))
	for id := 0; id < len(remap); id++ {
		idxs := members[id]
		if len(idxs) == 0 {
			return nil, nil, &ErrNoCentroid{Cluster: id}
		}
		var c [3]float64
		for dim := 0; dim < 3; dim++ {
			vals := make([]float64, len(idxs))
			for i, pi := range idxs {
				vals[i] = points[pi][dim]
			}
			c[dim] = stat.Mean(vals, nil)
		}
		for dim := 0; dim < 3; dim++ {
			if math.IsNaN(c[dim]) || math.IsInf(c[dim], 0) {
				return nil, nil, &ErrNoCentroid{Cluster: id}
			}
		}
		centroids[id] = c
	}

	return ids, centroids, nil
}

// BuildUpdate turns a run's assignments into the writer update for the
// cluster column family: the cluster id for every assigned row, plus one
// centroid row per distinct cluster id at sheet rows 2..k+1 ordered by id.
// The fixed centroid rows keep "many samples, few centroids" apart so
// centroids are not duplicated per sample row.
func BuildUpdate(t *table.Table, assignments []Assignment) writer.Update {
	s := t.Schema
	u := writer.Update{
		Sheet:           s.Sheet,
		Family:          table.FamilyCluster,
		Columns:         s.FamilyColumns(table.FamilyCluster),
		PreserveColumns: s.OtherFamilyColumns(table.FamilyCluster),
	}

	seen := map[int][3]float64{}
	for _, a := range assignments {
		u.Cells = append(u.Cells, writer.Cell{Row: a.UserRow, Col: s.Cluster, Value: a.ClusterID})
		seen[a.ClusterID] = a.Centroid
	}

	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		row := rowmap.FirstDataRow + id
		c := seen[id]
		u.Cells = append(u.Cells,
			writer.Cell{Row: row, Col: s.CentroidX, Value: round4(c[0])},
			writer.Cell{Row: row, Col: s.CentroidY, Value: round4(c[1])},
			writer.Cell{Row: row, Col: s.CentroidZ, Value: round4(c[2])},
		)
	}

	return u
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
