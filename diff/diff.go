package diff

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/Stainlessbrown/StampZ-II-sub001/colordiff"
	"github.com/Stainlessbrown/StampZ-II-sub001/rowmap"
	"github.com/Stainlessbrown/StampZ-II-sub001/table"
	"github.com/Stainlessbrown/StampZ-II-sub001/writer"
)

// ErrNoClusterRun is returned when a centroid-mode calculation finds no
// cluster assignments at all in the range. Remediation: run clustering
// first.
var ErrNoClusterRun = errors.New("no clustering has been run for this range")

// ErrCentroidMissing is returned when a sample carries a cluster id but no
// centroid triple. Remediation: re-run clustering; the assignment data is
// corrupt or stale, not absent.
type ErrCentroidMissing struct {
	Cluster int
	UserRow int
}

func (e *ErrCentroidMissing) Error() string {
	return fmt.Sprintf("centroid data missing for cluster %d (row %d)", e.Cluster, e.UserRow)
}

// ErrBadReference is returned when the designated reference row does not
// carry a complete centroid triple.
type ErrBadReference struct {
	UserRow int
}

func (e *ErrBadReference) Error() string {
	return fmt.Sprintf("reference row %d has no complete centroid triple", e.UserRow)
}

// Value is one computed difference, rounded to 2 decimals.
type Value struct {
	Index   int
	UserRow int
	DeltaE  float64
}

// Engine computes perceptual differences over a loaded table. Like the
// cluster engine, it must not be invoked concurrently on the same table.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates an Engine. logger may be nil.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{logger: logger}
}

// AgainstCentroids computes ΔE2000 for each complete sample in the range
// against its own cluster centroid. Samples without coordinates or without
// an assignment are skipped and recorded as "no value", never as zero.
//
// It fails fast when no sample in the range has been clustered at all
// (ErrNoClusterRun), and separately when an assigned sample lacks its
// centroid (ErrCentroidMissing) — the two need different remediation.
func (e *Engine) AgainstCentroids(t *table.Table, rng rowmap.Range) ([]Value, error) {
	mapper := rowmap.New(t, e.logger)
	indices, err := mapper.ResolveRange(rng)
	if err != nil {
		return nil, err
	}

	clustered := 0
	for _, idx := range indices {
		s := &t.Samples[idx]
		if s.ClusterID == table.ClusterUnassigned {
			continue
		}
		clustered++
		if !s.HasCentroid {
			return nil, &ErrCentroidMissing{Cluster: s.ClusterID, UserRow: mapper.ToUserRow(idx)}
		}
	}
	if clustered == 0 {
		return nil, ErrNoClusterRun
	}

	var values []Value
	for _, idx := range indices {
		s := &t.Samples[idx]
		if !s.Complete() || s.ClusterID == table.ClusterUnassigned {
			continue
		}
		target, _ := s.Centroid()
		values = append(values, e.record(t, mapper, idx, target))
	}

	e.logger.Info("differences computed against centroids", "range", rng.String(), "values", len(values))
	return values, nil
}

// AgainstReference computes ΔE2000 for each complete sample in the range
// against the centroid triple of one designated row. The reference Lab
// conversion happens once and is reused for every comparison.
func (e *Engine) AgainstReference(t *table.Table, rng rowmap.Range, refRow int) ([]Value, error) {
	mapper := rowmap.New(t, e.logger)
	indices, err := mapper.ResolveRange(rng)
	if err != nil {
		return nil, err
	}

	refIdx := mapper.ToInternalIndex(refRow)
	ref, ok := t.Samples[refIdx].Centroid()
	if !ok {
		return nil, &ErrBadReference{UserRow: refRow}
	}
	refLab := colordiff.XYZToLab(ref[0], ref[1], ref[2])

	var values []Value
	for _, idx := range indices {
		s := &t.Samples[idx]
		if !s.Complete() {
			continue
		}
		c := s.Coords()
		de := round2(colordiff.DeltaE2000(colordiff.XYZToLab(c[0], c[1], c[2]), refLab))
		s.DeltaE = de
		s.HasDeltaE = true
		values = append(values, Value{Index: idx, UserRow: mapper.ToUserRow(idx), DeltaE: de})
	}

	e.logger.Info("differences computed against reference", "range", rng.String(), "reference_row", refRow, "values", len(values))
	return values, nil
}

func (e *Engine) record(t *table.Table, mapper *rowmap.Mapper, idx int, target [3]float64) Value {
	s := &t.Samples[idx]
	c := s.Coords()
	de := round2(colordiff.DeltaE2000(
		colordiff.XYZToLab(c[0], c[1], c[2]),
		colordiff.XYZToLab(target[0], target[1], target[2]),
	))
	s.DeltaE = de
	s.HasDeltaE = true
	return Value{Index: idx, UserRow: mapper.ToUserRow(idx), DeltaE: de}
}

// BuildUpdate turns computed values into the writer update for the ΔE
// column family. Skipped rows are absent from the update entirely; they
// are never zero-filled.
func BuildUpdate(t *table.Table, values []Value) writer.Update {
	s := t.Schema
	u := writer.Update{
		Sheet:           s.Sheet,
		Family:          table.FamilyDelta,
		Columns:         s.FamilyColumns(table.FamilyDelta),
		PreserveColumns: s.OtherFamilyColumns(table.FamilyDelta),
	}
	for _, v := range values {
		u.Cells = append(u.Cells, writer.Cell{Row: v.UserRow, Col: s.DeltaE, Value: v.DeltaE})
	}
	return u
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
