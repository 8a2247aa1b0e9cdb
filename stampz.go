package stampz

import (
	"github.com/Stainlessbrown/StampZ-II-sub001/cluster"
	"github.com/Stainlessbrown/StampZ-II-sub001/diff"
	"github.com/Stainlessbrown/StampZ-II-sub001/rowmap"
	"github.com/Stainlessbrown/StampZ-II-sub001/table"
	"github.com/Stainlessbrown/StampZ-II-sub001/writer"
)

// Pipeline drives one load-compute-save cycle over a workbook: Load,
// Cluster, DiffAgainstCentroids or DiffAgainstReference, and the save
// operations that persist derived columns.
//
// A Pipeline is not safe for concurrent use. The single-writer contract is
// by convention: the core is single-threaded and callers must serialize
// calls themselves.
type Pipeline struct {
	opts   options
	logger *Logger

	tbl         *table.Table
	clusters    *cluster.Engine
	differences *diff.Engine
	writer      *writer.Writer

	pendingClusters []cluster.Assignment
	pendingDeltas   []diff.Value
}

// New creates a Pipeline.
func New(optFns ...Option) *Pipeline {
	o := applyOptions(optFns)
	return &Pipeline{
		opts:   o,
		logger: o.logger,
		clusters: cluster.NewEngine(cluster.Config{
			Seed:     o.seed,
			MaxIter:  o.maxIterations,
			Restarts: o.restarts,
			Logger:   o.logger.Logger,
		}),
		differences: diff.NewEngine(o.logger.Logger),
		writer: writer.New(writer.Config{
			LockRetries:    o.lockRetries,
			LockRetryDelay: o.lockRetryDelay,
			Logger:         o.logger.Logger,
		}),
	}
}

// Load reads the workbook at path into memory, replacing any previously
// loaded samples. Pending computed results from an earlier load are
// discarded: derived state never survives a reload.
func (p *Pipeline) Load(path string) error {
	t, err := table.Load(path)
	if err != nil {
		return err
	}
	p.tbl = t
	p.pendingClusters = nil
	p.pendingDeltas = nil
	p.logger.Info("table loaded", "path", path, "samples", len(t.Samples), "last_data_row", t.LastDataRow)
	return nil
}

// Samples exposes the in-memory sample array.
func (p *Pipeline) Samples() []table.Sample {
	if p.tbl == nil {
		return nil
	}
	return p.tbl.Samples
}

// Table exposes the loaded table, or nil before Load.
func (p *Pipeline) Table() *table.Table {
	return p.tbl
}

// Cluster partitions the range's complete samples into k groups and
// updates the in-memory array. Results are held pending until
// SaveClusters.
func (p *Pipeline) Cluster(rng rowmap.Range, k int) ([]cluster.Assignment, error) {
	if p.tbl == nil {
		return nil, ErrNotLoaded
	}
	asg, err := p.clusters.Apply(p.tbl, rng, k)
	if err != nil {
		return nil, err
	}
	p.pendingClusters = asg
	p.notify()
	return asg, nil
}

// SaveClusters persists the pending clustering run: cluster ids for every
// assigned row plus one centroid row per cluster, written through the
// transactional writer to the cluster column family only.
func (p *Pipeline) SaveClusters() error {
	if p.tbl == nil {
		return ErrNotLoaded
	}
	if len(p.pendingClusters) == 0 {
		return ErrNothingToSave
	}
	return p.writer.Commit(p.tbl.Path, cluster.BuildUpdate(p.tbl, p.pendingClusters))
}

// DiffAgainstCentroids computes ΔE2000 for each sample in the range
// against its cluster centroid and updates the in-memory array. Results
// are held pending until SaveDeltas.
func (p *Pipeline) DiffAgainstCentroids(rng rowmap.Range) ([]diff.Value, error) {
	if p.tbl == nil {
		return nil, ErrNotLoaded
	}
	vals, err := p.differences.AgainstCentroids(p.tbl, rng)
	if err != nil {
		return nil, err
	}
	p.pendingDeltas = vals
	p.notify()
	return vals, nil
}

// DiffAgainstReference computes ΔE2000 for each sample in the range
// against the centroid triple of the designated reference row.
func (p *Pipeline) DiffAgainstReference(rng rowmap.Range, refRow int) ([]diff.Value, error) {
	if p.tbl == nil {
		return nil, ErrNotLoaded
	}
	vals, err := p.differences.AgainstReference(p.tbl, rng, refRow)
	if err != nil {
		return nil, err
	}
	p.pendingDeltas = vals
	p.notify()
	return vals, nil
}

// SaveDeltas persists the pending difference values to the ΔE column
// family only. Rows that produced no value are left untouched.
func (p *Pipeline) SaveDeltas() error {
	if p.tbl == nil {
		return ErrNotLoaded
	}
	if len(p.pendingDeltas) == 0 {
		return ErrNothingToSave
	}
	return p.writer.Commit(p.tbl.Path, diff.BuildUpdate(p.tbl, p.pendingDeltas))
}

func (p *Pipeline) notify() {
	if p.opts.notify != nil {
		p.opts.notify(p.tbl.Samples)
	}
}
