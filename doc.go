// Package stampz implements the clustering and perceptual-difference core
// of StampZ-II: partitioning color samples into k groups in a normalized
// 3D color space, computing CIE ΔE2000 differences against cluster
// centroids or a designated reference point, and persisting the derived
// values back into a shared .xlsx workbook with locking, atomic
// replacement and verification.
//
// # Quick start
//
//	p := stampz.New(stampz.WithLogLevel(slog.LevelInfo))
//	if err := p.Load("plot.xlsx"); err != nil { ... }
//
//	asg, err := p.Cluster(rowmap.Range{Start: 2, End: 100}, 3)
//	if err != nil { ... }
//	if err := p.SaveClusters(); err != nil { ... }
//
//	vals, err := p.DiffAgainstCentroids(rowmap.Range{Start: 2, End: 100})
//	if err != nil { ... }
//	if err := p.SaveDeltas(); err != nil { ... }
//
// The core is single-threaded by design: a Pipeline serves one
// load-compute-save cycle at a time and must not be used concurrently.
// Inter-process contention for the workbook is handled by the writer's
// cooperative lock file.
package stampz
