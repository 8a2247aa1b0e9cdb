package kmeans

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Options bounds a training run.
type Options struct {
	// Seed makes runs reproducible. The same seed over the same points
	// always yields the same result.
	Seed int64
	// MaxIter caps Lloyd iterations per restart.
	MaxIter int
	// Restarts is the number of re-initializations; the run with the
	// lowest within-cluster sum of squares wins.
	Restarts int
}

// DefaultOptions returns the bounds used when the caller does not care.
func DefaultOptions() Options {
	return Options{Seed: 42, MaxIter: 300, Restarts: 4}
}

// Result is one training run's outcome.
type Result struct {
	// Centroids holds k coordinate triples indexed by cluster id.
	Centroids [][]float64
	// Assignments maps each input point to a cluster id in [0, k).
	Assignments []int
	// Inertia is the within-cluster sum of squared distances.
	Inertia float64
}

// Train clusters points into k groups by Euclidean proximity. It returns
// an error when fewer points than k are given.
func Train(points [][]float64, k int, opts Options) (*Result, error) {
	n := len(points)
	if n < k {
		return nil, fmt.Errorf("kmeans: %d points for k=%d", n, k)
	}
	if opts.MaxIter <= 0 {
		opts.MaxIter = DefaultOptions().MaxIter
	}
	if opts.Restarts <= 0 {
		opts.Restarts = 1
	}

	var best *Result
	for attempt := 0; attempt < opts.Restarts; attempt++ {
		rng := rand.New(rand.NewSource(opts.Seed + int64(attempt)))
		res := lloyd(points, k, opts.MaxIter, rng)
		if best == nil || res.Inertia < best.Inertia {
			best = res
		}
	}
	return best, nil
}

func lloyd(points [][]float64, k, maxIter int, rng *rand.Rand) *Result {
	n := len(points)
	dim := len(points[0])

	// Initialize centroids from distinct data points.
	centroids := make([][]float64, k)
	perm := rng.Perm(n)
	for i := 0; i < k; i++ {
		centroids[i] = append([]float64(nil), points[perm[i]]...)
	}

	assignments := make([]int, n)
	for i := range assignments {
		assignments[i] = -1
	}
	counts := make([]int, k)
	sums := make([][]float64, k)
	for j := range sums {
		sums[j] = make([]float64, dim)
	}

	for iter := 0; iter < maxIter; iter++ {
		changed := false

		// Assignment step.
		for i, p := range points {
			bestCluster := -1
			minDist := math.MaxFloat64
			for j, c := range centroids {
				if d := floats.Distance(p, c, 2); d < minDist {
					minDist = d
					bestCluster = j
				}
			}
			if assignments[i] != bestCluster {
				assignments[i] = bestCluster
				changed = true
			}
		}

		if !changed {
			break
		}

		// Update step.
		for j := range sums {
			counts[j] = 0
			for d := range sums[j] {
				sums[j][d] = 0
			}
		}
		for i, p := range points {
			j := assignments[i]
			floats.Add(sums[j], p)
			counts[j]++
		}
		for j := range centroids {
			if counts[j] > 0 {
				for d := range centroids[j] {
					centroids[j][d] = sums[j][d] / float64(counts[j])
				}
			} else {
				// Reseed an empty cluster with a random point.
				copy(centroids[j], points[rng.Intn(n)])
			}
		}
	}

	return &Result{
		Centroids:   centroids,
		Assignments: assignments,
		Inertia:     inertia(points, centroids, assignments),
	}
}

func inertia(points, centroids [][]float64, assignments []int) float64 {
	var sum float64
	for i, p := range points {
		d := floats.Distance(p, centroids[assignments[i]], 2)
		sum += d * d
	}
	return sum
}
