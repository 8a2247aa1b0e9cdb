package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stainlessbrown/StampZ-II-sub001/rowmap"
	"github.com/Stainlessbrown/StampZ-II-sub001/table"
)

func sample(orig int, x, y, z float64) table.Sample {
	return table.Sample{
		X: x, Y: y, Z: z,
		HasX: true, HasY: true, HasZ: true,
		ClusterID:   table.ClusterUnassigned,
		OriginalRow: orig,
	}
}

func twoGroupTable() *table.Table {
	coords := [][3]float64{
		{0.10, 0.10, 0.10},
		{0.12, 0.09, 0.11},
		{0.08, 0.11, 0.10},
		{0.11, 0.10, 0.09},
		{0.09, 0.12, 0.10},
		{0.90, 0.90, 0.90},
		{0.88, 0.91, 0.89},
		{0.92, 0.90, 0.91},
		{0.91, 0.89, 0.90},
		{0.89, 0.91, 0.92},
	}
	t := &table.Table{LastDataRow: len(coords) + 1}
	for i, c := range coords {
		t.Samples = append(t.Samples, sample(i, c[0], c[1], c[2]))
	}
	return t
}

func TestApply_TwoProximityGroups(t *testing.T) {
	tbl := twoGroupTable()
	e := NewEngine(Config{})

	asg, err := e.Apply(tbl, rowmap.Range{Start: 2, End: 11}, 2)
	require.NoError(t, err)
	require.Len(t, asg, 10)

	// Every sample gets exactly one id in [0, 2) and the two coordinate
	// groups never share one.
	lowID := asg[0].ClusterID
	highID := asg[5].ClusterID
	assert.NotEqual(t, lowID, highID)
	for i, a := range asg {
		assert.GreaterOrEqual(t, a.ClusterID, 0)
		assert.Less(t, a.ClusterID, 2)
		if i < 5 {
			assert.Equal(t, lowID, a.ClusterID, "sample %d", i)
		} else {
			assert.Equal(t, highID, a.ClusterID, "sample %d", i)
		}
	}

	// Centroids land near the group means and are stored on the samples.
	for _, a := range asg {
		s := tbl.Samples[a.Index]
		assert.Equal(t, a.ClusterID, s.ClusterID)
		centroid, ok := s.Centroid()
		require.True(t, ok)
		assert.Equal(t, a.Centroid, centroid)
	}
	low := tbl.Samples[0].CentroidX
	high := tbl.Samples[5].CentroidX
	assert.InDelta(t, 0.10, low, 0.03)
	assert.InDelta(t, 0.90, high, 0.03)
}

func TestApply_CoercesSmallK(t *testing.T) {
	tbl := twoGroupTable()
	e := NewEngine(Config{})

	asg, err := e.Apply(tbl, rowmap.Range{Start: 2, End: 11}, 1)
	require.NoError(t, err)

	ids := map[int]bool{}
	for _, a := range asg {
		ids[a.ClusterID] = true
	}
	assert.Len(t, ids, MinK)
}

func TestApply_SkipsIncompleteSamples(t *testing.T) {
	tbl := twoGroupTable()
	tbl.Samples[2].HasY = false
	e := NewEngine(Config{})

	asg, err := e.Apply(tbl, rowmap.Range{Start: 2, End: 11}, 2)
	require.NoError(t, err)
	assert.Len(t, asg, 9)

	// The incomplete sample was not touched.
	s := tbl.Samples[2]
	assert.Equal(t, table.ClusterUnassigned, s.ClusterID)
	assert.False(t, s.HasCentroid)
}

func TestApply_GapIsHardBoundary(t *testing.T) {
	tbl := twoGroupTable()
	// Blank separator between sheet rows 6 and 8: provenance jumps past 5.
	for i := 5; i < 10; i++ {
		tbl.Samples[i].OriginalRow = i + 1
	}
	tbl.LastDataRow++
	e := NewEngine(Config{})

	asg, err := e.Apply(tbl, rowmap.Range{Start: 2, End: 12}, 2)
	require.NoError(t, err)

	// Only the five samples before the gap are clustered.
	assert.Len(t, asg, 5)
	for _, a := range asg {
		assert.Less(t, a.Index, 5)
	}
	assert.Equal(t, table.ClusterUnassigned, tbl.Samples[5].ClusterID)
}

func TestApply_TooFewSamples(t *testing.T) {
	tbl := twoGroupTable()
	e := NewEngine(Config{})

	_, err := e.Apply(tbl, rowmap.Range{Start: 2, End: 4}, 5)
	var tooFew *ErrTooFewSamples
	require.ErrorAs(t, err, &tooFew)
	assert.Equal(t, 3, tooFew.Valid)
	assert.Equal(t, 5, tooFew.K)
}

func TestApply_EmptyRange(t *testing.T) {
	tbl := twoGroupTable()
	e := NewEngine(Config{})

	_, err := e.Apply(tbl, rowmap.Range{Start: 9, End: 4}, 2)
	assert.ErrorIs(t, err, rowmap.ErrEmptyRange)
}

func TestApply_Deterministic(t *testing.T) {
	first := twoGroupTable()
	second := twoGroupTable()
	e := NewEngine(Config{Seed: 7})

	a1, err := e.Apply(first, rowmap.Range{Start: 2, End: 11}, 3)
	require.NoError(t, err)
	a2, err := e.Apply(second, rowmap.Range{Start: 2, End: 11}, 3)
	require.NoError(t, err)

	assert.Equal(t, a1, a2)
}

func TestBuildUpdate(t *testing.T) {
	tbl := twoGroupTable()
	tbl.Schema = &table.Schema{
		Sheet: "Sheet1", Cluster: 5, DeltaE: 6,
		CentroidX: 7, CentroidY: 8, CentroidZ: 9,
	}
	e := NewEngine(Config{})

	asg, err := e.Apply(tbl, rowmap.Range{Start: 2, End: 11}, 2)
	require.NoError(t, err)

	u := BuildUpdate(tbl, asg)
	assert.Equal(t, table.FamilyCluster, u.Family)
	assert.ElementsMatch(t, []int{5, 7, 8, 9}, u.Columns)
	assert.Equal(t, []int{6}, u.PreserveColumns)

	// One id cell per sample, one centroid row (three cells) per cluster.
	assert.Len(t, u.Cells, 10+2*3)

	// Centroid rows sit at fixed positions 2 and 3, ordered by cluster id.
	var centroidRows []int
	for _, c := range u.Cells {
		if c.Col == 7 {
			centroidRows = append(centroidRows, c.Row)
		}
	}
	assert.Equal(t, []int{2, 3}, centroidRows)

	// Every cell stays inside the cluster family's columns.
	for _, c := range u.Cells {
		assert.Contains(t, u.Columns, c.Col)
	}
}
