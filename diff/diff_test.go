package diff

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

func clusteredTable() *table.Table {
	t := &table.Table{LastDataRow: 5}
	coords := [][3]float64{
		{0.10, 0.10, 0.10},
		{0.12, 0.09, 0.11},
		{0.90, 0.90, 0.90},
		{0.88, 0.91, 0.89},
	}
	centroids := [][3]float64{
		{0.11, 0.095, 0.105},
		{0.89, 0.905, 0.895},
	}
	for i, c := range coords {
		s := sample(i, c[0], c[1], c[2])
		id := 0
		if i >= 2 {
			id = 1
		}
		s.ClusterID = id
		s.SetCentroid(centroids[id])
		t.Samples = append(t.Samples, s)
	}
	return t
}

func TestAgainstCentroids(t *testing.T) {
	tbl := clusteredTable()
	e := NewEngine(nil)

	vals, err := e.AgainstCentroids(tbl, rowmap.Range{Start: 2, End: 5})
	require.NoError(t, err)
	require.Len(t, vals, 4)

	for _, v := range vals {
		s := tbl.Samples[v.Index]
		assert.True(t, s.HasDeltaE)
		assert.Equal(t, v.DeltaE, s.DeltaE)
		assert.GreaterOrEqual(t, v.DeltaE, 0.0)
		// Members sit close to their centroid; differences stay small.
		assert.Less(t, v.DeltaE, 10.0)
	}
}

func TestAgainstCentroids_NoClusterRun(t *testing.T) {
	tbl := clusteredTable()
	for i := range tbl.Samples {
		tbl.Samples[i].ClearDerived()
	}
	e := NewEngine(nil)

	_, err := e.AgainstCentroids(tbl, rowmap.Range{Start: 2, End: 5})
	assert.ErrorIs(t, err, ErrNoClusterRun)
}

func TestAgainstCentroids_CentroidMissing(t *testing.T) {
	tbl := clusteredTable()
	// Assigned but centroid gone: distinct from "no clustering at all".
	tbl.Samples[2].HasCentroid = false
	e := NewEngine(nil)

	_, err := e.AgainstCentroids(tbl, rowmap.Range{Start: 2, End: 5})
	var missing *ErrCentroidMissing
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, 1, missing.Cluster)
	assert.Equal(t, 4, missing.UserRow)
}

func TestAgainstCentroids_SkipsIncomplete(t *testing.T) {
	tbl := clusteredTable()
	tbl.Samples[1].HasZ = false
	e := NewEngine(nil)

	vals, err := e.AgainstCentroids(tbl, rowmap.Range{Start: 2, End: 5})
	require.NoError(t, err)
	assert.Len(t, vals, 3)

	// Skipped means no value, not zero.
	assert.False(t, tbl.Samples[1].HasDeltaE)
	for _, v := range vals {
		assert.NotEqual(t, 1, v.Index)
	}
}

func TestAgainstReference_SelfIsZero(t *testing.T) {
	tbl := clusteredTable()
	// Make row 2's centroid identical to its own coordinates, so the
	// reference comparison of that row against itself is exactly zero.
	tbl.Samples[0].SetCentroid(tbl.Samples[0].Coords())
	e := NewEngine(nil)

	vals, err := e.AgainstReference(tbl, rowmap.Range{Start: 2, End: 2}, 2)
	require.NoError(t, err)
	require.Len(t, vals, 1)
	assert.Equal(t, 0.0, vals[0].DeltaE)
}

func TestAgainstReference_BadReference(t *testing.T) {
	tbl := clusteredTable()
	tbl.Samples[0].HasCentroid = false
	e := NewEngine(nil)

	_, err := e.AgainstReference(tbl, rowmap.Range{Start: 2, End: 5}, 2)
	var bad *ErrBadReference
	require.ErrorAs(t, err, &bad)
	assert.Equal(t, 2, bad.UserRow)
}

func TestAgainstReference_ConvertsReferenceOnce(t *testing.T) {
	tbl := clusteredTable()
	e := NewEngine(nil)

	vals, err := e.AgainstReference(tbl, rowmap.Range{Start: 2, End: 5}, 2)
	require.NoError(t, err)
	require.Len(t, vals, 4)

	// All samples compare against row 2's centroid, so the two close
	// coordinate groups produce clearly separated differences.
	assert.Less(t, vals[0].DeltaE, vals[2].DeltaE)
	assert.Less(t, vals[1].DeltaE, vals[3].DeltaE)
}

func TestBuildUpdate(t *testing.T) {
	tbl := clusteredTable()
	tbl.Schema = &table.Schema{
		Sheet: "Sheet1", Cluster: 5, DeltaE: 6,
		CentroidX: 7, CentroidY: 8, CentroidZ: 9,
	}
	e := NewEngine(nil)

	vals, err := e.AgainstCentroids(tbl, rowmap.Range{Start: 2, End: 5})
	require.NoError(t, err)

	u := BuildUpdate(tbl, vals)
	assert.Equal(t, table.FamilyDelta, u.Family)
	assert.Equal(t, []int{6}, u.Columns)
	assert.ElementsMatch(t, []int{5, 7, 8, 9}, u.PreserveColumns)
	require.Len(t, u.Cells, 4)
	for _, c := range u.Cells {
		assert.Equal(t, 6, c.Col)
	}
}
