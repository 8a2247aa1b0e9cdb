package table

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var testHeader = []interface{}{
	"DataID", "Xnorm", "Ynorm", "Znorm", "Cluster", "DeltaE",
	"Centroid_X", "Centroid_Y", "Centroid_Z", "Marker", "Color",
}

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &testHeader))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}

	path := filepath.Join(t.TempDir(), "plot.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestLoad(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"S1", 0.10, 0.20, 0.30, nil, nil, nil, nil, nil, ".", "blue"},
		{"S2", 0.40, 0.50, 0.60, 1, 2.35, 0.4, 0.5, 0.6, nil, nil},
	})

	tbl, err := Load(path)
	require.NoError(t, err)
	require.Len(t, tbl.Samples, 2)
	assert.Equal(t, 3, tbl.LastDataRow)

	s1 := tbl.Samples[0]
	assert.Equal(t, "S1", s1.ID)
	assert.True(t, s1.Complete())
	assert.InDelta(t, 0.10, s1.X, 1e-9)
	assert.Equal(t, ClusterUnassigned, s1.ClusterID)
	assert.False(t, s1.HasCentroid)
	assert.False(t, s1.HasDeltaE)
	assert.Equal(t, ".", s1.Marker)
	assert.Equal(t, "blue", s1.Color)
	assert.Equal(t, 0, s1.OriginalRow)

	s2 := tbl.Samples[1]
	assert.Equal(t, 1, s2.ClusterID)
	assert.True(t, s2.HasCentroid)
	assert.True(t, s2.HasDeltaE)
	assert.InDelta(t, 2.35, s2.DeltaE, 1e-9)
}

func TestLoad_ZeroCoordinateIsPresent(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"S1", 0.0, 0.5, 0.5, nil, nil, nil, nil, nil, nil, nil},
	})

	tbl, err := Load(path)
	require.NoError(t, err)
	require.Len(t, tbl.Samples, 1)

	// A legitimate zero must never read as missing.
	assert.True(t, tbl.Samples[0].HasX)
	assert.Zero(t, tbl.Samples[0].X)
	assert.True(t, tbl.Samples[0].Complete())
}

func TestLoad_IncompleteSample(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"S1", 0.1, nil, 0.3, nil, nil, nil, nil, nil, nil, nil},
	})

	tbl, err := Load(path)
	require.NoError(t, err)
	require.Len(t, tbl.Samples, 1)
	assert.False(t, tbl.Samples[0].Complete())
}

func TestLoad_BlankRowLeavesProvenanceGap(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"S1", 0.1, 0.1, 0.1, nil, nil, nil, nil, nil, nil, nil},
		{nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil},
		{"S2", 0.9, 0.9, 0.9, nil, nil, nil, nil, nil, nil, nil},
	})

	tbl, err := Load(path)
	require.NoError(t, err)
	require.Len(t, tbl.Samples, 2)
	assert.Equal(t, 0, tbl.Samples[0].OriginalRow)
	assert.Equal(t, 2, tbl.Samples[1].OriginalRow)
	assert.Equal(t, 4, tbl.LastDataRow)
}

func TestLoad_MissingColumns(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	header := []interface{}{"DataID", "Xnorm", "Ynorm"}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	path := filepath.Join(t.TempDir(), "broken.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, err := Load(path)
	var missing *ErrMissingColumns
	require.ErrorAs(t, err, &missing)
	assert.Contains(t, missing.Columns, HeaderZ)
	assert.Contains(t, missing.Columns, HeaderCluster)
	assert.Contains(t, missing.Columns, HeaderDeltaE)
	assert.NotContains(t, missing.Columns, HeaderX)
}

func TestDetectSchema_CaseInsensitive(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	header := []interface{}{
		"dataid", "XNORM", "ynorm", "Znorm", "cluster", "∆E",
		"centroid_x", "CENTROID_Y", "Centroid_Z",
	}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))

	s, err := DetectSchema(f)
	require.NoError(t, err)
	assert.Equal(t, 1, s.ID)
	assert.Equal(t, 2, s.X)
	assert.Equal(t, 6, s.DeltaE)
	assert.Equal(t, 9, s.CentroidZ)
	assert.Zero(t, s.Marker)
	require.NoError(t, f.Close())
}

func TestLoad_ReattachesCentroids(t *testing.T) {
	// Centroid rows at sheet rows 2 and 3 hold the centroids of clusters
	// 0 and 1; later rows carry only a cluster id. After a reload every
	// assigned sample must have its own cluster's centroid.
	path := writeWorkbook(t, [][]interface{}{
		{"S1", 0.1, 0.1, 0.1, 1, nil, 0.10, 0.11, 0.12, nil, nil},
		{"S2", 0.9, 0.9, 0.9, 0, nil, 0.90, 0.91, 0.92, nil, nil},
		{"S3", 0.1, 0.1, 0.2, 1, nil, nil, nil, nil, nil, nil},
		{"S4", 0.9, 0.8, 0.9, 0, nil, nil, nil, nil, nil, nil},
	})

	tbl, err := Load(path)
	require.NoError(t, err)
	require.Len(t, tbl.Samples, 4)

	// S1 sits on centroid row 0 but belongs to cluster 1.
	c, ok := tbl.Samples[0].Centroid()
	require.True(t, ok)
	assert.Equal(t, [3]float64{0.90, 0.91, 0.92}, c)

	c, ok = tbl.Samples[3].Centroid()
	require.True(t, ok)
	assert.Equal(t, [3]float64{0.10, 0.11, 0.12}, c)
}

func TestFamilyColumns(t *testing.T) {
	s := &Schema{Cluster: 5, DeltaE: 6, CentroidX: 7, CentroidY: 8, CentroidZ: 9}

	assert.Equal(t, []int{5, 7, 8, 9}, s.FamilyColumns(FamilyCluster))
	assert.Equal(t, []int{6}, s.FamilyColumns(FamilyDelta))
	assert.Equal(t, []int{6}, s.OtherFamilyColumns(FamilyCluster))
	assert.Equal(t, []int{5, 7, 8, 9}, s.OtherFamilyColumns(FamilyDelta))
}
