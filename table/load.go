package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table is one loaded workbook: the sample array, the detected schema and
// the path the samples came from. Its lifetime is one load-compute-save
// cycle; a new Load produces a fresh Table with no derived state.
type Table struct {
	Path    string
	Schema  *Schema
	Samples []Sample

	// LastDataRow is the highest 1-based sheet row holding any numeric
	// coordinate data. Row ranges are clamped to it.
	LastDataRow int
}

// Load reads the workbook at path into memory. Blank separator rows are
// skipped but leave gaps in the samples' OriginalRow provenance, which the
// row mapper uses to reconcile user-facing row numbers.
func Load(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	schema, err := DetectSchema(f)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(schema.Sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", schema.Sheet, err)
	}

	t := &Table{Path: path, Schema: schema}

	for i := 1; i < len(rows); i++ {
		sheetRow := i + 1 // 1-based
		cells := rows[i]

		s := Sample{
			ClusterID:   ClusterUnassigned,
			OriginalRow: sheetRow - 2,
		}

		s.X, s.HasX = parseFloatCell(cellAt(cells, schema.X))
		s.Y, s.HasY = parseFloatCell(cellAt(cells, schema.Y))
		s.Z, s.HasZ = parseFloatCell(cellAt(cells, schema.Z))
		s.ID = strings.TrimSpace(cellAt(cells, schema.ID))

		if id, ok := parseIntCell(cellAt(cells, schema.Cluster)); ok && id >= 0 {
			s.ClusterID = id
		}

		cx, okX := parseFloatCell(cellAt(cells, schema.CentroidX))
		cy, okY := parseFloatCell(cellAt(cells, schema.CentroidY))
		cz, okZ := parseFloatCell(cellAt(cells, schema.CentroidZ))
		if okX && okY && okZ {
			s.SetCentroid([3]float64{cx, cy, cz})
		}

		if de, ok := parseFloatCell(cellAt(cells, schema.DeltaE)); ok {
			s.DeltaE = de
			s.HasDeltaE = true
		}

		if schema.Marker > 0 {
			s.Marker = strings.TrimSpace(cellAt(cells, schema.Marker))
		}
		if schema.Color > 0 {
			s.Color = strings.TrimSpace(cellAt(cells, schema.Color))
		}

		if blankRow(s) {
			continue
		}

		if s.HasX || s.HasY || s.HasZ {
			t.LastDataRow = sheetRow
		}
		t.Samples = append(t.Samples, s)
	}

	t.reattachCentroids()

	return t, nil
}

// reattachCentroids links loaded cluster ids back to their centroids. The
// workbook stores one centroid row per cluster id at sheet rows 2..k+1;
// every assigned sample gets its own cluster's centroid so derived state
// is complete in memory after a reload. Samples whose cluster id has no
// centroid row keep whatever triple their own row carried (for example a
// hand-entered reference point).
func (t *Table) reattachCentroids() {
	byOrig := make(map[int]int, len(t.Samples))
	for i := range t.Samples {
		if t.Samples[i].OriginalRow >= 0 {
			byOrig[t.Samples[i].OriginalRow] = i
		}
	}

	centroids := map[int][3]float64{}
	for id := 0; ; id++ {
		idx, ok := byOrig[id]
		if !ok {
			break
		}
		c, ok := t.Samples[idx].Centroid()
		if !ok {
			break
		}
		centroids[id] = c
	}

	for i := range t.Samples {
		s := &t.Samples[i]
		if s.ClusterID == ClusterUnassigned {
			continue
		}
		if c, ok := centroids[s.ClusterID]; ok {
			s.SetCentroid(c)
		}
	}
}

func blankRow(s Sample) bool {
	return !s.HasX && !s.HasY && !s.HasZ && s.ID == "" &&
		s.ClusterID == ClusterUnassigned && !s.HasCentroid && !s.HasDeltaE
}

func cellAt(cells []string, col int) string {
	if col < 1 || col > len(cells) {
		return ""
	}
	return cells[col-1]
}

func parseFloatCell(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseIntCell(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	// Spreadsheet integers may come back as "2" or "2.0".
	if v, err := strconv.Atoi(raw); err == nil {
		return v, true
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return int(f), true
	}
	return 0, false
}
