package table

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Family identifies the set of columns a single persistence operation may
// touch. Updates are scoped to exactly one family; cells outside it are
// never written.
type Family int

const (
	// FamilyCluster covers the cluster id column and the three centroid
	// coordinate columns.
	FamilyCluster Family = iota
	// FamilyDelta covers the ΔE column only.
	FamilyDelta
)

func (f Family) String() string {
	switch f {
	case FamilyCluster:
		return "cluster"
	case FamilyDelta:
		return "delta"
	default:
		return fmt.Sprintf("Unknown(%d)", int(f))
	}
}

// Required column headers, matched case-insensitively.
const (
	HeaderX         = "Xnorm"
	HeaderY         = "Ynorm"
	HeaderZ         = "Znorm"
	HeaderID        = "DataID"
	HeaderCluster   = "Cluster"
	HeaderDeltaE    = "DeltaE"
	HeaderCentroidX = "Centroid_X"
	HeaderCentroidY = "Centroid_Y"
	HeaderCentroidZ = "Centroid_Z"
	HeaderMarker    = "Marker"
	HeaderColor     = "Color"
)

// ErrMissingColumns reports required headers absent from the sheet.
type ErrMissingColumns struct {
	Sheet   string
	Columns []string
}

func (e *ErrMissingColumns) Error() string {
	return fmt.Sprintf("sheet %q is missing required columns: %s", e.Sheet, strings.Join(e.Columns, ", "))
}

// Schema holds the 1-based column positions located by header name.
type Schema struct {
	Sheet string

	X, Y, Z   int
	ID        int
	Cluster   int
	DeltaE    int
	CentroidX int
	CentroidY int
	CentroidZ int

	// Optional display columns; 0 when absent.
	Marker int
	Color  int
}

// FamilyColumns returns the writable columns of the given family.
func (s *Schema) FamilyColumns(f Family) []int {
	switch f {
	case FamilyCluster:
		return []int{s.Cluster, s.CentroidX, s.CentroidY, s.CentroidZ}
	case FamilyDelta:
		return []int{s.DeltaE}
	default:
		return nil
	}
}

// OtherFamilyColumns returns the writable columns of every family except f.
// The writer spot-checks these for byte preservation during verification.
func (s *Schema) OtherFamilyColumns(f Family) []int {
	var cols []int
	for _, fam := range []Family{FamilyCluster, FamilyDelta} {
		if fam == f {
			continue
		}
		cols = append(cols, s.FamilyColumns(fam)...)
	}
	return cols
}

// DetectSchema locates the required columns in the workbook's first sheet.
// Matching is case-insensitive; "∆E" is accepted as an alias for DeltaE.
func DetectSchema(f *excelize.File) (*Schema, error) {
	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	byName := map[string]int{}
	if len(rows) > 0 {
		for i, h := range rows[0] {
			name := strings.ToLower(strings.TrimSpace(h))
			if name == "" {
				continue
			}
			if _, dup := byName[name]; !dup {
				byName[name] = i + 1
			}
		}
	}

	lookup := func(header string, aliases ...string) int {
		if col, ok := byName[strings.ToLower(header)]; ok {
			return col
		}
		for _, a := range aliases {
			if col, ok := byName[strings.ToLower(a)]; ok {
				return col
			}
		}
		return 0
	}

	s := &Schema{
		Sheet:     sheet,
		X:         lookup(HeaderX),
		Y:         lookup(HeaderY),
		Z:         lookup(HeaderZ),
		ID:        lookup(HeaderID),
		Cluster:   lookup(HeaderCluster),
		DeltaE:    lookup(HeaderDeltaE, "∆E", "Delta_E"),
		CentroidX: lookup(HeaderCentroidX),
		CentroidY: lookup(HeaderCentroidY),
		CentroidZ: lookup(HeaderCentroidZ),
		Marker:    lookup(HeaderMarker),
		Color:     lookup(HeaderColor),
	}

	missing := map[string]int{
		HeaderX:         s.X,
		HeaderY:         s.Y,
		HeaderZ:         s.Z,
		HeaderID:        s.ID,
		HeaderCluster:   s.Cluster,
		HeaderDeltaE:    s.DeltaE,
		HeaderCentroidX: s.CentroidX,
		HeaderCentroidY: s.CentroidY,
		HeaderCentroidZ: s.CentroidZ,
	}
	var absent []string
	for name, col := range missing {
		if col == 0 {
			absent = append(absent, name)
		}
	}
	if len(absent) > 0 {
		sort.Strings(absent)
		return nil, &ErrMissingColumns{Sheet: sheet, Columns: absent}
	}

	return s, nil
}
