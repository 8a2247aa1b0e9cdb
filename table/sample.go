package table

// ClusterUnassigned marks a sample that no clustering run has touched.
const ClusterUnassigned = -1

// Sample is one data row of the workbook.
//
// Optional fields carry an explicit presence flag: a zero coordinate is a
// legitimate value and must never be conflated with a missing one.
type Sample struct {
	// ID is the opaque identifier from the DataID column.
	ID string

	// X, Y, Z are the normalized color coordinates. Each is meaningful
	// only when its presence flag is set.
	X, Y, Z          float64
	HasX, HasY, HasZ bool

	// ClusterID is the 0-based cluster id, or ClusterUnassigned.
	ClusterID int

	// CentroidX, CentroidY, CentroidZ hold the centroid of the sample's
	// cluster, or a designated reference point. Valid only when
	// HasCentroid is set; the triple is always fully present or fully
	// absent.
	CentroidX, CentroidY, CentroidZ float64
	HasCentroid                     bool

	// DeltaE is the CIEDE2000 difference against the sample's comparison
	// target, valid only when HasDeltaE is set. A skipped sample keeps
	// HasDeltaE false; it is never recorded as zero.
	DeltaE    float64
	HasDeltaE bool

	// Marker and Color are display-only tags, preserved but never
	// computed here.
	Marker string
	Color  string

	// OriginalRow is the 0-based provenance position of the sample in the
	// sheet (sheet row - 2), or -1 when unknown. Blank separator rows in
	// the sheet leave gaps in consecutive samples' OriginalRow values.
	OriginalRow int
}

// Complete reports whether all three coordinates are present.
func (s *Sample) Complete() bool {
	return s.HasX && s.HasY && s.HasZ
}

// Coords returns the coordinate triple. Only meaningful when Complete.
func (s *Sample) Coords() [3]float64 {
	return [3]float64{s.X, s.Y, s.Z}
}

// Centroid returns the centroid triple and whether it is present.
func (s *Sample) Centroid() ([3]float64, bool) {
	if !s.HasCentroid {
		return [3]float64{}, false
	}
	return [3]float64{s.CentroidX, s.CentroidY, s.CentroidZ}, true
}

// SetCentroid stores a full centroid triple.
func (s *Sample) SetCentroid(c [3]float64) {
	s.CentroidX, s.CentroidY, s.CentroidZ = c[0], c[1], c[2]
	s.HasCentroid = true
}

// ClearDerived drops cluster assignment, centroid and difference values.
// Used when a new load replaces the underlying samples, so stale derived
// state is never silently reused.
func (s *Sample) ClearDerived() {
	s.ClusterID = ClusterUnassigned
	s.CentroidX, s.CentroidY, s.CentroidZ = 0, 0, 0
	s.HasCentroid = false
	s.DeltaE = 0
	s.HasDeltaE = false
}
