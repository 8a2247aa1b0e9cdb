package rowmap

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Stainlessbrown/StampZ-II-sub001/table"
)

// FirstDataRow is the first user-facing row that can hold data; row 1 is
// the header by convention.
const FirstDataRow = 2

// ErrEmptyRange is returned when a row range resolves to no rows after
// clamping. Callers must surface it; an empty range is never returned
// silently.
var ErrEmptyRange = errors.New("row range is empty after clamping")

// Range is a closed interval of user-facing row numbers.
type Range struct {
	Start int
	End   int
}

func (r Range) String() string {
	return fmt.Sprintf("rows %d-%d", r.Start, r.End)
}

// Mapper converts between user-facing row numbers and internal sample
// indices for one loaded table. It is scoped to a single load cycle and
// must be rebuilt after a reload.
type Mapper struct {
	samples     []table.Sample
	lastDataRow int
	logger      *slog.Logger
}

// New builds a mapper over the given table. logger may be nil.
func New(t *table.Table, logger *slog.Logger) *Mapper {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Mapper{
		samples:     t.Samples,
		lastDataRow: t.LastDataRow,
		logger:      logger,
	}
}

// ToInternalIndex maps a user-facing row number to the internal sample
// index. Provenance-based mapping wins when any sample claims the row;
// otherwise the arithmetic default (row - 2) applies. Out-of-bounds rows
// clamp to the nearest boundary index and the clamp is reported through
// the logger rather than raised.
func (m *Mapper) ToInternalIndex(userRow int) int {
	if len(m.samples) == 0 {
		return 0
	}

	for i := range m.samples {
		if m.samples[i].OriginalRow >= 0 && m.samples[i].OriginalRow+FirstDataRow == userRow {
			return i
		}
	}

	idx := userRow - FirstDataRow
	if idx < 0 {
		m.logger.Warn("row below first data row, clamping", "row", userRow, "clamped_to", FirstDataRow)
		return 0
	}
	if idx >= len(m.samples) {
		m.logger.Warn("row beyond last sample, clamping", "row", userRow, "clamped_to", m.ToUserRow(len(m.samples)-1))
		return len(m.samples) - 1
	}
	return idx
}

// ToUserRow maps an internal sample index back to its user-facing row
// number, preferring the sample's provenance when present.
func (m *Mapper) ToUserRow(internalIndex int) int {
	if internalIndex >= 0 && internalIndex < len(m.samples) {
		if orig := m.samples[internalIndex].OriginalRow; orig >= 0 {
			return orig + FirstDataRow
		}
	}
	return internalIndex + FirstDataRow
}

// LastUserRow returns the user-facing row of the final sample.
func (m *Mapper) LastUserRow() int {
	if len(m.samples) == 0 {
		return 0
	}
	return m.ToUserRow(len(m.samples) - 1)
}

// ResolveRange resolves a user-facing row range to the internal indices it
// covers, inclusive. The end row is clamped to the last row holding numeric
// data; a range that empties out after clamping yields ErrEmptyRange. When
// the caller explicitly asks for the final row of the table, that row's
// index is guaranteed to be included.
func (m *Mapper) ResolveRange(r Range) ([]int, error) {
	if len(m.samples) == 0 {
		return nil, fmt.Errorf("%w: no samples loaded", ErrEmptyRange)
	}

	start := r.Start
	if start < FirstDataRow {
		m.logger.Warn("range start below first data row, clamping", "start", r.Start, "clamped_to", FirstDataRow)
		start = FirstDataRow
	}

	end := r.End
	last := m.lastDataRow
	if last < m.LastUserRow() {
		last = m.LastUserRow()
	}
	if end > last {
		m.logger.Warn("range end beyond last data row, clamping", "end", r.End, "clamped_to", last)
		end = last
	}

	if start > end {
		return nil, fmt.Errorf("%w: start %d > end %d", ErrEmptyRange, start, end)
	}

	var indices []int
	for i := range m.samples {
		row := m.ToUserRow(i)
		if row >= start && row <= end {
			indices = append(indices, i)
		}
	}

	// The final row must be included whenever the caller asked for it,
	// even if provenance gaps push its user row past the clamped end.
	if r.End >= last {
		lastIdx := len(m.samples) - 1
		if len(indices) == 0 || indices[len(indices)-1] != lastIdx {
			if m.ToUserRow(lastIdx) >= start {
				indices = append(indices, lastIdx)
			}
		}
	}

	if len(indices) == 0 {
		return nil, fmt.Errorf("%w: no samples between rows %d and %d", ErrEmptyRange, start, end)
	}
	return indices, nil
}
