// Package rowmap reconciles the user-facing, 1-based row numbering of a
// StampZ workbook (row 1 is the header, data starts at row 2, blank
// separator rows may leave gaps) with the internal 0-based position in the
// in-memory sample array.
//
// When a sample carries an original-row provenance value, mapping prefers
// it over plain arithmetic, because blank rows shift every arithmetic
// mapping after them.
package rowmap
