// Package table defines the in-memory sample model for a StampZ color
// workbook and the read path that loads an .xlsx document into it.
//
// A workbook has a header row in row 1 and data starting at row 2. Columns
// are located by header name, case-insensitively, before any computation;
// missing required columns are a fatal condition naming the absent headers.
package table
