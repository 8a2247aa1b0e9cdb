package writer

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/xuri/excelize/v2"

	"github.com/Stainlessbrown/StampZ-II-sub001/table"
)

var (
	// ErrFileBusy is returned when the document lock cannot be acquired
	// within the retry budget. The condition is retryable; no mutation
	// has happened.
	ErrFileBusy = errors.New("document is in use by another process")

	// ErrColumnOutsideFamily is returned when an update contains a cell
	// outside its declared column family. Nothing is written.
	ErrColumnOutsideFamily = errors.New("cell outside the update's column family")
)

// ErrVerifyMismatch reports a post-save verification failure. The original
// document is unchanged and the backup file is left in place, so no data
// was lost; this is distinct from a plain I/O error.
type ErrVerifyMismatch struct {
	Cell string
	Want string
	Got  string
}

func (e *ErrVerifyMismatch) Error() string {
	return fmt.Sprintf("verification mismatch at %s: wrote %q, read back %q (original document unchanged, backup preserved)", e.Cell, e.Want, e.Got)
}

// Cell is one sparse update: a 1-based sheet position and the value to
// write there.
type Cell struct {
	Row   int
	Col   int
	Value any
}

// Update is a column-family-scoped set of cell writes for one sheet.
type Update struct {
	Sheet  string
	Family table.Family
	// Columns lists the writable columns of the family. Every cell must
	// target one of them.
	Columns []int
	// PreserveColumns lists columns of the other family, spot-checked
	// during verification to prove they were not disturbed.
	PreserveColumns []int
	Cells           []Cell
}

// Config bounds a Writer.
type Config struct {
	// LockRetries is the number of lock acquisition attempts before
	// giving up with ErrFileBusy.
	LockRetries int
	// LockRetryDelay is the pause between attempts.
	LockRetryDelay time.Duration
	// Logger may be nil.
	Logger *slog.Logger
}

// Writer commits updates to workbook files. Safe to reuse across commits;
// each Commit is independent.
type Writer struct {
	lockRetries int
	lockDelay   time.Duration
	logger      *slog.Logger

	// tamper, when set, mutates the temp file between save and verify.
	// Test hook for exercising the rollback path.
	tamper func(tmpPath string)
}

// New creates a Writer. Zero config fields fall back to 10 retries at
// 200ms.
func New(cfg Config) *Writer {
	w := &Writer{
		lockRetries: cfg.LockRetries,
		lockDelay:   cfg.LockRetryDelay,
		logger:      cfg.Logger,
	}
	if w.lockRetries <= 0 {
		w.lockRetries = 10
	}
	if w.lockDelay <= 0 {
		w.lockDelay = 200 * time.Millisecond
	}
	if w.logger == nil {
		w.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return w
}

// Commit applies the update to the document at path.
//
// Sequence: acquire the sibling lock file, back the document up, apply the
// family's cells in memory, save to a sibling temp file, verify the temp
// by reopening it, atomically rename temp over the original, remove the
// backup. Any failure after the backup step leaves the original either
// untouched or restored from backup; the lock is always released.
func (w *Writer) Commit(path string, u Update) (err error) {
	if len(u.Cells) == 0 {
		return nil
	}
	for _, c := range u.Cells {
		if !containsCol(u.Columns, c.Col) {
			return fmt.Errorf("%w: column %d not in family %s", ErrColumnOutsideFamily, c.Col, u.Family)
		}
	}

	lockPath := path + ".lock"
	lock := flock.New(lockPath)
	if err := w.acquire(lock); err != nil {
		return err
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil && err == nil {
			err = fmt.Errorf("release lock: %w", unlockErr)
		}
		os.Remove(lockPath)
	}()

	backupPath := path + ".bak"
	if err := copyFile(path, backupPath); err != nil {
		return fmt.Errorf("create backup: %w", err)
	}
	w.logger.Debug("backup created", "path", backupPath)

	committed := false
	defer func() {
		if committed {
			os.Remove(backupPath)
		}
	}()

	tmpPath := path + ".tmp"
	preserved, err := w.applyAndSave(path, tmpPath, u)
	if err != nil {
		os.Remove(tmpPath)
		return err
	}
	defer os.Remove(tmpPath)

	if w.tamper != nil {
		w.tamper(tmpPath)
	}

	if err := w.verify(tmpPath, u, preserved); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		if restoreErr := copyFile(backupPath, path); restoreErr != nil {
			return fmt.Errorf("replace document: %w (restore from backup also failed: %v)", err, restoreErr)
		}
		return fmt.Errorf("replace document: %w (original restored from backup)", err)
	}

	committed = true
	w.logger.Info("update committed", "path", path, "family", u.Family.String(), "cells", len(u.Cells))
	return nil
}

func (w *Writer) acquire(lock *flock.Flock) error {
	for attempt := 1; attempt <= w.lockRetries; attempt++ {
		ok, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if ok {
			return nil
		}
		w.logger.Debug("lock contended, retrying", "attempt", attempt, "of", w.lockRetries)
		if attempt < w.lockRetries {
			time.Sleep(w.lockDelay)
		}
	}
	return fmt.Errorf("%w: gave up after %d attempts", ErrFileBusy, w.lockRetries)
}

// preservedCell is a pre-mutation snapshot of a cell outside the update's
// family, re-checked after save.
type preservedCell struct {
	cell  string
	value string
}

func (w *Writer) applyAndSave(path, tmpPath string, u Update) ([]preservedCell, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	sheet := u.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	preserved, err := snapshotPreserved(f, sheet, u)
	if err != nil {
		return nil, err
	}

	for _, c := range u.Cells {
		name, err := excelize.CoordinatesToCellName(c.Col, c.Row)
		if err != nil {
			return nil, fmt.Errorf("cell (%d,%d): %w", c.Col, c.Row, err)
		}
		if err := f.SetCellValue(sheet, name, c.Value); err != nil {
			return nil, fmt.Errorf("set %s: %w", name, err)
		}
	}

	if err := f.SaveAs(tmpPath); err != nil {
		return nil, fmt.Errorf("save temp document: %w", err)
	}
	return preserved, nil
}

// snapshotPreserved records up to three untouched-family cells from the
// rows being written, so verification can prove they survived the save.
func snapshotPreserved(f *excelize.File, sheet string, u Update) ([]preservedCell, error) {
	var preserved []preservedCell
	for _, col := range u.PreserveColumns {
		if len(preserved) >= 3 {
			break
		}
		if col < 1 || len(u.Cells) == 0 {
			continue
		}
		row := u.Cells[len(preserved)%len(u.Cells)].Row
		name, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return nil, fmt.Errorf("cell (%d,%d): %w", col, row, err)
		}
		value, err := f.GetCellValue(sheet, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		preserved = append(preserved, preservedCell{cell: name, value: value})
	}
	return preserved, nil
}

// verify reopens the temp file and spot-checks a sample of written cells
// plus the preserved snapshot before the original is replaced.
func (w *Writer) verify(tmpPath string, u Update, preserved []preservedCell) error {
	f, err := excelize.OpenFile(tmpPath)
	if err != nil {
		return &ErrVerifyMismatch{Cell: tmpPath, Want: "readable workbook", Got: err.Error()}
	}
	defer f.Close()

	sheet := u.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	for _, c := range sampleCells(u.Cells, 5) {
		name, err := excelize.CoordinatesToCellName(c.Col, c.Row)
		if err != nil {
			return fmt.Errorf("cell (%d,%d): %w", c.Col, c.Row, err)
		}
		got, err := f.GetCellValue(sheet, name)
		if err != nil {
			return fmt.Errorf("read back %s: %w", name, err)
		}
		if !valuesMatch(c.Value, got) {
			return &ErrVerifyMismatch{Cell: name, Want: fmt.Sprint(c.Value), Got: got}
		}
	}

	for _, p := range preserved {
		got, err := f.GetCellValue(sheet, p.cell)
		if err != nil {
			return fmt.Errorf("read back %s: %w", p.cell, err)
		}
		if got != p.value {
			return &ErrVerifyMismatch{Cell: p.cell, Want: p.value, Got: got}
		}
	}

	return nil
}

// sampleCells picks up to n cells spread across the update.
func sampleCells(cells []Cell, n int) []Cell {
	if len(cells) <= n {
		return cells
	}
	picked := make([]Cell, 0, n)
	step := float64(len(cells)-1) / float64(n-1)
	for i := 0; i < n; i++ {
		picked = append(picked, cells[int(math.Round(float64(i)*step))])
	}
	return picked
}

// valuesMatch compares a written value with the string excelize reads
// back. Numeric values tolerate formatting differences ("2" vs "2.0").
func valuesMatch(want any, got string) bool {
	switch v := want.(type) {
	case float64:
		g, err := strconv.ParseFloat(strings.TrimSpace(got), 64)
		return err == nil && math.Abs(g-v) < 1e-9
	case int:
		g, err := strconv.ParseFloat(strings.TrimSpace(got), 64)
		return err == nil && math.Abs(g-float64(v)) < 1e-9
	default:
		return strings.TrimSpace(got) == strings.TrimSpace(fmt.Sprint(want))
	}
}

func containsCol(cols []int, col int) bool {
	for _, c := range cols {
		if c == col {
			return true
		}
	}
	return false
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
