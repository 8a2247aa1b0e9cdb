package stampz

import (
	"errors"

	"github.com/Stainlessbrown/StampZ-II-sub001/diff"
	"github.com/Stainlessbrown/StampZ-II-sub001/rowmap"
	"github.com/Stainlessbrown/StampZ-II-sub001/writer"
)

var (
	// ErrNotLoaded is returned when an operation runs before Load.
	ErrNotLoaded = errors.New("no table loaded")

	// ErrNothingToSave is returned when a save runs with no pending
	// computed results.
	ErrNothingToSave = errors.New("no computed results to save")
)

// Conditions surfaced from subpackages, re-exported so callers can branch
// on remediation without importing them.
var (
	// ErrEmptyRange: the row range resolved to nothing after clamping.
	ErrEmptyRange = rowmap.ErrEmptyRange

	// ErrFileBusy: lock contention exhausted the retry budget. Retryable;
	// the document was not touched.
	ErrFileBusy = writer.ErrFileBusy

	// ErrNoClusterRun: difference calculation requested before any
	// clustering of the range.
	ErrNoClusterRun = diff.ErrNoClusterRun
)
