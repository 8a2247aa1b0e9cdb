// Package writer persists column-scoped cell updates to a shared workbook
// safely: cooperative lock, backup, write-to-temp, verification, atomic
// replace, rollback on failure.
//
// The document may concurrently be open in other tools or processes; the
// lock is advisory and contention surfaces as ErrFileBusy after a bounded
// number of retries rather than blocking indefinitely.
package writer
