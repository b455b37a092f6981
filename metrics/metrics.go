// Package metrics instruments the shipper. Instrumentation is optional: the
// shipper records through the Recorder interface and defaults to Nop, so a
// host application that never calls NewProvider pays nothing.
package metrics

import (
	"time"
)

// Recorder receives shipper-side measurements.
type Recorder interface {
	// EntryRecorded counts one recorded event of the given kind
	// (contrast, wcag, aria, evaluation, session, error, summary).
	EntryRecorded(kind string)
	// BatchShipped counts one successful Loki push of n entries.
	BatchShipped(n int)
	// BatchFailed counts one failed Loki push whose n entries were dropped.
	BatchFailed(n int)
	// FlushDuration records the wall time of one flush, local or remote.
	FlushDuration(d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) EntryRecorded(string)        {}
func (nopRecorder) BatchShipped(int)            {}
func (nopRecorder) BatchFailed(int)             {}
func (nopRecorder) FlushDuration(time.Duration) {}

// Nop returns a Recorder that discards every measurement.
func Nop() Recorder {
	return nopRecorder{}
}
