package plugin

import (
	"context"

	"github.com/jbvmio/tckedit/pipeline"
	"github.com/jbvmio/tckedit/tck"
)

// TypeID are used to assign IDs to available Plugins.
type TypeID int

// Available PluginTypes:
const (
	TypeNone TypeID = iota
	TypeInputFile
	TypeOutputFile
)

var idStrings = [...]string{
	`none`,
	`FileInput`,
	`FileOutput`,
}

func (id TypeID) String() string {
	if int(id) < 0 || int(id) >= len(idStrings) {
		return idStrings[TypeNone]
	}
	return idStrings[id]
}

// Plugin represents input or output plugins.
type Plugin interface {
	// Type returns the TypeID of the Plugin.
	Type() TypeID
	// Close releases any files held by the Plugin.
	Close() error
}

// Input works with sources of streamlines.
type Input interface {
	Plugin
	// Source emits every streamline in input order. It returns nil once the
	// inputs are exhausted or the first error from emit.
	Source(ctx context.Context, emit pipeline.EmitFn[tck.Streamline]) error
}

// Output works with storing of streamlines.
type Output interface {
	Plugin
	// Receive consumes a Batch. It returns false once no further streamlines will be stored.
	Receive(b pipeline.Batch[tck.Streamline]) (bool, error)
	// Stats returns the running counters.
	Stats() Stats
	// Abort closes the Output after a failed run without finalizing it.
	Abort() error
}

// Stats are the counters kept by an Output.
type Stats struct {
	Read     int
	Accepted int
	Skipped  int
	Written  int
}

// Rejected returns the number of streamlines discarded before reaching the Output.
func (s Stats) Rejected() int {
	return s.Read - s.Accepted
}
