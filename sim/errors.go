package sim

import "github.com/pkg/errors"

// Error taxonomy. Callers match with errors.Is; the engine wraps each sentinel
// with the offending entity so messages stay actionable.
var (
	// ErrInvalidScheduling is returned when an event is scheduled before the
	// current simulated time. It aborts the run.
	ErrInvalidScheduling = errors.New("invalid scheduling")

	// ErrGraphInconsistency is returned by Application.Finalize for a malformed
	// application graph, and by any mutation attempted after finalization.
	ErrGraphInconsistency = errors.New("graph inconsistency")

	// ErrUnresolvedTarget is returned at placement time when a module or device
	// cannot be resolved, or a module fits on no device.
	ErrUnresolvedTarget = errors.New("unresolved target")

	// ErrInvalidTopology is returned by Topology.Finalize when the device tree
	// or the sensor/actuator attachments are malformed.
	ErrInvalidTopology = errors.New("invalid topology")
)

func graphErrorf(format string, args ...any) error {
	return errors.Wrapf(ErrGraphInconsistency, format, args...)
}

func topologyErrorf(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidTopology, format, args...)
}

func unresolvedf(format string, args ...any) error {
	return errors.Wrapf(ErrUnresolvedTarget, format, args...)
}
