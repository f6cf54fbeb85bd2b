package positioning

import "errors"

var (
	// ErrInvalidArgument is returned for constructor or setter arguments that
	// violate the documented preconditions (nil sources, dimension mismatch,
	// negative distances and similar).
	ErrInvalidArgument = errors.New("positioning: invalid argument")

	// ErrNotReady is returned by Estimate when the estimator does not yet hold
	// enough usable measurements for the requested dimension.
	ErrNotReady = errors.New("positioning: estimator not ready")

	// ErrLocked is returned when configuration is changed while an estimation
	// is running on the same instance.
	ErrLocked = errors.New("positioning: estimator locked")

	// ErrDegenerateGeometry is returned when the anchor geometry does not
	// constrain a unique position (coincident or collinear anchors).
	ErrDegenerateGeometry = errors.New("positioning: degenerate anchor geometry")

	// ErrRobustFailed is returned when no consensus set of at least the
	// minimal sample size was found within the iteration budget.
	ErrRobustFailed = errors.New("positioning: robust estimation failed")
)
