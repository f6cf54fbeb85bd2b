// Package estimator provides the position estimators built on the lateration
// solvers and the robust consensus engine.
package estimator

import (
	"fmt"
	"sync"

	"gps-no-locate/internal/positioning"
	"gps-no-locate/internal/positioning/lateration"
)

// Listener is notified when an estimation starts and finishes.
type Listener interface {
	EstimateStart()
	EstimateEnd()
}

// lockable guards estimator configuration against mutation while an
// estimation runs.
type lockable struct {
	mu     sync.Mutex
	locked bool
}

func (l *lockable) Locked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.locked
}

func (l *lockable) setConfig(apply func()) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locked {
		return positioning.ErrLocked
	}
	apply()
	return nil
}

func (l *lockable) acquire() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locked {
		return positioning.ErrLocked
	}
	l.locked = true
	return nil
}

func (l *lockable) release() {
	l.mu.Lock()
	l.locked = false
	l.mu.Unlock()
}

func validateSources(dim int, sources []*positioning.RadioSource) error {
	if len(sources) == 0 {
		return fmt.Errorf("%w: no sources", positioning.ErrInvalidArgument)
	}
	if len(sources) < lateration.MinAnchors(dim) {
		return fmt.Errorf("%w: got %d sources, need at least %d in %dD",
			positioning.ErrInvalidArgument, len(sources), lateration.MinAnchors(dim), dim)
	}
	for i, source := range sources {
		if source == nil {
			return fmt.Errorf("%w: source %d is nil", positioning.ErrInvalidArgument, i)
		}
		if source.Dimension() != dim {
			return fmt.Errorf("%w: source %s is %dD, estimator is %dD",
				positioning.ErrInvalidArgument, source.MacAddress, source.Dimension(), dim)
		}
	}
	return nil
}

func validateFingerprint(fingerprint *positioning.Fingerprint) error {
	if fingerprint == nil || fingerprint.Size() == 0 {
		return fmt.Errorf("%w: empty fingerprint", positioning.ErrInvalidArgument)
	}
	return nil
}
