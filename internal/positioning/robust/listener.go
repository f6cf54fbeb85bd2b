package robust

// Listener receives progress callbacks from a running estimation. Callbacks
// are invoked synchronously from the estimating goroutine; implementations
// must not call back into the engine's setters.
type Listener interface {
	EstimateStart()
	EstimateEnd()
	IterationComplete(iteration int)
	ProgressChange(progress float64)
}
