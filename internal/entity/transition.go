package entity

// Transition is a sealed union of the allowed job state changes. The store
// matches on the concrete type, so an unhandled transition is a compile-time
// visible default case instead of a silently ignored status string.
type Transition interface {
	isTransition()
}

// TransitionProcessing marks the job as picked up by a worker. started_at is
// only set on the first application; repeats never overwrite it.
type TransitionProcessing struct{}

// TransitionSucceeded marks the job as terminally successful and clears any
// error fields left over from earlier attempts.
type TransitionSucceeded struct{}

// TransitionFailed marks the job as terminally failed.
type TransitionFailed struct {
	Code string
	Msg  string
}

func (TransitionProcessing) isTransition() {}
func (TransitionSucceeded) isTransition()  {}
func (TransitionFailed) isTransition()     {}
