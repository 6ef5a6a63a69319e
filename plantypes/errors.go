package plantypes

import "fmt"

// BridgeError is the common marker every error kind this system raises
// implements, so callers can catch any core failure uniformly without the
// three kinds sharing a struct.
type BridgeError interface {
	error
	tacoError()
}

// PlanError is raised when planning fails before any write occurs: the
// output path already exists, the source is absent or fails to load, the
// view is empty, the view carries unsupported deep joins, or mandatory
// folder artifacts are missing. Nothing has been written; callers fix
// inputs and retry.
type PlanError struct {
	Msg string
	Err error
}

func (e *PlanError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("plan: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("plan: %s", e.Msg)
}

func (e *PlanError) Unwrap() error { return e.Err }
func (e *PlanError) tacoError()    {}

func NewPlanError(msg string) *PlanError             { return &PlanError{Msg: msg} }
func WrapPlanError(msg string, err error) *PlanError { return &PlanError{Msg: msg, Err: err} }

// ExecuteError is raised when a single task's read or write fails: I/O,
// permission, remote 4xx/5xx, or a truncated source. The task is retryable
// in isolation; the rest of the plan remains valid.
type ExecuteError struct {
	Src, Dest string
	Err       error
}

func (e *ExecuteError) Error() string {
	return fmt.Sprintf("execute: %s -> %s: %v", e.Src, e.Dest, e.Err)
}

func (e *ExecuteError) Unwrap() error { return e.Err }
func (e *ExecuteError) tacoError()    {}

func NewExecuteError(src, dest string, err error) *ExecuteError {
	return &ExecuteError{Src: src, Dest: dest, Err: err}
}

// FinalizeError is raised when metadata write, JSON serialization, or the
// archive writer fails. The output directory may be partial; the caller
// must delete it and restart from planning.
type FinalizeError struct {
	Msg string
	Err error
}

func (e *FinalizeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("finalize: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("finalize: %s", e.Msg)
}

func (e *FinalizeError) Unwrap() error { return e.Err }
func (e *FinalizeError) tacoError()    {}

func NewFinalizeError(msg string) *FinalizeError             { return &FinalizeError{Msg: msg} }
func WrapFinalizeError(msg string, err error) *FinalizeError { return &FinalizeError{Msg: msg, Err: err} }

// AsBridgeError recovers the common marker interface from any error in
// err's chain, so a caller that only wants to know "did the core fail"
// doesn't need to match all three concrete kinds.
func AsBridgeError(err error) (BridgeError, bool) {
	var be BridgeError
	for err != nil {
		if b, ok := err.(BridgeError); ok {
			be = b
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return be, be != nil
}
