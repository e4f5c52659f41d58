package setup

import "fmt"

// ErrSubprocessCrashed is returned by (*Node).Stop when the SUT process
// had already exited before Stop was called, whether with a non-zero
// exit code or an unexpected zero one.
type ErrSubprocessCrashed struct {
	ExitCode int
}

func (e ErrSubprocessCrashed) Error() string {
	return fmt.Sprintf("setup: node process exited early with code %d", e.ExitCode)
}
