package jobs

import (
	"fmt"
)

// Outcome is the result of one item of a batch job.
type Outcome struct {
	CourtId  int64
	ThreadId int64
	Err      error
}

// BatchResult collects per-item outcomes. Err is set only when the batch
// could not start at all.
type BatchResult struct {
	Job      string
	Outcomes []Outcome
	Err      error
}

func (b BatchResult) Failed() []Outcome {
	var failed []Outcome
	for _, o := range b.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

func (b BatchResult) OK() bool {
	return b.Err == nil && len(b.Failed()) == 0
}

func (b BatchResult) Summary() string {
	if b.Err != nil {
		return fmt.Sprintf("%v: failed to start: %v", b.Job, b.Err)
	}
	return fmt.Sprintf("%v: %v items, %v failed", b.Job, len(b.Outcomes), len(b.Failed()))
}
