// Package reporting records environment runs to an optional telemetry sink,
// so CI can track how long ephemeral clusters take to come up and how often
// they fail.
package reporting

import (
	"context"
	"time"
)

// Outcome values recorded for a run.
const (
	OutcomeSucceeded       = "succeeded"
	OutcomeUpFailed        = "up_failed"
	OutcomeConditionFailed = "condition_failed"
	OutcomeDownFailed      = "down_failed"
)

// RunRecord describes one environment run.
type RunRecord struct {
	Cluster    string
	Outcome    string
	Kubeconfig string
	Error      string
	StartedAt  time.Time
	Duration   time.Duration
}

// Recorder accepts run records. Implementations must tolerate being called
// from teardown paths and should not fail the run on sink errors; callers
// log and continue.
type Recorder interface {
	Record(ctx context.Context, rec RunRecord) error
	Close() error
}

// NopRecorder discards all records.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, RunRecord) error { return nil }
func (NopRecorder) Close() error                            { return nil }
