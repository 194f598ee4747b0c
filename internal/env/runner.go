// Package env orchestrates ephemeral test environments: it brings an
// environment up, applies scoped environment variables, waits for readiness
// conditions, and hands the caller a teardown function. The cluster harness
// plugs its kind create/delete steps in as the up/down functions.
package env

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"kindenv/internal/reporting"
)

// Sentinel errors for environment runs.
var (
	ErrUpFailed        = errors.New("environment up failed")
	ErrConditionFailed = errors.New("environment condition failed")
	ErrDownFailed      = errors.New("environment down failed")
)

// sleepFn is a test seam for the post-up sleep.
var sleepFn = time.Sleep

// UpFunc brings the environment up and returns an opaque result, typically
// a kubeconfig path.
type UpFunc func(ctx context.Context) (string, error)

// DownFunc tears the environment down.
type DownFunc func(ctx context.Context) error

// TeardownFunc releases the environment and restores the process state
// touched by Run.
type TeardownFunc func(ctx context.Context) error

const defaultConditionTimeout = 2 * time.Minute

type options struct {
	sleep            time.Duration
	endpoints        []string
	conditions       []Condition
	envVars          map[string]string
	dotenvFile       string
	keepOnFailure    bool
	conditionTimeout time.Duration
	clusterName      string
	logger           *zap.Logger
	recorder         reporting.Recorder
}

// Option configures a Run.
type Option func(*options)

// WithSleep waits the given duration after up before checking conditions.
func WithSleep(d time.Duration) Option {
	return func(o *options) { o.sleep = d }
}

// WithEndpoints verifies HTTP access to the given endpoints before handing
// the environment to the caller. Shorthand for WithConditions(CheckEndpoints(...)).
func WithEndpoints(endpoints ...string) Option {
	return func(o *options) { o.endpoints = append(o.endpoints, endpoints...) }
}

// WithConditions adds readiness conditions evaluated after up.
func WithConditions(conditions ...Condition) Option {
	return func(o *options) { o.conditions = append(o.conditions, conditions...) }
}

// WithEnvVars applies the given environment variables for the duration of
// the run.
func WithEnvVars(vars map[string]string) Option {
	return func(o *options) {
		if o.envVars == nil {
			o.envVars = make(map[string]string, len(vars))
		}
		for key, value := range vars {
			o.envVars[key] = value
		}
	}
}

// WithDotenv loads environment variables from a .env file for the duration
// of the run. Explicit WithEnvVars entries win over file entries.
func WithDotenv(path string) Option {
	return func(o *options) { o.dotenvFile = path }
}

// WithKeepOnFailure leaves the environment running when a condition fails,
// for debugging.
func WithKeepOnFailure(keep bool) Option {
	return func(o *options) { o.keepOnFailure = keep }
}

// WithConditionTimeout bounds how long each condition may take to hold.
func WithConditionTimeout(d time.Duration) Option {
	return func(o *options) { o.conditionTimeout = d }
}

// WithClusterName labels run records with the cluster name.
func WithClusterName(name string) Option {
	return func(o *options) { o.clusterName = name }
}

// WithLogger sets the logger used for run progress.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRecorder sends a run record to the given sink when the run finishes.
func WithRecorder(recorder reporting.Recorder) Option {
	return func(o *options) { o.recorder = recorder }
}

// Run brings the environment up via up, applies scoped env vars, waits for
// conditions, and returns the up result together with a teardown function.
// On up or condition failure the environment is torn down (unless
// keep-on-failure is set) and the error is returned; the teardown function
// is only returned on success.
func Run(ctx context.Context, up UpFunc, down DownFunc, opts ...Option) (string, TeardownFunc, error) {
	o := options{
		conditionTimeout: defaultConditionTimeout,
		logger:           zap.NewNop(),
		recorder:         reporting.NopRecorder{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	vars := make(map[string]string)
	if o.dotenvFile != "" {
		fileVars, err := LoadDotenv(o.dotenvFile)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %w", ErrUpFailed, err)
		}
		for key, value := range fileVars {
			vars[key] = value
		}
	}
	for key, value := range o.envVars {
		vars[key] = value
	}

	restore, err := SetEnvVars(vars)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrUpFailed, err)
	}

	started := time.Now()
	record := func(outcome, kubeconfig string, runErr error) {
		rec := reporting.RunRecord{
			Cluster:    o.clusterName,
			Outcome:    outcome,
			Kubeconfig: kubeconfig,
			StartedAt:  started,
			Duration:   time.Since(started),
		}
		if runErr != nil {
			rec.Error = runErr.Error()
		}
		if err := o.recorder.Record(ctx, rec); err != nil {
			o.logger.Warn("Failed to record run", zap.Error(err))
		}
	}

	result, err := up(ctx)
	if err != nil {
		restore()
		wrapped := fmt.Errorf("%w: %w", ErrUpFailed, err)
		record(reporting.OutcomeUpFailed, "", wrapped)
		return "", nil, wrapped
	}
	o.logger.Info("Environment up", zap.String("result", result))

	if o.sleep > 0 {
		sleepFn(o.sleep)
	}

	conditions := o.conditions
	if len(o.endpoints) > 0 {
		conditions = append(conditions, CheckEndpoints(o.endpoints...))
	}
	for _, cond := range conditions {
		if err := Wait(ctx, cond, o.conditionTimeout); err != nil {
			wrapped := fmt.Errorf("%w: %w", ErrConditionFailed, err)
			if !o.keepOnFailure {
				if downErr := down(ctx); downErr != nil {
					o.logger.Warn("Teardown after failed condition also failed", zap.Error(downErr))
				}
			}
			restore()
			record(reporting.OutcomeConditionFailed, result, wrapped)
			return "", nil, wrapped
		}
	}

	teardown := func(ctx context.Context) error {
		defer restore()
		if err := down(ctx); err != nil {
			wrapped := fmt.Errorf("%w: %w", ErrDownFailed, err)
			record(reporting.OutcomeDownFailed, result, wrapped)
			return wrapped
		}
		record(reporting.OutcomeSucceeded, result, nil)
		return nil
	}
	return result, teardown, nil
}
