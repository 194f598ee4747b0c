package cli

// This file defines error handling utilities for the CLI, including:
//   - Sentinel errors for each error category
//   - Error wrapping functions that integrate with the errx error system
//   - Structured error logging with context
//   - Debug mode management for error output

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"kindenv/pkg/errx"
)

var (
	debugMode   bool
	debugModeMu sync.RWMutex
)

// SetDebugMode sets the global debug mode flag.
// When enabled, logStructuredError will output structured error logs.
func SetDebugMode(enabled bool) {
	debugModeMu.Lock()
	defer debugModeMu.Unlock()
	debugMode = enabled
}

// IsDebugMode returns whether debug mode is enabled.
func IsDebugMode() bool {
	debugModeMu.RLock()
	defer debugModeMu.RUnlock()
	return debugMode
}

type errorSpec struct {
	code        string
	description string
}

// newSentinelError creates a sentinel error and registers it in errorSpecs
// in one step, so definitions and category mapping cannot drift apart.
func newSentinelError(msg string, code, description string) error {
	err := errors.New(msg)
	errorSpecs[err] = errorSpec{code: code, description: description}
	return err
}

// errorSpecs maps sentinel errors to their error codes and descriptions.
// Populated by newSentinelError during variable initialization, so it must
// be declared before the sentinel errors.
var errorSpecs = make(map[error]errorSpec)

// lookupSpec provides a lookup function for errx.FromSentinel.
func lookupSpec(sentinel error) (code, description string) {
	spec := specFor(sentinel)
	return spec.code, spec.description
}

// newUserError creates a new error using the category of the sentinel.
func newUserError(base error, msg string) error {
	if base == nil {
		return errx.CreateByCode(errx.CodeCLI, errx.DescCLI, msg, nil)
	}
	return errx.FromSentinel(base, lookupSpec, msg, nil)
}

// wrapUserError wraps a cause error using the category of the sentinel.
func wrapUserError(base, cause error, msg string) error {
	if base == nil {
		return errx.CreateByCode(errx.CodeCLI, errx.DescCLI, msg, cause)
	}
	return errx.FromSentinel(base, lookupSpec, msg, cause)
}

// wrapUserErrorWithContext wraps an error with additional structured
// context, for debugging information like cluster names and paths.
func wrapUserErrorWithContext(base, cause error, msg string, context map[string]any) error {
	err := wrapUserError(base, cause, msg)
	if errxErr, ok := err.(*errx.Error); ok && len(context) > 0 {
		return errxErr.WithContextMap(context)
	}
	return err
}

// Sentinel errors for CLI operations.
// Errors are defined and registered in one step using newSentinelError.
var (
	// CLI errors.
	ErrDirNotWritable            = newSentinelError("target directory not writable", errx.CodeCLI, errx.DescCLI)
	ErrGetWorkingDirectoryFailed = newSentinelError("get working directory", errx.CodeCLI, errx.DescCLI)

	// Cluster errors.
	ErrKindBinaryMissing   = newSentinelError("kind binary not found on PATH", errx.CodeCluster, errx.DescCluster)
	ErrClusterUpFailed     = newSentinelError("failed to bring cluster up", errx.CodeCluster, errx.DescCluster)
	ErrClusterDownFailed   = newSentinelError("failed to tear cluster down", errx.CodeCluster, errx.DescCluster)
	ErrClusterStatusFailed = newSentinelError("failed to determine cluster status", errx.CodeCluster, errx.DescCluster)
	ErrHarnessInitFailed   = newSentinelError("failed to initialize harness", errx.CodeCluster, errx.DescCluster)

	// Kubeconfig errors.
	ErrKubeconfigNotRecorded = newSentinelError("no kubeconfig recorded; is the environment up?", errx.CodeKubeconfig, errx.DescKubeconfig)
	ErrKubeconfigNotReadable = newSentinelError("kubeconfig not found or not readable", errx.CodeKubeconfig, errx.DescKubeconfig)

	// Environment errors.
	ErrEnvFileLoadFailed = newSentinelError("failed to load env file", errx.CodeEnv, errx.DescEnv)
	ErrEnvApplyFailed    = newSentinelError("failed to apply environment variables", errx.CodeEnv, errx.DescEnv)

	// Condition errors.
	ErrNodesNotReady       = newSentinelError("cluster nodes did not become ready", errx.CodeCondition, errx.DescCondition)
	ErrEndpointUnreachable = newSentinelError("endpoint check failed", errx.CodeCondition, errx.DescCondition)

	// Reporting errors.
	ErrReporterInitFailed = newSentinelError("failed to initialize run reporter", errx.CodeReport, errx.DescReport)
)

func specFor(base error) errorSpec {
	spec, ok := errorSpecs[base]
	if ok {
		return spec
	}
	return errorSpec{code: errx.CodeCLI, description: errx.DescCLI}
}

// logStructuredError logs an error with structured fields. Only logs when
// debug mode is enabled (via --debug flag). The zap logger is configured
// with console encoding, so structured fields render human-readably.
//
// It extracts all context from errx.Error and logs it as fields:
// - error.code: "61000"
// - error.category: "Cluster lifecycle error"
// - error.context.cluster: "myproj-default-cluster"
func logStructuredError(logger *zap.Logger, err error, msg string) {
	if logger == nil || err == nil || !IsDebugMode() {
		return
	}

	var errxErr *errx.Error
	if errors.As(err, &errxErr) {
		fields := []zap.Field{
			zap.String("error.code", errxErr.Code()),
			zap.String("error.category", errxErr.Description()),
			zap.String("error.message", errxErr.Message()),
			zap.Error(err),
		}

		if ctx := errxErr.Context(); ctx != nil {
			for key, value := range ctx {
				fields = append(fields, zap.Any("error.context."+key, value))
			}
		}

		if cause := errxErr.Cause(); cause != nil {
			fields = append(fields, zap.NamedError("error.cause", cause))
		}

		logger.Error(msg, fields...)
	} else {
		logger.Error(msg, zap.Error(err))
	}
}
