// Package errx provides structured, code-based errors for the kindenv harness
// and CLI.
//
// Every error carries:
//   - A stable 5-digit error code (e.g., "61000" for cluster errors)
//   - A category description (e.g., "Cluster lifecycle error")
//   - A user-facing message
//   - Optional structured context (key-value pairs)
//   - Optional cause and base sentinel errors
//
// The first two digits of a code identify the domain:
//   - 60xxx: CLI/argument validation errors
//   - 61xxx: Cluster lifecycle errors (kind create/export/delete)
//   - 62xxx: Kubeconfig/credentials errors
//   - 63xxx: Environment orchestration errors
//   - 64xxx: Condition/readiness errors
//   - 65xxx: State store errors
//   - 66xxx: Run reporting errors
//   - 69xxx: Configuration errors
//
// The trailing three digits are reserved for subcodes.
//
// Example:
//
//	err := errx.Cluster("kind create cluster failed").
//		WithContext("cluster", "myproj-default-cluster").
//		WithBase(sentinelErr)
//
//	if errors.Is(err, sentinelErr) {
//		// Handle specific error
//	}
//
//	fmt.Println(errx.UserString(err))  // User-friendly message
//	fmt.Println(errx.DebugString(err)) // Full debug details
package errx
