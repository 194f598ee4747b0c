package errx

// CreateByCode creates an Error using the provided code, description, and
// message, wrapping a cause when one is given.
func CreateByCode(code, description, message string, cause error) *Error {
	if cause != nil {
		return Wrap(code, description, message, cause)
	}
	return New(code, description, message)
}

// FromSentinel creates an Error from a sentinel error and optional
// message/cause. The sentinel determines the category via the lookup
// function, and is attached as the base so errors.Is keeps matching it.
func FromSentinel(sentinel error, lookup func(error) (code, description string), message string, cause error) *Error {
	code, desc := lookup(sentinel)
	if code == "" {
		code = CodeCLI
		desc = DescCLI
	}
	return CreateByCode(code, desc, message, cause).WithBase(sentinel)
}

// CLI creates a CLI/argument validation error with code 60000.
// Use this for command-line argument validation and invalid user input.
func CLI(message string) *Error {
	return New(CodeCLI, DescCLI, message)
}

// WrapCLI wraps a cause with a CLI/argument validation error.
func WrapCLI(message string, cause error) *Error {
	return Wrap(CodeCLI, DescCLI, message, cause)
}

// Cluster creates a cluster lifecycle error with code 61000.
// Use this for kind create/export/delete failures.
func Cluster(message string) *Error {
	return New(CodeCluster, DescCluster, message)
}

// WrapCluster wraps a cause with a cluster lifecycle error.
func WrapCluster(message string, cause error) *Error {
	return Wrap(CodeCluster, DescCluster, message, cause)
}

// Env creates an environment orchestration error with code 63000.
func Env(message string) *Error {
	return New(CodeEnv, DescEnv, message)
}

// WrapEnv wraps a cause with an environment orchestration error.
func WrapEnv(message string, cause error) *Error {
	return Wrap(CodeEnv, DescEnv, message, cause)
}
