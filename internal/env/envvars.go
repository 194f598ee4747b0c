package env

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// SetEnvVars applies vars to the process environment and returns a restore
// function that puts every touched variable back to its previous value.
func SetEnvVars(vars map[string]string) (restore func(), err error) {
	type previous struct {
		value   string
		existed bool
	}
	saved := make(map[string]previous, len(vars))

	restore = func() {
		for key, prev := range saved {
			if prev.existed {
				os.Setenv(key, prev.value)
			} else {
				os.Unsetenv(key)
			}
		}
	}

	for key, value := range vars {
		old, existed := os.LookupEnv(key)
		saved[key] = previous{value: old, existed: existed}
		if err := os.Setenv(key, value); err != nil {
			restore()
			return nil, fmt.Errorf("set %s: %w", key, err)
		}
	}
	return restore, nil
}

// LoadDotenv reads a .env file into a map without touching the process
// environment. Combine with SetEnvVars to apply it scoped to a run.
func LoadDotenv(path string) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read dotenv file %s: %w", path, err)
	}
	return vars, nil
}
