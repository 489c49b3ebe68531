package dupedetector

import "fmt"

// EnumerationError reports an input path that does not exist or cannot be read.
// It aborts the run before any hashing of that path's subtree.
type EnumerationError struct {
	Path string
	Err  error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("failed to enumerate %s: %v", e.Path, e.Err)
}

func (e *EnumerationError) Unwrap() error { return e.Err }

// ReadError reports a file that could not be opened or read while hashing,
// typically because it changed or disappeared after enumeration.
type ReadError struct {
	Path  string
	Stage string
	Err   error
}

func (e *ReadError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("failed to read %s during %s: %v", e.Path, e.Stage, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// OutputError reports a result destination that could not be opened or written.
type OutputError struct {
	Destination string
	Err         error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("failed to write result to %s: %v", e.Destination, e.Err)
}

func (e *OutputError) Unwrap() error { return e.Err }

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Key string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
