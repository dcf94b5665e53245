package adapter

import "fmt"

// SinkWriteError is returned when replacing sink tables fails. The
// transaction has been rolled back; no partial table state is visible.
type SinkWriteError struct {
	Table string
	Op    string
	Err   error
}

func (e *SinkWriteError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("sink write failed during %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("sink write failed during %s of table %s: %v", e.Op, e.Table, e.Err)
}

func (e *SinkWriteError) Unwrap() error { return e.Err }

// UnknownAdapterError is returned when an unknown adapter type is requested.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown adapter type %q\nAvailable adapters: %v\nHint: Check your target.type in crickflat.yaml", e.Type, e.Available)
}
