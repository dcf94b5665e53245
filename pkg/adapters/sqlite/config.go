package sqlite

import "time"

// Params holds SQLite-specific configuration.
// Parsed from adapter.Config.Params using mapstructure.
type Params struct {
	// BusyTimeout is how long a writer waits on a locked database.
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`

	// JournalMode, e.g. "wal" or "delete". Empty keeps the SQLite default.
	JournalMode string `mapstructure:"journal_mode"`

	// Synchronous, e.g. "normal" or "full". Empty keeps the SQLite default.
	Synchronous string `mapstructure:"synchronous"`
}
