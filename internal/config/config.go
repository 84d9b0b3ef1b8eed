// Completion: 100% - Environment-variable defaults for the CLI, overridable by flags
package config

import "github.com/xyproto/env/v2"

// Config holds CLI defaults sourced from the environment. None of this
// reaches the core pipeline; it only shapes what cmd/minic does around it.
type Config struct {
	ColorEnabled        bool
	WatchDebounceMillis int
	OptimizerEnabled    bool
	DumpTAC             bool
}

// Load reads MINIC_COLOR, MINIC_WATCH_DEBOUNCE_MS, MINIC_NO_OPTIMIZE, and
// MINIC_DUMP_TAC, falling back to sensible defaults when unset.
func Load() Config {
	return Config{
		ColorEnabled:        env.Bool("MINIC_COLOR", true),
		WatchDebounceMillis: env.Int("MINIC_WATCH_DEBOUNCE_MS", 400),
		OptimizerEnabled:    !env.Bool("MINIC_NO_OPTIMIZE", false),
		DumpTAC:             env.Bool("MINIC_DUMP_TAC", false),
	}
}
