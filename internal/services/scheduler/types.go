package scheduler

import "time"

// Config holds retry scheduling configuration.
type Config struct {
	BatchSize         int
	InitialDelay      time.Duration
	BackoffMultiplier float64
	MaxDelay          time.Duration
}

// Default configuration values
const (
	DefaultBatchSize         = 50
	DefaultInitialDelay      = 60 * time.Second
	DefaultBackoffMultiplier = 2.0
	DefaultMaxDelay          = 30 * time.Minute
)

// RunSummary aggregates one retry tick. One bad transaction never aborts
// the batch; its error lands in Errors and the loop continues.
type RunSummary struct {
	Processed int      `json:"processed"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}
