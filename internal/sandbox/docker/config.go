package docker

import (
	"time"
)

// DefaultDeadline is the hard wall-clock limit on one script evaluation.
// It can be overridden via configuration (SANDBOX_TIMEOUT_MS), but 2 seconds
// is generous for the kind of programs the lessons ask for.
const DefaultDeadline = 2000 * time.Millisecond

// MaxOutputBytes caps how much stdout we capture from a script. Output beyond
// the cap is discarded and the result is flagged as truncated, so a print
// loop can't balloon the host's memory even on a "successful" run.
const MaxOutputBytes = 64 * 1024

// TruncationMarker is appended to capped output so the student can tell the
// program printed more than what they see.
const TruncationMarker = "\n… output truncated …"

// Config holds the settings for the Docker-backed executor.
type Config struct {
	// Image is the Docker image scripts run in.
	Image string
	// MemoryLimit is the container memory cap in bytes.
	MemoryLimit int64
	// CPULimit is the fraction of a CPU the container may use.
	CPULimit float64
	// Deadline is the wall-clock limit per evaluation.
	Deadline time.Duration
	// PoolSize is how many pre-warmed containers to keep ready.
	PoolSize int
}

// DefaultConfig returns the settings used in production.
func DefaultConfig() Config {
	return Config{
		Image:       "python:3.12-alpine",
		MemoryLimit: 128 * 1024 * 1024,
		CPULimit:    0.5,
		Deadline:    DefaultDeadline,
		PoolSize:    3,
	}
}
