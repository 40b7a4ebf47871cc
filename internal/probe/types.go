package probe

import (
	"context"
	"fmt"
	"time"
)

const (
	defaultProbeTimeout = 5 * time.Second
	defaultTCPPort      = 80
)

// Target identifies the host to probe. Port is optional; zero means "not supplied".
type Target struct {
	Host string
	Port uint16
}

func (t Target) String() string {
	if t.Port == 0 {
		return t.Host
	}
	return fmt.Sprintf("%s:%d", t.Host, t.Port)
}

// Result is the uniform outcome of a single strategy attempt
type Result struct {
	OK      bool
	Latency time.Duration
	// Reason explains a failure, or annotates a degraded success
	Reason string
}

// Success builds a successful result
func Success(latency time.Duration) Result {
	return Result{OK: true, Latency: latency}
}

// Failure builds a failed result with a formatted reason
func Failure(format string, args ...interface{}) Result {
	return Result{OK: false, Reason: fmt.Sprintf(format, args...)}
}

// Strategy is one way of measuring round-trip latency to a host
type Strategy interface {
	// Name identifies the strategy in logs and metrics.
	Name() string
	// Probe performs one measurement. It must honour ctx and never panic;
	// every failure is reported through Result.
	Probe(ctx context.Context, target Target) Result
}

// Recorder receives one call per strategy attempt
type Recorder interface {
	RecordProbeAttempt(strategy string, ok bool, latency time.Duration)
}
