package probe

import (
	"context"
	"log"
)

// Prober runs an ordered chain of strategies; the first success wins
type Prober struct {
	strategies []Strategy
	recorder   Recorder
}

// NewProber creates a prober trying strategies in the given order
func NewProber(recorder Recorder, strategies ...Strategy) *Prober {
	return &Prober{
		strategies: strategies,
		recorder:   recorder,
	}
}

// NewDefaultProber returns the ICMP echo -> DNS+TCP connect chain with 5s timeouts
func NewDefaultProber(recorder Recorder) *Prober {
	return NewProber(recorder,
		NewICMPStrategy(defaultProbeTimeout),
		NewTCPStrategy(defaultProbeTimeout),
	)
}

// Probe measures latency to host in milliseconds. ok is false when every
// strategy failed, which callers report as "unknown latency".
func (p *Prober) Probe(ctx context.Context, host string, port uint16) (latencyMs int64, ok bool) {
	target := Target{Host: host, Port: port}

	for i, strategy := range p.strategies {
		if ctx.Err() != nil {
			log.Printf("⚠️  [PROBE] Probe of %s cancelled before %s: %v", target, strategy.Name(), ctx.Err())
			return 0, false
		}

		result := strategy.Probe(ctx, target)
		if p.recorder != nil {
			p.recorder.RecordProbeAttempt(strategy.Name(), result.OK, result.Latency)
		}

		if result.OK {
			ms := result.Latency.Milliseconds()
			if result.Reason != "" {
				log.Printf("✅ [PROBE] %s reached %s in %dms (%s)", strategy.Name(), target, ms, result.Reason)
			} else {
				log.Printf("✅ [PROBE] %s reached %s in %dms", strategy.Name(), target, ms)
			}
			return ms, true
		}

		if i < len(p.strategies)-1 {
			log.Printf("⚠️  [PROBE] %s failed for %s: %s. Falling back to %s.",
				strategy.Name(), target, result.Reason, p.strategies[i+1].Name())
		} else {
			log.Printf("⚠️  [PROBE] %s failed for %s: %s", strategy.Name(), target, result.Reason)
		}
	}

	log.Printf("⚠️  [PROBE] Could not measure latency to %s, reporting unknown", target)
	return 0, false
}
