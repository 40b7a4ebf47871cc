package probe

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"
)

// TCPStrategy resolves the host and opens a TCP connection to it. Once the
// name resolves, a connect error (refused or timed out) yields the DNS
// resolution time alone.
type TCPStrategy struct {
	timeout  time.Duration
	resolver *net.Resolver
	dial     func(ctx context.Context, network, address string) (net.Conn, error)
}

var _ Strategy = (*TCPStrategy)(nil)

// NewTCPStrategy creates a DNS + TCP connect strategy
func NewTCPStrategy(timeout time.Duration) *TCPStrategy {
	if timeout == 0 {
		timeout = defaultProbeTimeout
	}

	return &TCPStrategy{
		timeout:  timeout,
		resolver: net.DefaultResolver,
		dial:     (&net.Dialer{}).DialContext,
	}
}

func (s *TCPStrategy) Name() string { return "tcp" }

func (s *TCPStrategy) Probe(ctx context.Context, target Target) Result {
	probeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	dnsStart := time.Now()
	ips, err := s.resolver.LookupIP(probeCtx, "ip", target.Host)
	if err != nil {
		return Failure("dns lookup failed: %v", err)
	}
	if len(ips) == 0 {
		return Failure("dns lookup returned no addresses")
	}
	dnsTime := time.Since(dnsStart)

	port := int(target.Port)
	if port == 0 {
		port = defaultTCPPort
	}
	address := net.JoinHostPort(ips[0].String(), strconv.Itoa(port))

	connectStart := time.Now()
	conn, err := s.dial(probeCtx, "tcp", address)
	if err != nil {
		if ctx.Err() != nil {
			return Failure("connect to %s cancelled: %v", address, ctx.Err())
		}
		reason := "dns only, connect failed: " + err.Error()
		if probeCtx.Err() != nil || isTimeout(err) {
			reason = "dns only, connect timed out"
		}
		return Result{OK: true, Latency: dnsTime, Reason: reason}
	}
	connectTime := time.Since(connectStart)
	_ = conn.Close()

	return Success(dnsTime + connectTime)
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
