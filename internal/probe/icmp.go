package probe

import (
	"context"
	"net"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

const (
	protocolICMP      = 1 // IANA protocol number for ICMP over IPv4
	icmpReadBufferLen = 1500
)

var icmpPayload = []byte("mcstatus-probe")

// ICMPStrategy sends one ICMP echo request and waits for the matching reply.
// It prefers an unprivileged datagram socket and falls back to a raw socket.
type ICMPStrategy struct {
	timeout    time.Duration
	resolver   *net.Resolver
	identifier int
	seq        atomic.Uint32
}

var _ Strategy = (*ICMPStrategy)(nil)

// NewICMPStrategy creates an ICMP echo strategy
func NewICMPStrategy(timeout time.Duration) *ICMPStrategy {
	if timeout == 0 {
		timeout = defaultProbeTimeout
	}

	return &ICMPStrategy{
		timeout:    timeout,
		resolver:   net.DefaultResolver,
		identifier: os.Getpid() & 0xffff,
	}
}

func (s *ICMPStrategy) Name() string { return "icmp" }

func (s *ICMPStrategy) Probe(ctx context.Context, target Target) Result {
	probeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ips, err := s.resolver.LookupIP(probeCtx, "ip4", target.Host)
	if err != nil {
		return Failure("dns lookup failed: %v", err)
	}
	if len(ips) == 0 {
		return Failure("no IPv4 address for host")
	}
	ip := ips[0]

	conn, privileged, err := listenICMP()
	if err != nil {
		return Failure("cannot open ICMP socket: %v", err)
	}
	defer conn.Close()

	if deadline, ok := probeCtx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return Failure("failed to set deadline: %v", err)
		}
	}

	seq := int(s.seq.Add(1) & 0xffff)
	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{
			ID:   s.identifier,
			Seq:  seq,
			Data: icmpPayload,
		},
	}
	wb, err := msg.Marshal(nil)
	if err != nil {
		return Failure("failed to marshal echo request: %v", err)
	}

	var dst net.Addr = &net.UDPAddr{IP: ip}
	if privileged {
		dst = &net.IPAddr{IP: ip}
	}

	start := time.Now()
	if _, err := conn.WriteTo(wb, dst); err != nil {
		return Failure("failed to send echo request: %v", err)
	}

	rb := make([]byte, icmpReadBufferLen)
	for {
		n, _, err := conn.ReadFrom(rb)
		if err != nil {
			if isTimeout(err) {
				return Failure("no echo reply within %v", s.timeout)
			}
			return Failure("failed to read echo reply: %v", err)
		}

		reply, err := icmp.ParseMessage(protocolICMP, rb[:n])
		if err != nil || reply.Type != ipv4.ICMPTypeEchoReply {
			continue
		}
		echo, ok := reply.Body.(*icmp.Echo)
		if !ok || echo.Seq != seq {
			continue
		}
		// The kernel rewrites the identifier on unprivileged sockets
		if privileged && echo.ID != s.identifier {
			continue
		}

		return Success(time.Since(start))
	}
}

// listenICMP opens an unprivileged ICMP socket, or a raw one when allowed
func listenICMP() (*icmp.PacketConn, bool, error) {
	conn, err := icmp.ListenPacket("udp4", "0.0.0.0")
	if err == nil {
		return conn, false, nil
	}

	raw, rawErr := icmp.ListenPacket("ip4:icmp", "0.0.0.0")
	if rawErr != nil {
		return nil, false, err
	}
	return raw, true, nil
}
