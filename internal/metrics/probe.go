package metrics

import (
	"context"
	"net"
	"time"
)

// Prober measures how long it takes to establish a connection.
type Prober interface {
	Probe(ctx context.Context, address string, timeout time.Duration) (time.Duration, error)
}

// TCPProber times a TCP handshake. No data is sent and the connection is
// closed as soon as it is established.
type TCPProber struct{}

func (TCPProber) Probe(ctx context.Context, address string, timeout time.Duration) (time.Duration, error) {
	dialer := net.Dialer{Timeout: timeout}

	start := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return 0, err
	}
	elapsed := time.Since(start)
	conn.Close()

	return elapsed, nil
}
