package transport

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/li1/pagstream/pag"
)

// DefaultTCPEndpoint matches the source runtime's hardcoded replay address.
const DefaultTCPEndpoint = "127.0.0.1:1234"

// TCPSource accepts sourcePeers inbound connections on Endpoint, one per
// worker, and merges their decoded newline-delimited-JSON events onto a
// single channel.
type TCPSource struct {
	Endpoint    string
	SourcePeers int
}

// NewTCPSource constructs a TCPSource. An empty endpoint defaults to
// DefaultTCPEndpoint.
func NewTCPSource(endpoint string, sourcePeers int) *TCPSource {
	if endpoint == "" {
		endpoint = DefaultTCPEndpoint
	}
	return &TCPSource{Endpoint: endpoint, SourcePeers: sourcePeers}
}

// Run listens on Endpoint and returns at once with the merged channel; a
// background goroutine accepts exactly SourcePeers connections and merges
// their event streams. Accepted connections are served for the lifetime of
// ctx. A listen failure is sent on the error channel and both channels are
// closed.
func (s *TCPSource) Run(ctx context.Context) (<-chan pag.Event, <-chan error) {
	out := make(chan pag.Event, 256)
	errs := make(chan error, s.SourcePeers+1)

	listener, err := net.Listen("tcp", s.Endpoint)
	if err != nil {
		errs <- fmt.Errorf("listen on %s: %w", s.Endpoint, err)
		close(out)
		close(errs)
		return out, errs
	}

	var wg sync.WaitGroup
	go func() {
		defer listener.Close()
		for i := 0; i < s.SourcePeers; i++ {
			conn, err := listener.Accept()
			if err != nil {
				select {
				case errs <- fmt.Errorf("accept peer %d: %w", i, err):
				default:
				}
				continue
			}
			wg.Add(1)
			go func(c net.Conn) {
				defer wg.Done()
				defer c.Close()
				if err := s.replayConn(ctx, c, out); err != nil {
					select {
					case errs <- err:
					default:
					}
				}
			}(conn)
		}

		go func() {
			wg.Wait()
			close(out)
			close(errs)
		}()
	}()

	return out, errs
}

func (s *TCPSource) replayConn(ctx context.Context, conn net.Conn, out chan<- pag.Event) error {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		event, err := decodeLine(line)
		if err != nil {
			return fmt.Errorf("%s: %w", conn.RemoteAddr(), err)
		}
		select {
		case out <- event:
		case <-ctx.Done():
			return nil
		}
	}
	return scanner.Err()
}
