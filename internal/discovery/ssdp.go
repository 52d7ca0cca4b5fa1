package discovery

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/huectl/huectl/internal/bridge"
	"github.com/huectl/huectl/internal/logging"
)

// DefaultTimeout is the default length of one SSDP discovery session
const DefaultTimeout = 10 * time.Second

// maxDatagramSize is the receive buffer for one discovery response
const maxDatagramSize = 8192

// Session is one bounded-time SSDP discovery run. It owns a UDP socket for
// its whole lifetime and yields each distinct responding bridge exactly once
// through Next. Sessions are not restartable; discovering again means a new
// Session. A Session must not be shared between goroutines, but separate
// Sessions are independent and safe to run concurrently.
type Session struct {
	conn      net.PacketConn
	deadline  time.Time
	seen      map[string]struct{}
	exhausted bool

	// resolve turns an advertised description URL into a Bridge. Swapped
	// out in tests.
	resolve func(location string) (*bridge.Bridge, error)

	closeOnce sync.Once
}

// Discover binds a fresh UDP socket, multicasts one SSDP M-SEARCH request,
// and returns the running session. Responses are consumed via Next until
// timeout has elapsed; a timeout of zero or less uses DefaultTimeout.
func Discover(timeout time.Duration) (*Session, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return nil, fmt.Errorf("failed to bind discovery socket: %w", err)
	}

	dst, err := net.ResolveUDPAddr("udp4", ssdpAddr)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to resolve SSDP multicast address: %w", err)
	}
	if _, err := conn.WriteTo([]byte(mSearch), dst); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to send discovery request: %w", err)
	}

	logging.Info("Discovery session started",
		zap.Duration("timeout", timeout),
		zap.String("local_addr", conn.LocalAddr().String()),
	)
	return newSession(conn, timeout, bridge.FromDescriptionURL), nil
}

// newSession wires up a session around an already-bound socket. The
// discovery request must have been sent on conn beforehand.
func newSession(conn net.PacketConn, timeout time.Duration, resolve func(string) (*bridge.Bridge, error)) *Session {
	return &Session{
		conn:     conn,
		deadline: time.Now().Add(timeout),
		seen:     make(map[string]struct{}),
		resolve:  resolve,
	}
}

// Next blocks until the next distinct bridge responds, then resolves and
// returns it. A failed resolution is returned as that item's error; the
// session keeps going and Next can be called again. Once the session's
// deadline has passed, Next returns (nil, nil) forever and the socket is
// released.
//
// Malformed response packets and duplicate responders are skipped silently.
// Each call may block up to the session's remaining time.
func (s *Session) Next() (*bridge.Bridge, error) {
	if s.exhausted {
		return nil, nil
	}

	buf := make([]byte, maxDatagramSize)
	// Explicit loop: a flood of malformed packets must not grow the stack,
	// and every iteration re-checks the deadline.
	for {
		remaining := time.Until(s.deadline)
		if remaining <= 0 {
			s.exhaust()
			return nil, nil
		}

		if err := s.conn.SetReadDeadline(time.Now().Add(remaining)); err != nil {
			return nil, fmt.Errorf("failed to arm receive deadline: %w", err)
		}

		n, src, err := s.conn.ReadFrom(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				// Remaining time is spent; the next iteration
				// observes the expired deadline.
				continue
			}
			// Socket trouble is surfaced as an item without ending
			// the session; the deadline still bounds it.
			return nil, fmt.Errorf("discovery receive failed: %w", err)
		}

		location, err := parseAnswer(buf[:n])
		if err != nil {
			logging.Debug("Skipping malformed discovery response",
				zap.String("source", addrString(src)),
				zap.Error(err),
			)
			continue
		}
		logging.LogDiscoveryPacket(addrString(src), n, location)

		// Bridges answer an ssdp:all search several times; the same
		// description URL is only worth resolving once per session.
		if _, dup := s.seen[location]; dup {
			continue
		}
		s.seen[location] = struct{}{}

		return s.resolve(location)
	}
}

// Close releases the session's socket. It is idempotent and safe to call
// whether or not the session already ran to exhaustion.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.conn.Close()
	})
	return err
}

func (s *Session) exhaust() {
	s.exhausted = true
	_ = s.Close()
	logging.Debug("Discovery session exhausted")
}

func addrString(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	return addr.String()
}

// FindBridges runs one full discovery session and collects every bridge that
// resolved. Per-bridge resolution failures are logged and skipped; callers
// that need them should drive a Session directly.
func FindBridges(timeout time.Duration) ([]*bridge.Bridge, error) {
	session, err := Discover(timeout)
	if err != nil {
		return nil, err
	}
	defer func() { _ = session.Close() }()

	var bridges []*bridge.Bridge
	for {
		b, err := session.Next()
		if err != nil {
			logging.Warn("Failed to resolve discovered bridge", zap.Error(err))
			continue
		}
		if b == nil {
			return bridges, nil
		}
		bridges = append(bridges, b)
	}
}
