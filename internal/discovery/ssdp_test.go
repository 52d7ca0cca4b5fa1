package discovery

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/huectl/huectl/internal/bridge"
)

// timeoutError satisfies net.Error the way a real socket read deadline does.
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

type fakeAddr string

func (a fakeAddr) Network() string { return "udp" }
func (a fakeAddr) String() string  { return string(a) }

type fakePacket struct {
	data []byte
	src  net.Addr
}

// fakeConn scripts a sequence of received datagrams. Once the script runs
// out, reads block until the armed deadline and then fail with a timeout,
// like an idle UDP socket.
type fakeConn struct {
	packets  []fakePacket
	deadline time.Time
	closed   bool
}

func (c *fakeConn) ReadFrom(p []byte) (int, net.Addr, error) {
	if c.closed {
		return 0, nil, net.ErrClosed
	}
	if len(c.packets) == 0 {
		if wait := time.Until(c.deadline); wait > 0 {
			time.Sleep(wait)
		}
		return 0, nil, timeoutError{}
	}
	pkt := c.packets[0]
	c.packets = c.packets[1:]
	return copy(p, pkt.data), pkt.src, nil
}

func (c *fakeConn) WriteTo(p []byte, addr net.Addr) (int, error) { return len(p), nil }
func (c *fakeConn) Close() error                                 { c.closed = true; return nil }
func (c *fakeConn) LocalAddr() net.Addr                          { return fakeAddr("0.0.0.0:0") }
func (c *fakeConn) SetDeadline(t time.Time) error                { c.deadline = t; return nil }
func (c *fakeConn) SetReadDeadline(t time.Time) error            { c.deadline = t; return nil }
func (c *fakeConn) SetWriteDeadline(t time.Time) error           { return nil }

func answerPacket(location string, src string) fakePacket {
	return fakePacket{
		data: []byte("HTTP/1.1 200 OK\r\nEXT:\r\nLOCATION: " + location + "\r\n\r\n"),
		src:  fakeAddr(src),
	}
}

// countingResolver records resolution attempts and hands out stub bridges.
func countingResolver() (resolve func(string) (*bridge.Bridge, error), calls *[]string) {
	var seen []string
	calls = &seen
	resolve = func(location string) (*bridge.Bridge, error) {
		seen = append(seen, location)
		return &bridge.Bridge{
			URLBase: location,
			Device:  bridge.Device{FriendlyName: "stub " + location},
		}, nil
	}
	return resolve, calls
}

func TestSession_Next_YieldsDistinctBridges(t *testing.T) {
	conn := &fakeConn{packets: []fakePacket{
		answerPacket("http://192.168.1.10:80/description.xml", "192.168.1.10:1900"),
		answerPacket("http://192.168.1.20:80/description.xml", "192.168.1.20:1900"),
	}}
	resolve, calls := countingResolver()
	s := newSession(conn, 200*time.Millisecond, resolve)

	first, err := s.Next()
	if err != nil {
		t.Fatalf("Next() #1 error = %v", err)
	}
	if first == nil || first.URLBase != "http://192.168.1.10:80/description.xml" {
		t.Errorf("Next() #1 = %v", first)
	}

	second, err := s.Next()
	if err != nil {
		t.Fatalf("Next() #2 error = %v", err)
	}
	if second == nil || second.URLBase != "http://192.168.1.20:80/description.xml" {
		t.Errorf("Next() #2 = %v", second)
	}

	if len(*calls) != 2 {
		t.Errorf("resolution attempts = %d, want 2", len(*calls))
	}
}

func TestSession_Next_DeduplicatesLocations(t *testing.T) {
	// Same advertised location from two different source addresses must
	// resolve exactly once.
	conn := &fakeConn{packets: []fakePacket{
		answerPacket("http://192.168.1.10:80/description.xml", "192.168.1.10:1900"),
		answerPacket("http://192.168.1.10:80/description.xml", "192.168.1.99:1900"),
	}}
	resolve, calls := countingResolver()
	s := newSession(conn, 100*time.Millisecond, resolve)

	b, err := s.Next()
	if err != nil || b == nil {
		t.Fatalf("Next() #1 = %v, %v", b, err)
	}

	// Duplicate is skipped; script is empty, so the session runs out.
	b, err = s.Next()
	if err != nil {
		t.Fatalf("Next() #2 error = %v", err)
	}
	if b != nil {
		t.Errorf("Next() #2 = %v, want exhaustion", b)
	}

	if len(*calls) != 1 {
		t.Errorf("resolution attempts = %d, want 1", len(*calls))
	}
}

func TestSession_Next_TimeoutTerminates(t *testing.T) {
	conn := &fakeConn{}
	resolve, _ := countingResolver()
	timeout := 100 * time.Millisecond
	s := newSession(conn, timeout, resolve)

	start := time.Now()
	b, err := s.Next()
	elapsed := time.Since(start)

	if b != nil || err != nil {
		t.Fatalf("Next() = %v, %v, want nil, nil", b, err)
	}
	if elapsed > timeout+500*time.Millisecond {
		t.Errorf("Next() blocked %v, want roughly %v", elapsed, timeout)
	}

	// Terminal: further calls yield nothing, immediately.
	start = time.Now()
	if b, err := s.Next(); b != nil || err != nil {
		t.Errorf("Next() after exhaustion = %v, %v, want nil, nil", b, err)
	}
	if since := time.Since(start); since > 50*time.Millisecond {
		t.Errorf("Next() after exhaustion blocked %v", since)
	}

	if !conn.closed {
		t.Error("socket not released after exhaustion")
	}
}

func TestSession_Next_SkipsMalformedPackets(t *testing.T) {
	conn := &fakeConn{packets: []fakePacket{
		{data: []byte("HTTP/1.1 200 OK\r\nSERVER: no location here\r\n\r\n"), src: fakeAddr("192.168.1.5:1900")},
		{data: []byte("NOTIFY * HTTP/1.1\r\nLOCATION: http://x/\r\n"), src: fakeAddr("192.168.1.6:1900")},
		answerPacket("http://192.168.1.10:80/description.xml", "192.168.1.10:1900"),
	}}
	resolve, calls := countingResolver()
	s := newSession(conn, 200*time.Millisecond, resolve)

	b, err := s.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if b == nil || b.URLBase != "http://192.168.1.10:80/description.xml" {
		t.Errorf("Next() = %v, want bridge from the well-formed packet", b)
	}
	if len(*calls) != 1 {
		t.Errorf("resolution attempts = %d, want 1", len(*calls))
	}
}

func TestSession_Next_ResolutionFailureDoesNotEndSession(t *testing.T) {
	conn := &fakeConn{packets: []fakePacket{
		answerPacket("http://192.168.1.10:80/description.xml", "192.168.1.10:1900"),
		answerPacket("http://192.168.1.20:80/description.xml", "192.168.1.20:1900"),
	}}
	resolve := func(location string) (*bridge.Bridge, error) {
		if location == "http://192.168.1.10:80/description.xml" {
			return nil, fmt.Errorf("connection refused")
		}
		return &bridge.Bridge{URLBase: location}, nil
	}
	s := newSession(conn, 200*time.Millisecond, resolve)

	if _, err := s.Next(); err == nil {
		t.Fatal("Next() #1 error = nil, want resolution failure")
	}

	b, err := s.Next()
	if err != nil {
		t.Fatalf("Next() #2 error = %v", err)
	}
	if b == nil || b.URLBase != "http://192.168.1.20:80/description.xml" {
		t.Errorf("Next() #2 = %v, want second bridge", b)
	}
}

func TestSession_Close_Idempotent(t *testing.T) {
	conn := &fakeConn{}
	s := newSession(conn, time.Second, nil)

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if !conn.closed {
		t.Error("socket not closed")
	}
}
