package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/huectl/huectl/internal/bridge"
	"github.com/huectl/huectl/internal/logging"
)

const (
	// ServiceType is the mDNS service type Hue-compatible bridges
	// advertise alongside their SSDP presence
	ServiceType = "_hue._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// descriptionPath is where every bridge serves its UPnP description
	// document
	descriptionPath = "/description.xml"
)

// Candidate is one mDNS responder that looks like a bridge: the description
// URL to resolve plus the identity the TXT records claim.
type Candidate struct {
	// Location is the device description URL derived from the entry
	Location string

	// BridgeID is the TXT-advertised bridge identifier, if present
	BridgeID string

	// ModelID is the TXT-advertised model identifier, if present
	ModelID string
}

// Scanner discovers bridges over mDNS instead of SSDP. Useful on networks
// that filter SSDP multicast but pass mDNS.
type Scanner struct {
	// Timeout is the maximum time to wait for responders
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultTimeout,
	}
}

// Scan browses for bridge advertisements and resolves each candidate through
// the same description-document path SSDP discovery uses. Candidates that
// fail to resolve are logged and skipped.
func (s *Scanner) Scan(ctx context.Context) ([]*bridge.Bridge, error) {
	candidates, err := s.ScanCandidates(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var bridges []*bridge.Bridge
	for _, c := range candidates {
		if _, dup := seen[c.Location]; dup {
			continue
		}
		seen[c.Location] = struct{}{}

		b, err := bridge.FromDescriptionURL(c.Location)
		if err != nil {
			logging.Warn("Failed to resolve mDNS candidate",
				zap.String("location", c.Location),
				zap.Error(err),
			)
			continue
		}
		bridges = append(bridges, b)
	}
	return bridges, nil
}

// ScanCandidates browses for bridge advertisements and returns the raw
// candidates without resolving them.
func (s *Scanner) ScanCandidates(ctx context.Context) ([]Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	candidates := make([]Candidate, 0)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for entry := range entries {
			if c, ok := parseServiceEntry(entry); ok {
				candidates = append(candidates, c)
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	<-done

	return candidates, nil
}

// parseServiceEntry converts a zeroconf service entry into a Candidate.
// Entries without a usable address are rejected.
func parseServiceEntry(entry *zeroconf.ServiceEntry) (Candidate, bool) {
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = fmt.Sprintf("[%s]", entry.AddrIPv6[0].String())
	}
	if ip == "" {
		return Candidate{}, false
	}

	port := entry.Port
	if port == 0 {
		port = 80
	}

	c := Candidate{
		Location: fmt.Sprintf("http://%s:%d%s", ip, port, descriptionPath),
	}

	// TXT records are "key=value" pairs; bridges advertise bridgeid and
	// modelid.
	for _, txt := range entry.Text {
		key, value, found := strings.Cut(txt, "=")
		if !found {
			continue
		}
		switch key {
		case "bridgeid":
			c.BridgeID = value
		case "modelid":
			c.ModelID = value
		}
	}

	return c, true
}
