package discovery

import (
	"fmt"
	"strings"
)

// ssdpAddr is the SSDP multicast group every discovery request is sent to
const ssdpAddr = "239.255.255.250:1900"

// mSearch is the fixed discovery request, multicast once per session
const mSearch = "M-SEARCH * HTTP/1.1\r\n" +
	"HOST: 239.255.255.250:1900\r\n" +
	"MAN: ssdp:discover\r\n" +
	"MX: 10\r\n" +
	"ST: ssdp:all\r\n" +
	"\r\n"

// parseAnswer extracts the advertised description URL from one discovery
// response datagram. The datagram must open with an HTTP/1.1 200 status line
// and carry a "LOCATION: <url>" header line; any other shape is malformed
// and reported as an error so the caller can skip the packet.
func parseAnswer(packet []byte) (string, error) {
	answer := string(packet)
	firstline, rest, _ := strings.Cut(answer, "\n")
	if !strings.HasPrefix(firstline, "HTTP/1.1 200 OK") {
		return "", fmt.Errorf("discovery response is not an HTTP 200 answer")
	}
	for _, line := range strings.Split(rest, "\n") {
		line = strings.TrimRight(line, "\r")
		if location, ok := strings.CutPrefix(line, "LOCATION: "); ok {
			return location, nil
		}
	}
	return "", fmt.Errorf("discovery response carries no LOCATION header")
}
