// Package discovery locates lighting bridges on the local network.
//
// The primary path is SSDP: a Session multicasts one M-SEARCH request and
// then consumes responses lazily, yielding each distinct responder exactly
// once until its timeout elapses:
//
//	session, err := discovery.Discover(5 * time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Close()
//	for {
//	    b, err := session.Next()
//	    if err != nil {
//	        log.Printf("resolve failed: %v", err)
//	        continue
//	    }
//	    if b == nil {
//	        break // session exhausted
//	    }
//	    fmt.Println(b)
//	}
//
// FindBridges wraps the same loop for callers that just want the slice.
//
// # Response handling
//
// Responders advertise a description URL; each novel URL is fetched and
// decoded into a bridge.Bridge before it is yielded. A resolution failure is
// yielded as that item's error and does not end the session. Malformed
// packets and duplicate responders are skipped without ending the session
// either, so a noisy network cannot terminate discovery early.
//
// # mDNS alternative
//
// Bridges also advertise "_hue._tcp" over mDNS. Scanner browses for those
// advertisements and resolves them through the same description-document
// path, for networks that filter SSDP multicast.
//
// # Resource model
//
// A Session exclusively owns one UDP socket, released on Close or when the
// session runs to exhaustion. There is no external cancellation signal; the
// timeout bounds every blocking call. Sessions must not be shared across
// goroutines, but concurrent independent Sessions are safe.
package discovery
