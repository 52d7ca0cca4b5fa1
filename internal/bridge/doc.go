// Package bridge implements the JSON-over-HTTP control protocol of
// Hue-compatible lighting bridges.
//
// A Bridge is obtained by resolving a description URL, usually one yielded
// by the discovery package:
//
//	b, err := bridge.FromDescriptionURL("http://192.168.1.10:80/description.xml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Authenticated calls need a registered username. Registration requires the
// bridge's physical link button to have been pressed recently:
//
//	user, err := b.RegisterUser("myapp#host")
//
// With a username, lamps can be listed and controlled:
//
//	lights, err := b.Lights(user)
//	err = b.SwitchLight(user, "1", true)
//	err = b.SetLightState(user, "1", "bri", 200)
//
// # Response protocol
//
// Every mutating or registering call answers with an ordered list of
// sections, each either an error entry or a success payload. Because one
// call can address several resources, a response may mix both. The bridge's
// observed behavior is permissive: any success section makes the call an
// overall success, and partial failures reported alongside it do not mask
// it. Responses with no success section fail with an *APIFailure carrying
// the device's own error entries for diagnostics.
//
// # Errors
//
// Failures below the response protocol are reported as *Error with a
// category (transport, HTTP status, decode); device-reported failures as
// *APIFailure. Nothing is retried internally.
package bridge
