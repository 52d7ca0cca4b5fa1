package bridge

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/huectl/huectl/internal/logging"
)

const (
	// DefaultDeviceType is the client identifier sent during registration
	// when the caller does not supply one
	DefaultDeviceType = "huectl#go"

	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Second
)

// Device holds the manufacturer-declared identity fields of a bridge, as
// decoded from its UPnP description document.
type Device struct {
	// UDN is the unique device name (a uuid URN)
	UDN string `xml:"UDN" json:"udn"`

	// DeviceType is the UPnP device type URN
	DeviceType string `xml:"deviceType" json:"device_type"`

	// Manufacturer is the vendor name
	Manufacturer string `xml:"manufacturer" json:"manufacturer"`

	// ModelName is the hardware model
	ModelName string `xml:"modelName" json:"model_name"`

	// ModelDescription is the vendor's model description
	ModelDescription string `xml:"modelDescription" json:"model_description"`

	// SerialNumber is the device serial
	SerialNumber string `xml:"serialNumber" json:"serial_number"`

	// FriendlyName is the human-readable bridge name
	FriendlyName string `xml:"friendlyName" json:"friendly_name"`
}

// Bridge is a client for one lighting bridge. The fields are the bridge's
// static properties and do not change after resolution; all control calls
// are methods.
//
// A Bridge does not hold the registered username. One bridge can serve
// several registered identities, so callers pass the username into every
// authenticated call.
type Bridge struct {
	XMLName xml.Name `xml:"root" json:"-" yaml:"-"`

	// URLBase is the base URL all /api/ resources live below. The
	// description document declares it with a trailing slash.
	URLBase string `xml:"URLBase" json:"url_base"`

	// Device holds the bridge's identity fields
	Device Device `xml:"device" json:"device"`

	// HTTPClient overrides the HTTP client used for control calls.
	// When nil a shared client with DefaultTimeout is used.
	HTTPClient *http.Client `xml:"-" json:"-" yaml:"-"`
}

var defaultHTTPClient = &http.Client{Timeout: DefaultTimeout}

// FromDescriptionURL resolves a description URL, as advertised in an SSDP
// discovery response, into a Bridge by fetching and decoding the device
// description document.
func FromDescriptionURL(location string) (*Bridge, error) {
	start := time.Now()
	resp, err := defaultHTTPClient.Get(location)
	logging.LogHTTPCall(http.MethodGet, location, statusOf(resp), time.Since(start), err)
	if err != nil {
		return nil, NewTransportError("failed to fetch device description", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, NewHTTPError(resp.StatusCode, fmt.Sprintf("device description fetch returned status %d", resp.StatusCode))
	}

	var b Bridge
	if err := xml.NewDecoder(resp.Body).Decode(&b); err != nil {
		return nil, NewDecodeError("malformed device description document", err)
	}
	if b.URLBase == "" {
		return nil, NewDecodeError("device description document carries no URLBase", nil)
	}

	logging.Info("Bridge resolved",
		zap.String("location", location),
		zap.String("name", b.Device.FriendlyName),
		zap.String("serial", b.Device.SerialNumber),
	)
	return &b, nil
}

// Name returns the bridge's externally visible identifier, its friendly name.
func (b *Bridge) Name() string {
	return b.Device.FriendlyName
}

// String returns a human-readable string representation of the bridge
func (b *Bridge) String() string {
	return fmt.Sprintf("Bridge %q (%s, serial %s) at %s",
		b.Device.FriendlyName, b.Device.ModelName, b.Device.SerialNumber, b.URLBase)
}

// RegisterUser registers a new user against the bridge and returns the
// username the bridge assigned. devicetype identifies this client to the
// bridge; an empty string uses DefaultDeviceType.
//
// The bridge only accepts the registration within a short window after its
// link button was physically pressed. Until then it answers with a
// well-formed error entry ("link button not pressed"), returned here as an
// *APIFailure; callers typically prompt the user and retry.
func (b *Bridge) RegisterUser(devicetype string) (string, error) {
	if devicetype == "" {
		devicetype = DefaultDeviceType
	}

	sections, err := b.callSections(http.MethodPost, b.apiURL(), map[string]string{
		"devicetype": devicetype,
	})
	if err != nil {
		return "", err
	}

	username, err := interpretRegistration(sections)
	if err != nil {
		return "", err
	}

	logging.Info("User registered",
		zap.String("bridge", b.Device.FriendlyName),
		zap.String("username", username),
	)
	return username, nil
}

// apiURL builds <URLBase>api[/segment...]. The description document declares
// URLBase with a trailing slash; one is added if it is missing.
func (b *Bridge) apiURL(segments ...string) string {
	base := b.URLBase
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	if len(segments) == 0 {
		return base + "api"
	}
	return base + "api/" + strings.Join(segments, "/")
}

func (b *Bridge) httpClient() *http.Client {
	if b.HTTPClient != nil {
		return b.HTTPClient
	}
	return defaultHTTPClient
}

// callSections issues a JSON request and decodes the body as the bridge's
// response section list.
func (b *Bridge) callSections(method, url string, payload any) ([]ResponseSection, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, NewDecodeError("failed to encode request payload", err)
	}

	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return nil, NewTransportError("failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := b.httpClient().Do(req)
	logging.LogHTTPCall(method, url, statusOf(resp), time.Since(start), err)
	if err != nil {
		return nil, NewTransportError("request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, NewHTTPError(resp.StatusCode, fmt.Sprintf("bridge returned status %d", resp.StatusCode))
	}

	var sections []ResponseSection
	if err := json.NewDecoder(resp.Body).Decode(&sections); err != nil {
		return nil, NewDecodeError("malformed response section list", err)
	}
	return sections, nil
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}
