package bridge

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/huectl/huectl/internal/logging"
)

// LightState is the current state of a lamp as reported by the bridge
type LightState struct {
	// On is the power state
	On bool `json:"on"`

	// Bri is the brightness (1-254)
	Bri uint8 `json:"bri"`

	// CT is the color temperature in mireds
	CT uint16 `json:"ct"`

	// Alert is the current alert effect ("none", "select", "lselect")
	Alert string `json:"alert"`

	// ColorMode is the active color mode ("hs", "xy", "ct")
	ColorMode string `json:"colormode"`

	// Mode is the lamp's operating mode
	Mode string `json:"mode"`

	// Reachable reports whether the bridge can currently reach the lamp
	Reachable bool `json:"reachable"`
}

// Light is a lamp record as returned by the bridge's lights listing
type Light struct {
	// UniqueID is the lamp's stable identifier (usually its MAC plus endpoint)
	UniqueID string `json:"uniqueid"`

	// Type is the lamp type (e.g. "Extended color light")
	Type string `json:"type"`

	// Name is the user-assigned lamp name
	Name string `json:"name"`

	// ModelID is the hardware model identifier
	ModelID string `json:"modelid"`

	// ManufacturerName is the lamp vendor
	ManufacturerName string `json:"manufacturername"`

	// ProductID is the vendor's product identifier
	ProductID string `json:"productid"`

	// State is the lamp's current state
	State LightState `json:"state"`

	// SWVersion is the lamp firmware version
	SWVersion string `json:"swversion"`

	// SWConfigID is the lamp firmware configuration identifier
	SWConfigID string `json:"swconfigid"`
}

// Lights lists all lamps known to the bridge, keyed by the bridge's lamp
// identifier. user is the username obtained from RegisterUser.
//
// This endpoint answers with a flat object rather than a section list. When
// the user token is invalid the bridge answers with a section list carrying
// an error entry instead; that case is detected and returned as an
// *APIFailure so it stays distinguishable from transport failures.
func (b *Bridge) Lights(user string) (map[string]Light, error) {
	url := b.apiURL(user, "lights")

	start := time.Now()
	resp, err := b.httpClient().Get(url)
	logging.LogHTTPCall(http.MethodGet, url, statusOf(resp), time.Since(start), err)
	if err != nil {
		return nil, NewTransportError("lights listing request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, NewHTTPError(resp.StatusCode, fmt.Sprintf("bridge returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewTransportError("failed to read lights listing", err)
	}

	var lights map[string]Light
	if err := json.Unmarshal(body, &lights); err != nil {
		// An unauthorized user gets an error-shaped section list here.
		var sections []ResponseSection
		if secErr := json.Unmarshal(body, &sections); secErr == nil && len(sections) > 0 {
			return nil, sectionsToFailure(sections)
		}
		return nil, NewDecodeError("malformed lights listing", err)
	}

	logging.Debug("Lights listed",
		zap.String("bridge", b.Device.FriendlyName),
		zap.Int("count", len(lights)),
	)
	return lights, nil
}

// SetLightState sets one attribute of a lamp's state. key is any attribute
// of LightState ("on", "bri", "ct", ...) and value any JSON-representable
// scalar; the bridge validates attribute semantics itself.
func (b *Bridge) SetLightState(user, light, key string, value any) error {
	sections, err := b.callSections(http.MethodPut, b.apiURL(user, "lights", light, "state"), map[string]any{
		key: value,
	})
	if err != nil {
		return err
	}
	return interpretMutation(sections)
}

// SwitchLight switches a lamp on or off
func (b *Bridge) SwitchLight(user, light string, on bool) error {
	return b.SetLightState(user, light, "on", on)
}

// sectionsToFailure collects the error entries of a section list into an
// *APIFailure.
func sectionsToFailure(sections []ResponseSection) *APIFailure {
	var collected []APIError
	for _, section := range sections {
		if section.Error != nil {
			collected = append(collected, *section.Error)
		}
	}
	return &APIFailure{Errors: collected}
}
