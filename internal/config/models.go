package config

import "time"

// Registry represents the entire user configuration file.
// It stores the bridges huectl has seen and the usernames registered with
// them, so repeat invocations can skip discovery and pairing.
type Registry struct {
	Version     int                `yaml:"version"`
	Bridges     map[string]*Bridge `yaml:"bridges,omitempty"` // Keyed by bridge serial number
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// Bridge represents the stored record of one known bridge, keyed by its
// serial number in the Registry.
type Bridge struct {
	Name     string    `yaml:"name,omitempty"`     // Bridge friendly name at last contact
	Location string    `yaml:"location,omitempty"` // Last known description URL
	Username string    `yaml:"username,omitempty"` // Registered username, if paired
	LastSeen time.Time `yaml:"last_seen,omitempty"`
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	DiscoverTimeout int    `yaml:"discover_timeout"`         // Discovery timeout in seconds
	DeviceType      string `yaml:"devicetype,omitempty"`     // Client identifier sent at pairing
	DefaultBridge   string `yaml:"default_bridge,omitempty"` // Serial of the bridge used when none is named
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version: 1,
		Bridges: make(map[string]*Bridge),
		Preferences: &Preferences{
			DiscoverTimeout: 5,
		},
	}
}

// EnsureBridge returns the stored record for serial, creating an empty one
// if the bridge is not yet known.
func (r *Registry) EnsureBridge(serial string) *Bridge {
	if r.Bridges == nil {
		r.Bridges = make(map[string]*Bridge)
	}
	b, ok := r.Bridges[serial]
	if !ok {
		b = &Bridge{}
		r.Bridges[serial] = b
	}
	return b
}

// Remember records a sighting of a bridge, updating its name, location,
// and last-seen time while preserving any stored username.
func (r *Registry) Remember(serial, name, location string) *Bridge {
	b := r.EnsureBridge(serial)
	b.Name = name
	b.Location = location
	b.LastSeen = time.Now()
	return b
}

// UsernameFor returns the stored username for serial, or "" when the bridge
// is unknown or not yet paired.
func (r *Registry) UsernameFor(serial string) string {
	if r.Bridges == nil {
		return ""
	}
	if b, ok := r.Bridges[serial]; ok {
		return b.Username
	}
	return ""
}
