// Package config persists huectl's knowledge of bridges between runs.
//
// The registry is a YAML file in the platform config directory
// (e.g. ~/.config/huectl/config.yaml) holding, per bridge serial number, the
// friendly name, the last known description URL, and the username registered
// during pairing, plus application preferences.
//
// None of this is required by the bridge protocol itself; it exists so that
// "huectl lights" works without re-discovering and re-pairing every time.
// Saves are atomic (write to temp file, rename) and the file is created with
// user-only permissions because usernames are bridge API tokens.
package config
