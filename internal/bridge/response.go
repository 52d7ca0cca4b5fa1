package bridge

import (
	"encoding/json"
	"fmt"
)

// ResponseSection is one element of the section list the bridge returns for
// every control call. Exactly one of Error and Success is set, discriminated
// by the wire object's single key ("error" or "success").
//
// A single call can address several resources, so the bridge answers with a
// list of sections rather than one status.
type ResponseSection struct {
	// Error is the device's error entry, if this section reports one
	Error *APIError
	// Success is the payload mapping of a success section
	Success map[string]any
}

// IsSuccess reports whether this section is a success variant
func (s ResponseSection) IsSuccess() bool {
	return s.Success != nil
}

// UnmarshalJSON decodes the tagged wire shape {"error": {...}} or
// {"success": {...}}.
func (s *ResponseSection) UnmarshalJSON(data []byte) error {
	var raw struct {
		Error   *APIError      `json:"error"`
		Success map[string]any `json:"success"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Error == nil && raw.Success == nil {
		return fmt.Errorf("response section has neither error nor success variant")
	}
	s.Error = raw.Error
	s.Success = raw.Success
	return nil
}

// interpretRegistration classifies a registration response.
//
// Sections are scanned in response order. Every error entry is collected,
// but the first success section whose payload carries a "username" key wins
// and discards the collected errors. Bridges are known to report errors
// alongside an overall success; those must not mask it.
//
// With no usable success section the collected errors are returned as an
// *APIFailure. An empty section list therefore fails with an empty error
// list rather than a synthetic error.
func interpretRegistration(sections []ResponseSection) (string, error) {
	var collected []APIError
	for _, section := range sections {
		if section.Error != nil {
			collected = append(collected, *section.Error)
			continue
		}
		if section.Success == nil {
			continue
		}
		if username, ok := section.Success["username"]; ok {
			return stringify(username), nil
		}
	}
	return "", &APIFailure{Errors: collected}
}

// interpretMutation classifies a state-mutation response.
//
// Any success section makes the whole call a success, regardless of error
// entries present (the device reports partial failures alongside an overall
// success). Only a response with no success section at all fails, carrying
// every collected error in original order.
func interpretMutation(sections []ResponseSection) error {
	var collected []APIError
	success := false
	for _, section := range sections {
		if section.IsSuccess() {
			success = true
			continue
		}
		if section.Error != nil {
			collected = append(collected, *section.Error)
		}
	}
	if success {
		return nil
	}
	return &APIFailure{Errors: collected}
}

// stringify renders a JSON-typed payload value as a plain string. Strings
// pass through unquoted; anything else gets the fmt rendering.
func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
