package bridge

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestResponseSection_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
		verify  func(t *testing.T, s ResponseSection)
	}{
		{
			name: "error variant",
			body: `{"error": {"type": 101, "address": "/", "description": "link button not pressed"}}`,
			verify: func(t *testing.T, s ResponseSection) {
				if s.Error == nil {
					t.Fatal("Error = nil, want error entry")
				}
				if s.Error.Type != 101 {
					t.Errorf("Error.Type = %d, want 101", s.Error.Type)
				}
				if s.Error.Description != "link button not pressed" {
					t.Errorf("Error.Description = %q, want %q", s.Error.Description, "link button not pressed")
				}
				if s.IsSuccess() {
					t.Error("IsSuccess() = true for error variant")
				}
			},
		},
		{
			name: "success variant",
			body: `{"success": {"username": "newdev01"}}`,
			verify: func(t *testing.T, s ResponseSection) {
				if !s.IsSuccess() {
					t.Fatal("IsSuccess() = false, want true")
				}
				if got := s.Success["username"]; got != "newdev01" {
					t.Errorf("Success[username] = %v, want newdev01", got)
				}
			},
		},
		{
			name: "success with non-string payload",
			body: `{"success": {"/lights/1/state/on": true}}`,
			verify: func(t *testing.T, s ResponseSection) {
				if !s.IsSuccess() {
					t.Fatal("IsSuccess() = false, want true")
				}
			},
		},
		{
			name:    "neither variant",
			body:    `{"status": "fine"}`,
			wantErr: true,
		},
		{
			name:    "not an object",
			body:    `42`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s ResponseSection
			err := json.Unmarshal([]byte(tt.body), &s)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.verify != nil {
				tt.verify(t, s)
			}
		})
	}
}

func TestInterpretRegistration(t *testing.T) {
	tests := []struct {
		name         string
		sections     []ResponseSection
		wantUsername string
		wantErr      bool
		wantErrCount int
	}{
		{
			name: "single success",
			sections: []ResponseSection{
				{Success: map[string]any{"username": "newdev01"}},
			},
			wantUsername: "newdev01",
		},
		{
			name: "success after errors wins and discards them",
			sections: []ResponseSection{
				{Error: &APIError{Type: 7, Address: "/", Description: "invalid value"}},
				{Error: &APIError{Type: 101, Address: "/", Description: "link button not pressed"}},
				{Success: map[string]any{"username": "abc123"}},
			},
			wantUsername: "abc123",
		},
		{
			name: "first success with username wins",
			sections: []ResponseSection{
				{Success: map[string]any{"username": "first"}},
				{Success: map[string]any{"username": "second"}},
			},
			wantUsername: "first",
		},
		{
			name: "success without username falls through to later success",
			sections: []ResponseSection{
				{Success: map[string]any{"something": "else"}},
				{Success: map[string]any{"username": "abc123"}},
			},
			wantUsername: "abc123",
		},
		{
			name: "non-string username is coerced",
			sections: []ResponseSection{
				{Success: map[string]any{"username": float64(42)}},
			},
			wantUsername: "42",
		},
		{
			name: "only errors",
			sections: []ResponseSection{
				{Error: &APIError{Type: 101, Address: "/", Description: "link button not pressed"}},
			},
			wantErr:      true,
			wantErrCount: 1,
		},
		{
			name:         "empty section list fails with empty error list",
			sections:     nil,
			wantErr:      true,
			wantErrCount: 0,
		},
		{
			name: "only un-keyed successes fails with empty error list",
			sections: []ResponseSection{
				{Success: map[string]any{"something": "else"}},
			},
			wantErr:      true,
			wantErrCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			username, err := interpretRegistration(tt.sections)
			if (err != nil) != tt.wantErr {
				t.Fatalf("interpretRegistration() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var failure *APIFailure
				if !errors.As(err, &failure) {
					t.Fatalf("error type = %T, want *APIFailure", err)
				}
				if len(failure.Errors) != tt.wantErrCount {
					t.Errorf("collected errors = %d, want %d", len(failure.Errors), tt.wantErrCount)
				}
				return
			}
			if username != tt.wantUsername {
				t.Errorf("username = %q, want %q", username, tt.wantUsername)
			}
		})
	}
}

func TestInterpretMutation(t *testing.T) {
	tests := []struct {
		name     string
		sections []ResponseSection
		wantErr  bool
	}{
		{
			name: "single success",
			sections: []ResponseSection{
				{Success: map[string]any{"/lights/1/state/on": true}},
			},
		},
		{
			name: "success among errors is still success",
			sections: []ResponseSection{
				{Error: &APIError{Type: 7, Address: "/lights/1/state/bri", Description: "invalid value"}},
				{Success: map[string]any{"/lights/1/state/on": true}},
				{Error: &APIError{Type: 7, Address: "/lights/1/state/ct", Description: "invalid value"}},
			},
		},
		{
			name: "only errors",
			sections: []ResponseSection{
				{Error: &APIError{Type: 1, Address: "/lights/1/state/on", Description: "unauthorized user"}},
			},
			wantErr: true,
		},
		{
			name:     "empty section list",
			sections: nil,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := interpretMutation(tt.sections)
			if (err != nil) != tt.wantErr {
				t.Errorf("interpretMutation() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInterpretMutation_PreservesErrorOrder(t *testing.T) {
	sections := []ResponseSection{
		{Error: &APIError{Type: 1, Address: "/a", Description: "first"}},
		{Error: &APIError{Type: 2, Address: "/b", Description: "second"}},
		{Error: &APIError{Type: 3, Address: "/c", Description: "third"}},
	}

	err := interpretMutation(sections)
	var failure *APIFailure
	if !errors.As(err, &failure) {
		t.Fatalf("error type = %T, want *APIFailure", err)
	}

	if len(failure.Errors) != 3 {
		t.Fatalf("collected errors = %d, want 3", len(failure.Errors))
	}
	for i, want := range []string{"first", "second", "third"} {
		if failure.Errors[i].Description != want {
			t.Errorf("Errors[%d].Description = %q, want %q", i, failure.Errors[i].Description, want)
		}
	}
}

func TestAPIFailure_Error(t *testing.T) {
	empty := &APIFailure{}
	if empty.Error() == "" {
		t.Error("empty APIFailure should still render a message")
	}

	failure := &APIFailure{Errors: []APIError{
		{Type: 1, Address: "/lights/1/state/on", Description: "unauthorized user"},
	}}
	if got := failure.Error(); got != "bridge error 1 at /lights/1/state/on: unauthorized user" {
		t.Errorf("Error() = %q", got)
	}
}
