package pipedrive

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Envelope is the normalized result of every API call. It holds the
// decoded response body plus the success, not_authorized and failed flags.
type Envelope map[string]interface{}

// Success reports whether the API answered with a 2xx status.
func (e Envelope) Success() bool {
	return e.flag("success")
}

// NotAuthorized reports a 401 that survived the token refresh.
func (e Envelope) NotAuthorized() bool {
	return e.flag("not_authorized")
}

// Failed reports a 420 (rate or quota limit) response.
func (e Envelope) Failed() bool {
	return e.flag("failed")
}

func (e Envelope) flag(key string) bool {
	v, _ := e[key].(bool)
	return v
}

// Data returns the "data" member of the body, if any.
func (e Envelope) Data() interface{} {
	return e["data"]
}

// Decode unmarshals the "data" member into v.
func (e Envelope) Decode(v interface{}) error {
	return remarshal(e.Data(), v)
}

// Pagination returns additional_data.pagination. A missing block yields
// the zero value, meaning there are no more pages; a block that does not
// decode is an error.
func (e Envelope) Pagination() (Pagination, error) {
	var p Pagination
	additional, ok := e["additional_data"].(map[string]interface{})
	if !ok {
		return p, nil
	}
	if err := remarshal(additional["pagination"], &p); err != nil {
		return Pagination{}, fmt.Errorf("invalid pagination: %w", err)
	}
	return p, nil
}

// Err returns nil for a successful envelope and an *EnvelopeError otherwise.
func (e Envelope) Err() error {
	if e.Success() {
		return nil
	}
	return &EnvelopeError{Envelope: e}
}

// EnvelopeError wraps a failure envelope for callers that want an error.
type EnvelopeError struct {
	Envelope Envelope
}

func (e *EnvelopeError) Error() string {
	var b strings.Builder
	b.WriteString("pipedrive: request failed")
	switch {
	case e.Envelope.NotAuthorized():
		b.WriteString(" (not authorized)")
	case e.Envelope.Failed():
		b.WriteString(" (rate limited)")
	}
	if msg, ok := e.Envelope["error"].(string); ok && msg != "" {
		fmt.Fprintf(&b, ": %s", msg)
	}
	return b.String()
}

func remarshal(in, out interface{}) error {
	if in == nil {
		return nil
	}
	raw, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode envelope data: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode envelope data: %w", err)
	}
	return nil
}
