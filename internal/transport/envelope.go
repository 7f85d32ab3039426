package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EnvelopeKind names the response shapes the backend uses
type EnvelopeKind int

const (
	// EnvelopeRaw is a bare JSON value with no wrapping
	EnvelopeRaw EnvelopeKind = iota
	// EnvelopeWrapped is {success, message, data}
	EnvelopeWrapped
)

// Envelope is a decoded response body
type Envelope struct {
	Kind    EnvelopeKind
	Success bool
	Message string
	payload json.RawMessage
}

// wrappedShape mirrors {success, message, data}. Fields are raw so that a
// present key is told apart from a missing one, whatever its value.
type wrappedShape struct {
	Success json.RawMessage `json:"success"`
	Message json.RawMessage `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// DecodeEnvelope parses body as the wrapped shape first and falls back to the
// raw variant when the body is not an object carrying both success and data.
func DecodeEnvelope(body []byte) Envelope {
	trimmed := bytes.TrimSpace(body)

	var w wrappedShape
	if len(trimmed) > 0 && trimmed[0] == '{' && json.Unmarshal(trimmed, &w) == nil &&
		w.Success != nil && w.Data != nil {
		env := Envelope{Kind: EnvelopeWrapped, payload: w.Data}
		_ = json.Unmarshal(w.Success, &env.Success)
		_ = json.Unmarshal(w.Message, &env.Message)
		return env
	}

	return Envelope{Kind: EnvelopeRaw, payload: trimmed}
}

// Payload returns the bytes callers see: the nested data for wrapped bodies,
// the body itself otherwise
func (e Envelope) Payload() json.RawMessage {
	return e.payload
}

// Decode unmarshals the payload into out. An empty payload or a nil out is a no-op.
func (e Envelope) Decode(out any) error {
	if out == nil || len(e.payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.payload, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
