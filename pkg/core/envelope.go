package core

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/bytedance/sonic"
)

// CodeOK is the envelope code that denotes success.
const CodeOK = 200

// Envelope is the {code, data} wrapper shared by all API responses.
type Envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg,omitempty"`
	Data json.RawMessage `json:"data"`
}

// DecodeEnvelope parses a response body into an Envelope.
func DecodeEnvelope(body []byte) (*Envelope, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("empty response body")
	}
	var env Envelope
	if err := sonic.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	return &env, nil
}

// IsSuccess reports whether the envelope code is CodeOK.
func (e *Envelope) IsSuccess() bool {
	return e.Code == CodeOK
}

// DataIsArray reports whether the payload is a JSON array.
func (e *Envelope) DataIsArray() bool {
	return LeadingByte(e.Data) == '['
}

// DataIsObject reports whether the payload is a JSON object.
func (e *Envelope) DataIsObject() bool {
	return LeadingByte(e.Data) == '{'
}

// LeadingByte returns the first non-whitespace byte of a JSON value, or 0
// when raw is blank.
func LeadingByte(raw []byte) byte {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}
