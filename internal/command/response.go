package command

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Body is the command-specific payload of a response. Fields are encoded in
// the order they were set, followed by status and message.
type Body struct {
	keys    []string
	values  map[string]any
	Message Message
}

// NewBody creates an empty body with the given outcome.
func NewBody(m Message) *Body {
	return &Body{values: make(map[string]any), Message: m}
}

// Set adds or replaces a field.
func (b *Body) Set(key string, value any) *Body {
	if _, exists := b.values[key]; !exists {
		b.keys = append(b.keys, key)
	}
	b.values[key] = value
	return b
}

// Get returns a field's value.
func (b *Body) Get(key string) (any, bool) {
	v, ok := b.values[key]
	return v, ok
}

// Status returns the status code of the body's message.
func (b *Body) Status() int {
	return b.Message.Status()
}

// MarshalJSON encodes the fields in insertion order, then status and message.
func (b *Body) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for _, k := range b.keys {
		if err := writeMember(&buf, k, b.values[k]); err != nil {
			return nil, err
		}
		buf.WriteByte(',')
	}
	if err := writeMember(&buf, "status", b.Status()); err != nil {
		return nil, err
	}
	buf.WriteByte(',')
	if err := writeMember(&buf, "message", b.Message); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeMember(buf *bytes.Buffer, key string, value any) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding field %q: %w", key, err)
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

// Response is the envelope written back to the client.
type Response struct {
	// Length is the byte length of the encoded body object.
	Length      int             `json:"length"`
	UpTime      int64           `json:"upTime"`
	CommandName string          `json:"commandName"`
	Args        []string        `json:"args"`
	Body        json.RawMessage `json:"body"`
	Mode        string          `json:"mode"`
	LogLevel    string          `json:"logLevel"`
}

// Encode builds the envelope around body and returns it as JSON.
func Encode(name string, args []string, body *Body, upTimeMs int64, modeName, logLevel string) ([]byte, error) {
	encodedBody, err := body.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encoding body: %w", err)
	}
	if args == nil {
		args = []string{}
	}
	resp := Response{
		Length:      len(encodedBody),
		UpTime:      upTimeMs,
		CommandName: name,
		Args:        args,
		Body:        encodedBody,
		Mode:        modeName,
		LogLevel:    logLevel,
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encoding response: %w", err)
	}
	return data, nil
}

// Decode parses a response envelope. It is used by clients and tests.
func Decode(data []byte) (*Response, map[string]any, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, nil, fmt.Errorf("decoding response: %w", err)
	}
	var body map[string]any
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, nil, fmt.Errorf("decoding response body: %w", err)
	}
	return &resp, body, nil
}
