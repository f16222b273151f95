package samsungtv

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Response is one decoded inbound frame.
type Response struct {
	// Event is the frame's event name, or EventWildcard when absent.
	Event string

	// Data is the frame's data object. When data is a JSON string holding
	// an object, as on d2d_service_message, the inner object is decoded.
	// Nil when the frame has no object data.
	Data map[string]any

	// Raw is the frame as received.
	Raw []byte
}

// String returns Data[key] when it is a string.
func (r Response) String(key string) (string, bool) {
	v, ok := r.Data[key].(string)
	return v, ok
}

// Token returns the pairing token carried on a connect event, if any.
func (r Response) Token() (string, bool) {
	tok, ok := r.String("token")
	if !ok || tok == "" {
		return "", false
	}
	return tok, true
}

// requestFrame is the wire form of a Request.
type requestFrame struct {
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

// Encode returns the wire bytes for a command.
//
// Sleep and Batch have no wire form and return ErrNotEncodable.
func Encode(cmd Command) ([]byte, error) {
	var v any
	switch c := cmd.(type) {
	case Request:
		if c.Method == "" {
			return nil, fmt.Errorf("%w: request without method", ErrNotEncodable)
		}
		v = requestFrame{Method: c.Method, Params: c.Params}
	case RawCommand:
		v = map[string]any(c)
	case Sleep:
		return nil, fmt.Errorf("%w: sleep", ErrNotEncodable)
	case Batch:
		return nil, fmt.Errorf("%w: batch", ErrNotEncodable)
	case nil:
		return nil, fmt.Errorf("%w: nil command", ErrNotEncodable)
	default:
		return nil, fmt.Errorf("%w: %T", ErrNotEncodable, cmd)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotEncodable, err)
	}
	return data, nil
}

// Decode parses one inbound frame.
//
// A frame that is not a JSON object fails with ErrMalformedFrame. A missing
// or non-string event field yields EventWildcard.
func Decode(raw []byte) (Response, error) {
	var frame map[string]json.RawMessage
	if err := json.Unmarshal(raw, &frame); err != nil || frame == nil {
		if err == nil {
			err = errors.New("null frame")
		}
		return Response{Raw: raw}, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}

	resp := Response{Event: EventWildcard, Raw: raw}

	if ev, ok := frame["event"]; ok {
		var name string
		if json.Unmarshal(ev, &name) == nil && name != "" {
			resp.Event = name
		}
	}

	if data, ok := frame["data"]; ok {
		resp.Data = decodeData(data)
	}

	return resp, nil
}

// decodeData accepts an object or a string containing an object.
func decodeData(data json.RawMessage) map[string]any {
	var obj map[string]any
	if json.Unmarshal(data, &obj) == nil {
		return obj
	}

	var s string
	if json.Unmarshal(data, &s) != nil {
		return nil
	}
	if json.Unmarshal([]byte(s), &obj) == nil {
		return obj
	}
	return nil
}
