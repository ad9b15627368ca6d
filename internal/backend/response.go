package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/hotelia/frontdesk/internal/shared"
)

// Response is the raw JSON body of a backend call. The PHP scripts answer
// with bare arrays, wrapped objects, status envelopes or bare scalars, so
// callers decode through the helpers below instead of json.Unmarshal.
type Response struct {
	Action string
	Raw    json.RawMessage
}

var null = json.RawMessage("null")

// Parse validates body as JSON. PHP notices printed ahead of the payload are
// skipped. An empty body reads as null.
func Parse(action string, body []byte) (Response, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Response{Action: action, Raw: null}, nil
	}
	if json.Valid(trimmed) {
		return Response{Action: action, Raw: json.RawMessage(trimmed)}, nil
	}
	if i := bytes.IndexAny(trimmed, "[{"); i > 0 && json.Valid(trimmed[i:]) {
		return Response{Action: action, Raw: json.RawMessage(trimmed[i:])}, nil
	}
	return Response{}, fmt.Errorf("%w: %s returned %q", ErrDecode, action, snippet(trimmed))
}

// IsNull reports whether the backend returned nothing.
func (r Response) IsNull() bool {
	raw := bytes.TrimSpace(r.Raw)
	return len(raw) == 0 || bytes.Equal(raw, null)
}

// DecodeList decodes an array into dst, a pointer to a slice. It accepts a
// bare array, {"data": [...]}, {"status": ..., "data": [...]} and null.
// An error envelope becomes a RejectedError.
func (r Response) DecodeList(dst any) error {
	raw := r.unwrap()
	if err := r.rejection(); err != nil {
		return err
	}
	if len(raw) == 0 || bytes.Equal(raw, null) {
		raw = json.RawMessage("[]")
	}
	if raw[0] != '[' {
		return fmt.Errorf("%w: %s: expected a list", ErrDecode, r.Action)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDecode, r.Action, err)
	}
	return nil
}

// DecodeObject decodes a single record into dst. It accepts a bare object,
// an object wrapped in data, or a one-row array. null and [] are not found.
func (r Response) DecodeObject(dst any) error {
	if err := r.rejection(); err != nil {
		return err
	}
	raw := r.unwrap()
	if len(raw) == 0 || bytes.Equal(raw, null) {
		return fmt.Errorf("%s: %w", r.Action, shared.ErrNotFound)
	}
	if raw[0] == '[' {
		var rows []json.RawMessage
		if err := json.Unmarshal(raw, &rows); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrDecode, r.Action, err)
		}
		if len(rows) == 0 {
			return fmt.Errorf("%s: %w", r.Action, shared.ErrNotFound)
		}
		raw = rows[0]
	}
	if raw[0] != '{' {
		return fmt.Errorf("%w: %s: expected an object", ErrDecode, r.Action)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDecode, r.Action, err)
	}
	return nil
}

// DecodeScalar reads a single number. It accepts a bare number or quoted
// number, a one-row array, and objects holding the value under one of keys
// or as their only field. null and [] read as 0.
func (r Response) DecodeScalar(keys ...string) (float64, error) {
	if err := r.rejection(); err != nil {
		return 0, err
	}
	raw := r.unwrap()
	if len(raw) == 0 || bytes.Equal(raw, null) {
		return 0, nil
	}
	if raw[0] == '[' {
		var rows []json.RawMessage
		if err := json.Unmarshal(raw, &rows); err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrDecode, r.Action, err)
		}
		if len(rows) == 0 {
			return 0, nil
		}
		raw = bytes.TrimSpace(rows[0])
	}
	if len(raw) > 0 && raw[0] == '{' {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrDecode, r.Action, err)
		}
		picked, ok := pickField(fields, keys)
		if !ok {
			return 0, fmt.Errorf("%w: %s: expected one of %v", ErrDecode, r.Action, keys)
		}
		raw = picked
	}
	var n Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrDecode, r.Action, err)
	}
	return n.Float64(), nil
}

func pickField(fields map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := fields[k]; ok {
			return v, true
		}
	}
	if len(fields) == 1 {
		for _, v := range fields {
			return v, true
		}
	}
	return nil, false
}

// Outcome interprets the body as a success flag plus an optional message.
// Bare 1/0/-1, true/false, {"success": bool} and {"status": "success"|"error"}
// are understood. Lists and plain records count as success.
func (r Response) Outcome() (bool, string) {
	raw := bytes.TrimSpace(r.Raw)
	if len(raw) == 0 || bytes.Equal(raw, null) {
		return false, ""
	}
	switch raw[0] {
	case '[':
		return true, ""
	case '{':
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return false, ""
		}
		return env.outcome()
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return false, ""
		}
		return scalarOutcome(s), ""
	default:
		return scalarOutcome(string(raw)), ""
	}
}

// Check returns a RejectedError when Outcome is negative.
func (r Response) Check() error {
	if ok, msg := r.Outcome(); !ok {
		return &RejectedError{Action: r.Action, Message: msg}
	}
	return nil
}

// Message returns the message field of an envelope, if any.
func (r Response) Message() string {
	var env envelope
	if err := json.Unmarshal(r.Raw, &env); err != nil {
		return ""
	}
	return env.message()
}

type envelope struct {
	Success *bool           `json:"success"`
	Status  json.RawMessage `json:"status"`
	Msg     json.RawMessage `json:"message"`
	Err     json.RawMessage `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func (e envelope) message() string {
	if msg := rawText(e.Msg); msg != "" {
		return msg
	}
	return e.errText()
}

func (e envelope) errText() string {
	switch text := rawText(e.Err); text {
	case "false", "0":
		return ""
	default:
		return text
	}
}

// flagged reports whether the object is a status envelope rather than a
// plain record. Records carry their own status field, e.g. "Pending".
func (e envelope) flagged() bool {
	if e.Success != nil || e.errText() != "" {
		return true
	}
	_, known := statusFlag(rawText(e.Status))
	return known
}

func (e envelope) outcome() (bool, string) {
	if e.Success != nil {
		return *e.Success, e.message()
	}
	if ok, known := statusFlag(rawText(e.Status)); known {
		return ok, e.message()
	}
	if err := e.errText(); err != "" {
		return false, err
	}
	return true, e.message()
}

// rejection reports an explicit error envelope such as {"status":"error"}.
func (r Response) rejection() error {
	raw := bytes.TrimSpace(r.Raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil
	}
	if !env.flagged() {
		return nil
	}
	if ok, msg := env.outcome(); !ok {
		return &RejectedError{Action: r.Action, Message: msg}
	}
	return nil
}

func (r Response) unwrap() json.RawMessage {
	raw := bytes.TrimSpace(r.Raw)
	if len(raw) == 0 || raw[0] != '{' {
		return raw
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || len(env.Data) == 0 {
		return raw
	}
	return bytes.TrimSpace(env.Data)
}

func scalarOutcome(s string) bool {
	if ok, known := statusFlag(s); known {
		return ok
	}
	return false
}

func statusFlag(s string) (ok bool, known bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "true", "success", "ok":
		return true, true
	case "false", "error", "failed", "fail":
		return false, true
	case "":
		return false, false
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n > 0, true
	}
	return false, false
}

// rawText renders a JSON scalar as text; strings are unquoted.
func rawText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, null) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	if raw[0] == '{' || raw[0] == '[' {
		return ""
	}
	return string(raw)
}

func snippet(b []byte) string {
	const limit = 120
	if len(b) > limit {
		return string(b[:limit]) + "…"
	}
	return string(b)
}
