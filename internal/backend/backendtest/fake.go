// Package backendtest provides an in-memory backend.Caller for tests.
package backendtest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hotelia/frontdesk/internal/backend"
)

// Call is one recorded request.
type Call struct {
	Endpoint backend.Endpoint
	Action   string
	Payload  json.RawMessage
}

// Decode unmarshals the recorded payload into dst.
func (c Call) Decode(dst any) error {
	return json.Unmarshal(c.Payload, dst)
}

// HandlerFunc answers a request; it returns the raw body or an error.
type HandlerFunc func(payload json.RawMessage) (string, error)

// Fake answers backend actions from canned bodies.
type Fake struct {
	mu       sync.Mutex
	handlers map[string]HandlerFunc
	calls    []Call
}

// New returns an empty Fake. Unstubbed actions fail with ErrTransport.
func New() *Fake {
	return &Fake{handlers: make(map[string]HandlerFunc)}
}

// On answers action with body. Strings are sent verbatim, anything else
// is JSON encoded.
func (f *Fake) On(action string, body any) *Fake {
	raw, ok := body.(string)
	if !ok {
		data, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		raw = string(data)
	}
	return f.OnFunc(action, func(json.RawMessage) (string, error) { return raw, nil })
}

// OnFunc answers action with fn.
func (f *Fake) OnFunc(action string, fn HandlerFunc) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[action] = fn
	return f
}

// Call implements backend.Caller.
func (f *Fake) Call(ctx context.Context, ep backend.Endpoint, action string, payload any) (backend.Response, error) {
	if err := ctx.Err(); err != nil {
		return backend.Response{}, fmt.Errorf("%w: %v", backend.ErrTransport, err)
	}
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return backend.Response{}, err
		}
		raw = data
	}
	f.mu.Lock()
	f.calls = append(f.calls, Call{Endpoint: ep, Action: action, Payload: raw})
	fn := f.handlers[action]
	f.mu.Unlock()
	if fn == nil {
		return backend.Response{}, fmt.Errorf("%w: no stub for %s %s", backend.ErrTransport, ep.Script, action)
	}
	body, err := fn(raw)
	if err != nil {
		return backend.Response{}, err
	}
	return backend.Parse(action, []byte(body))
}

// Calls returns the recorded calls for action, or all calls when empty.
func (f *Fake) Calls(action string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.calls {
		if action == "" || c.Action == action {
			out = append(out, c)
		}
	}
	return out
}
