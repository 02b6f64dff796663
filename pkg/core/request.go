package core

import (
	"maps"
	"net/http"
)

// Params is a flat parameter set sent as query parameters and fed to the signer.
// A nil value marks the key as absent.
type Params map[string]any

// Clone returns a shallow copy of the parameter set.
// A nil receiver yields an empty, non-nil set.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	maps.Copy(out, p)
	return out
}

// Without returns a copy of the parameter set with the given keys removed.
func (p Params) Without(keys ...string) Params {
	out := p.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// Request describes a single outbound HTTP call.
type Request struct {
	Method    string            `json:"method"`
	Path      string            `json:"path"`
	Query     Params            `json:"query,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
	Operation Operation         `json:"operation"`
	RequestID string            `json:"request_id,omitempty"`
}

func NewRequest(method, path string) *Request {
	return &Request{
		Method:  method,
		Path:    path,
		Query:   make(Params),
		Headers: make(map[string]string),
	}
}

// NewGetRequest builds a GET request for the endpoint of the given operation.
func NewGetRequest(op Operation) *Request {
	req := NewRequest(http.MethodGet, op.Path())
	req.Operation = op
	return req
}

func (r *Request) SetHeader(key, value string) *Request {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
	return r
}

func (r *Request) SetRequestID(id string) *Request {
	r.RequestID = id
	return r.SetHeader(HeaderRequestID, id)
}

func (r *Request) SetQueryParams(params Params) *Request {
	if r.Query == nil {
		r.Query = make(Params)
	}
	maps.Copy(r.Query, params)
	return r
}

// HeaderRequestID carries the per-call correlation id.
const HeaderRequestID = "X-Request-Id"
