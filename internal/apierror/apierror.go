// Package apierror defines the failure taxonomy shared by every request path
// and the translator that renders any failure as a single error envelope.
package apierror

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind tags a failure with the category that decides its response.
type Kind int

const (
	KindUnclassified Kind = iota
	KindValidation
	KindPersistence
	KindDownstreamClient
	KindDownstreamServer
	KindConflict
	KindUnauthenticated
	KindNotFound
)

var kindNames = map[Kind]string{
	KindUnclassified:     "unclassified",
	KindValidation:       "validation",
	KindPersistence:      "persistence",
	KindDownstreamClient: "downstream_client",
	KindDownstreamServer: "downstream_server",
	KindConflict:         "conflict",
	KindUnauthenticated:  "unauthenticated",
	KindNotFound:         "not_found",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// DownstreamPrefix marks messages that describe a failure of the inference
// service rather than of the gateway itself.
const DownstreamPrefix = "Inference service error: "

// Error is a classified failure. Only the fields relevant to Kind are set.
type Error struct {
	Kind Kind

	// Message is the free-text description for domain kinds.
	Message string

	// Fields maps a leaf field name to its violation message (KindValidation).
	Fields map[string]string

	// StatusCode and Body describe the downstream response (KindDownstream*).
	StatusCode int
	Body       string

	Err error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindValidation:
		return "validation failed: " + renderFields(e.Fields)
	case KindDownstreamClient:
		return fmt.Sprintf("inference service rejected request (status %d): %s", e.StatusCode, e.Body)
	case KindDownstreamServer:
		if e.Body == "" && e.Err != nil {
			return "inference service unavailable: " + e.Err.Error()
		}
		return fmt.Sprintf("inference service failed (status %d): %s", e.StatusCode, e.Body)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation builds a field validation failure. Nested violation paths are
// reduced to their leaf field name.
func Validation(fields map[string]string) *Error {
	leaf := make(map[string]string, len(fields))
	for path, msg := range fields {
		leaf[LeafField(path)] = msg
	}
	return &Error{Kind: KindValidation, Fields: leaf}
}

// FieldViolation is a shorthand for a single-field validation failure.
func FieldViolation(field, msg string) *Error {
	return Validation(map[string]string{field: msg})
}

// Persistence wraps a write-path constraint violation raised by the store.
func Persistence(err error) *Error {
	return &Error{Kind: KindPersistence, Err: err}
}

// DownstreamClient records a 4xx answer from the inference service.
func DownstreamClient(status int, body string) *Error {
	return &Error{Kind: KindDownstreamClient, StatusCode: status, Body: body}
}

// DownstreamServer records a 5xx answer (status > 0) or an unreachable
// inference service (err != nil).
func DownstreamServer(status int, body string, err error) *Error {
	return &Error{Kind: KindDownstreamServer, StatusCode: status, Body: body, Err: err}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnclassified
}

// LeafField strips everything up to and including the last '.' of a
// violation path, e.g. "CropRequest.soil.ph" -> "ph".
func LeafField(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// renderFields renders a field map as stable text: {a: msg, b: msg}.
func renderFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(fields[k])
	}
	b.WriteByte('}')
	return b.String()
}

// rootCause returns the innermost error of err's Unwrap chain.
func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
