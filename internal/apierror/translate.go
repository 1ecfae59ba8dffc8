package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
)

// Envelope is the body of every error response.
type Envelope struct {
	Timestamp string `json:"timestamp"`
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Path      string `json:"path"`
}

// Translate maps any failure raised while handling the request at path onto
// exactly one Envelope. It never panics; errors outside the taxonomy are
// reported as unclassified 500s.
func Translate(err error, path string, at time.Time) Envelope {
	status, msg := classify(err)
	return Envelope{
		Timestamp: at.Format(time.RFC3339),
		Status:    status,
		Error:     reason(status),
		Message:   msg,
		Path:      path,
	}
}

func classify(err error) (int, string) {
	if err == nil {
		return http.StatusInternalServerError, "unknown error"
	}

	var e *Error
	if !errors.As(err, &e) {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return http.StatusBadRequest, renderFields(violations(verrs))
		}
		return http.StatusInternalServerError, err.Error()
	}

	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest, renderFields(e.Fields)

	case KindPersistence:
		if e.Err != nil {
			if msg := rootCause(e.Err).Error(); msg != "" {
				return http.StatusBadRequest, msg
			}
		}
		return http.StatusBadRequest, e.Error()

	case KindDownstreamClient:
		status := e.StatusCode
		if status < 400 || status > 499 {
			status = http.StatusBadRequest
		}
		return status, e.Body

	case KindDownstreamServer:
		detail := e.Body
		if detail == "" && e.Err != nil {
			detail = e.Err.Error()
		}
		return http.StatusBadGateway, DownstreamPrefix + detail

	case KindConflict:
		return http.StatusConflict, e.Error()

	case KindUnauthenticated:
		return http.StatusUnauthorized, e.Error()

	case KindNotFound:
		return http.StatusNotFound, e.Error()

	default:
		if e.Err != nil {
			return http.StatusInternalServerError, e.Err.Error()
		}
		return http.StatusInternalServerError, e.Error()
	}
}

// violations covers validator errors that escaped the validation layer,
// e.g. from gin's own binding.
func violations(verrs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[LeafField(fe.Namespace())] = fmt.Sprintf("%s failed the %s check", fe.Field(), fe.Tag())
	}
	return fields
}

func reason(status int) string {
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "Unknown Status"
}
