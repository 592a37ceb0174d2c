// internal/errors/errors.go
package appErrors

import (
    "errors"
    "fmt"
    "net/http"
)

// ErrNotFound is returned when a referenced campaign or template does not exist.
type ErrNotFound struct {
    Entity string
    Key    string
}

func (e *ErrNotFound) Error() string {
    return fmt.Sprintf("%s %s not found", e.Entity, e.Key)
}

// NewCampaignNotFound keeps the old constructor name used across repositories.
func NewCampaignNotFound(id int) error {
    return &ErrNotFound{Entity: "campaign", Key: fmt.Sprintf("%d", id)}
}

func NewTemplateNotFound(name string) error {
    return &ErrNotFound{Entity: "template", Key: name}
}

// ErrValidation marks a request that was rejected before any side effect.
type ErrValidation struct {
    Message string
}

func (e *ErrValidation) Error() string {
    return e.Message
}

func NewValidation(format string, args ...any) error {
    return &ErrValidation{Message: fmt.Sprintf(format, args...)}
}

// ErrUpstream carries a non-2xx answer from the messaging provider verbatim.
type ErrUpstream struct {
    StatusCode int
    Body       []byte
}

func (e *ErrUpstream) Error() string {
    return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, string(e.Body))
}

// StatusCode maps an error to the HTTP status the API reports for it.
func StatusCode(err error) int {
    var nf *ErrNotFound
    var ve *ErrValidation
    var ue *ErrUpstream
    switch {
    case err == nil:
        return http.StatusOK
    case errors.As(err, &nf):
        return http.StatusNotFound
    case errors.As(err, &ve):
        return http.StatusBadRequest
    case errors.As(err, &ue):
        if ue.StatusCode < 400 {
            return http.StatusBadGateway
        }
        return ue.StatusCode
    default:
        return http.StatusInternalServerError
    }
}
