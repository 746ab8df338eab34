package httperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ===============================
// Error taxonomy
// ===============================

type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindValidation          Kind = "validation"
	KindUpstreamFailure     Kind = "upstream_failure"
	KindPersistenceConflict Kind = "persistence_conflict"
)

type Error struct {
	Kind Kind
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Code
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is permite errors.Is(err, &Error{Kind: ...}) comparando apenas o kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Code == "" || t.Code == e.Code)
}

func NotFoundf(code string, format string, args ...any) error {
	return &Error{Kind: KindNotFound, Code: code, Err: fmt.Errorf(format, args...)}
}

func Validationf(code string, format string, args ...any) error {
	return &Error{Kind: KindValidation, Code: code, Err: fmt.Errorf(format, args...)}
}

func Upstream(code string, err error) error {
	return &Error{Kind: KindUpstreamFailure, Code: code, Err: err}
}

func Conflict(code string, err error) error {
	return &Error{Kind: KindPersistenceConflict, Code: code, Err: err}
}

// KindOf devolve o kind do primeiro *Error na cadeia, ou "" se não houver.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// CodeOf devolve o código do primeiro *Error da cadeia.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func StatusFor(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindUpstreamFailure:
		return http.StatusBadGateway
	case KindPersistenceConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// FromError escreve a resposta padrão {error_code, message} para o erro.
func FromError(c *gin.Context, err error, message string) {
	code := CodeOf(err)
	if code == "" {
		code = "internal_error"
	}
	Write(c, StatusFor(err), code, message)
}
