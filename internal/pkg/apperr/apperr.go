package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 錯誤分類，決定 API 回應的 status code 與是否可以重試
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindBusiness
	KindUnauthorized
	KindForbidden
	KindExternal
	KindTooManyRequests
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindBusiness:
		return "business"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindExternal:
		return "external"
	case KindTooManyRequests:
		return "too_many_requests"
	default:
		return "internal"
	}
}

// Error 帶有機器可讀 Code 的錯誤
// 呼叫端用 errors.Is(err, apperr.ErrXXX) 判斷，比對的是 Code 而不是字串內容
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Status  int
	// 欄位錯誤 ex: {"quantity": "must be at least 1"}
	Fields  map[string]string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func (e *Error) clone() *Error {
	c := *e
	return &c
}

// WithDetails 回傳附帶 details 的副本，不會修改 sentinel
func (e *Error) WithDetails(details any) *Error {
	c := e.clone()
	c.Details = details
	return c
}

// WithMessage 回傳替換訊息的副本
func (e *Error) WithMessage(format string, args ...any) *Error {
	c := e.clone()
	c.Message = fmt.Sprintf(format, args...)
	return c
}

// Wrap 回傳包住底層錯誤的副本
func (e *Error) Wrap(err error) *Error {
	c := e.clone()
	c.Err = err
	return c
}

func New(kind Kind, status int, code, message string) *Error {
	return &Error{Kind: kind, Status: status, Code: code, Message: message}
}

func Validation(code, message string, fields map[string]string) *Error {
	e := New(KindValidation, http.StatusBadRequest, code, message)
	e.Fields = fields
	return e
}

func NotFound(code, message string) *Error {
	return New(KindNotFound, http.StatusNotFound, code, message)
}

func Business(code, message string) *Error {
	return New(KindBusiness, http.StatusBadRequest, code, message)
}

func Forbidden(code, message string) *Error {
	return New(KindForbidden, http.StatusForbidden, code, message)
}

func Unauthorized(code, message string) *Error {
	return New(KindUnauthorized, http.StatusUnauthorized, code, message)
}

func External(code, message string, err error) *Error {
	e := New(KindExternal, http.StatusBadGateway, code, message)
	e.Err = err
	return e
}

func Internal(err error) *Error {
	e := New(KindInternal, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	e.Err = err
	return e
}

// From 將任意錯誤轉成 *Error，未分類的錯誤一律視為 internal
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// HasCode 判斷錯誤鏈中是否有指定 code
func HasCode(err error, code string) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
