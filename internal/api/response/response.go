// Package response 統一的 JSON 回應格式
//
//	成功: {"status":"success","data":...}
//	4xx:  {"status":"fail","message":...,"errorCode":...,"errors":...}
//	5xx:  {"status":"error","message":...}
package response

import (
	"encoding/json"
	"net/http"

	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
	"github.com/rs/zerolog"
)

const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

type Response struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

type ErrorResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode,omitempty"`
	Errors    any    `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func SuccessJSON(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Response{Status: StatusSuccess, Data: data})
}

// ErrorJSON 依 apperr 決定 status code
// 5xx 不回傳內部細節，完整錯誤寫進 request 的 logger
func ErrorJSON(w http.ResponseWriter, r *http.Request, err error) {
	e := apperr.From(err)
	status := e.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Str("error_code", e.Code).
			Msg("request failed")
		writeJSON(w, status, ErrorResponse{Status: StatusError, Message: e.Message})
		return
	}

	res := ErrorResponse{
		Status:    StatusFail,
		Message:   e.Message,
		ErrorCode: e.Code,
	}
	switch {
	case len(e.Fields) > 0:
		res.Errors = e.Fields
	case e.Details != nil:
		res.Errors = e.Details
	}
	writeJSON(w, status, res)
}
