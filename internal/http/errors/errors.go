package errors

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// errorResponse es el envelope de error:
//
//	{"status":"error","message":"...","code":429,"errors":{...},"retry_after":900}
type errorResponse struct {
	Status     string         `json:"status"`
	Message    string         `json:"message"`
	Code       int            `json:"code"`
	Errors     map[string]any `json:"errors,omitempty"`
	RetryAfter int64          `json:"retry_after,omitempty"`
}

// WriteError escribe err como JSON. Cualquier error que no sea *AppError se
// responde como 500 sin exponer la causa.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	resp := errorResponse{
		Status:     "error",
		Message:    appErr.Message,
		Code:       appErr.HTTPStatus,
		RetryAfter: appErr.RetryAfter,
	}
	if len(appErr.Fields) > 0 || appErr.Detail != "" {
		resp.Errors = make(map[string]any, len(appErr.Fields)+1)
		for k, v := range appErr.Fields {
			resp.Errors[k] = v
		}
		if appErr.Detail != "" {
			resp.Errors["detail"] = appErr.Detail
		}
	}

	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	if appErr.RetryAfter > 0 && h.Get("Retry-After") == "" {
		h.Set("Retry-After", strconv.FormatInt(appErr.RetryAfter, 10))
	}
	w.WriteHeader(appErr.HTTPStatus)

	_ = json.NewEncoder(w).Encode(resp)
}
