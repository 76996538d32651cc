// Package errors converts api errors into admin HTTP responses.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"tcpquiz-backend/api"
)

var errorCodeHTTPStatusCode = map[api.AdminErrorCode]int{
	api.InvalidTokenCode:        http.StatusForbidden,
	api.UnauthorizedCode:        http.StatusUnauthorized,
	api.GameStateCode:           http.StatusConflict,
	api.InternalServerErrorCode: http.StatusInternalServerError,
}

// WriteHTTPError logs err and writes it as a JSON admin error with
// the status code mapped from its error code.
func WriteHTTPError(ctx context.Context, w http.ResponseWriter, err error) {
	res := api.ErrorData{
		Code:    api.InternalServerErrorCode,
		Message: "unexpected error",
	}
	statusCode := http.StatusInternalServerError

	apiErr := api.ErrorData{}
	if errors.As(err, &apiErr) {
		res = apiErr
		if code, ok := errorCodeHTTPStatusCode[apiErr.Code]; ok {
			statusCode = code
		}
	}

	slog.ErrorContext(ctx, "http error",
		slog.Any("error", err),
		slog.Any("error_code", res.Code),
		slog.Int("status_code", statusCode))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.ErrorContext(ctx, "http error: failed to encode response", slog.Any("error", err))
	}
}

func InvalidTokenError(err error) api.ErrorData {
	return api.ErrorData{
		Code:    api.InvalidTokenCode,
		Message: "invalid token",
		Err:     err,
	}
}

func UnauthorizedError(cause string) api.ErrorData {
	return api.ErrorData{
		Code:    api.UnauthorizedCode,
		Message: "unauthorized",
		Extra: struct {
			Cause string `json:"cause"`
		}{
			Cause: cause,
		},
	}
}

func GameStateError(err error) api.ErrorData {
	return api.ErrorData{
		Code:    api.GameStateCode,
		Message: "invalid game state",
		Extra: struct {
			Cause string `json:"cause"`
		}{
			Cause: err.Error(),
		},
		Err: err,
	}
}

func InternalServerError(err error) api.ErrorData {
	return api.ErrorData{
		Code:    api.InternalServerErrorCode,
		Message: "internal server error",
		Err:     err,
	}
}
