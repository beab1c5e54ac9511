package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rl1809/store-inventory/internal/apperr"
	"github.com/rl1809/store-inventory/internal/logger"
)

// Response is the structured result of one handled request.
type Response struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func jsonResponse(status int, v any) Response {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorBody{Error: "Internal server error", Details: err.Error()})
	}
	return Response{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}

func errorResponse(err error) Response {
	typed := apperr.From(err)
	return jsonResponse(typed.HTTPStatus(), errorBody{
		Error:   typed.Message(),
		Details: typed.Details(),
	})
}

func badRequest(message, details string) Response {
	return errorResponse(apperr.New(apperr.CodeInvalidInput, message).WithDetails(details))
}

// failure converts err to a response and logs it when it is a server-side
// failure, with any SQL driver diagnostics attached.
func failure(ctx context.Context, logg *logger.Logger, msg string, err error) Response {
	resp := errorResponse(err)
	if resp.StatusCode < http.StatusInternalServerError {
		return resp
	}

	d := apperr.Dump(err)
	fields := map[string]any{"code": string(d.Code), "chain": d.Chain}
	if apperr.IsDriverError(err) {
		fields["db_code"] = d.DBCode
		fields["db_message"] = d.DBMessage
		fields["db_table"] = d.DBTable
		fields["db_constraint"] = d.DBConstraint
		fields["db_detail"] = d.DBDetail
	}
	logg.Error(logg.WithFields(ctx, fields), msg, err)
	return resp
}

// actionLabel keeps the metric label set to the actions a handler serves;
// anything else is counted as "unknown".
func actionLabel(known map[string]bool, action string) string {
	if known[action] {
		return action
	}
	return "unknown"
}
