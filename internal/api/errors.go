package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/JustinArce/MicroservicioPedidos/internal/domain/order"
	"github.com/JustinArce/MicroservicioPedidos/internal/domain/summary"
	"github.com/JustinArce/MicroservicioPedidos/internal/eventstore"
)

// Error codes surfaced to clients. Conflicts and invalid states share an
// HTTP status but keep distinct codes so callers can tell "retry the
// command" from "the command is illegal".
const (
	codeValidation       = "VALIDATION_ERROR"
	codeInvalidState     = "INVALID_STATE"
	codeEmptyOrder       = "EMPTY_ORDER"
	codeAlreadyExists    = "ALREADY_EXISTS"
	codeConflict         = "CONCURRENCY_CONFLICT"
	codeNotFound         = "NOT_FOUND"
	codeStoreUnavailable = "STORE_UNAVAILABLE"
)

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)

	var body errorBody
	body.Error.Code = code
	body.Error.Message = err.Error()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func classify(err error) (int, string) {
	switch {
	case order.IsValidation(err):
		return http.StatusBadRequest, codeValidation
	case errors.Is(err, order.ErrEmptyOrder):
		return http.StatusConflict, codeEmptyOrder
	case errors.Is(err, order.ErrAlreadyExists):
		return http.StatusConflict, codeAlreadyExists
	case order.IsInvalidState(err):
		return http.StatusConflict, codeInvalidState
	case errors.Is(err, eventstore.ErrConflict):
		return http.StatusConflict, codeConflict
	case errors.Is(err, eventstore.ErrNotFound), errors.Is(err, summary.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	default:
		// durability layer unreachable or an unexpected failure; nothing
		// was committed unless the response said so
		return http.StatusServiceUnavailable, codeStoreUnavailable
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
