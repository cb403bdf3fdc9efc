package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/partyledger/internal/adapter/http/dto"
	"github.com/iho/partyledger/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError maps err to a status and writes it. Validation errors
// carry the offending field; unexpected errors are logged and their text is
// not leaked to the client.
func writeDomainError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := mapDomainError(err)

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, status, dto.ErrorResponse{
			Error:   message,
			Message: verr.Error(),
			Field:   verr.Field,
		})
		return
	}

	if status == http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg(message)
		writeError(w, status, message, "")
		return
	}

	writeError(w, status, message, err.Error())
}

// decodeBody decodes the JSON request body into v. When decoding fails on
// one of moneyFields, the error is a ValidationError naming that field.
func decodeBody(r *http.Request, v any, moneyFields ...string) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}

	decodeErr := json.Unmarshal(body, v)
	if decodeErr == nil {
		return nil
	}

	var fields map[string]json.RawMessage
	if json.Unmarshal(body, &fields) != nil {
		return decodeErr
	}
	for _, name := range moneyFields {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		var amount decimal.Decimal
		if err := amount.UnmarshalJSON(raw); err != nil {
			return domain.NewValidationError(name, "expected a decimal number", domain.ErrInvalidAmount)
		}
	}
	return decodeErr
}

// writeDecodeError reports a request body that could not be decoded.
func writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeDomainError(w, r, "invalid request body", err)
		return
	}
	writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	var verr *domain.ValidationError

	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrPartyNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrCompanyForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidCompany),
		errors.Is(err, domain.ErrInvalidWindow),
		errors.Is(err, domain.ErrInvalidPartyType),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrUnknownTransactionType):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// parseDateQuery parses an optional YYYY-MM-DD query parameter.
func parseDateQuery(r *http.Request, key string) (*time.Time, error) {
	val := strings.TrimSpace(r.URL.Query().Get(key))
	if val == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(val)
	if err != nil {
		return nil, domain.NewValidationError(key, "expected YYYY-MM-DD", domain.ErrInvalidWindow)
	}
	return &d, nil
}

// parsePartyFilter reads type, status, limit and offset from the query.
func parsePartyFilter(r *http.Request) (domain.PartyFilter, error) {
	q := r.URL.Query()

	filter := domain.PartyFilter{
		Type:   domain.PartyType(q.Get("type")),
		Status: domain.PartyStatus(q.Get("status")),
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return filter, domain.NewValidationError("type", "expected customer or supplier", domain.ErrInvalidPartyType)
	}
	switch filter.Status {
	case "", domain.PartyStatusActive, domain.PartyStatusInactive:
	default:
		return filter, domain.NewValidationError("status", "expected active or inactive", domain.ErrInvalidStatus)
	}

	return filter, nil
}
