package handler

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"
)

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type listResponse[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// money renders an amount as a JSON number with two decimals.
func money(value decimal.Decimal) float64 {
	return value.Round(2).InexactFloat64()
}

// parseMoney accepts a JSON number and rejects more than two decimals.
func parseMoney(value json.Number) (decimal.Decimal, bool) {
	amount, err := decimal.NewFromString(value.String())
	if err != nil {
		return decimal.Zero, false
	}
	if !amount.Equal(amount.Round(2)) {
		return decimal.Zero, false
	}
	return amount, true
}
