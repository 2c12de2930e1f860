package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/render"

	"github.com/rustyeddy/volstat/dataset"
	"github.com/rustyeddy/volstat/market"
	"github.com/rustyeddy/volstat/volatility"
)

// Error codes returned in ErrResponse.Code.
const (
	CodeInvalidParam  = "invalid_parameter"
	CodeUnknownSymbol = "unknown_symbol"
	CodeNoData        = "no_data"
	CodeInternal      = "internal"
)

// ErrResponse implements the render.Renderer interface for API errors
type ErrResponse struct {
	Err            error `json:"-"`
	HTTPStatusCode int   `json:"-"`

	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func errInvalid(err error) *ErrResponse {
	return &ErrResponse{Err: err, HTTPStatusCode: http.StatusBadRequest, Code: CodeInvalidParam, Message: err.Error()}
}

// errFor maps domain errors to responses.
func errFor(err error) *ErrResponse {
	var numErr *strconv.NumError
	switch {
	case errors.Is(err, dataset.ErrUnknownSymbol):
		return &ErrResponse{Err: err, HTTPStatusCode: http.StatusNotFound, Code: CodeUnknownSymbol, Message: err.Error()}
	case errors.Is(err, volatility.ErrInvalidMethod),
		errors.Is(err, volatility.ErrInvalidTimeframe),
		errors.Is(err, volatility.ErrInvalidPolicy),
		errors.Is(err, volatility.ErrInvalidQuantile),
		errors.Is(err, market.ErrYearRange),
		errors.As(err, &numErr):
		return errInvalid(err)
	case errors.Is(err, volatility.ErrNoData),
		errors.Is(err, volatility.ErrUndefinedVolatility),
		errors.Is(err, market.ErrEmpty),
		errors.Is(err, market.ErrNonPositive),
		errors.Is(err, market.ErrNonFinite):
		return &ErrResponse{Err: err, HTTPStatusCode: http.StatusUnprocessableEntity, Code: CodeNoData, Message: err.Error()}
	default:
		return &ErrResponse{Err: err, HTTPStatusCode: http.StatusInternalServerError, Code: CodeInternal, Message: "internal error"}
	}
}
