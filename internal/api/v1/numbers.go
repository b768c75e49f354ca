package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/stacklok/phone-registry-server/internal/api/common"
	"github.com/stacklok/phone-registry-server/internal/httpclient"
	"github.com/stacklok/phone-registry-server/internal/provider"
	"github.com/stacklok/phone-registry-server/internal/validators"
)

// searchNumbers handles POST /api/v1/numbers/search
func (rr *Routes) searchNumbers(w http.ResponseWriter, r *http.Request) {
	var req provider.SearchRequest
	if err := decodeJSON(r, &req); err != nil {
		common.WriteErrorResponse(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	code, err := validators.ValidateCountryCode(req.CountryCode)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	req.CountryCode = code
	if _, err := provider.SearchPathType(req.NumberType); err != nil {
		common.WriteErrorResponse(w, provider.ErrInvalidSearchType.Error(), http.StatusBadRequest)
		return
	}

	if rr.provider == nil {
		common.WriteErrorResponse(w, credentialsMessage, http.StatusInternalServerError)
		return
	}

	numbers, err := rr.provider.SearchAvailableNumbers(r.Context(), req)
	if err != nil {
		status := searchErrorStatus(err)
		slog.WarnContext(r.Context(), "Number search failed",
			"country_code", req.CountryCode,
			"number_type", req.NumberType,
			"status", status,
			"error", err)
		common.WriteErrorResponse(w, searchErrorMessage(status, err), status)
		return
	}
	if numbers == nil {
		numbers = []provider.AvailableNumber{}
	}

	common.WriteJSONResponse(w, numbers, http.StatusOK)
}

// searchErrorStatus maps adapter faults onto HTTP statuses
func searchErrorStatus(err error) int {
	switch {
	case errors.Is(err, provider.ErrInvalidSearchType), httpclient.IsPermanent(err):
		return http.StatusBadRequest
	case httpclient.IsRateLimited(err):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func searchErrorMessage(status int, err error) string {
	switch status {
	case http.StatusBadRequest:
		return "Search failed: " + err.Error()
	case http.StatusTooManyRequests:
		return "Rate limited by Twilio, try again later"
	default:
		return "Internal server error: " + err.Error()
	}
}
