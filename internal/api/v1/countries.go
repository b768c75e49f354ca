package v1

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/stacklok/phone-registry-server/internal/api/common"
	"github.com/stacklok/phone-registry-server/internal/provider"
	"github.com/stacklok/phone-registry-server/internal/service"
)

// invalidNumberTypeMessage lists the accepted number_type values
var invalidNumberTypeMessage = "Invalid number type. Must be one of: " +
	strings.Join(provider.NumberTypeNames, ", ")

// validateOptions applies opts to a scratch target so that bad query values
// are reported as 400 before the service is called
func validateOptions(target any, opts []service.Option) error {
	for _, opt := range opts {
		if err := opt(target); err != nil {
			return err
		}
	}
	return nil
}

// optionError writes the 400 response for an option validation error
func optionError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrInvalidNumberType) {
		common.WriteErrorResponse(w, invalidNumberTypeMessage, http.StatusBadRequest)
		return
	}
	common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
}

// listCountries handles GET /api/v1/countries
func (rr *Routes) listCountries(w http.ResponseWriter, r *http.Request) {
	skip, err := common.QueryInt(r, "skip", 0)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	limit, err := common.QueryInt(r, "limit", service.DefaultPageSize)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	opts := []service.Option{
		service.WithSkip(skip),
		service.WithLimit(limit),
		service.WithNumberType(r.URL.Query().Get("number_type")),
	}
	if err := validateOptions(&service.ListCountriesOptions{}, opts); err != nil {
		optionError(w, err)
		return
	}

	countries, err := rr.service.ListCountries(r.Context(), opts...)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list countries", "error", err)
		common.WriteErrorResponse(w, "Failed to list countries", http.StatusInternalServerError)
		return
	}
	if countries == nil {
		countries = []service.Country{}
	}

	common.WriteJSONResponse(w, countries, http.StatusOK)
}

// getCountry handles GET /api/v1/countries/{country_code}
func (rr *Routes) getCountry(w http.ResponseWriter, r *http.Request) {
	code, err := common.CountryCodeParam(r)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	country, err := rr.service.GetCountry(r.Context(), code)
	if errors.Is(err, service.ErrCountryNotFound) {
		common.WriteErrorResponse(w, fmt.Sprintf("Country %s not found", code), http.StatusNotFound)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to get country", "country_code", code, "error", err)
		common.WriteErrorResponse(w, "Failed to get country", http.StatusInternalServerError)
		return
	}

	common.WriteJSONResponse(w, country, http.StatusOK)
}
