package v1

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/stacklok/phone-registry-server/internal/api/common"
	"github.com/stacklok/phone-registry-server/internal/export"
	"github.com/stacklok/phone-registry-server/internal/service"
)

// fetchRegulations parses the shared regulation filters and runs the query.
// It writes the error response itself and returns ok=false on failure.
func (rr *Routes) fetchRegulations(w http.ResponseWriter, r *http.Request) (string, []service.Regulation, bool) {
	code, err := common.CountryCodeParam(r)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return "", nil, false
	}

	onlyAvailable, err := common.QueryBool(r, "only_available_types", false)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return "", nil, false
	}

	opts := []service.Option{
		service.WithNumberType(r.URL.Query().Get("number_type")),
		service.WithOnlyAvailableTypes(onlyAvailable),
	}
	if err := validateOptions(&service.ListRegulationsOptions{}, opts); err != nil {
		optionError(w, err)
		return "", nil, false
	}

	regs, err := rr.service.ListRegulations(r.Context(), code, opts...)
	if errors.Is(err, service.ErrRegulationsNotFound) {
		common.WriteErrorResponse(w, fmt.Sprintf(
			"No regulations found for country %s. Sync regulations first using POST /api/v1/sync/regulations", code,
		), http.StatusNotFound)
		return "", nil, false
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list regulations", "country_code", code, "error", err)
		common.WriteErrorResponse(w, "Failed to list regulations", http.StatusInternalServerError)
		return "", nil, false
	}

	return code, regs, true
}

// listRegulations handles GET /api/v1/regulations/{country_code}
func (rr *Routes) listRegulations(w http.ResponseWriter, r *http.Request) {
	_, regs, ok := rr.fetchRegulations(w, r)
	if !ok {
		return
	}
	common.WriteJSONResponse(w, regs, http.StatusOK)
}

// exportRegulations handles GET /api/v1/regulations/{country_code}/export
func (rr *Routes) exportRegulations(w http.ResponseWriter, r *http.Request) {
	code, regs, ok := rr.fetchRegulations(w, r)
	if !ok {
		return
	}

	// Render fully before writing headers so failures still get a JSON error
	var buf bytes.Buffer
	if err := export.WriteTo(&buf, regs); err != nil {
		slog.ErrorContext(r.Context(), "Failed to render regulations workbook", "country_code", code, "error", err)
		common.WriteErrorResponse(w, "Failed to export regulations", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportFilename(code, r)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.WarnContext(r.Context(), "Failed to write regulations workbook", "country_code", code, "error", err)
	}
}

func exportFilename(code string, r *http.Request) string {
	if numberType := r.URL.Query().Get("number_type"); numberType != "" {
		return fmt.Sprintf("regulations_%s_%s.xlsx", code, numberType)
	}
	return fmt.Sprintf("regulations_%s.xlsx", code)
}
