package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/stacklok/phone-registry-server/internal/api/common"
	"github.com/stacklok/phone-registry-server/internal/jobs"
	"github.com/stacklok/phone-registry-server/internal/sync/coordinator"
)

const (
	defaultJobListLimit = 10
	maxJobListLimit     = 100
)

// triggerSync handles POST /api/v1/sync and POST /api/v1/sync/regulations.
// The job runs in the background; the response only carries its id.
func (rr *Routes) triggerSync(kind jobs.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rr.coordinator == nil {
			common.WriteErrorResponse(w, credentialsMessage, http.StatusInternalServerError)
			return
		}

		job, err := rr.coordinator.Trigger(r.Context(), kind)
		if err != nil {
			slog.ErrorContext(r.Context(), "Failed to trigger sync", "kind", kind, "error", err)
			status := http.StatusInternalServerError
			if errors.Is(err, coordinator.ErrStopped) {
				status = http.StatusServiceUnavailable
			}
			common.WriteErrorResponse(w, "Failed to start sync: "+err.Error(), status)
			return
		}

		slog.InfoContext(r.Context(), "Sync accepted", "job_id", job.ID, "kind", kind)
		common.WriteJSONResponse(w, SyncAcceptedResponse{
			JobID:  job.ID,
			Status: "accepted",
		}, http.StatusAccepted)
	}
}

// listSyncJobs handles GET /api/v1/sync
func (rr *Routes) listSyncJobs(w http.ResponseWriter, r *http.Request) {
	limit, err := common.QueryInt(r, "limit", defaultJobListLimit)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	if limit < 1 || limit > maxJobListLimit {
		common.WriteErrorResponse(w, "limit must be between 1 and 100", http.StatusBadRequest)
		return
	}

	list, err := rr.tracker.List(r.Context(), limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list sync jobs", "error", err)
		common.WriteErrorResponse(w, "Failed to list sync jobs", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []jobs.SyncJob{}
	}

	common.WriteJSONResponse(w, SyncJobListResponse{Jobs: list}, http.StatusOK)
}

// getSyncJob handles GET /api/v1/sync/{job_id}
func (rr *Routes) getSyncJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := common.JobIDParam(r)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	job, err := rr.tracker.Get(r.Context(), jobID)
	if errors.Is(err, jobs.ErrJobNotFound) {
		common.WriteErrorResponse(w, "Job not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to get sync job", "job_id", jobID, "error", err)
		common.WriteErrorResponse(w, "Failed to get sync job", http.StatusInternalServerError)
		return
	}

	common.WriteJSONResponse(w, job, http.StatusOK)
}
