package v1

import "github.com/stacklok/phone-registry-server/internal/jobs"

// SyncAcceptedResponse is returned when a sync job has been started
type SyncAcceptedResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status" example:"accepted"`
}

// SyncJobListResponse lists recent sync jobs, most recent first
type SyncJobListResponse struct {
	Jobs []jobs.SyncJob `json:"jobs"`
}
