package models

// Metadata is what the prober extracts from a source video.
type Metadata struct {
	Width    int `json:"width"`
	Height   int `json:"height"`
	Duration int `json:"duration"`
}

type SubmitInput struct {
	SourceURL string `json:"source_url" validate:"required"`
	DestURL   string `json:"dest_url" validate:"required"`
}

type SubmitResponse struct {
	ID       string    `json:"id"`
	Metadata *Metadata `json:"metadata"`
}

type JobStatus struct {
	ID           string   `json:"id"`
	State        JobState `json:"state"`
	ErrorMessage *string  `json:"error_message"`
}

type StatusResponse struct {
	Jobs []JobStatus `json:"jobs"`
}

func NewJobStatus(job *Job) JobStatus {
	status := JobStatus{
		ID:    job.ID.String(),
		State: job.State,
	}
	if job.State == JobStateError {
		msg := job.ErrorMessage
		status.ErrorMessage = &msg
	}
	return status
}

type RejectionResponse struct {
	Error       string `json:"error"`
	Description string `json:"description"`
}

type HealthResponse struct {
	Status   string  `json:"status"`
	Queued   int     `json:"queued"`
	CPUUsage float64 `json:"cpu_usage"`
}
