package api

type (
	// RunScriptRequest contains parameters for starting a script over HTTP.
	// The script name comes from the route
	RunScriptRequest struct {
		Path        string            `json:"path,omitempty"`
		ID          QueueID           `json:"id,omitempty"`
		Definitions Definitions       `json:"definitions,omitempty"`
		Context     map[string]string `json:"context,omitempty"`
		Speed       string            `json:"speed,omitempty"`
		Delay       string            `json:"delay,omitempty"`
		Instant     bool              `json:"instant,omitempty"`
		Async       bool              `json:"async,omitempty"`
	}

	// QueueStartedResponse is returned when a script start succeeds
	QueueStartedResponse struct {
		Queue QueueInfo `json:"queue"`
	}

	// QueuesListResponse contains every live queue
	QueuesListResponse struct {
		Queues []QueueInfo `json:"queues"`
		Count  int         `json:"count"`
	}

	// DeferredListResponse contains every pending deferred run
	DeferredListResponse struct {
		Deferred []DeferredInfo `json:"deferred"`
		Count    int            `json:"count"`
	}

	// HealthResponse provides service health information
	HealthResponse struct {
		Service  string `json:"service"`
		Version  string `json:"version"`
		Status   string `json:"status"`
		Queues   int    `json:"queues"`
		Deferred int    `json:"deferred"`
	}

	// MessageResponse contains a simple message string
	MessageResponse struct {
		Message string `json:"message"`
	}

	// ErrorResponse contains error details for failed requests
	ErrorResponse struct {
		Error  string `json:"error"`
		Status int    `json:"status,omitempty"`
	}
)

const HealthHealthy = "healthy"

// StartRequest converts the HTTP body into an engine start request for the
// named script
func (r *RunScriptRequest) StartRequest(script string) StartRequest {
	return StartRequest{
		Script:      ScriptRef{Script: script, Path: r.Path},
		ID:          r.ID,
		Definitions: r.Definitions,
		Context:     r.Context,
		Speed:       r.Speed,
		Delay:       r.Delay,
		Instant:     r.Instant,
		Async:       r.Async,
	}
}
