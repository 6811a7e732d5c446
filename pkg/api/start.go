package api

type (
	// StartRequest describes a script start, whether it comes from the run
	// command, a fired deferred record, or the admin API
	StartRequest struct {
		Script      ScriptRef         `json:"script"`
		ID          QueueID           `json:"id,omitempty"`
		Definitions Definitions       `json:"definitions,omitempty"`
		Context     map[string]string `json:"context,omitempty"`
		Speed       string            `json:"speed,omitempty"`
		Delay       string            `json:"delay,omitempty"`
		Instant     bool              `json:"instant,omitempty"`
		Async       bool              `json:"async,omitempty"`
	}

	// DeferredInfo describes a pending deferred run
	DeferredInfo struct {
		ID          string            `json:"id"`
		At          int64             `json:"at"`
		Tier        string            `json:"tier"`
		Script      ScriptRef         `json:"script"`
		Definitions Definitions       `json:"definitions,omitempty"`
		Context     map[string]string `json:"context,omitempty"`
	}
)
