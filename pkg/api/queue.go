package api

type (
	// QueueID uniquely identifies a running script instance
	QueueID string

	// QueueState is the lifecycle state of a queue
	QueueState string

	// ScriptRef names a script container and one of its paths
	ScriptRef struct {
		Script string `json:"script" yaml:"script"`
		Path   string `json:"path,omitempty" yaml:"path,omitempty"`
	}

	// QueueInfo is a point-in-time description of a queue
	QueueInfo struct {
		ID             QueueID     `json:"id"`
		Script         ScriptRef   `json:"script"`
		State          QueueState  `json:"state"`
		Timed          bool        `json:"timed"`
		Async          bool        `json:"async"`
		Pending        int         `json:"pending"`
		Definitions    Definitions `json:"definitions"`
		Determinations []string    `json:"determinations"`
	}
)

const (
	QueueCreated   QueueState = "created"
	QueueRunning   QueueState = "running"
	QueuePaused    QueueState = "paused"
	QueueStopped   QueueState = "stopped"
	QueueCompleted QueueState = "completed"
)

// DefaultPath is the path used when a script is started without one
const DefaultPath = "script"

// IsDone reports whether the state is terminal
func (s QueueState) IsDone() bool {
	return s == QueueStopped || s == QueueCompleted
}

// WithDefaultPath returns the reference with an empty path replaced by
// DefaultPath
func (r ScriptRef) WithDefaultPath() ScriptRef {
	if r.Path == "" {
		r.Path = DefaultPath
	}
	return r
}

func (r ScriptRef) String() string {
	if r.Path == "" || r.Path == DefaultPath {
		return r.Script
	}
	return r.Script + "." + r.Path
}
