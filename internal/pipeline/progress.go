package pipeline

// Progress steps, in the order a successful run emits them.
const (
	StepCompiled    = "compiled"
	StepSearching   = "searching"
	StepDestination = "destination"
	StepAggregated  = "aggregated"
	StepComplete    = "complete"
)

// ProgressEvent represents a progress update during a run
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

func emit(cb ProgressCallback, step, message string, content any) {
	if cb != nil {
		cb(ProgressEvent{Step: step, Message: message, Content: content})
	}
}
