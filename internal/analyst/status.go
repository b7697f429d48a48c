package analyst

// Status is the lifecycle phase of the current analysis cycle. A cycle is
// created per submission and replaced by the next one; it is never
// persisted.
type Status int

const (
	StatusIdle Status = iota
	StatusAdmitting
	StatusFetchingPrimary
	StatusFetchingSecondary
	StatusComplete
	StatusFailed
)

var statusNames = [...]string{
	StatusIdle:              "idle",
	StatusAdmitting:         "admitting",
	StatusFetchingPrimary:   "fetching-primary",
	StatusFetchingSecondary: "fetching-secondary",
	StatusComplete:          "complete",
	StatusFailed:            "failed",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}
