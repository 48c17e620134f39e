package sessionstore

import "time"

// Status represents the lifecycle of a capture session.
type Status string

const (
	StatusNew              Status = "new"
	StatusBaselineCaptured Status = "baseline_captured"
	StatusPostCaptured     Status = "post_captured"
	StatusVerifiedPass     Status = "verified_pass"
	StatusVerifiedFail     Status = "verified_fail"
	StatusFailed           Status = "failed"
)

var allStatuses = []Status{
	StatusNew,
	StatusBaselineCaptured,
	StatusPostCaptured,
	StatusVerifiedPass,
	StatusVerifiedFail,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Valid reports whether the status is a known lifecycle state.
func (s Status) Valid() bool {
	_, ok := statusSet[s]
	return ok
}

// Terminal reports whether a session in this status can never advance.
// Verification outcomes are terminal by contract: a failed verification is
// surfaced to a human, never retried.
func (s Status) Terminal() bool {
	switch s {
	case StatusVerifiedPass, StatusVerifiedFail, StatusFailed:
		return true
	default:
		return false
	}
}

var forwardTransitions = map[Status][]Status{
	StatusNew:              {StatusBaselineCaptured, StatusFailed},
	StatusBaselineCaptured: {StatusPostCaptured, StatusFailed},
	StatusPostCaptured:     {StatusVerifiedPass, StatusVerifiedFail, StatusFailed},
}

// CanTransition reports whether a session may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, allowed := range forwardTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Session is a capture session persisted in SQLite.
type Session struct {
	ID             string
	Query          string
	Status         Status
	FileCount      int
	BaselineDigest string
	PostDigest     string
	// Verified mirrors the verdict's Match flag; nil until verification ran.
	Verified     *bool
	ReportDir    string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
