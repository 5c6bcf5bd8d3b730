package types

type CheckinRequest struct {
	Code     string `json:"code"`
	Gate     string `json:"gate"`
	PassType string `json:"passType,omitempty"`
}

type CheckinResult struct {
	Token       string `json:"token"`
	Duplicate   bool   `json:"duplicate"`
	InsideCount int64  `json:"insideCount"`
	InviteID    string `json:"inviteId"`
	EventID     string `json:"eventId"`
}

// SyncRequest is an ordered batch of presentations collected by a gate
// device while offline.
type SyncRequest struct {
	Entries []CheckinRequest `json:"entries"`
}

// SyncOutcome is one position of a batch result, aligned with the input
// entry at the same index.  Exactly one of CheckinResult or the error
// pair is set.
type SyncOutcome struct {
	*CheckinResult
	Error     string `json:"error,omitempty"`
	CodeTried string `json:"codeTried,omitempty"`
}
