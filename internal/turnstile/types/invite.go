package types

// GuestInvite is the guest-facing view of an invite, looked up by token.
type GuestInvite struct {
	Token          string `json:"token"`
	Status         string `json:"status"`
	EventID        string `json:"eventId"`
	ConsumedAt     string `json:"consumedAt,omitempty"`     // RFC 3339, set after check-in
	ConsumedByGate string `json:"consumedByGate,omitempty"` // set after check-in
}

type InsideCountResponse struct {
	EventID     string `json:"eventId"`
	InsideCount int64  `json:"insideCount"`
}
