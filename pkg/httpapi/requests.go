package httpapi

// CreateSessionRequest is the HTTP request body for POST /sessions and
// POST /sessions/stream.
type CreateSessionRequest struct {
	Requirement string  `json:"requirement" binding:"required"`
	RuntimeMode string  `json:"runtime_mode,omitempty"`
	WebhookURL  *string `json:"webhook_url,omitempty"`
}

// ResumeRequest is the HTTP request body for POST /sessions/:id/resume. Its
// shape depends on which interrupt type the session is suspended at (§6
// "Interrupt payloads") so it is decoded as a free-form map and merged by
// orchestrator.Engine.Resume rather than a fixed struct.
type ResumeRequest map[string]any
