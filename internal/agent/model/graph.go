package model

// ChatState stores per-invocation state for the Eino graph.
// Concurrency model:
//   - This struct is registered as Graph Local State via compose.WithGenLocalState.
//   - All reads/writes happen only inside Eino state handlers:
//     WithStatePreHandler, WithStatePostHandler, or compose.ProcessState.
//   - Eino serializes access to state within these handlers, so no additional
//     mutex/atomic is required as long as you never touch it outside handlers.
type ChatState struct {
	RequestID       string
	UserID          string
	CrisisTriggered bool   // set by the gate post-handler
	StressLevel     int    // set by the empathy responder once triage finished
	RepliedModel    string // model that produced the primary reply, if any
	Attempts        int    // backend attempts the primary dispatch consumed
}

// IncomingMessage is one inbound user turn, as handed over by the transport.
type IncomingMessage struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

// ScreenedMessage is an inbound turn after the crisis gate ran.
type ScreenedMessage struct {
	UserID string
	Text   string
	Crisis bool
}

// Suggestion is an optional follow-up action attached to a reply. The
// transport renders it as an inline URL button.
type Suggestion struct {
	Label string
	URL   string
}

// OutboundReply is the assembled result handed back to the transport.
type OutboundReply struct {
	Text       string
	Suggestion *Suggestion
	Markdown   bool
}
