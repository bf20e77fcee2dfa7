package domain

// Command represents a side-effect request emitted by a saga while applying
// an event. Commands are forwarded to a dispatcher; they are never executed
// by the reactor itself.
type Command struct {
	// SagaID identifies the saga that produced the command.
	SagaID string `json:"sagaId"`

	// SagaVersion is the saga's version at the moment the command was
	// enqueued, i.e. before the version increment for the event being
	// applied. It correlates the command with the exact causal event ordinal.
	SagaVersion uint64 `json:"sagaVersion"`

	// Type identifies the kind of command (e.g. "payment.charge").
	Type string `json:"type"`

	// Payload holds command-specific data.
	Payload any `json:"payload,omitempty"`

	// Context is copied verbatim from the event that produced the command.
	Context any `json:"context,omitempty"`
}
