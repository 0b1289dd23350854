package model

// Status is the outcome of a pipeline run.
type Status string

// Pipeline outcome statuses.
const (
	StatusPending Status = "PENDING"
	StatusPass    Status = "PASS"
	StatusFail    Status = "FAIL"
	StatusChat    Status = "CHAT"
)

// PipelineState is the mutable record threaded through the state machine.
// It is created per incoming request, mutated node by node, and discarded
// once a terminal state is reached; it is never persisted across requests
// except via the seen-ticker ledger side effect.
type PipelineState struct {
	Region     string
	Ticker     string
	Name       string
	Status     Status
	Reason     string
	Report     string
	RetryCount int
	Manual     bool // true when the ticker was supplied by the user

	// Candidate holds the validated candidate's attribute bag, nil until
	// the gatekeeper has fetched it.
	Candidate *Candidate
	// Metrics holds the advisory valuation, nil until validation ran to
	// completion.
	Metrics *Metrics
	// Backups queues ranked runners-up from the last discovery pass so a
	// rejected top pick does not force a full rediscovery.
	Backups []ScoredCandidate
}
