package constants

// OutcomeStatus is the canonical status for rows in review_outcomes.
type OutcomeStatus string

// Stable values (store these exact strings in DB).
const (
	OutcomeNoAction OutcomeStatus = "NO_ACTION" // nothing submitted, or acknowledged
	OutcomeLoading  OutcomeStatus = "LOADING"   // submit pipeline running
	OutcomeSuccess  OutcomeStatus = "SUCCESS"   // payment request created
	OutcomeError    OutcomeStatus = "ERROR"     // terminal failure
)

// IsTerminal reports whether a status ends a submit pipeline run.
func (s OutcomeStatus) IsTerminal() bool {
	return s == OutcomeSuccess || s == OutcomeError
}
