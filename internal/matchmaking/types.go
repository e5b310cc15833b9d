package matchmaking

// AsyncRequest asks a matchmaking pass to find an opponent for one player's
// availability record. It is what the end-turn surface hands to the
// dispatcher after a successful registration.
type AsyncRequest struct {
	TurnNumber uint32
	Skey       Skey
}

// MatchStatus classifies the outcome of one transactional pair attempt.
type MatchStatus int

const (
	// StatusMatched means both availability records were deleted atomically.
	StatusMatched MatchStatus = iota
	// StatusP1ConditionFailed means the initiating player's record was
	// already gone when the transaction ran.
	StatusP1ConditionFailed
	// StatusP2ConditionFailed means the candidate's record was already gone.
	StatusP2ConditionFailed
	// StatusUnrecoverable covers every other failure, transport errors
	// included.
	StatusUnrecoverable
)

// String returns the status name for logging.
func (s MatchStatus) String() string {
	switch s {
	case StatusMatched:
		return "matched"
	case StatusP1ConditionFailed:
		return "p1_condition_failed"
	case StatusP2ConditionFailed:
		return "p2_condition_failed"
	case StatusUnrecoverable:
		return "unrecoverable"
	default:
		return "unknown"
	}
}

// MatchResult is the outcome of one pair attempt. When both records'
// conditions failed in the same transaction, the initiating player's failure
// wins: the result is StatusP1ConditionFailed, never StatusP2ConditionFailed.
type MatchResult struct {
	Status MatchStatus

	// P1 and P2 are the claimed pair, set only when Status is StatusMatched.
	P1 Skey
	P2 Skey

	// Reason preserves the store's error text, set only when Status is
	// StatusUnrecoverable.
	Reason string
}

// Matched builds the result for a successfully claimed pair.
func Matched(p1, p2 Skey) MatchResult {
	return MatchResult{Status: StatusMatched, P1: p1, P2: p2}
}

// P1ConditionFailed builds the result for an attempt that lost the initiating
// player's record to a concurrent claim.
func P1ConditionFailed() MatchResult {
	return MatchResult{Status: StatusP1ConditionFailed}
}

// P2ConditionFailed builds the result for an attempt that lost the candidate's
// record to a concurrent claim.
func P2ConditionFailed() MatchResult {
	return MatchResult{Status: StatusP2ConditionFailed}
}

// Unrecoverable builds the result for an attempt that failed outright. The
// reason keeps the store's own error text so the failure class survives into
// logs and downstream decisions.
func Unrecoverable(reason string) MatchResult {
	return MatchResult{Status: StatusUnrecoverable, Reason: reason}
}

// Decision is what a completed matchmaking pass tells the caller to do next.
type Decision int

const (
	// DecisionMatched means an opponent was claimed; simulate the pair.
	DecisionMatched Decision = iota
	// DecisionCanDrop means another pass already handled this player; there
	// is nothing left to do.
	DecisionCanDrop
	// DecisionFakeSimulate means no opponent could be claimed; simulate
	// against a synthetic opponent.
	DecisionFakeSimulate
)

// String returns the decision name for logging.
func (d Decision) String() string {
	switch d {
	case DecisionMatched:
		return "matched"
	case DecisionCanDrop:
		return "can_drop"
	case DecisionFakeSimulate:
		return "fake_simulate"
	default:
		return "unknown"
	}
}

// Result is the outcome of one matchmaking pass.
type Result struct {
	Decision Decision

	// Opponent is the claimed candidate, set only when Decision is
	// DecisionMatched.
	Opponent Skey

	// Degraded distinguishes a fake simulation forced by a store failure
	// from one caused by an empty candidate pool. Reason carries the
	// preserved failure text when Degraded is true.
	Degraded bool
	Reason   string
}
