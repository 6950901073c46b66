package entities

import "pollchain/contexts/governance/poll-ledger/domain/address"

// Field caps carried over from the fixed account space of the on-chain
// layout this ledger mirrors.
const (
	MaxQuestionLen    = 200
	MaxDescriptionLen = 280
	MaxCandidateName  = 50
	MaxPartyLen       = 30
)

type PollStatus string

const (
	PollStatusUpcoming  PollStatus = "upcoming"
	PollStatusActive    PollStatus = "active"
	PollStatusCompleted PollStatus = "completed"
)

// Poll is the root account of a ballot. Created exactly once at its derived
// address; only CandidateCount mutates afterwards.
type Poll struct {
	Address        address.Address
	PollID         uint64
	Creator        string
	Question       string
	Description    string
	StartTime      int64
	EndTime        int64
	CandidateCount uint64
}

// ActiveAt reports whether votes are accepted at the given Unix time.
// Both window bounds are inclusive.
func (p Poll) ActiveAt(now int64) bool {
	return now >= p.StartTime && now <= p.EndTime
}

// StatusAt classifies the poll lifecycle relative to the given Unix time.
func (p Poll) StatusAt(now int64) PollStatus {
	switch {
	case now < p.StartTime:
		return PollStatusUpcoming
	case now > p.EndTime:
		return PollStatusCompleted
	default:
		return PollStatusActive
	}
}

// Candidate is a ballot option. Position is the poll's candidate count at
// registration time, assigned by the execution environment inside the
// registration transition, and orders candidates deterministically; Votes is
// the only field that mutates after creation.
type Candidate struct {
	Address  address.Address
	Poll     address.Address
	PollID   uint64
	Name     string
	Party    string
	Position uint64
	Votes    uint64
}

// VoterReceipt marks that a voter has cast a ballot in a poll. Its existence
// at the derived (poll, voter) address is itself the double-vote guard; it is
// never mutated or deleted.
type VoterReceipt struct {
	Address  address.Address
	Poll     address.Address
	PollID   uint64
	Voter    string
	HasVoted bool
}

// CandidateResult pairs a candidate with its share of the total vote.
type CandidateResult struct {
	Candidate  Candidate
	Percentage float64
}

// PollResults is the aggregated read model for a poll: candidates in
// registration order, vote totals, lifecycle status, and the current leader
// (nil when the poll has no candidates).
type PollResults struct {
	Poll       Poll
	Status     PollStatus
	TotalVotes uint64
	Candidates []CandidateResult
	Leader     *CandidateResult
}
