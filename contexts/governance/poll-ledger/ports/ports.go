package ports

import (
	"context"
	"time"

	contractsv1 "pollchain/contracts/gen/events/v1"

	"pollchain/contexts/governance/poll-ledger/domain/address"
	"pollchain/contexts/governance/poll-ledger/domain/entities"
)

// LedgerStore is the execution environment boundary. Every create is
// insert-if-absent against a derived address and every compound method
// commits atomically: the environment serializes transitions touching the
// same account, so the first transition ordered wins an address race and
// later ones observe ErrAccountExists.
type LedgerStore interface {
	// CreatePoll allocates the poll account at its derived address.
	// Fails with domain ErrAccountExists when the address is occupied.
	CreatePoll(ctx context.Context, poll entities.Poll) error
	GetPoll(ctx context.Context, addr address.Address) (entities.Poll, error)

	// AddCandidate allocates the candidate account and increments the owning
	// poll's candidate counter in one atomic transition. The registration
	// position is assigned from the poll's counter inside that transition
	// (any caller-supplied value is ignored), so two racing registrations can
	// never commit the same position. Returns the candidate as committed.
	AddCandidate(ctx context.Context, candidate entities.Candidate) (entities.Candidate, error)
	GetCandidate(ctx context.Context, addr address.Address) (entities.Candidate, error)
	// ListCandidates returns a poll's candidates in registration order.
	ListCandidates(ctx context.Context, poll address.Address) ([]entities.Candidate, error)

	// CastVote creates the voter receipt at its derived address and
	// increments the target candidate's vote counter; both effects commit
	// together or not at all. An occupied receipt address fails the whole
	// transition with ErrAccountExists. Returns the candidate as committed.
	CastVote(ctx context.Context, receipt entities.VoterReceipt, candidate address.Address) (entities.Candidate, error)
	// GetReceipt reports (zero, false, nil) when no receipt account exists.
	GetReceipt(ctx context.Context, addr address.Address) (entities.VoterReceipt, bool, error)
}

// Clock supplies environment time. The engine never fabricates "now".
type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

// OutboxMessage is a row ready to relay from the module outbox.
type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

// OutboxRepository models worker-side outbox polling/acknowledgement.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

// EventPublisher publishes canonical envelopes to a topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
