// Package memory is the in-process execution environment. One mutex
// serializes every transition, which gives the same guarantee a host ledger
// provides: for two transitions racing on one derived address, exactly one
// observes it unoccupied.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"pollchain/contexts/governance/poll-ledger/domain/address"
	"pollchain/contexts/governance/poll-ledger/domain/entities"
	domainerrors "pollchain/contexts/governance/poll-ledger/domain/errors"
	"pollchain/contexts/governance/poll-ledger/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

type Store struct {
	mu sync.RWMutex

	polls      map[address.Address]entities.Poll
	candidates map[address.Address]entities.Candidate
	receipts   map[address.Address]entities.VoterReceipt
	outbox     map[string]outboxRecord
}

func NewStore() *Store {
	return &Store{
		polls:      make(map[address.Address]entities.Poll),
		candidates: make(map[address.Address]entities.Candidate),
		receipts:   make(map[address.Address]entities.VoterReceipt),
		outbox:     make(map[string]outboxRecord),
	}
}

func (s *Store) CreatePoll(_ context.Context, poll entities.Poll) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.polls[poll.Address]; ok {
		return domainerrors.ErrAccountExists
	}
	s.polls[poll.Address] = poll
	return nil
}

func (s *Store) GetPoll(_ context.Context, addr address.Address) (entities.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	poll, ok := s.polls[addr]
	if !ok {
		return entities.Poll{}, domainerrors.ErrAccountNotFound
	}
	return poll, nil
}

// AddCandidate assigns the registration position from the poll's counter
// under the same lock that commits the insert, so positions are unique per
// poll even for racing registrations.
func (s *Store) AddCandidate(_ context.Context, candidate entities.Candidate) (entities.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	poll, ok := s.polls[candidate.Poll]
	if !ok {
		return entities.Candidate{}, domainerrors.ErrAccountNotFound
	}
	if _, ok := s.candidates[candidate.Address]; ok {
		return entities.Candidate{}, domainerrors.ErrAccountExists
	}
	candidate.Position = poll.CandidateCount
	s.candidates[candidate.Address] = candidate
	poll.CandidateCount++
	s.polls[candidate.Poll] = poll
	return candidate, nil
}

func (s *Store) GetCandidate(_ context.Context, addr address.Address) (entities.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	candidate, ok := s.candidates[addr]
	if !ok {
		return entities.Candidate{}, domainerrors.ErrAccountNotFound
	}
	return candidate, nil
}

func (s *Store) ListCandidates(_ context.Context, poll address.Address) ([]entities.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Candidate, 0)
	for _, candidate := range s.candidates {
		if candidate.Poll == poll {
			items = append(items, candidate)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Position < items[j].Position
	})
	return items, nil
}

// CastVote holds the write lock across both effects, so receipt creation and
// the vote increment are one atomic transition.
func (s *Store) CastVote(
	_ context.Context,
	receipt entities.VoterReceipt,
	candidateAddr address.Address,
) (entities.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidate, ok := s.candidates[candidateAddr]
	if !ok {
		return entities.Candidate{}, domainerrors.ErrAccountNotFound
	}
	if _, ok := s.receipts[receipt.Address]; ok {
		return entities.Candidate{}, domainerrors.ErrAccountExists
	}
	s.receipts[receipt.Address] = receipt
	candidate.Votes++
	s.candidates[candidateAddr] = candidate
	return candidate, nil
}

func (s *Store) GetReceipt(_ context.Context, addr address.Address) (entities.VoterReceipt, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	receipt, ok := s.receipts[addr]
	if !ok {
		return entities.VoterReceipt{}, false, nil
	}
	return receipt, true, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if _, ok := s.outbox[outboxID]; ok {
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrAccountNotFound
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.LedgerStore = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
