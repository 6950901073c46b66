package postgresadapter

import (
	"encoding/json"
	"time"

	"pollchain/contexts/governance/poll-ledger/domain/address"
	"pollchain/contexts/governance/poll-ledger/domain/entities"
)

// Poll IDs are caller-chosen uint64 values; they are stored bit-cast as
// int64 so ids at or above 2^63 fit the BIGINT column.
type pollModel struct {
	Address        string `gorm:"column:address;primaryKey"`
	PollID         int64  `gorm:"column:poll_id;uniqueIndex"`
	Creator        string `gorm:"column:creator"`
	Question       string `gorm:"column:question"`
	Description    string `gorm:"column:description"`
	StartTime      int64  `gorm:"column:start_time"`
	EndTime        int64  `gorm:"column:end_time"`
	CandidateCount uint64 `gorm:"column:candidate_count"`
}

func (pollModel) TableName() string {
	return "polls"
}

func pollModelFromEntity(poll entities.Poll) pollModel {
	return pollModel{
		Address:        poll.Address.String(),
		PollID:         int64(poll.PollID),
		Creator:        poll.Creator,
		Question:       poll.Question,
		Description:    poll.Description,
		StartTime:      poll.StartTime,
		EndTime:        poll.EndTime,
		CandidateCount: poll.CandidateCount,
	}
}

func (m pollModel) toEntity() (entities.Poll, error) {
	addr, err := address.Parse(m.Address)
	if err != nil {
		return entities.Poll{}, err
	}
	return entities.Poll{
		Address:        addr,
		PollID:         uint64(m.PollID),
		Creator:        m.Creator,
		Question:       m.Question,
		Description:    m.Description,
		StartTime:      m.StartTime,
		EndTime:        m.EndTime,
		CandidateCount: m.CandidateCount,
	}, nil
}

type candidateModel struct {
	Address     string `gorm:"column:address;primaryKey"`
	PollAddress string `gorm:"column:poll_address;index;uniqueIndex:idx_candidates_poll_position"`
	PollID      int64  `gorm:"column:poll_id"`
	Name        string `gorm:"column:name"`
	Party       string `gorm:"column:party"`
	Position    uint64 `gorm:"column:position;uniqueIndex:idx_candidates_poll_position"`
	Votes       uint64 `gorm:"column:votes"`
}

func (candidateModel) TableName() string {
	return "candidates"
}

func candidateModelFromEntity(candidate entities.Candidate) candidateModel {
	return candidateModel{
		Address:     candidate.Address.String(),
		PollAddress: candidate.Poll.String(),
		PollID:      int64(candidate.PollID),
		Name:        candidate.Name,
		Party:       candidate.Party,
		Position:    candidate.Position,
		Votes:       candidate.Votes,
	}
}

func (m candidateModel) toEntity() (entities.Candidate, error) {
	addr, err := address.Parse(m.Address)
	if err != nil {
		return entities.Candidate{}, err
	}
	poll, err := address.Parse(m.PollAddress)
	if err != nil {
		return entities.Candidate{}, err
	}
	return entities.Candidate{
		Address:  addr,
		Poll:     poll,
		PollID:   uint64(m.PollID),
		Name:     m.Name,
		Party:    m.Party,
		Position: m.Position,
		Votes:    m.Votes,
	}, nil
}

type receiptModel struct {
	Address     string `gorm:"column:address;primaryKey"`
	PollAddress string `gorm:"column:poll_address;index"`
	PollID      int64  `gorm:"column:poll_id"`
	Voter       string `gorm:"column:voter"`
	HasVoted    bool   `gorm:"column:has_voted"`
}

func (receiptModel) TableName() string {
	return "voter_receipts"
}

func receiptModelFromEntity(receipt entities.VoterReceipt) receiptModel {
	return receiptModel{
		Address:     receipt.Address.String(),
		PollAddress: receipt.Poll.String(),
		PollID:      int64(receipt.PollID),
		Voter:       receipt.Voter,
		HasVoted:    receipt.HasVoted,
	}
}

func (m receiptModel) toEntity() (entities.VoterReceipt, error) {
	addr, err := address.Parse(m.Address)
	if err != nil {
		return entities.VoterReceipt{}, err
	}
	poll, err := address.Parse(m.PollAddress)
	if err != nil {
		return entities.VoterReceipt{}, err
	}
	return entities.VoterReceipt{
		Address:  addr,
		Poll:     poll,
		PollID:   uint64(m.PollID),
		Voter:    m.Voter,
		HasVoted: m.HasVoted,
	}, nil
}

type outboxModel struct {
	ID           string          `gorm:"column:id;primaryKey"`
	EventType    string          `gorm:"column:event_type"`
	PartitionKey string          `gorm:"column:partition_key"`
	Payload      json.RawMessage `gorm:"column:payload"`
	Status       string          `gorm:"column:status;index"`
	CreatedAt    time.Time       `gorm:"column:created_at"`
	PublishedAt  *time.Time      `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "ledger_outbox"
}
