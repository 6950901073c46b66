package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	application "pollchain/contexts/governance/poll-ledger/application"
	"pollchain/contexts/governance/poll-ledger/domain/address"
	"pollchain/contexts/governance/poll-ledger/domain/entities"
	domainerrors "pollchain/contexts/governance/poll-ledger/domain/errors"
	"pollchain/contexts/governance/poll-ledger/ports"
)

// CreatePollCommand is the write-model input for poll creation.
type CreatePollCommand struct {
	PollID      uint64
	Question    string
	Description string
	StartTime   int64
	EndTime     int64
	Creator     string
}

// AddCandidateCommand registers a ballot option under an existing poll.
type AddCandidateCommand struct {
	PollID  uint64
	Name    string
	Party   string
	Creator string
}

// CastVoteCommand is one voter's single-use ballot for a candidate.
type CastVoteCommand struct {
	PollID        uint64
	CandidateName string
	Voter         string
}

// CastVoteResult returns both accounts as committed by the environment.
type CastVoteResult struct {
	Receipt   entities.VoterReceipt
	Candidate entities.Candidate
}

// TransitionUseCase is the state transition engine. Each method validates
// preconditions against fetched account state, derives the target addresses,
// and submits one atomic transition to the ledger. Conflicting transitions
// are resolved by the environment's serialization, never by locking here:
// create-if-absent on the derived address is the only uniqueness guard.
type TransitionUseCase struct {
	Ledger ports.LedgerStore
	Outbox ports.OutboxWriter
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

// CreatePoll allocates a new poll account. Fails with ErrInvalidTimeWindow
// when startTime >= endTime and ErrAccountExists when the poll ID is taken.
func (uc TransitionUseCase) CreatePoll(ctx context.Context, cmd CreatePollCommand) (entities.Poll, error) {
	logger := application.ResolveLogger(uc.Logger)

	creator := strings.TrimSpace(cmd.Creator)
	question := strings.TrimSpace(cmd.Question)
	switch {
	case creator == "":
		return entities.Poll{}, domainerrors.ErrInvalidInput
	case question == "" || len(question) > entities.MaxQuestionLen:
		return entities.Poll{}, domainerrors.ErrInvalidInput
	case len(cmd.Description) > entities.MaxDescriptionLen:
		return entities.Poll{}, domainerrors.ErrInvalidInput
	}
	if cmd.StartTime >= cmd.EndTime {
		logger.Warn("poll creation rejected for invalid window",
			"event", "ledger_create_poll_invalid_window",
			"module", "governance/poll-ledger",
			"layer", "application",
			"poll_id", cmd.PollID,
			"start_time", cmd.StartTime,
			"end_time", cmd.EndTime,
		)
		return entities.Poll{}, domainerrors.ErrInvalidTimeWindow
	}

	poll := entities.Poll{
		Address:        address.ForPoll(cmd.PollID),
		PollID:         cmd.PollID,
		Creator:        creator,
		Question:       question,
		Description:    cmd.Description,
		StartTime:      cmd.StartTime,
		EndTime:        cmd.EndTime,
		CandidateCount: 0,
	}
	if err := uc.Ledger.CreatePoll(ctx, poll); err != nil {
		return entities.Poll{}, err
	}

	uc.appendEvent(ctx, logger, "poll.created", poll.Address, map[string]any{
		"poll_id":    poll.PollID,
		"creator":    poll.Creator,
		"start_time": poll.StartTime,
		"end_time":   poll.EndTime,
	})
	logger.Info("poll created",
		"event", "ledger_poll_created",
		"module", "governance/poll-ledger",
		"layer", "application",
		"poll_id", poll.PollID,
		"address", poll.Address.String(),
		"creator", poll.Creator,
	)
	return poll, nil
}

// AddCandidate registers a candidate under a poll. Only the poll's recorded
// creator may register candidates; the candidate name is unique per poll
// because it is part of the derived address.
func (uc TransitionUseCase) AddCandidate(ctx context.Context, cmd AddCandidateCommand) (entities.Candidate, error) {
	logger := application.ResolveLogger(uc.Logger)

	name := strings.TrimSpace(cmd.Name)
	caller := strings.TrimSpace(cmd.Creator)
	switch {
	case caller == "":
		return entities.Candidate{}, domainerrors.ErrInvalidInput
	case name == "" || len(name) > entities.MaxCandidateName:
		return entities.Candidate{}, domainerrors.ErrInvalidInput
	case len(cmd.Party) > entities.MaxPartyLen:
		return entities.Candidate{}, domainerrors.ErrInvalidInput
	}

	poll, err := uc.Ledger.GetPoll(ctx, address.ForPoll(cmd.PollID))
	if err != nil {
		if errors.Is(err, domainerrors.ErrAccountNotFound) {
			return entities.Candidate{}, domainerrors.ErrPollNotFound
		}
		return entities.Candidate{}, err
	}
	if poll.Creator != caller {
		logger.Warn("candidate registration rejected for non-creator",
			"event", "ledger_add_candidate_unauthorized",
			"module", "governance/poll-ledger",
			"layer", "application",
			"poll_id", cmd.PollID,
			"caller", caller,
		)
		return entities.Candidate{}, domainerrors.ErrUnauthorized
	}

	// The registration position is assigned by the environment inside the
	// atomic transition, not from the poll state fetched above: a position
	// computed here could race another registration and duplicate.
	candidate := entities.Candidate{
		Address: address.ForCandidate(cmd.PollID, name),
		Poll:    poll.Address,
		PollID:  cmd.PollID,
		Name:    name,
		Party:   strings.TrimSpace(cmd.Party),
		Votes:   0,
	}
	committed, err := uc.Ledger.AddCandidate(ctx, candidate)
	if err != nil {
		return entities.Candidate{}, err
	}

	uc.appendEvent(ctx, logger, "candidate.added", poll.Address, map[string]any{
		"poll_id":  committed.PollID,
		"name":     committed.Name,
		"party":    committed.Party,
		"position": committed.Position,
	})
	logger.Info("candidate added",
		"event", "ledger_candidate_added",
		"module", "governance/poll-ledger",
		"layer", "application",
		"poll_id", committed.PollID,
		"candidate", committed.Name,
		"position", committed.Position,
	)
	return committed, nil
}

// CastVote accepts one ballot inside the poll's active window. The receipt
// account created at derive("receipt", pollID, voter) is the sole
// double-vote defense: when the environment reports the address occupied,
// the transition fails with ErrAlreadyVoted and nothing is mutated.
func (uc TransitionUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	voter := strings.TrimSpace(cmd.Voter)
	name := strings.TrimSpace(cmd.CandidateName)
	if voter == "" || name == "" {
		return CastVoteResult{}, domainerrors.ErrInvalidInput
	}

	poll, err := uc.Ledger.GetPoll(ctx, address.ForPoll(cmd.PollID))
	if err != nil {
		if errors.Is(err, domainerrors.ErrAccountNotFound) {
			return CastVoteResult{}, domainerrors.ErrPollNotFound
		}
		return CastVoteResult{}, err
	}
	candidate, err := uc.Ledger.GetCandidate(ctx, address.ForCandidate(cmd.PollID, name))
	if err != nil {
		if errors.Is(err, domainerrors.ErrAccountNotFound) {
			return CastVoteResult{}, domainerrors.ErrCandidateNotFound
		}
		return CastVoteResult{}, err
	}

	now := uc.Clock.Now().Unix()
	if !poll.ActiveAt(now) {
		logger.Warn("ballot rejected outside poll window",
			"event", "ledger_cast_vote_not_active",
			"module", "governance/poll-ledger",
			"layer", "application",
			"poll_id", cmd.PollID,
			"now", now,
			"start_time", poll.StartTime,
			"end_time", poll.EndTime,
		)
		return CastVoteResult{}, domainerrors.ErrPollNotActive
	}

	receipt := entities.VoterReceipt{
		Address:  address.ForReceipt(cmd.PollID, voter),
		Poll:     poll.Address,
		PollID:   cmd.PollID,
		Voter:    voter,
		HasVoted: true,
	}
	committed, err := uc.Ledger.CastVote(ctx, receipt, candidate.Address)
	if err != nil {
		if errors.Is(err, domainerrors.ErrAccountExists) {
			return CastVoteResult{}, domainerrors.ErrAlreadyVoted
		}
		return CastVoteResult{}, err
	}

	uc.appendEvent(ctx, logger, "vote.cast", poll.Address, map[string]any{
		"poll_id":   cmd.PollID,
		"candidate": committed.Name,
		"votes":     committed.Votes,
	})
	logger.Info("vote cast",
		"event", "ledger_vote_cast",
		"module", "governance/poll-ledger",
		"layer", "application",
		"poll_id", cmd.PollID,
		"candidate", committed.Name,
		"receipt", receipt.Address.String(),
	)
	return CastVoteResult{Receipt: receipt, Candidate: committed}, nil
}
