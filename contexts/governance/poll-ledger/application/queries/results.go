package queries

import (
	"context"
	"errors"
	"sort"
	"strings"

	"pollchain/contexts/governance/poll-ledger/domain/address"
	"pollchain/contexts/governance/poll-ledger/domain/entities"
	domainerrors "pollchain/contexts/governance/poll-ledger/domain/errors"
	"pollchain/contexts/governance/poll-ledger/ports"
)

// ResultsUseCase serves the read paths: plain account fetches plus the
// derived tally. Everything here is pure over fetched state; no query ever
// mutates the ledger.
type ResultsUseCase struct {
	Ledger ports.LedgerStore
	Clock  ports.Clock
}

func (uc ResultsUseCase) GetPoll(ctx context.Context, pollID uint64) (entities.Poll, error) {
	poll, err := uc.Ledger.GetPoll(ctx, address.ForPoll(pollID))
	if err != nil {
		if errors.Is(err, domainerrors.ErrAccountNotFound) {
			return entities.Poll{}, domainerrors.ErrPollNotFound
		}
		return entities.Poll{}, err
	}
	return poll, nil
}

func (uc ResultsUseCase) GetCandidate(ctx context.Context, pollID uint64, name string) (entities.Candidate, error) {
	candidate, err := uc.Ledger.GetCandidate(ctx, address.ForCandidate(pollID, strings.TrimSpace(name)))
	if err != nil {
		if errors.Is(err, domainerrors.ErrAccountNotFound) {
			return entities.Candidate{}, domainerrors.ErrCandidateNotFound
		}
		return entities.Candidate{}, err
	}
	return candidate, nil
}

// HasVoted reports whether a receipt account exists for the (poll, voter)
// pair. A missing receipt means "has not voted", not an error.
func (uc ResultsUseCase) HasVoted(ctx context.Context, pollID uint64, voter string) (bool, error) {
	receipt, found, err := uc.Ledger.GetReceipt(ctx, address.ForReceipt(pollID, strings.TrimSpace(voter)))
	if err != nil {
		return false, err
	}
	return found && receipt.HasVoted, nil
}

// Results aggregates a poll's candidates into totals, percentages, lifecycle
// status, and the leading candidate. Candidates come back in registration
// order and ties on the vote count go to the earliest registered candidate,
// so the leader is deterministic for any ledger state.
func (uc ResultsUseCase) Results(ctx context.Context, pollID uint64) (entities.PollResults, error) {
	poll, err := uc.GetPoll(ctx, pollID)
	if err != nil {
		return entities.PollResults{}, err
	}
	candidates, err := uc.Ledger.ListCandidates(ctx, poll.Address)
	if err != nil {
		return entities.PollResults{}, err
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Position < candidates[j].Position
	})

	var total uint64
	for _, candidate := range candidates {
		total += candidate.Votes
	}

	results := entities.PollResults{
		Poll:       poll,
		Status:     poll.StatusAt(uc.Clock.Now().Unix()),
		TotalVotes: total,
		Candidates: make([]entities.CandidateResult, 0, len(candidates)),
	}
	for _, candidate := range candidates {
		item := entities.CandidateResult{Candidate: candidate}
		if total > 0 {
			item.Percentage = float64(candidate.Votes) / float64(total) * 100
		}
		results.Candidates = append(results.Candidates, item)
	}
	for i := range results.Candidates {
		if results.Leader == nil || results.Candidates[i].Candidate.Votes > results.Leader.Candidate.Votes {
			results.Leader = &results.Candidates[i]
		}
	}
	return results, nil
}
