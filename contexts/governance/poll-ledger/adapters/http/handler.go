package httpadapter

import (
	"context"
	"log/slog"

	"pollchain/contexts/governance/poll-ledger/application/commands"
	"pollchain/contexts/governance/poll-ledger/application/queries"
	"pollchain/contexts/governance/poll-ledger/domain/entities"
	httptransport "pollchain/contexts/governance/poll-ledger/transport/http"
)

type Handler struct {
	Transitions commands.TransitionUseCase
	Results     queries.ResultsUseCase
	Logger      *slog.Logger
}

func (h Handler) CreatePollHandler(
	ctx context.Context,
	creator string,
	req httptransport.CreatePollRequest,
) (httptransport.PollResponse, error) {
	poll, err := h.Transitions.CreatePoll(ctx, commands.CreatePollCommand{
		PollID:      req.PollID,
		Question:    req.Question,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Creator:     creator,
	})
	if err != nil {
		return httptransport.PollResponse{}, err
	}
	return pollResponse(poll), nil
}

func (h Handler) GetPollHandler(ctx context.Context, pollID uint64) (httptransport.PollResponse, error) {
	poll, err := h.Results.GetPoll(ctx, pollID)
	if err != nil {
		return httptransport.PollResponse{}, err
	}
	return pollResponse(poll), nil
}

func (h Handler) AddCandidateHandler(
	ctx context.Context,
	creator string,
	pollID uint64,
	req httptransport.AddCandidateRequest,
) (httptransport.CandidateResponse, error) {
	candidate, err := h.Transitions.AddCandidate(ctx, commands.AddCandidateCommand{
		PollID:  pollID,
		Name:    req.Name,
		Party:   req.Party,
		Creator: creator,
	})
	if err != nil {
		return httptransport.CandidateResponse{}, err
	}
	return candidateResponse(candidate), nil
}

func (h Handler) GetCandidateHandler(
	ctx context.Context,
	pollID uint64,
	name string,
) (httptransport.CandidateResponse, error) {
	candidate, err := h.Results.GetCandidate(ctx, pollID, name)
	if err != nil {
		return httptransport.CandidateResponse{}, err
	}
	return candidateResponse(candidate), nil
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	voter string,
	pollID uint64,
	req httptransport.CastVoteRequest,
) (httptransport.VoteReceiptResponse, error) {
	result, err := h.Transitions.CastVote(ctx, commands.CastVoteCommand{
		PollID:        pollID,
		CandidateName: req.CandidateName,
		Voter:         voter,
	})
	if err != nil {
		return httptransport.VoteReceiptResponse{}, err
	}
	return httptransport.VoteReceiptResponse{
		ReceiptAddress: result.Receipt.Address.String(),
		PollID:         result.Receipt.PollID,
		Voter:          result.Receipt.Voter,
		HasVoted:       result.Receipt.HasVoted,
		Candidate:      candidateResponse(result.Candidate),
	}, nil
}

func (h Handler) ResultsHandler(ctx context.Context, pollID uint64) (httptransport.ResultsResponse, error) {
	results, err := h.Results.Results(ctx, pollID)
	if err != nil {
		return httptransport.ResultsResponse{}, err
	}
	resp := httptransport.ResultsResponse{
		PollID:     results.Poll.PollID,
		Question:   results.Poll.Question,
		Status:     string(results.Status),
		TotalVotes: results.TotalVotes,
		Candidates: make([]httptransport.CandidateResultItem, 0, len(results.Candidates)),
	}
	for _, item := range results.Candidates {
		resp.Candidates = append(resp.Candidates, candidateResultItem(item))
	}
	if results.Leader != nil {
		leader := candidateResultItem(*results.Leader)
		resp.Leader = &leader
	}
	return resp, nil
}

func (h Handler) HasVotedHandler(ctx context.Context, pollID uint64, voter string) (httptransport.HasVotedResponse, error) {
	hasVoted, err := h.Results.HasVoted(ctx, pollID, voter)
	if err != nil {
		return httptransport.HasVotedResponse{}, err
	}
	return httptransport.HasVotedResponse{
		PollID:   pollID,
		Voter:    voter,
		HasVoted: hasVoted,
	}, nil
}

func pollResponse(poll entities.Poll) httptransport.PollResponse {
	return httptransport.PollResponse{
		Address:        poll.Address.String(),
		PollID:         poll.PollID,
		Creator:        poll.Creator,
		Question:       poll.Question,
		Description:    poll.Description,
		StartTime:      poll.StartTime,
		EndTime:        poll.EndTime,
		CandidateCount: poll.CandidateCount,
	}
}

func candidateResponse(candidate entities.Candidate) httptransport.CandidateResponse {
	return httptransport.CandidateResponse{
		Address:  candidate.Address.String(),
		PollID:   candidate.PollID,
		Name:     candidate.Name,
		Party:    candidate.Party,
		Position: candidate.Position,
		Votes:    candidate.Votes,
	}
}

func candidateResultItem(item entities.CandidateResult) httptransport.CandidateResultItem {
	return httptransport.CandidateResultItem{
		Name:       item.Candidate.Name,
		Party:      item.Candidate.Party,
		Position:   item.Candidate.Position,
		Votes:      item.Candidate.Votes,
		Percentage: item.Percentage,
	}
}
