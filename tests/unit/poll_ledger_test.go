package unit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	pollledger "pollchain/contexts/governance/poll-ledger"
	domainerrors "pollchain/contexts/governance/poll-ledger/domain/errors"
	httptransport "pollchain/contexts/governance/poll-ledger/transport/http"
)

func activeWindow() (int64, int64) {
	now := time.Now().UTC()
	return now.Add(-time.Hour).Unix(), now.Add(time.Hour).Unix()
}

func TestPollLedgerFullLifecycle(t *testing.T) {
	module := pollledger.NewInMemoryModule(nil)
	ctx := context.Background()
	start, end := activeWindow()

	poll, err := module.Handler.CreatePollHandler(ctx, "creator-1", httptransport.CreatePollRequest{
		PollID:    1,
		Question:  "Who should chair the committee?",
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		t.Fatalf("create poll failed: %v", err)
	}
	if poll.CandidateCount != 0 {
		t.Fatalf("expected new poll to start with zero candidates, got %d", poll.CandidateCount)
	}

	alice, err := module.Handler.AddCandidateHandler(ctx, "creator-1", 1, httptransport.AddCandidateRequest{
		Name:  "Alice",
		Party: "Blue",
	})
	if err != nil {
		t.Fatalf("add candidate Alice failed: %v", err)
	}
	if alice.Position != 0 {
		t.Fatalf("expected Alice at position 0, got %d", alice.Position)
	}

	bob, err := module.Handler.AddCandidateHandler(ctx, "creator-1", 1, httptransport.AddCandidateRequest{
		Name: "Bob",
	})
	if err != nil {
		t.Fatalf("add candidate Bob failed: %v", err)
	}
	if bob.Position != 1 {
		t.Fatalf("expected Bob at position 1, got %d", bob.Position)
	}

	fetched, err := module.Handler.GetPollHandler(ctx, 1)
	if err != nil {
		t.Fatalf("get poll failed: %v", err)
	}
	if fetched.CandidateCount != 2 {
		t.Fatalf("expected candidate count 2 after registrations, got %d", fetched.CandidateCount)
	}

	receipt, err := module.Handler.CastVoteHandler(ctx, "voter-1", 1, httptransport.CastVoteRequest{
		CandidateName: "Alice",
	})
	if err != nil {
		t.Fatalf("first vote failed: %v", err)
	}
	if !receipt.HasVoted {
		t.Fatalf("expected receipt to mark voter as having voted")
	}
	if receipt.Candidate.Votes != 1 {
		t.Fatalf("expected Alice tally 1 after first vote, got %d", receipt.Candidate.Votes)
	}

	if _, err := module.Handler.CastVoteHandler(ctx, "voter-2", 1, httptransport.CastVoteRequest{
		CandidateName: "Bob",
	}); err != nil {
		t.Fatalf("second voter failed: %v", err)
	}
	if _, err := module.Handler.CastVoteHandler(ctx, "voter-3", 1, httptransport.CastVoteRequest{
		CandidateName: "Alice",
	}); err != nil {
		t.Fatalf("third voter failed: %v", err)
	}

	results, err := module.Handler.ResultsHandler(ctx, 1)
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}
	if results.Status != "active" {
		t.Fatalf("expected active poll status, got %s", results.Status)
	}
	if results.TotalVotes != 3 {
		t.Fatalf("expected total 3 votes, got %d", results.TotalVotes)
	}
	if len(results.Candidates) != 2 {
		t.Fatalf("expected 2 candidates in results, got %d", len(results.Candidates))
	}
	if results.Candidates[0].Name != "Alice" || results.Candidates[1].Name != "Bob" {
		t.Fatalf("expected registration order Alice, Bob; got %s, %s",
			results.Candidates[0].Name, results.Candidates[1].Name)
	}
	var sum uint64
	for _, candidate := range results.Candidates {
		sum += candidate.Votes
	}
	if sum != results.TotalVotes {
		t.Fatalf("expected candidate tallies to sum to total, got %d vs %d", sum, results.TotalVotes)
	}
	if results.Leader == nil || results.Leader.Name != "Alice" {
		t.Fatalf("expected Alice to lead with 2 votes")
	}

	voted, err := module.Handler.HasVotedHandler(ctx, 1, "voter-1")
	if err != nil {
		t.Fatalf("has voted failed: %v", err)
	}
	if !voted.HasVoted {
		t.Fatalf("expected voter-1 to have a receipt")
	}
	notVoted, err := module.Handler.HasVotedHandler(ctx, 1, "voter-99")
	if err != nil {
		t.Fatalf("has voted for fresh voter failed: %v", err)
	}
	if notVoted.HasVoted {
		t.Fatalf("expected voter-99 to have no receipt")
	}
}

func TestPollLedgerRejectsDoubleVote(t *testing.T) {
	module := pollledger.NewInMemoryModule(nil)
	ctx := context.Background()
	start, end := activeWindow()

	if _, err := module.Handler.CreatePollHandler(ctx, "creator-1", httptransport.CreatePollRequest{
		PollID:    1,
		Question:  "Best option?",
		StartTime: start,
		EndTime:   end,
	}); err != nil {
		t.Fatalf("create poll failed: %v", err)
	}
	for _, name := range []string{"Alice", "Bob"} {
		if _, err := module.Handler.AddCandidateHandler(ctx, "creator-1", 1, httptransport.AddCandidateRequest{
			Name: name,
		}); err != nil {
			t.Fatalf("add candidate %s failed: %v", name, err)
		}
	}

	if _, err := module.Handler.CastVoteHandler(ctx, "voter-1", 1, httptransport.CastVoteRequest{
		CandidateName: "Alice",
	}); err != nil {
		t.Fatalf("first vote failed: %v", err)
	}

	// Same voter, different candidate: the receipt address is derived from
	// (poll, voter) only, so this must still collide.
	_, err := module.Handler.CastVoteHandler(ctx, "voter-1", 1, httptransport.CastVoteRequest{
		CandidateName: "Bob",
	})
	if !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("expected ErrAlreadyVoted on second ballot, got %v", err)
	}

	results, err := module.Handler.ResultsHandler(ctx, 1)
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}
	if results.TotalVotes != 1 {
		t.Fatalf("expected rejected ballot to leave tallies untouched, got total %d", results.TotalVotes)
	}
}

func TestPollLedgerCreatePollGuards(t *testing.T) {
	module := pollledger.NewInMemoryModule(nil)
	ctx := context.Background()
	start, end := activeWindow()

	if _, err := module.Handler.CreatePollHandler(ctx, "creator-1", httptransport.CreatePollRequest{
		PollID:    1,
		Question:  "Best option?",
		StartTime: start,
		EndTime:   end,
	}); err != nil {
		t.Fatalf("create poll failed: %v", err)
	}

	_, err := module.Handler.CreatePollHandler(ctx, "creator-2", httptransport.CreatePollRequest{
		PollID:    1,
		Question:  "Different question, same id",
		StartTime: start,
		EndTime:   end,
	})
	if !errors.Is(err, domainerrors.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists for duplicate poll id, got %v", err)
	}
	original, err := module.Handler.GetPollHandler(ctx, 1)
	if err != nil {
		t.Fatalf("get poll after rejected duplicate failed: %v", err)
	}
	if original.Question != "Best option?" || original.Creator != "creator-1" {
		t.Fatalf("expected the first poll's state untouched, got %+v", original)
	}

	_, err = module.Handler.CreatePollHandler(ctx, "creator-1", httptransport.CreatePollRequest{
		PollID:    2,
		Question:  "Backwards window?",
		StartTime: end,
		EndTime:   start,
	})
	if !errors.Is(err, domainerrors.ErrInvalidTimeWindow) {
		t.Fatalf("expected ErrInvalidTimeWindow for start >= end, got %v", err)
	}

	_, err = module.Handler.CreatePollHandler(ctx, "creator-1", httptransport.CreatePollRequest{
		PollID:    3,
		Question:  strings.Repeat("q", 201),
		StartTime: start,
		EndTime:   end,
	})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for oversized question, got %v", err)
	}
}

func TestPollLedgerCandidateGuards(t *testing.T) {
	module := pollledger.NewInMemoryModule(nil)
	ctx := context.Background()
	start, end := activeWindow()

	if _, err := module.Handler.CreatePollHandler(ctx, "creator-1", httptransport.CreatePollRequest{
		PollID:    1,
		Question:  "Best option?",
		StartTime: start,
		EndTime:   end,
	}); err != nil {
		t.Fatalf("create poll failed: %v", err)
	}

	_, err := module.Handler.AddCandidateHandler(ctx, "intruder", 1, httptransport.AddCandidateRequest{
		Name: "Mallory",
	})
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-creator registration, got %v", err)
	}

	if _, err := module.Handler.AddCandidateHandler(ctx, "creator-1", 1, httptransport.AddCandidateRequest{
		Name: "Alice",
	}); err != nil {
		t.Fatalf("add candidate failed: %v", err)
	}
	_, err = module.Handler.AddCandidateHandler(ctx, "creator-1", 1, httptransport.AddCandidateRequest{
		Name: "Alice",
	})
	if !errors.Is(err, domainerrors.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists for duplicate candidate name, got %v", err)
	}

	_, err = module.Handler.AddCandidateHandler(ctx, "creator-1", 404, httptransport.AddCandidateRequest{
		Name: "Nobody",
	})
	if !errors.Is(err, domainerrors.ErrPollNotFound) {
		t.Fatalf("expected ErrPollNotFound for unknown poll, got %v", err)
	}

	poll, err := module.Handler.GetPollHandler(ctx, 1)
	if err != nil {
		t.Fatalf("get poll failed: %v", err)
	}
	if poll.CandidateCount != 1 {
		t.Fatalf("expected rejected registrations to leave the counter at 1, got %d", poll.CandidateCount)
	}
}

func TestPollLedgerVoteWindowGuards(t *testing.T) {
	module := pollledger.NewInMemoryModule(nil)
	ctx := context.Background()
	now := time.Now().UTC()

	// Poll 1 has not started yet, poll 2 already ended.
	if _, err := module.Handler.CreatePollHandler(ctx, "creator-1", httptransport.CreatePollRequest{
		PollID:    1,
		Question:  "Future poll",
		StartTime: now.Add(time.Hour).Unix(),
		EndTime:   now.Add(2 * time.Hour).Unix(),
	}); err != nil {
		t.Fatalf("create future poll failed: %v", err)
	}
	if _, err := module.Handler.CreatePollHandler(ctx, "creator-1", httptransport.CreatePollRequest{
		PollID:    2,
		Question:  "Past poll",
		StartTime: now.Add(-2 * time.Hour).Unix(),
		EndTime:   now.Add(-time.Hour).Unix(),
	}); err != nil {
		t.Fatalf("create past poll failed: %v", err)
	}
	for _, pollID := range []uint64{1, 2} {
		if _, err := module.Handler.AddCandidateHandler(ctx, "creator-1", pollID, httptransport.AddCandidateRequest{
			Name: "Alice",
		}); err != nil {
			t.Fatalf("add candidate to poll %d failed: %v", pollID, err)
		}
	}

	_, err := module.Handler.CastVoteHandler(ctx, "voter-1", 1, httptransport.CastVoteRequest{
		CandidateName: "Alice",
	})
	if !errors.Is(err, domainerrors.ErrPollNotActive) {
		t.Fatalf("expected ErrPollNotActive before the window opens, got %v", err)
	}
	_, err = module.Handler.CastVoteHandler(ctx, "voter-1", 2, httptransport.CastVoteRequest{
		CandidateName: "Alice",
	})
	if !errors.Is(err, domainerrors.ErrPollNotActive) {
		t.Fatalf("expected ErrPollNotActive after the window closed, got %v", err)
	}

	_, err = module.Handler.CastVoteHandler(ctx, "voter-1", 404, httptransport.CastVoteRequest{
		CandidateName: "Alice",
	})
	if !errors.Is(err, domainerrors.ErrPollNotFound) {
		t.Fatalf("expected ErrPollNotFound for unknown poll, got %v", err)
	}
	_, err = module.Handler.CastVoteHandler(ctx, "voter-1", 2, httptransport.CastVoteRequest{
		CandidateName: "Nobody",
	})
	if !errors.Is(err, domainerrors.ErrCandidateNotFound) {
		t.Fatalf("expected ErrCandidateNotFound for unknown candidate, got %v", err)
	}
}

func TestPollLedgerConcurrentRegistrationsGetDistinctPositions(t *testing.T) {
	module := pollledger.NewInMemoryModule(nil)
	ctx := context.Background()
	start, end := activeWindow()

	if _, err := module.Handler.CreatePollHandler(ctx, "creator-1", httptransport.CreatePollRequest{
		PollID:    1,
		Question:  "Crowded race",
		StartTime: start,
		EndTime:   end,
	}); err != nil {
		t.Fatalf("create poll failed: %v", err)
	}

	const registrations = 16
	gate := make(chan struct{})
	errs := make(chan error, registrations)
	var wg sync.WaitGroup
	for i := 0; i < registrations; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-gate
			_, err := module.Handler.AddCandidateHandler(ctx, "creator-1", 1, httptransport.AddCandidateRequest{
				Name: fmt.Sprintf("cand-%02d", i),
			})
			errs <- err
		}(i)
	}
	close(gate)
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent registration failed: %v", err)
		}
	}

	results, err := module.Handler.ResultsHandler(ctx, 1)
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}
	if len(results.Candidates) != registrations {
		t.Fatalf("expected %d candidates, got %d", registrations, len(results.Candidates))
	}
	holders := make(map[uint64]string, registrations)
	for _, candidate := range results.Candidates {
		if other, taken := holders[candidate.Position]; taken {
			t.Fatalf("position %d shared by %q and %q", candidate.Position, other, candidate.Name)
		}
		holders[candidate.Position] = candidate.Name
	}
	for position := uint64(0); position < registrations; position++ {
		if _, ok := holders[position]; !ok {
			t.Fatalf("expected positions to be gapless, missing %d", position)
		}
	}

	poll, err := module.Handler.GetPollHandler(ctx, 1)
	if err != nil {
		t.Fatalf("get poll failed: %v", err)
	}
	if poll.CandidateCount != registrations {
		t.Fatalf("expected candidate count %d, got %d", registrations, poll.CandidateCount)
	}
}

func TestPollLedgerLeaderTieBreaksByRegistrationOrder(t *testing.T) {
	module := pollledger.NewInMemoryModule(nil)
	ctx := context.Background()
	start, end := activeWindow()

	if _, err := module.Handler.CreatePollHandler(ctx, "creator-1", httptransport.CreatePollRequest{
		PollID:    1,
		Question:  "Tied race",
		StartTime: start,
		EndTime:   end,
	}); err != nil {
		t.Fatalf("create poll failed: %v", err)
	}
	for _, name := range []string{"Alice", "Bob"} {
		if _, err := module.Handler.AddCandidateHandler(ctx, "creator-1", 1, httptransport.AddCandidateRequest{
			Name: name,
		}); err != nil {
			t.Fatalf("add candidate %s failed: %v", name, err)
		}
	}

	// Bob gets his vote first, then Alice equalizes. The tie must still go
	// to Alice because she registered first.
	if _, err := module.Handler.CastVoteHandler(ctx, "voter-1", 1, httptransport.CastVoteRequest{
		CandidateName: "Bob",
	}); err != nil {
		t.Fatalf("vote for Bob failed: %v", err)
	}
	if _, err := module.Handler.CastVoteHandler(ctx, "voter-2", 1, httptransport.CastVoteRequest{
		CandidateName: "Alice",
	}); err != nil {
		t.Fatalf("vote for Alice failed: %v", err)
	}

	results, err := module.Handler.ResultsHandler(ctx, 1)
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}
	if results.Leader == nil || results.Leader.Name != "Alice" {
		t.Fatalf("expected tie to resolve to the earliest registered candidate")
	}
	if results.Candidates[0].Percentage != 50 || results.Candidates[1].Percentage != 50 {
		t.Fatalf("expected an even split, got %f and %f",
			results.Candidates[0].Percentage, results.Candidates[1].Percentage)
	}
}
