package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	pollledgerhttp "pollchain/contexts/governance/poll-ledger/transport/http"
)

// pollctl is a small command-line client for the poll ledger API.
func main() {
	app := &cli.App{
		Name:  "pollctl",
		Usage: "manage polls, candidates, and ballots over the ledger API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Value:   "http://localhost:8080",
				Usage:   "base URL of the ledger API",
				EnvVars: []string{"POLLCHAIN_SERVER"},
			},
			&cli.StringFlag{
				Name:    "user",
				Usage:   "acting user id (sent as X-User-Id)",
				EnvVars: []string{"POLLCHAIN_USER"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "create-poll",
				Usage: "create a poll with a voting window",
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "id", Required: true, Usage: "poll id"},
					&cli.StringFlag{Name: "question", Required: true},
					&cli.StringFlag{Name: "description"},
					&cli.Int64Flag{Name: "start", Required: true, Usage: "start time (unix seconds)"},
					&cli.Int64Flag{Name: "end", Required: true, Usage: "end time (unix seconds)"},
				},
				Action: createPoll,
			},
			{
				Name:  "add-candidate",
				Usage: "register a candidate on a poll (creator only)",
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "poll", Required: true, Usage: "poll id"},
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "party"},
				},
				Action: addCandidate,
			},
			{
				Name:  "vote",
				Usage: "cast a ballot for a candidate",
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "poll", Required: true, Usage: "poll id"},
					&cli.StringFlag{Name: "candidate", Required: true, Usage: "candidate name"},
				},
				Action: castVote,
			},
			{
				Name:  "get-poll",
				Usage: "show a poll account",
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "poll", Required: true, Usage: "poll id"},
				},
				Action: getPoll,
			},
			{
				Name:  "results",
				Usage: "show tallies, status, and the current leader",
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "poll", Required: true, Usage: "poll id"},
				},
				Action: getResults,
			},
			{
				Name:  "has-voted",
				Usage: "check whether a voter already cast a ballot",
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "poll", Required: true, Usage: "poll id"},
					&cli.StringFlag{Name: "voter", Required: true, Usage: "voter id"},
				},
				Action: hasVoted,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func createPoll(c *cli.Context) error {
	var resp pollledgerhttp.PollResponse
	err := call(c, http.MethodPost, "/v1/polls", pollledgerhttp.CreatePollRequest{
		PollID:      c.Uint64("id"),
		Question:    c.String("question"),
		Description: c.String("description"),
		StartTime:   c.Int64("start"),
		EndTime:     c.Int64("end"),
	}, &resp)
	if err != nil {
		return err
	}
	fmt.Printf("poll %d created at %s (window %s .. %s)\n",
		resp.PollID, resp.Address,
		time.Unix(resp.StartTime, 0).UTC().Format(time.RFC3339),
		time.Unix(resp.EndTime, 0).UTC().Format(time.RFC3339),
	)
	return nil
}

func addCandidate(c *cli.Context) error {
	var resp pollledgerhttp.CandidateResponse
	path := fmt.Sprintf("/v1/polls/%d/candidates", c.Uint64("poll"))
	err := call(c, http.MethodPost, path, pollledgerhttp.AddCandidateRequest{
		Name:  c.String("name"),
		Party: c.String("party"),
	}, &resp)
	if err != nil {
		return err
	}
	fmt.Printf("candidate %q registered at position %d (%s)\n", resp.Name, resp.Position, resp.Address)
	return nil
}

func castVote(c *cli.Context) error {
	var resp pollledgerhttp.VoteReceiptResponse
	path := fmt.Sprintf("/v1/polls/%d/votes", c.Uint64("poll"))
	err := call(c, http.MethodPost, path, pollledgerhttp.CastVoteRequest{
		CandidateName: c.String("candidate"),
	}, &resp)
	if err != nil {
		return err
	}
	fmt.Printf("ballot recorded for %q, receipt %s, tally now %d\n",
		resp.Candidate.Name, resp.ReceiptAddress, resp.Candidate.Votes)
	return nil
}

func getPoll(c *cli.Context) error {
	var resp pollledgerhttp.PollResponse
	path := fmt.Sprintf("/v1/polls/%d", c.Uint64("poll"))
	if err := call(c, http.MethodGet, path, nil, &resp); err != nil {
		return err
	}
	fmt.Printf("poll %d: %s\n", resp.PollID, resp.Question)
	if resp.Description != "" {
		fmt.Printf("  %s\n", resp.Description)
	}
	fmt.Printf("  creator:    %s\n", resp.Creator)
	fmt.Printf("  window:     %s .. %s\n",
		time.Unix(resp.StartTime, 0).UTC().Format(time.RFC3339),
		time.Unix(resp.EndTime, 0).UTC().Format(time.RFC3339),
	)
	fmt.Printf("  candidates: %d\n", resp.CandidateCount)
	return nil
}

func getResults(c *cli.Context) error {
	var resp pollledgerhttp.ResultsResponse
	path := fmt.Sprintf("/v1/polls/%d/results", c.Uint64("poll"))
	if err := call(c, http.MethodGet, path, nil, &resp); err != nil {
		return err
	}
	fmt.Printf("poll %d (%s): %s, %d votes\n", resp.PollID, resp.Status, resp.Question, resp.TotalVotes)
	for _, candidate := range resp.Candidates {
		label := candidate.Name
		if candidate.Party != "" {
			label += " (" + candidate.Party + ")"
		}
		fmt.Printf("  %-40s %6d  %6.2f%%\n", label, candidate.Votes, candidate.Percentage)
	}
	if resp.Leader != nil {
		fmt.Printf("leader: %s\n", resp.Leader.Name)
	}
	return nil
}

func hasVoted(c *cli.Context) error {
	var resp pollledgerhttp.HasVotedResponse
	path := fmt.Sprintf("/v1/polls/%d/voters/%s", c.Uint64("poll"), c.String("voter"))
	if err := call(c, http.MethodGet, path, nil, &resp); err != nil {
		return err
	}
	if resp.HasVoted {
		fmt.Printf("%s has voted in poll %d\n", resp.Voter, resp.PollID)
	} else {
		fmt.Printf("%s has not voted in poll %d\n", resp.Voter, resp.PollID)
	}
	return nil
}

// call sends one API request and decodes the response into out.
// Non-2xx responses are surfaced as "CODE: message" errors.
func call(c *cli.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(c.Context, method, c.String("server")+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user := c.String("user"); user != "" {
		req.Header.Set("X-User-Id", user)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr pollledgerhttp.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Code == "" {
			return fmt.Errorf("request failed with status %d", resp.StatusCode)
		}
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
