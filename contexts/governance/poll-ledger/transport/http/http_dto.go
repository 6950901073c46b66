package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreatePollRequest struct {
	PollID      uint64 `json:"poll_id"`
	Question    string `json:"question"`
	Description string `json:"description,omitempty"`
	StartTime   int64  `json:"start_time"`
	EndTime     int64  `json:"end_time"`
}

type PollResponse struct {
	Address        string `json:"address"`
	PollID         uint64 `json:"poll_id"`
	Creator        string `json:"creator"`
	Question       string `json:"question"`
	Description    string `json:"description,omitempty"`
	StartTime      int64  `json:"start_time"`
	EndTime        int64  `json:"end_time"`
	CandidateCount uint64 `json:"candidate_count"`
}

type AddCandidateRequest struct {
	Name  string `json:"name"`
	Party string `json:"party,omitempty"`
}

type CandidateResponse struct {
	Address  string `json:"address"`
	PollID   uint64 `json:"poll_id"`
	Name     string `json:"name"`
	Party    string `json:"party,omitempty"`
	Position uint64 `json:"position"`
	Votes    uint64 `json:"votes"`
}

type CastVoteRequest struct {
	CandidateName string `json:"candidate_name"`
}

type VoteReceiptResponse struct {
	ReceiptAddress string            `json:"receipt_address"`
	PollID         uint64            `json:"poll_id"`
	Voter          string            `json:"voter"`
	HasVoted       bool              `json:"has_voted"`
	Candidate      CandidateResponse `json:"candidate"`
}

type CandidateResultItem struct {
	Name       string  `json:"name"`
	Party      string  `json:"party,omitempty"`
	Position   uint64  `json:"position"`
	Votes      uint64  `json:"votes"`
	Percentage float64 `json:"percentage"`
}

type ResultsResponse struct {
	PollID     uint64                `json:"poll_id"`
	Question   string                `json:"question"`
	Status     string                `json:"status"`
	TotalVotes uint64                `json:"total_votes"`
	Candidates []CandidateResultItem `json:"candidates"`
	Leader     *CandidateResultItem  `json:"leader,omitempty"`
}

type HasVotedResponse struct {
	PollID   uint64 `json:"poll_id"`
	Voter    string `json:"voter"`
	HasVoted bool   `json:"has_voted"`
}
