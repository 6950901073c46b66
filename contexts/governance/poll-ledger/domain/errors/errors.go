package errors

import "errors"

var (
	ErrAccountExists     = errors.New("account already exists at derived address")
	ErrAccountNotFound   = errors.New("no account at derived address")
	ErrPollNotFound      = errors.New("poll not found")
	ErrCandidateNotFound = errors.New("candidate not found")
	ErrInvalidTimeWindow = errors.New("poll start time must be before end time")
	ErrPollNotActive     = errors.New("poll is not accepting votes at this time")
	ErrAlreadyVoted      = errors.New("voter has already cast a ballot in this poll")
	ErrUnauthorized      = errors.New("caller is not authorized for this operation")
	ErrInvalidInput      = errors.New("invalid transition input")
	ErrEnvironment       = errors.New("execution environment failure")
)
