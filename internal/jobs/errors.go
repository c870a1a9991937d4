package jobs

import "errors"

var (
	// ErrJobNotFound means no job with that id was ever created
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidTransition means the requested status change is not
	// allowed from the job's current status
	ErrInvalidTransition = errors.New("invalid job status transition")

	// ErrForbidden means the job exists but belongs to another client
	ErrForbidden = errors.New("job belongs to another client")

	// ErrResultNotReady means the job has not completed yet
	ErrResultNotReady = errors.New("job result not ready")

	// ErrResultExpired means the job completed but its result aged out
	// of the store
	ErrResultExpired = errors.New("job result has expired")

	// ErrTooManyActiveJobs means the client hit its concurrent job cap
	ErrTooManyActiveJobs = errors.New("too many active jobs for client")
)
