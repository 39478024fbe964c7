package domain

import "errors"

var (
	// ErrAccountNotFound is returned when an account is not found
	ErrAccountNotFound = errors.New("account not found")

	// ErrNoActiveAccount is returned when no account has the active flag set
	ErrNoActiveAccount = errors.New("no active account configured")

	// ErrNotAuthorized is returned when an account has no usable session
	ErrNotAuthorized = errors.New("account is not authorized")

	// ErrNotConnected is returned when an operation requires a live connection
	ErrNotConnected = errors.New("not connected to Telegram")

	// ErrNoPendingLogin is returned when verify is called without a login in flight
	ErrNoPendingLogin = errors.New("no pending login for account")

	// ErrTaskNotFound is returned when a task is not found
	ErrTaskNotFound = errors.New("task not found")

	// ErrInvalidTask is returned when a task definition fails validation
	ErrInvalidTask = errors.New("invalid task definition")

	// ErrTaskAlreadyRunning is returned when starting a task that has a live execution
	ErrTaskAlreadyRunning = errors.New("task is already running")

	// ErrTaskNotRunning is returned when stopping a task that has no live execution
	ErrTaskNotRunning = errors.New("task is not running")

	// ErrTaskRunning is returned when mutating a task that has a live execution
	ErrTaskRunning = errors.New("task cannot be modified while running")

	// ErrGroupNotFound is returned when a group is not found
	ErrGroupNotFound = errors.New("group not found")

	// ErrResolveFailed is returned when a group identifier cannot be resolved
	ErrResolveFailed = errors.New("failed to resolve group identifier")
)
