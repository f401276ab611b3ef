package forkchoice

import "github.com/pkg/errors"

var (
	// ErrNotInitialized is returned by any operation called before Init.
	ErrNotInitialized = errors.New("fork choice has not been initialized with a genesis block")

	// ErrAlreadyInitialized is returned by Init if called more than once.
	ErrAlreadyInitialized = errors.New("fork choice is already initialized")
)
