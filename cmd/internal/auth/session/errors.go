package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated is returned when an operation needs an authenticated
	// session and the slot is anonymous or a guest.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrSlotWrite is returned when the session state could not be saved.
	ErrSlotWrite = errors.New("session slot write failed")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)

func slotError(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrSlotWrite, err)
}
