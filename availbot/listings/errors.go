package listings

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrDuplicateActive is returned by Create when the owner already has an
	// active listing. The caller must take the old one down first.
	ErrDuplicateActive = errors.New("owner already has an active listing")

	// ErrNoActiveListing is returned by Bump when there is nothing to bump.
	ErrNoActiveListing = errors.New("no active listing")

	// ErrNoProfile is returned when the owner has no saved profile to render.
	ErrNoProfile = errors.New("no profile for owner")
)

// CooldownError rejects a bump attempted before the cooldown has elapsed.
type CooldownError struct {
	Wait time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("bump on cooldown for another %s", e.Wait.Round(time.Second))
}

// RepostError reports a bump whose old message was already deleted but whose
// repost failed. The listing record is left pointing at the deleted message;
// the next sweep pass degrades gracefully around it.
type RepostError struct {
	Err error
}

func (e *RepostError) Error() string {
	return fmt.Sprintf("failed to repost listing: %v", e.Err)
}

func (e *RepostError) Unwrap() error {
	return e.Err
}
