package outliner

import (
	"errors"
	"fmt"

	"github.com/scenekit/outliner/internal/folder"
)

var (
	// ErrInvalidReparent covers cycles, no-op moves and name collisions.
	ErrInvalidReparent = folder.ErrInvalidReparent
	// ErrAttachmentRejected is returned when the world refuses an attachment.
	ErrAttachmentRejected = errors.New("attachment rejected")
	// ErrStaleReference marks an item whose entity no longer exists.
	ErrStaleReference = errors.New("stale reference")
	ErrUnknownColumn  = errors.New("unknown sort column")
	// ErrBusy rejects a move requested while the tree is being updated.
	ErrBusy = errors.New("outliner busy")
)

// MoveError is returned by RequestMove for a rejected drop. Error() is the
// message shown to the user.
type MoveError struct {
	Kind    Action
	Message string
	Err     error
}

func (e *MoveError) Error() string { return e.Message }
func (e *MoveError) Unwrap() error { return e.Err }

func columnError(id string) error {
	return fmt.Errorf("sort by %q: %w", id, ErrUnknownColumn)
}
