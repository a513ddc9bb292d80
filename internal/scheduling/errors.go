package scheduling

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the Engine wraps exactly one of these.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrStorage    = errors.New("storage error")
)

var (
	ErrDateNotInFuture          = fmt.Errorf("%w: date must be in the future", ErrValidation)
	ErrSpecializationMismatch   = fmt.Errorf("%w: specialization mismatch: doctor lacks specialization", ErrValidation)
	ErrRoomIneligible           = fmt.Errorf("%w: room ineligible for specialization", ErrValidation)
	ErrInvalidReason            = fmt.Errorf("%w: invalid reason", ErrValidation)
	ErrInvalidStatus            = fmt.Errorf("%w: invalid status", ErrValidation)
	ErrCannotCancel             = fmt.Errorf("%w: cannot cancel terminal visit", ErrValidation)
	ErrIDMismatch               = fmt.Errorf("%w: id mismatch", ErrValidation)
	ErrDoctorNotFound           = fmt.Errorf("doctor %w", ErrNotFound)
	ErrPatientNotFound          = fmt.Errorf("patient %w", ErrNotFound)
	ErrVisitNotFound            = fmt.Errorf("visit %w", ErrNotFound)
	ErrNoRoomsForSpecialization = fmt.Errorf("no rooms for specialization: %w", ErrNotFound)
	ErrDoctorDoubleBooked       = fmt.Errorf("%w: doctor double-booked", ErrConflict)
	ErrRoomDoubleBooked         = fmt.Errorf("%w: room double-booked", ErrConflict)
)

// storageError wraps a gateway failure unless it already carries a kind.
func storageError(op string, err error) error {
	if isClassified(err) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

func isClassified(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrStorage)
}
