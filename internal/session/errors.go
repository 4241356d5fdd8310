package session

import "errors"

// Common errors
var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionNotEditable = errors.New("session is not editable")
	ErrSessionClosed      = errors.New("session is closed")
	ErrPickerNotOpen      = errors.New("coordinate picker is not open")
	ErrNoStagedCoordinate = errors.New("no staged coordinate")
	ErrInvalidCoordinate  = errors.New("invalid coordinate")
	ErrInvalidLandmark    = errors.New("invalid landmark type")
)
