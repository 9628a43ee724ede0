package game

import "errors"

// Typed failure kinds. All are reported synchronously to the caller;
// none are retried and none are fatal to the process.
var (
	ErrInvalidSkill       = errors.New("skill value outside 0-8")
	ErrNameTaken          = errors.New("character name already taken")
	ErrInvalidAllocation  = errors.New("skill points must total exactly 10 spent")
	ErrCharacterNotFound  = errors.New("character not found")
	ErrInsufficientFunds  = errors.New("insufficient credits")
	ErrAlreadyOwned       = errors.New("mech already owned")
	ErrImpassableTerrain  = errors.New("terrain is impassable")
	ErrNoMovementPoints   = errors.New("insufficient movement points")
	ErrNoOperationalMech  = errors.New("no operational mech available")
	ErrMissionUnavailable = errors.New("mission not available")
	ErrMechInstanceNotFound = errors.New("mech instance not found in hangar")
	ErrNotOperational     = errors.New("mech is not operational")
)
