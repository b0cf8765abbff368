package mpris

// PlayerNotFoundError indicates that a player doesn't exist
type PlayerNotFoundError struct {
	BusName string
}

func (e *PlayerNotFoundError) Error() string {
	return "player not found: " + e.BusName
}

// InvalidBusNameError indicates that a busName is invalid
type InvalidBusNameError struct {
	BusName string
	Reason  string
}

func (e *InvalidBusNameError) Error() string {
	return "invalid player name: " + e.Reason
}

// ControlError indicates that a player rejected a control call or is gone
type ControlError struct {
	BusName string
	Command string
	Err     error
}

func (e *ControlError) Error() string {
	return "control " + e.Command + " failed for " + e.BusName + ": " + e.Err.Error()
}

func (e *ControlError) Unwrap() error {
	return e.Err
}

// UnreachableError indicates that a player's properties could not be read.
// Callers treat it as an imminent removal of the player.
type UnreachableError struct {
	BusName string
	Err     error
}

func (e *UnreachableError) Error() string {
	return "player " + e.BusName + " unreachable: " + e.Err.Error()
}

func (e *UnreachableError) Unwrap() error {
	return e.Err
}
