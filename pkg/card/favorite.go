package card

// FavoriteStatus is the tri-state "is this subject favorited" machine.
// Transitions go Unknown -> Checking -> a Known state; once known, toggles
// move directly between the two Known states. Unmounting discards the
// state, so a remounted card starts back at Unknown.
type FavoriteStatus int

const (
	// StatusUnknown means no check has been issued yet.
	StatusUnknown FavoriteStatus = iota
	// StatusChecking means an existence lookup is in flight.
	StatusChecking
	// StatusNotFavorited is Known(false).
	StatusNotFavorited
	// StatusFavorited is Known(true).
	StatusFavorited
)

// Known reports whether the status has settled on a boolean.
func (s FavoriteStatus) Known() bool {
	return s == StatusNotFavorited || s == StatusFavorited
}

// Favorited reports whether the subject is known to be favorited.
func (s FavoriteStatus) Favorited() bool {
	return s == StatusFavorited
}

func (s FavoriteStatus) String() string {
	switch s {
	case StatusChecking:
		return "checking"
	case StatusNotFavorited:
		return "not-favorited"
	case StatusFavorited:
		return "favorited"
	default:
		return "unknown"
	}
}

func knownStatus(favorited bool) FavoriteStatus {
	if favorited {
		return StatusFavorited
	}
	return StatusNotFavorited
}
