package history

// ErrNotFound is returned when a turn doesn't exist in the store.
type ErrNotFound struct {
	ID string
}

func (e ErrNotFound) Error() string {
	if e.ID == "" {
		return "turn not found"
	}

	return "turn not found: " + e.ID
}
