package game

// ImportedEvent is published once per import batch after the commit
// loop finishes, for audit subscribers.
type ImportedEvent struct {
	Total   int
	Created int
	Updated int
	Skipped int
}
