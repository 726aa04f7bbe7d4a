package model

// SyncResult is the outcome of one maintenance pass.
type SyncResult struct {
	Diagnostics         []string `json:"-"`
	RulesApplied        int      `json:"rulesApplied"`
	DuplicatesRefreshed int      `json:"duplicatesRefreshed"`
}
