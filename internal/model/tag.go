package model

// Tag is a user-defined label that can be attached to operations.
type Tag struct {
	Name string `json:"name"`
	ID   int64  `json:"id"`
}

// BankAccount is an account operations are imported into.
type BankAccount struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Currency string `json:"currency"`
	ID       int64  `json:"id"`
}
