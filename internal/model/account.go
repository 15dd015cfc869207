package model

// Account is a linked mailbox. The account list is not deduplicated.
type Account struct {
	Email     string `json:"email"`
	Connected bool   `json:"connected"`
}
