package model

// Category is a user-defined bucket for emails. ID is assigned by the
// backend. EmailCount is derived from the local email collection and is
// recomputed after every insert or delete.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	EmailCount  int    `json:"emailCount"`
}
