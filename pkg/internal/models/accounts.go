package models

// Account is the identity resolved from an access token.
// Owned by the auth collaborator, read-only to this service, never persisted.
type Account struct {
	ID     uint    `json:"id"`
	Name   string  `json:"name"`
	Nick   string  `json:"nick"`
	Avatar *string `json:"avatar"`
}
