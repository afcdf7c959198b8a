package models

// Identity is the authenticated principal derived from a credential token.
// It is replaced wholesale, never mutated.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
	DisplayName string `json:"display_name"`
}
