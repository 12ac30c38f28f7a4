package user

// profileRecord is the users/{uid} document written on first sign in.
type profileRecord struct {
	ID          string `structs:"id"`
	Email       string `structs:"email,omitempty"`
	DisplayName string `structs:"displayName,omitempty"`
}
