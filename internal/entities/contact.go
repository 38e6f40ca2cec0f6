package entities

// Contact is a directory record. ID is assigned by the directory on creation.
type Contact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// NewContact is the body of a create request.
type NewContact struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// DirectorySnapshot is the client-side view of the contact directory.
type DirectorySnapshot struct {
	Contacts []Contact `json:"contacts"`
	Loading  bool      `json:"loading"`
	Error    string    `json:"error,omitempty"`
}
