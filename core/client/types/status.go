package types

// Status of a light client.
type Status string

const (
	// Active is a status type of a client. An active client is allowed to be used.
	Active Status = "Active"

	// Frozen is a status type of a client. A frozen client is not allowed to be used.
	Frozen Status = "Frozen"

	// Expired is a status type of a client. An expired client is not allowed to be used.
	Expired Status = "Expired"

	// Unknown indicates there was an error in determining the status of a client.
	Unknown Status = "Unknown"
)

func (s Status) String() string {
	return string(s)
}

// IsActive reports whether the client may be used.
func (s Status) IsActive() bool {
	return s == Active
}
