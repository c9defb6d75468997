package kavita

import "fmt"

// AuthError means the server rejected the login credentials or token.
// The engine degrades to offline mode instead of aborting on it.
type AuthError struct {
	Status int
	Body   string
}

func (e *AuthError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("authentication failed: %s", e.Body)
	}
	return fmt.Sprintf("authentication failed: status %d: %s", e.Status, e.Body)
}

// RemoteError is any non-auth failure talking to the server: transport
// errors, non-2xx statuses and malformed bodies. Status and Body are
// kept for diagnostics.
type RemoteError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *RemoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Body)
}

func (e *RemoteError) Unwrap() error { return e.Err }
