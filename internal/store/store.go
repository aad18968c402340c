package store

// Store is the key-value persistence the application state lives in. The draw
// engine never touches it; only the ledger and the admin gate do, each under
// its own key.
type Store interface {
	// Get unmarshals the value stored under key into out. The boolean reports
	// whether the key existed.
	Get(key string, out any) (bool, error)
	// Put stores v under key, replacing any previous value, and persists.
	Put(key string, v any) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
}

// Well-known keys. Kept apart so the admin password never collides with the
// winner list.
const (
	KeyWinners       = "raffle_winners"
	KeyAdminPassword = "raffle_admin_password"
)
