package identity

// AdminGroup members may administer users, groups and applications.
const AdminGroup = "admin"

// User is an account that can authenticate and act on tasks. PasswordHash is
// a bcrypt hash and must never leave the service layer.
type User struct {
	Username     string   `json:"username"`
	Email        string   `json:"email,omitempty"`
	Active       bool     `json:"active"`
	Groups       []string `json:"groups,omitempty"`
	PasswordHash string   `json:"-"`
}
