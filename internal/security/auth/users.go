package auth

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/workstream/internal/domain"
)

// User is a locally-configured login used to mint development tokens. The
// real identity provider lives outside this service; this store only
// exists so the login endpoint and CLI have something to authenticate
// against without it.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt
	Role         domain.Role
	CompanyID    string
}

// UserStore holds the configured logins.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]*User // email -> user
}

// NewUserStore parses the DEV_USERS config format:
// email|role|companyId|bcryptHash entries separated by commas.
func NewUserStore(spec string) (*UserStore, error) {
	us := &UserStore{users: map[string]*User{}}
	if strings.TrimSpace(spec) == "" {
		return us, nil
	}
	for i, entry := range strings.Split(spec, ",") {
		parts := strings.Split(strings.TrimSpace(entry), "|")
		if len(parts) != 4 {
			return nil, fmt.Errorf("invalid DEV_USERS entry %d: want email|role|companyId|hash", i+1)
		}
		email := strings.TrimSpace(parts[0])
		us.users[email] = &User{
			ID:           fmt.Sprintf("user-%d", i+1),
			Email:        email,
			Role:         domain.Role(strings.TrimSpace(parts[1])),
			CompanyID:    strings.TrimSpace(parts[2]),
			PasswordHash: strings.TrimSpace(parts[3]),
		}
	}
	return us, nil
}

// Add registers a user with a freshly hashed password. Used by tests and
// the CLI token helper.
func (us *UserStore) Add(email, password, companyID string, role domain.Role) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	us.mu.Lock()
	defer us.mu.Unlock()
	us.users[email] = &User{
		ID:           "user-" + email,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CompanyID:    companyID,
	}
	return nil
}

// Authenticate verifies credentials and returns the matching user.
func (us *UserStore) Authenticate(email, password string) (*User, error) {
	us.mu.RLock()
	user, exists := us.users[email]
	us.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("user not found")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid password")
	}
	return user, nil
}

// Empty reports whether any users are configured.
func (us *UserStore) Empty() bool {
	us.mu.RLock()
	defer us.mu.RUnlock()
	return len(us.users) == 0
}
