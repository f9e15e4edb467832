package credentials

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/99designs/keyring"
)

const serviceName = "lazyview"

// ErrPasswordNotFound is returned when no password is stored for a connection
var ErrPasswordNotFound = errors.New("password not found")

// PasswordSaveError wraps a keyring write failure
type PasswordSaveError struct {
	Err     error
	Message string
}

func (e *PasswordSaveError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *PasswordSaveError) Unwrap() error { return e.Err }

// PasswordReadError wraps a keyring read failure
type PasswordReadError struct {
	Err error
}

func (e *PasswordReadError) Error() string {
	return fmt.Sprintf("failed to read password from keyring: %v", e.Err)
}

func (e *PasswordReadError) Unwrap() error { return e.Err }

// PasswordStore handles secure password storage using OS keyring with file fallback
type PasswordStore struct {
	ring          keyring.Keyring
	usingFallback bool
}

// NewPasswordStore opens the keyring with platform-appropriate backends
func NewPasswordStore(configDir string) (*PasswordStore, error) {
	backends := getBackendsForPlatform()

	ring, err := keyring.Open(keyring.Config{
		ServiceName:     serviceName,
		AllowedBackends: backends,
		// File backend configuration
		FileDir: filepath.Join(configDir, "keyring"),
		FilePasswordFunc: func(_ string) (string, error) {
			return deriveFilePassword()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}

	return &PasswordStore{
		ring:          ring,
		usingFallback: isUsingFallback(backends),
	}, nil
}

// NewPasswordStoreWithRing wraps an already opened keyring
func NewPasswordStoreWithRing(ring keyring.Keyring) *PasswordStore {
	return &PasswordStore{ring: ring}
}

// getBackendsForPlatform returns the appropriate backend priority for the current OS
func getBackendsForPlatform() []keyring.BackendType {
	switch runtime.GOOS {
	case "darwin":
		return []keyring.BackendType{keyring.KeychainBackend, keyring.FileBackend}
	case "linux":
		return []keyring.BackendType{keyring.SecretServiceBackend, keyring.KWalletBackend, keyring.FileBackend}
	case "windows":
		return []keyring.BackendType{keyring.WinCredBackend, keyring.FileBackend}
	default:
		return []keyring.BackendType{keyring.FileBackend}
	}
}

// isUsingFallback reports whether only the file backend can serve requests
func isUsingFallback(requested []keyring.BackendType) bool {
	if len(requested) == 1 && requested[0] == keyring.FileBackend {
		return true
	}
	for _, b := range keyring.AvailableBackends() {
		if b != keyring.FileBackend {
			return false
		}
	}
	return true
}

// IsUsingFallback returns true if the password store is using the file backend
// instead of the native OS keyring
func (ps *PasswordStore) IsUsingFallback() bool {
	return ps.usingFallback
}

// Save stores a password. Empty passwords are not stored.
func (ps *PasswordStore) Save(host string, port int, database, user, password string) error {
	if password == "" {
		return nil
	}

	err := ps.ring.Set(keyring.Item{
		Key:         makeKey(host, port, database, user),
		Data:        []byte(password),
		Label:       fmt.Sprintf("lazyview: %s@%s:%d/%s", user, host, port, database),
		Description: "PostgreSQL connection password for lazyview",
	})
	if err != nil {
		return &PasswordSaveError{
			Err:     err,
			Message: "failed to save password to keyring",
		}
	}
	return nil
}

// Get retrieves a password from the keyring
func (ps *PasswordStore) Get(host string, port int, database, user string) (string, error) {
	item, err := ps.ring.Get(makeKey(host, port, database, user))
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrPasswordNotFound
		}
		return "", &PasswordReadError{Err: err}
	}
	return string(item.Data), nil
}

// Delete removes a password from the keyring
func (ps *PasswordStore) Delete(host string, port int, database, user string) error {
	err := ps.ring.Remove(makeKey(host, port, database, user))
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete password from keyring: %w", err)
	}
	return nil
}

// makeKey creates a unique key for password storage
func makeKey(host string, port int, database, user string) string {
	return fmt.Sprintf("%s:%d:%s:%s", host, port, database, user)
}
