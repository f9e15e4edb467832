package models

import "fmt"

// ConnectionConfig represents a PostgreSQL connection configuration
type ConnectionConfig struct {
	Name     string `yaml:"name"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"-"`
	SSLMode  string `yaml:"ssl_mode"`
}

// String renders user@host:port/database without the password
func (c ConnectionConfig) String() string {
	return fmt.Sprintf("%s@%s:%d/%s", c.User, c.Host, c.Port, c.Database)
}

// PasswordSource indicates where a connection password was found
type PasswordSource int

const (
	PasswordNone PasswordSource = iota
	PasswordExplicit
	PasswordEnvironment
	PasswordKeyring
	PasswordPgPass
)

func (s PasswordSource) String() string {
	switch s {
	case PasswordNone:
		return "none"
	case PasswordExplicit:
		return "explicit"
	case PasswordEnvironment:
		return "environment"
	case PasswordKeyring:
		return "keyring"
	case PasswordPgPass:
		return ".pgpass"
	default:
		return "unknown"
	}
}
