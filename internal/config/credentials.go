package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables holding the service login
const (
	EnvUsername = "SERVICE_USERNAME"
	EnvPassword = "SERVICE_PASSWORD"
)

// ErrMissingCredentials means the username or password is empty
var ErrMissingCredentials = errors.New("SERVICE_USERNAME or SERVICE_PASSWORD is not set")

// Credentials is the service login. It is never persisted.
type Credentials struct {
	Username string
	Password string
}

// LoadDotEnv loads a .env file from the working directory if there is one.
// Variables already set in the process environment win.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// CredentialsFromEnv reads the login from the process environment
func CredentialsFromEnv() Credentials {
	return Credentials{
		Username: os.Getenv(EnvUsername),
		Password: os.Getenv(EnvPassword),
	}
}

// Validate returns ErrMissingCredentials unless both fields are set
func (c Credentials) Validate() error {
	if c.Username == "" || c.Password == "" {
		return ErrMissingCredentials
	}
	return nil
}

// String hides the password so credentials can be logged safely
func (c Credentials) String() string {
	if c.Username == "" {
		return "<none>"
	}
	return c.Username + ":***"
}
