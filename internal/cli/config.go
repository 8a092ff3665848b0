package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds CLI configuration
type Config struct {
	ServerURL  string
	Handle     string
	HandleFile string
	Output     string
	Verbose    bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL:  getEnvOrDefault("TRIVIA_SERVER", "http://localhost:8080"),
		Handle:     os.Getenv("TRIVIA_HANDLE"),
		HandleFile: getEnvOrDefault("TRIVIA_HANDLE_FILE", defaultHandleFile()),
		Output:     "text",
		Verbose:    false,
	}
}

// LoadHandle loads the handle from file if not already set
func (c *Config) LoadHandle() error {
	if c.Handle != "" {
		return nil
	}

	data, err := os.ReadFile(c.HandleFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // No handle file is fine
		}
		return err
	}

	c.Handle = strings.TrimSpace(string(data))
	return nil
}

// SaveHandle saves the handle to the handle file
func (c *Config) SaveHandle(handle string) error {
	c.Handle = handle

	dir := filepath.Dir(c.HandleFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	return os.WriteFile(c.HandleFile, []byte(handle), 0600)
}

// RequireHandle returns the configured handle or an error telling the user
// how to set one
func (c *Config) RequireHandle() (string, error) {
	if c.Handle == "" {
		return "", errors.New("no handle set: run 'trivia auth use <handle>' or pass --handle")
	}
	return c.Handle, nil
}

func defaultHandleFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".trivia/handle"
	}
	return filepath.Join(home, ".trivia", "handle")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
