package passphrase

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

const defaultPrompt = "Enter keystore passphrase: "

var (
	ErrEmpty      = errors.New("keystore passphrase cannot be empty")
	ErrNoTerminal = errors.New("keystore passphrase required and no terminal available")
)

// Source resolves a keystore passphrase once, from envVar when it is set and
// from an interactive prompt otherwise.
type Source struct {
	envVar string
	prompt string

	lookupEnv func(string) (string, bool)
	readTTY   func(prompt string) ([]byte, error)

	once  sync.Once
	value string
	err   error
}

func NewSource(envVar, prompt string) *Source {
	if strings.TrimSpace(prompt) == "" {
		prompt = defaultPrompt
	}
	return &Source{
		envVar:    strings.TrimSpace(envVar),
		prompt:    prompt,
		lookupEnv: os.LookupEnv,
		readTTY:   readTerminal,
	}
}

// Get returns the passphrase, resolving it on the first call.
func (s *Source) Get() (string, error) {
	s.once.Do(func() { s.value, s.err = s.resolve() })
	return s.value, s.err
}

func (s *Source) resolve() (string, error) {
	if s.envVar != "" {
		if value, ok := s.lookupEnv(s.envVar); ok {
			if strings.TrimSpace(value) == "" {
				return "", fmt.Errorf("%s: %w", s.envVar, ErrEmpty)
			}
			return value, nil
		}
	}
	raw, err := s.readTTY(s.prompt)
	if errors.Is(err, ErrNoTerminal) && s.envVar != "" {
		return "", fmt.Errorf("%w; set %s", ErrNoTerminal, s.envVar)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(string(raw)) == "" {
		return "", ErrEmpty
	}
	return string(raw), nil
}

func readTerminal(prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNoTerminal
	}
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("read passphrase: %w", err)
	}
	return raw, nil
}
