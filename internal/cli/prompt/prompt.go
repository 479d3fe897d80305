// Package prompt asks for missing input on an interactive terminal
package prompt

import (
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"

	"github.com/gobarber/gobarber/internal/session"
)

// ErrNonInteractive is returned when stdin is not a terminal
var ErrNonInteractive = errors.New("stdin is not a terminal")

// IsInteractive reports whether stdin is a terminal (not piped)
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Text asks for a single line. validate may be nil.
func Text(label, defaultValue string, validate func(string) error) (string, error) {
	if !IsInteractive() {
		return "", ErrNonInteractive
	}

	p := promptui.Prompt{
		Label:    label,
		Default:  defaultValue,
		Validate: validate,
	}

	value, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("%s prompt cancelled: %w", label, err)
	}
	return value, nil
}

// Password reads a secret without echoing it
func Password(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", ErrNonInteractive
	}

	fmt.Fprintf(os.Stderr, "%s: ", label)
	bytePassword, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr) // New line after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}

// SelectProvider shows an interactive list of providers and returns the chosen one
func SelectProvider(providers []session.User) (*session.User, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("no providers available")
	}
	if !IsInteractive() {
		return nil, ErrNonInteractive
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Name | cyan }} ({{ .Email }})",
		Inactive: "  {{ .Name }} ({{ .Email }})",
		Selected: "{{ .Name | green }}",
	}

	p := promptui.Select{
		Label:     "Select a provider",
		Items:     providers,
		Templates: templates,
		Size:      10,
	}

	index, _, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection cancelled: %w", err)
	}

	return &providers[index], nil
}
