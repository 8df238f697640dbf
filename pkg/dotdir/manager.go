// Package dotdir manages the .langchat/ and ~/.langchat directories that hold
// the CLI's config.toml and the local chat history database.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the langchat directory.
	dirName = ".langchat"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .langchat/ directory.
// Order of precedence is as follows:
//  1. Provided override (created if missing)
//  2. Local ./.langchat/ dir
//  3. Home ~/.langchat/ dir
//
// If none is found, Target returns an empty string and no error.
func (m *Manager) Target(overrideDir string) (string, error) {
	switch {
	case overrideDir != "":
		if err := os.MkdirAll(overrideDir, 0o755); err != nil {
			return "", fmt.Errorf("creating langchat directory %s: %w", overrideDir, err)
		}
		return filepath.Abs(overrideDir)

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		return filepath.Join(cwd, dirName), nil
	}

	home, err := m.homeDir()
	if err != nil {
		return "", err
	}

	if info, err := os.Stat(home); err == nil && info.IsDir() {
		return home, nil
	}

	return "", nil
}

// Ensure behaves like Target but creates ~/.langchat/ when no directory
// was found.
func (m *Manager) Ensure(overrideDir string) (string, error) {
	target, err := m.Target(overrideDir)
	if err != nil || target != "" {
		return target, err
	}

	home, err := m.homeDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(home, 0o755); err != nil {
		return "", fmt.Errorf("creating langchat directory %s: %w", home, err)
	}

	return home, nil
}

func (m *Manager) homeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// localDirExists checks whether a .langchat/ directory exists in the current
// working directory.
func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, dirName))
	return err == nil && info.IsDir()
}
