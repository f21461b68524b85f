package config

import (
	"os"
	"path/filepath"
)

// defaultLogRoots returns the default log roots.
//
// Searches in order:
// 1. ~/.claude/
// 2. ~/.config/claude/
//
// Returns all roots that exist on the filesystem.
func defaultLogRoots() []string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home dir not available
		return []string{"."}
	}

	candidates := []string{
		filepath.Join(homeDir, ".claude"),
		filepath.Join(homeDir, ".config", "claude"),
	}

	var roots []string
	for _, dir := range candidates {
		if _, err := os.Stat(dir); err == nil {
			roots = append(roots, dir)
		}
	}

	// If nothing exists yet, report the primary default anyway so the
	// error surfaces at scan time, not config time.
	if len(roots) == 0 {
		return []string{candidates[0]}
	}

	return roots
}

// defaultDBPath returns the default state database file path.
//
// Returns: ~/.config/usage-ledger/state.db.
func defaultDBPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./state.db"
	}

	return filepath.Join(homeDir, ".config", "usage-ledger", "state.db")
}

// defaultConfigPath returns the default configuration file path.
//
// Returns: ~/.config/usage-ledger/config.yaml.
func defaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}

	return filepath.Join(homeDir, ".config", "usage-ledger", "config.yaml")
}
