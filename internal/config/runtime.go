package config

import (
	"os"
	"path/filepath"
)

const defaultRuntimeDir = ".tutorbot"

// GetRuntimePath is resolved before any .env is loaded, because the .env
// file itself lives there.
func GetRuntimePath() string {
	path := os.Getenv("TUTOR_RUNTIME_PATH")
	if path == "" {
		path = defaultRuntimeDir
	}
	return resolveHome(path)
}

// resolveHome anchors relative paths at the user's home directory.
func resolveHome(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path)
}

func GetEnvFilePath() string {
	return filepath.Join(GetRuntimePath(), ".env")
}
