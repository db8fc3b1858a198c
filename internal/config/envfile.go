package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// loadEnvFiles sets environment variables from .env.local and .env, looking in
// the current working directory and then next to the executable. Variables
// already set win. Called when DATABASE_URL is missing.
func loadEnvFiles() {
	for _, dir := range envDirs() {
		for _, name := range []string{".env.local", ".env"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			_ = godotenv.Load(path)
		}
	}
}

func envDirs() []string {
	var dirs []string
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}
	if exe, err := os.Executable(); err == nil {
		if dir := filepath.Dir(exe); dir != "" && (len(dirs) == 0 || dir != dirs[0]) {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}
