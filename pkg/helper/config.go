package helper

import (
	"os"
	"path/filepath"
)

// GetCfgPath resolves a configuration filename.
//
// Priority:
// 1. An absolute path is returned directly.
// 2. ./{filename}, then ./configs/{filename}
// 3. Fallback to /etc/syncroom/{filename}
func GetCfgPath(filename string) string {
	if filename == "" {
		panic("filename cannot be empty")
	}

	if filepath.IsAbs(filename) {
		return filename
	}

	if local := findLocal(filename); local != "" {
		return local
	}

	return filepath.Join("/etc/syncroom", filename)
}

func findLocal(filename string) string {
	cwd, err := os.Getwd()
	if err != nil || cwd == "" {
		return ""
	}

	for _, candidate := range []string{
		filepath.Join(cwd, filename),
		filepath.Join(cwd, "configs", filename),
	} {
		if _, err := os.Stat(candidate); err == nil {
			if abs, err := filepath.Abs(candidate); err == nil {
				return abs
			}
		}
	}
	return ""
}
