package config

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultName is the file used when no configuration name is given.
const DefaultName = "config.yaml"

const nameSuffix = "_config.yaml"

// FileName maps a configuration name to a file name: "" and "default"
// become config.yaml, a bare board name such as "Pico" becomes
// Pico_config.yaml, and names that already carry a YAML extension are kept.
func FileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || name == "default" {
		return DefaultName
	}
	if strings.HasSuffix(name, nameSuffix) {
		return name
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return name
	}
	return name + nameSuffix
}

// SearchDirs returns the directories searched for bare configuration names:
// the working directory, the per-user config directory and /etc/mcp2serial.
func SearchDirs() []string {
	dirs := []string{"."}
	if dir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(dir, "mcp2serial"))
	}
	return append(dirs, "/etc/mcp2serial")
}

// Resolve locates the configuration file for name. Names containing a path
// separator are taken as paths; bare names are looked up in dirs in order.
func Resolve(name string, dirs []string) (string, error) {
	file := FileName(name)

	if strings.ContainsRune(file, os.PathSeparator) {
		if _, err := os.Stat(file); err != nil {
			return "", &Error{Kind: KindFileNotFound, Path: file, Err: err}
		}
		return file, nil
	}

	for _, dir := range dirs {
		candidate := filepath.Join(dir, file)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", &Error{
		Kind: KindFileNotFound,
		Path: file,
		Err:  os.ErrNotExist,
	}
}
