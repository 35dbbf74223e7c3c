package favorites

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	appDirName    = "pullapod"
	legacyDirName = ".pullapod"
	fileName      = "favorites.json"
)

// ResolvePath returns the favorites file location for opts. An explicit
// opts.Path is validated with ValidateCustomPath; otherwise the first match
// wins:
//
//  1. <XDGConfigHome>/pullapod/favorites.json
//  2. on Windows, <home>/.pullapod/favorites.json
//  3. <home>/.config/pullapod/favorites.json when <home>/.config exists
//  4. <home>/.pullapod/favorites.json
func ResolvePath(opts Options) (string, error) {
	if opts.Path != "" {
		return ValidateCustomPath(opts.Path, opts)
	}
	if xdg := strings.TrimSpace(opts.XDGConfigHome); xdg != "" {
		return filepath.Join(xdg, appDirName, fileName), nil
	}
	home := strings.TrimSpace(opts.HomeDir)
	if home == "" {
		return "", invalidInput("resolve path", "", "cannot determine home directory for favorites file")
	}
	if opts.goos() == "windows" {
		return filepath.Join(home, legacyDirName, fileName), nil
	}
	if info, err := os.Stat(filepath.Join(home, ".config")); err == nil && info.IsDir() {
		return filepath.Join(home, ".config", appDirName, fileName), nil
	}
	return filepath.Join(home, legacyDirName, fileName), nil
}

// ValidateCustomPath checks an explicitly supplied favorites path and returns
// its absolute form. Paths containing a ".." element are rejected outright.
// Outside test mode the path must also sit inside one of the per-user config
// directories.
func ValidateCustomPath(path string, opts Options) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", invalidInput("validate path", "", "favorites path must not be empty")
	}
	if strings.Contains(trimmed, "..") {
		return "", invalidInput("validate path", trimmed, "favorites path must not contain '..'")
	}
	absolute, err := filepath.Abs(trimmed)
	if err != nil {
		return "", &StoreError{Kind: KindInvalidInput, Op: "validate path", Path: trimmed, Message: "cannot resolve favorites path", Err: err}
	}
	if opts.TestMode {
		return absolute, nil
	}
	for _, dir := range allowedDirs(opts) {
		if within(dir, absolute) {
			return absolute, nil
		}
	}
	return "", invalidInput("validate path", absolute,
		"favorites path must be inside "+strings.Join(allowedDirs(opts), ", "))
}

func allowedDirs(opts Options) []string {
	var dirs []string
	if xdg := strings.TrimSpace(opts.XDGConfigHome); xdg != "" {
		dirs = append(dirs, filepath.Clean(xdg))
	}
	if home := strings.TrimSpace(opts.HomeDir); home != "" {
		dirs = append(dirs,
			filepath.Join(home, ".config"),
			filepath.Join(home, legacyDirName))
	}
	return dirs
}

// within reports whether target lies strictly below dir.
func within(dir, target string) bool {
	rel, err := filepath.Rel(dir, target)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (o Options) goos() string {
	if o.GOOS != "" {
		return o.GOOS
	}
	return runtime.GOOS
}
