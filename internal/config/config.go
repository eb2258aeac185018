// Package config locates and loads the startup script files and resolves
// the environment the client depends on (TFLIBDIR, HOME, EDITOR, SHELL).
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultLibDir is the library directory compiled into release builds;
// TFLIBDIR overrides it.
const DefaultLibDir = "/usr/local/share/fugue/lib"

// StdlibFile is the library script every session sources at startup.
// Its absence is fatal.
const StdlibFile = "stdlib.tf"

// RCCandidates returns the config files to try, in order. When explicit
// is non-empty only it is returned. An empty or unset HOME contributes no
// home candidates (never a bare "/.tfrc").
func RCCandidates(explicit string) []string {
	if explicit != "" {
		return []string{explicit}
	}
	var out []string
	if home := os.Getenv("HOME"); home != "" {
		out = append(out,
			filepath.Join(home, ".tfrc"),
			filepath.Join(home, "tfrc"),
		)
	}
	out = append(out, ".tfrc", "tfrc")
	return out
}

// FindRC returns the first existing config file, or "" when none exists.
func FindRC(explicit string) string {
	for _, path := range RCCandidates(explicit) {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// LibDir resolves the library directory: the -L flag, then TFLIBDIR,
// then the compiled-in default.
func LibDir(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if dir := os.Getenv("TFLIBDIR"); dir != "" {
		return dir
	}
	return DefaultLibDir
}

// StdlibPath returns the stdlib script path, verifying it exists. A
// missing stdlib is a fatal startup error.
func StdlibPath(libDir string) (string, error) {
	path := filepath.Join(libDir, StdlibFile)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("standard library not found at %s: %w", path, err)
	}
	return path, nil
}

// Editor returns the external editor command: VISUAL, then EDITOR, then
// vi.
func Editor() string {
	if v := os.Getenv("VISUAL"); v != "" {
		return v
	}
	if v := os.Getenv("EDITOR"); v != "" {
		return v
	}
	return "vi"
}

// Shell returns the shell for /sh: SHELL or /bin/sh.
func Shell() string {
	if v := os.Getenv("SHELL"); v != "" {
		return v
	}
	return "/bin/sh"
}

// Proxy returns the TFPROXY host:port, or "" for direct connections.
// Worlds flagged NoProxy ignore it.
func Proxy() string {
	return os.Getenv("TFPROXY")
}

// TermName returns the terminal name reported in TTYPE negotiation.
func TermName() string {
	if v := os.Getenv("TERM"); v != "" {
		return v
	}
	return "ansi"
}

// SearchPath returns the TFPATH directories used to resolve relative
// /load arguments, always ending with the library directory.
func SearchPath(libDir string) []string {
	var out []string
	if tfpath := os.Getenv("TFPATH"); tfpath != "" {
		out = append(out, filepath.SplitList(tfpath)...)
	}
	return append(out, libDir)
}

// ResolveScript locates a script file for /load: absolute and
// cwd-relative paths are used as given; bare names are searched on the
// path.
func ResolveScript(name, libDir string) (string, error) {
	if filepath.IsAbs(name) || len(name) > 1 && name[0] == '.' {
		if _, err := os.Stat(name); err != nil {
			return "", err
		}
		return name, nil
	}
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}
	for _, dir := range SearchPath(libDir) {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s: not found on search path", name)
}

// WorldsFile returns the YAML world-store path under the user's config
// directory.
func WorldsFile() string {
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".fugue-worlds.yaml")
	}
	return ".fugue-worlds.yaml"
}
