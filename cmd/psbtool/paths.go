package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/UserUnknownFactor/psbtool/internal/batch"
)

const (
	envOutDir  = "PSBTOOL_OUT_DIR"
	envWorkers = "PSBTOOL_WORKERS"
	envConfig  = "PSBTOOL_CONFIG"
)

const (
	defaultScenarioPattern = "scn/*.scn"
	defaultScriptPattern   = "system/*.tjs"
)

// resolveOutDir picks the output directory: flag, then environment, then
// the default.
func resolveOutDir(outFlag string) string {
	if out := strings.TrimSpace(outFlag); out != "" {
		return filepath.Clean(out)
	}
	if out := strings.TrimSpace(os.Getenv(envOutDir)); out != "" {
		return filepath.Clean(out)
	}
	return batch.DefaultOutDir
}

// resolveWorkers returns the worker count. Zero lets the batch runner pick.
func resolveWorkers(flag int64) (int, error) {
	if flag > 0 {
		return int(flag), nil
	}
	v := strings.TrimSpace(os.Getenv(envWorkers))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %q", envWorkers, v)
	}
	return n, nil
}

// patternArg returns the first positional argument or def.
func patternArg(args []string, def string) string {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return args[0]
	}
	return def
}

// writeOutput writes data to path, creating parent directories.
func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// siblingPath returns path with suffix inserted before the extension.
func siblingPath(path, suffix, ext string) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	if ext == "" {
		ext = filepath.Ext(path)
	}
	return base + suffix + ext
}
