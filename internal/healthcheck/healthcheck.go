package healthcheck

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/l3aro/go-vir-cfg/internal/config"
	"github.com/l3aro/go-vir-cfg/pkg/cache"
	"github.com/l3aro/go-vir-cfg/pkg/cfg"
)

// CacheStatus represents the health of the snapshot cache file.
type CacheStatus struct {
	Path    string
	Status  string // "ready", "missing", "error"
	Entries int
	Corrupt []string // names whose digest does not match
	Error   string
}

// HealthCheckResult contains the full health check output for display.
type HealthCheckResult struct {
	SavedPath      string
	SavedScope     string // "global" or "project"
	EffectivePath  string
	EffectiveScope string // "global" or "project"
	Cache          CacheStatus
	InvalidLabels  []string // reserved labels no block could ever use
}

// OK reports whether nothing needs the user's attention.
func (r *HealthCheckResult) OK() bool {
	return r.Cache.Status != "error" && len(r.Cache.Corrupt) == 0 && len(r.InvalidLabels) == 0
}

// Check performs a health check against the given config.
// savedPath is where the user saved config (may be empty outside init).
// effectivePath is the config file actually in use (considering priority).
func Check(c *config.Config, savedPath string, effectivePath string) (*HealthCheckResult, error) {
	if c == nil {
		return nil, fmt.Errorf("config is nil")
	}

	result := &HealthCheckResult{
		SavedPath:      savedPath,
		SavedScope:     scopeFromPath(savedPath),
		EffectivePath:  effectivePath,
		EffectiveScope: scopeFromPath(effectivePath),
	}

	for _, l := range c.ReservedLabels {
		if !cfg.ValidLabel(l) || l == cfg.ReturnLabel {
			result.InvalidLabels = append(result.InvalidLabels, l)
		}
	}

	result.Cache = checkCache(c.CachePath, c.CacheMaxEntries)

	return result, nil
}

// scopeFromPath determines "global" or "project" scope from a config file path.
// Returns empty string if path is empty.
func scopeFromPath(path string) string {
	if path == "" {
		return ""
	}

	home, err := os.UserHomeDir()
	if err == nil {
		globalDir := filepath.Join(home, ".vcfg")
		if strings.HasPrefix(path, globalDir) {
			return "global"
		}
	}

	return "project"
}

// checkCache loads the cache file and verifies every entry against its digest.
func checkCache(path string, maxEntries int) CacheStatus {
	status := CacheStatus{Path: path}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			status.Status = "missing"
			return status
		}
		status.Status = "error"
		status.Error = err.Error()
		return status
	}

	c := cache.New(cache.Options{MaxEntries: maxEntries})
	if err := cache.LoadFromFile(c, path); err != nil {
		status.Status = "error"
		status.Error = err.Error()
		return status
	}

	for _, e := range c.Entries() {
		if cache.HashBytes(e.Data) != e.Digest {
			status.Corrupt = append(status.Corrupt, e.Name)
		}
	}
	status.Entries = c.Len()
	status.Status = "ready"
	return status
}
