// Package idgen generates the short agent identifiers used for workspace
// directories and status documents.
package idgen

import (
	"crypto/rand"
	"fmt"
	"os"
	"strings"
)

const charset = "abcdefghijklmnopqrstuvwxyz0123456789"

// IDLength is the number of characters in an agent id.
const IDLength = 6

// maxRetries bounds collision retries before Generate gives up.
const maxRetries = 10

// Generator produces unique lowercase alphanumeric agent ids. It tracks every
// id it has issued or been told about, so ids stay unique across a planning
// session even when a workspace already holds agents from earlier runs.
type Generator struct {
	used map[string]bool
}

// New creates an empty generator.
func New() *Generator {
	return &Generator{used: make(map[string]bool)}
}

// ValidFormat reports whether id is a well-formed agent id: exactly six
// lowercase alphanumeric characters.
func ValidFormat(id string) bool {
	if len(id) != IDLength {
		return false
	}
	for _, c := range id {
		if !strings.ContainsRune(charset, c) {
			return false
		}
	}
	return true
}

func randomID() string {
	b := make([]byte, IDLength)
	rand.Read(b)
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}

// Generate returns a fresh id no previous call has produced or registered.
func (g *Generator) Generate() (string, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		id := randomID()
		if g.used[id] {
			continue
		}
		g.used[id] = true
		return id, nil
	}
	return "", fmt.Errorf("no unique agent id after %d attempts", maxRetries)
}

// GenerateBatch returns n fresh ids.
func (g *Generator) GenerateBatch(n int) ([]string, error) {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id, err := g.Generate()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Register marks an externally assigned id as taken. Malformed ids are
// rejected so a corrupted workspace cannot poison the pool.
func (g *Generator) Register(id string) error {
	if !ValidFormat(id) {
		return fmt.Errorf("invalid agent id %q: want %d lowercase alphanumeric characters", id, IDLength)
	}
	g.used[id] = true
	return nil
}

// PoolSize returns how many ids the generator is tracking.
func (g *Generator) PoolSize() int {
	return len(g.used)
}

// ScanWorkspace registers every well-formed agent id found as an `agent-<id>`
// directory under dir and returns how many new ids it picked up. A missing
// workspace counts as empty.
func (g *Generator) ScanWorkspace(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("scanning workspace %s: %w", dir, err)
	}

	count := 0
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "agent-") {
			continue
		}
		id := strings.TrimPrefix(entry.Name(), "agent-")
		if !ValidFormat(id) {
			continue
		}
		if !g.used[id] {
			g.used[id] = true
			count++
		}
	}
	return count, nil
}
