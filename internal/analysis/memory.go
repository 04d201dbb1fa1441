package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tailscale/hujson"
)

// Memory is one stored note that can enrich an analysis prompt.
type Memory struct {
	Content string   `json:"content"`
	Type    string   `json:"type"`
	Tags    []string `json:"tags"`
}

// MemoryIndex finds memories carrying any of the given tags.
type MemoryIndex interface {
	Find(ctx context.Context, tags []string) ([]Memory, error)
}

// SearchTags returns the memory tags consulted for a detector class.
func SearchTags(class string) []string {
	tags := []string{strings.ToUpper(class)}
	if class == "person" {
		tags = append(tags, "FACE", "NAME")
	}
	return tags
}

// StaticMemory is a read-only in-memory index.
type StaticMemory struct {
	entries []Memory
}

// NewStaticMemory indexes the given entries. Tags are matched
// case-insensitively.
func NewStaticMemory(entries []Memory) *StaticMemory {
	return &StaticMemory{entries: entries}
}

// maxMemoryFileSize caps memory files at 1 MB.
const maxMemoryFileSize = 1 << 20

// LoadStaticMemory reads a JSON array of Memory values. Comments and
// trailing commas are accepted.
func LoadStaticMemory(path string) (*StaticMemory, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat memory file: %w", err)
	}
	if info.Size() > maxMemoryFileSize {
		return nil, fmt.Errorf("memory file too large: %d bytes (max %d)", info.Size(), maxMemoryFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read memory file: %w", err)
	}
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse memory file: %w", err)
	}
	var entries []Memory
	if err := json.Unmarshal(std, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode memory file: %w", err)
	}
	return NewStaticMemory(entries), nil
}

// Find returns entries sharing at least one tag, in file order.
func (m *StaticMemory) Find(_ context.Context, tags []string) ([]Memory, error) {
	var out []Memory
	for _, e := range m.entries {
		if hasAnyTag(e.Tags, tags) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Len returns the number of indexed entries.
func (m *StaticMemory) Len() int {
	return len(m.entries)
}

func hasAnyTag(have, want []string) bool {
	for _, h := range have {
		for _, w := range want {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}
