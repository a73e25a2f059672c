package models

import (
	"sort"
	"time"
)

// Repository represents one corpus entry from the manifest.
type Repository struct {
	ID                 string
	Ref                string   // branch or tag to fetch
	Location           string   // fetchable git URL
	Args               []string // passed verbatim to both tool invocations
	NeedsPregeneration bool     // regenerate the std definitions before each measured run
}

// Corpus is the loaded manifest. Entries are ordered by ID.
type Corpus struct {
	Entries []Repository
}

// NewCorpus builds a corpus from a keyed mapping, ordering entries by ID.
func NewCorpus(repos map[string]Repository) Corpus {
	ids := make([]string, 0, len(repos))
	for id := range repos {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	entries := make([]Repository, 0, len(ids))
	for _, id := range ids {
		repo := repos[id]
		repo.ID = id
		entries = append(entries, repo)
	}
	return Corpus{Entries: entries}
}

// IDs returns the entry IDs in iteration order.
func (c Corpus) IDs() []string {
	ids := make([]string, len(c.Entries))
	for i, e := range c.Entries {
		ids[i] = e.ID
	}
	return ids
}

// EnvConfig holds the process-wide settings read from the environment.
type EnvConfig struct {
	OldTool     string
	NewTool     string
	ScratchRoot string
}

// Granularity selects how the diff engine splits its inputs.
type Granularity string

const (
	GranularityLine Granularity = "line"
	GranularityChar Granularity = "char"
)

// RunConfig holds the options controlling one harness run.
type RunConfig struct {
	Jobs        int
	KeepGoing   bool
	Timeout     time.Duration
	Granularity Granularity
	Cleanup     bool
	DockerImage string
}
