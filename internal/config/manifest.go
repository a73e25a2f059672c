package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/spachava753/selenology/internal/models"
)

//go:embed repos.toml
var defaultManifest []byte

// Format is the encoding of a manifest document.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// manifestEntry is the on-disk shape of one corpus entry. Pointer fields
// distinguish a missing key from an empty value.
type manifestEntry struct {
	Ref    *string   `toml:"ref" yaml:"ref"`
	Branch *string   `toml:"branch" yaml:"branch"`
	Repo   *string   `toml:"repo" yaml:"repo"`
	Args   *[]string `toml:"args" yaml:"args"`
	Roblox bool      `toml:"roblox" yaml:"roblox"`
}

// DefaultManifest returns the manifest compiled into the binary.
func DefaultManifest() []byte {
	return bytes.Clone(defaultManifest)
}

// LoadDefaultManifest parses the embedded manifest.
func LoadDefaultManifest() (models.Corpus, error) {
	return LoadManifest(defaultManifest, FormatTOML)
}

// LoadManifestFile reads a manifest from disk, picking the format from the file extension.
func LoadManifestFile(path string) (models.Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Corpus{}, &models.ConfigError{Key: "manifest", Err: fmt.Errorf("reading manifest: %w", err)}
	}

	format := FormatTOML
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	}

	return LoadManifest(data, format)
}

// LoadManifest parses manifest text into a corpus ordered by entry ID.
func LoadManifest(data []byte, format Format) (models.Corpus, error) {
	var (
		raw map[string]manifestEntry
		err error
	)
	switch format {
	case FormatTOML:
		raw, err = decodeTOML(data)
	case FormatYAML:
		raw, err = decodeYAML(data)
	default:
		err = fmt.Errorf("unsupported manifest format: %s", format)
	}
	if err != nil {
		return models.Corpus{}, &models.ConfigError{Key: "manifest", Err: err}
	}

	repos := make(map[string]models.Repository, len(raw))
	for id, entry := range raw {
		repo, err := entry.toRepository(id)
		if err != nil {
			return models.Corpus{}, &models.ConfigError{Key: "manifest", Err: err}
		}
		repos[id] = repo
	}

	return models.NewCorpus(repos), nil
}

func decodeTOML(data []byte) (map[string]manifestEntry, error) {
	raw := make(map[string]manifestEntry)
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("parsing manifest: unknown keys: %s", strings.Join(keys, ", "))
	}

	return raw, nil
}

func decodeYAML(data []byte) (map[string]manifestEntry, error) {
	raw := make(map[string]manifestEntry)

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	return raw, nil
}

func (e manifestEntry) toRepository(id string) (models.Repository, error) {
	if err := validateID(id); err != nil {
		return models.Repository{}, err
	}

	var ref string
	switch {
	case e.Ref != nil && e.Branch != nil:
		return models.Repository{}, fmt.Errorf("%s: cannot specify both 'ref' and 'branch'", id)
	case e.Ref != nil:
		ref = *e.Ref
	case e.Branch != nil:
		ref = *e.Branch
	}
	if strings.TrimSpace(ref) == "" {
		return models.Repository{}, fmt.Errorf("%s: missing required field 'ref'", id)
	}

	if e.Repo == nil || strings.TrimSpace(*e.Repo) == "" {
		return models.Repository{}, fmt.Errorf("%s: missing required field 'repo'", id)
	}

	if e.Args == nil {
		return models.Repository{}, fmt.Errorf("%s: missing required field 'args'", id)
	}

	return models.Repository{
		ID:                 id,
		Ref:                ref,
		Location:           *e.Repo,
		Args:               append([]string(nil), (*e.Args)...),
		NeedsPregeneration: e.Roblox,
	}, nil
}

// validateID rejects IDs that cannot be used as a single path component.
func validateID(id string) error {
	if id == "" || id == "." || id == ".." {
		return fmt.Errorf("invalid entry id %q", id)
	}
	if strings.ContainsAny(id, `/\`) || strings.ContainsRune(id, 0) {
		return fmt.Errorf("invalid entry id %q: must not contain path separators", id)
	}
	return nil
}
