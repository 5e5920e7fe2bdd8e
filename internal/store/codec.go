package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FormatName identifies gpos artifact files.
const FormatName = "gpos"

// FormatVersion is the artifact envelope version written by this build.
// Readers accept any version up to and including it.
const FormatVersion = 1

// Artifact kinds, recorded in the envelope so a file copied to the wrong
// name is rejected instead of silently decoded.
const (
	KindProducts     = "products"
	KindTransactions = "transactions"
	KindSettings     = "settings"
)

// Artifact file names inside the data directory.
const (
	ProductsFile     = "products.json"
	TransactionsFile = "transactions.json"
	SettingsFile     = "settings.json"
)

var (
	// ErrUnsupportedVersion is returned for artifacts written by a newer format.
	ErrUnsupportedVersion = errors.New("unsupported artifact version")

	// ErrWrongKind is returned when an artifact holds a different collection.
	ErrWrongKind = errors.New("artifact kind mismatch")
)

// ArtifactFiles lists the artifact file names in load order.
func ArtifactFiles() []string {
	return []string{ProductsFile, TransactionsFile, SettingsFile}
}

// envelope wraps every artifact with format metadata.
type envelope struct {
	Format  string          `json:"format"`
	Kind    string          `json:"kind"`
	Version int             `json:"version"`
	SavedAt time.Time       `json:"saved_at"`
	Data    json.RawMessage `json:"data"`
}

// encodeArtifact serializes v inside a versioned envelope.
// HTML escaping is disabled so product names round-trip byte for byte.
func encodeArtifact(kind string, savedAt time.Time, v any) ([]byte, error) {
	data, err := marshalJSON(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", kind, err)
	}
	env := envelope{
		Format:  FormatName,
		Kind:    kind,
		Version: FormatVersion,
		SavedAt: savedAt.UTC(),
		Data:    data,
	}
	out, err := marshalJSON(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", kind, err)
	}
	return out, nil
}

// decodeArtifact checks the envelope and decodes its payload into v.
func decodeArtifact(raw []byte, kind string, v any) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode %s envelope: %w", kind, err)
	}
	if env.Format != FormatName {
		return fmt.Errorf("decode %s: unknown format %q", kind, env.Format)
	}
	if env.Kind != kind {
		return fmt.Errorf("decode %s: %w (found %q)", kind, ErrWrongKind, env.Kind)
	}
	if env.Version < 1 || env.Version > FormatVersion {
		return fmt.Errorf("decode %s: %w: %d", kind, ErrUnsupportedVersion, env.Version)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("decode %s: %w", kind, err)
	}
	return nil
}

// readArtifact reads and decodes the artifact at path.
// A missing file yields an error matching fs.ErrNotExist.
func readArtifact(path, kind string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return decodeArtifact(raw, kind, v)
}

// writeArtifact replaces the file at path with data.
// The data goes to a temp file in the same directory first, then is renamed
// over the target, so readers never see a half-written artifact.
func writeArtifact(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // No-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
