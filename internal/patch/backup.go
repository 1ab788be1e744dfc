package patch

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
)

// BackupSet is a mapping from absolute source path to its pre-patch
// contents (§3, §4.7). Grounded on internal/donor/context.go's
// MarshalJSON/FromJSON shadow-struct round-trip pattern, adapted from
// "device snapshot" to "file-contents snapshot."
type BackupSet map[string][]byte

// backupSetJSON is the on-disk shape: base64 payloads keyed by path,
// mirroring deviceContextJSON's base64-encoded BARContents field.
type backupSetJSON map[string]string

// MarshalJSON implements the shadow-struct pattern: bytes are base64
// encoded for JSON transport.
func (b BackupSet) MarshalJSON() ([]byte, error) {
	shadow := make(backupSetJSON, len(b))
	for path, data := range b {
		shadow[path] = base64.StdEncoding.EncodeToString(data)
	}
	return json.Marshal(shadow)
}

// UnmarshalJSON reverses MarshalJSON.
func (b *BackupSet) UnmarshalJSON(data []byte) error {
	var shadow backupSetJSON
	if err := json.Unmarshal(data, &shadow); err != nil {
		return err
	}
	out := make(BackupSet, len(shadow))
	for path, b64 := range shadow {
		raw, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return fmt.Errorf("decoding backup payload for %s: %w", path, err)
		}
		out[path] = raw
	}
	*b = out
	return nil
}

// WriteBackup persists set as JSON to path, covering every file that will
// be mutated by the session (§4.7's "written once, at the start of a
// session" rule).
func WriteBackup(set BackupSet, path string) error {
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling backup set: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing backup set to %s: %w", path, err)
	}
	return nil
}

// LoadBackup reads a previously written backup set.
func LoadBackup(path string) (BackupSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading backup set %s: %w", path, err)
	}
	var set BackupSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parsing backup set %s: %w", path, err)
	}
	return set, nil
}

// Restore writes every payload in set back to its original path, then
// deletes the backup file at path (§4.7's restore-mode contract).
func Restore(path string) error {
	set, err := LoadBackup(path)
	if err != nil {
		return err
	}
	for file, original := range set {
		if err := os.WriteFile(file, original, 0644); err != nil {
			return fmt.Errorf("restoring %s: %w", file, err)
		}
	}
	return os.Remove(path)
}

// SnapshotFiles reads every distinct path in paths into a fresh BackupSet.
func SnapshotFiles(paths []string) (BackupSet, error) {
	set := BackupSet{}
	for _, p := range paths {
		if _, ok := set[p]; ok {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("snapshotting %s: %w", p, err)
		}
		set[p] = data
	}
	return set, nil
}
