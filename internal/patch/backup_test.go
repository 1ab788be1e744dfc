package patch

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBackupRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fileA := filepath.Join(dir, "a.sv")
	fileB := filepath.Join(dir, "b.sv")
	if err := os.WriteFile(fileA, []byte("module a; endmodule"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(fileB, []byte("module b; endmodule"), 0644); err != nil {
		t.Fatal(err)
	}

	set, err := SnapshotFiles([]string{fileA, fileB})
	if err != nil {
		t.Fatalf("SnapshotFiles: %v", err)
	}

	backupPath := filepath.Join(dir, "backup.json")
	if err := WriteBackup(set, backupPath); err != nil {
		t.Fatalf("WriteBackup: %v", err)
	}

	// Simulate the session's edits.
	if err := os.WriteFile(fileA, []byte("module a; /* edited */ endmodule"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(fileB, []byte("module b; /* edited */ endmodule"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := Restore(backupPath); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	gotA, _ := os.ReadFile(fileA)
	if string(gotA) != "module a; endmodule" {
		t.Errorf("fileA not restored byte-exactly: %q", gotA)
	}
	gotB, _ := os.ReadFile(fileB)
	if string(gotB) != "module b; endmodule" {
		t.Errorf("fileB not restored byte-exactly: %q", gotB)
	}

	if _, err := os.Stat(backupPath); !os.IsNotExist(err) {
		t.Error("expected backup.json to be removed after restore")
	}
}

func TestSnapshotFilesDedupes(t *testing.T) {
	dir := t.TempDir()
	fileA := filepath.Join(dir, "a.sv")
	os.WriteFile(fileA, []byte("x"), 0644)

	set, err := SnapshotFiles([]string{fileA, fileA})
	if err != nil {
		t.Fatalf("SnapshotFiles: %v", err)
	}
	if len(set) != 1 {
		t.Errorf("expected 1 entry, got %d", len(set))
	}
}
