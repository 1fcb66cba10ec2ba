package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOSFileSystem_Exists(t *testing.T) {
	fs := OSFileSystem{}

	if !fs.Exists("filesystem.go") {
		t.Error("expected filesystem.go to exist")
	}

	if fs.Exists("nonexistent_file_xyz.go") {
		t.Error("expected nonexistent file to not exist")
	}
}

func TestOSFileSystem_WriteCreateRead(t *testing.T) {
	fs := OSFileSystem{}
	dir := filepath.Join(t.TempDir(), "reports", "walk_01")

	if err := fs.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	jsonPath := filepath.Join(dir, "report.json")
	if err := fs.WriteFile(jsonPath, []byte(`{"feet":[]}`), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	pngPath := filepath.Join(dir, "curves.png")
	w, err := fs.Create(pngPath)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte("\x89PNG")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := fs.ReadFile(pngPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "\x89PNG" {
		t.Errorf("expected PNG magic, got %q", data)
	}

	info, err := fs.Stat(jsonPath)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != int64(len(`{"feet":[]}`)) {
		t.Errorf("unexpected size %d", info.Size())
	}
}

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	mfs := NewMemoryFileSystem()

	testData := []byte(`{"name":"walk_01"}`)
	if err := mfs.WriteFile("/clips/walk_01.json", testData, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := mfs.ReadFile("/clips/walk_01.json")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != string(testData) {
		t.Errorf("expected %q, got %q", testData, data)
	}

	// Returned slices are copies.
	data[0] = 'X'
	again, _ := mfs.ReadFile("/clips/walk_01.json")
	if again[0] != '{' {
		t.Error("ReadFile exposed internal storage")
	}
}

func TestMemoryFileSystem_CreateVisibleOnClose(t *testing.T) {
	mfs := NewMemoryFileSystem()

	w, err := mfs.Create("/out/report.html")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte("<html>")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, _ := mfs.ReadFile("/out/report.html")
	if len(data) != 0 {
		t.Errorf("expected empty file before Close, got %q", data)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	data, _ = mfs.ReadFile("/out/report.html")
	if string(data) != "<html>" {
		t.Errorf("expected contents after Close, got %q", data)
	}
}

func TestMemoryFileSystem_StatAndDirs(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if _, err := mfs.Stat("/missing.json"); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}

	if err := mfs.MkdirAll("/out/run/charts", 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	for _, d := range []string{"/out", "/out/run", "/out/run/charts"} {
		info, err := mfs.Stat(d)
		if err != nil {
			t.Fatalf("Stat(%s) failed: %v", d, err)
		}
		if !info.IsDir() {
			t.Errorf("expected %s to be a directory", d)
		}
	}

	_ = mfs.WriteFile("/out/run/report.json", []byte("{}"), 0600)
	info, err := mfs.Stat("/out/run/report.json")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != 2 || info.Mode() != 0600 || info.IsDir() {
		t.Errorf("unexpected file info: size=%d mode=%v dir=%v", info.Size(), info.Mode(), info.IsDir())
	}
}

func TestMemoryFileSystem_PathCleaning(t *testing.T) {
	mfs := NewMemoryFileSystem()

	_ = mfs.WriteFile("/out/./run/../report.json", []byte("{}"), 0644)
	if !mfs.Exists("/out/report.json") {
		t.Error("expected cleaned path to exist")
	}
}

func TestMemoryFileSystem_Files(t *testing.T) {
	mfs := NewMemoryFileSystem()

	_ = mfs.WriteFile("/out/b.png", nil, 0644)
	_ = mfs.WriteFile("/out/a.json", nil, 0644)
	_ = mfs.WriteFile("/outside.txt", nil, 0644)

	got := mfs.Files("/out")
	want := []string{"/out/a.json", "/out/b.png"}
	if len(got) != len(want) {
		t.Fatalf("Files() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Files()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
