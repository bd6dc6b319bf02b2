package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReportClose_WritesArchive(t *testing.T) {
	dir := t.TempDir()
	conf := ReporterConfig{Destination: filepath.Join(dir, "report.zip")}

	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}

	logFile := filepath.Join(dir, "run.log")
	if err := os.WriteFile(logFile, []byte("log line"), 0644); err != nil {
		t.Fatalf("failed to write log: %v", err)
	}
	r.Store("final.log", logFile)
	r.StoreData("stylesheet/main.rss", []byte("A { color: red; }"))
	r.StoreData("stylesheet/main.rss", []byte("A { color: blue; }"))
	r.Store("missing.log", filepath.Join(dir, "nowhere.log"))

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	arc, err := zip.OpenReader(conf.Destination)
	if err != nil {
		t.Fatalf("unable to open report: %v", err)
	}
	defer arc.Close()

	files := make(map[string]string)
	for _, f := range arc.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("unable to open %s: %v", f.Name, err)
		}
		data, _ := io.ReadAll(rc)
		rc.Close()
		files[f.Name] = string(data)
	}

	if files["final.log"] != "log line" {
		t.Errorf("final.log = %q", files["final.log"])
	}
	if files["stylesheet/main.rss"] != "A { color: red; }" {
		t.Errorf("stylesheet = %q", files["stylesheet/main.rss"])
	}
	if _, ok := files["missing.log"]; ok {
		t.Error("absent files must be skipped")
	}
	// MANIFEST, final.log, two stylesheet versions
	if len(files) != 4 {
		t.Errorf("archive has %d files: %v", len(files), arc.File)
	}
	if !strings.Contains(files["MANIFEST"], "missing.log") {
		t.Errorf("manifest must list all entries:\n%s", files["MANIFEST"])
	}
}

func TestReportClose_NilReport(t *testing.T) {
	var r *Report
	r.Store("x", "y")
	r.StoreData("x", nil)
	if err := r.Close(); err != nil {
		t.Errorf("Close on nil report should not error, got: %v", err)
	}
	if r.Name() != "" {
		t.Errorf("Name() = %q", r.Name())
	}
}

func TestReportClose_NilFile(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	if err := r.Close(); err != nil {
		t.Errorf("Close with nil file should not error, got: %v", err)
	}
}

func TestReportStore_Conflict(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	r.Store("a", "/tmp/one")
	r.Store("a", "/tmp/one")

	defer func() {
		if recover() == nil {
			t.Error("expected panic on conflicting store")
		}
	}()
	r.Store("a", "/tmp/two")
}
