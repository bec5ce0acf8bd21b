package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dupfind/internal/runlock"
	"dupfind/internal/testsupport"
)

func TestScanReportsSameSizeDuplicates(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	c := filepath.Join(dir, "c.txt")
	testsupport.WriteFile(t, a, 100, 'X')
	testsupport.WriteFile(t, b, 100, 'X')
	testsupport.WriteFile(t, c, 100, 'Y')

	stdout, _, err := runCLI(t, dir)
	if err != nil {
		t.Fatalf("dupfind: %v", err)
	}
	requireContains(t, stdout, "Duplicates Found:\nfiles with same content:\n")
	requireContains(t, stdout, "\t\t"+a+"\n\t\t"+b+"\n")
	requireNotContains(t, stdout, c)
	requireContains(t, stdout, "Duplicate groups")
}

func TestScanWithoutDuplicates(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "one"), 10, 'a')
	testsupport.WriteFile(t, filepath.Join(dir, "two"), 11, 'a')

	stdout, _, err := runCLI(t, dir)
	if err != nil {
		t.Fatalf("dupfind: %v", err)
	}
	if !strings.HasPrefix(stdout, "No duplicate files found.\n") {
		t.Fatalf("unexpected report:\n%s", stdout)
	}
}

func TestScanEmptyDirectoryExportsHeaderOnly(t *testing.T) {
	dir := t.TempDir()
	work := t.TempDir()
	t.Chdir(work)

	stdout, _, err := runCLI(t, "-o", dir)
	if err != nil {
		t.Fatalf("dupfind: %v", err)
	}
	requireContains(t, stdout, "No duplicate files found.")
	requireContains(t, stdout, "duplicatefiles.csv")

	data, err := os.ReadFile(filepath.Join(work, "duplicatefiles.csv"))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if string(data) != "FileName,FilePath\n" {
		t.Fatalf("unexpected export %q", data)
	}
}

func TestScanRecursiveFlag(t *testing.T) {
	dir := t.TempDir()
	top := filepath.Join(dir, "top.bin")
	nested := filepath.Join(dir, "nested", "copy.bin")
	testsupport.WriteFile(t, top, 512, 'r')
	testsupport.WriteFile(t, nested, 512, 'r')

	stdout, _, err := runCLI(t, dir)
	if err != nil {
		t.Fatalf("dupfind: %v", err)
	}
	requireContains(t, stdout, "No duplicate files found.")

	stdout, _, err = runCLI(t, "--recursive", dir)
	if err != nil {
		t.Fatalf("dupfind -r: %v", err)
	}
	requireContains(t, stdout, "\t\t"+top+"\n\t\t"+nested+"\n")
}

func TestScanDeleteKeepsFirstCopy(t *testing.T) {
	dir := t.TempDir()
	paths := []string{filepath.Join(dir, "a"), filepath.Join(dir, "b"), filepath.Join(dir, "c")}
	for _, p := range paths {
		testsupport.WriteFile(t, p, 64, 'd')
	}
	cfgPath := writeTestConfig(t, testsupport.NewConfig(t))

	stdout, _, err := runCLI(t, "--config", cfgPath, "-d", dir)
	if err != nil {
		t.Fatalf("dupfind -d: %v", err)
	}
	if !testsupport.Exists(t, paths[0]) {
		t.Fatal("first copy must remain")
	}
	for _, p := range paths[1:] {
		if testsupport.Exists(t, p) {
			t.Fatalf("expected %s to be deleted", p)
		}
	}
	requireContains(t, stdout, "Deleted files")

	stdout, _, err = runCLI(t, dir)
	if err != nil {
		t.Fatalf("rescan: %v", err)
	}
	requireContains(t, stdout, "No duplicate files found.")
}

func TestScanDeleteRefusedWhileLocked(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	testsupport.WriteFile(t, a, 64, 'l')
	testsupport.WriteFile(t, b, 64, 'l')
	cfg := testsupport.NewConfig(t)
	cfgPath := writeTestConfig(t, cfg)

	root, err := filepath.Abs(dir)
	if err != nil {
		t.Fatal(err)
	}
	lock, err := runlock.Acquire(cfg.Delete.LockDir, root)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer lock.Release()

	_, _, err = runCLI(t, "--config", cfgPath, "--delete", dir)
	if !errors.Is(err, runlock.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if !testsupport.Exists(t, b) {
		t.Fatal("nothing may be deleted while another run holds the lock")
	}
}

func TestScanJSONReport(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	testsupport.WriteFile(t, a, 20, 'j')
	testsupport.WriteFile(t, b, 20, 'j')

	stdout, _, err := runCLI(t, "--json", "--workers", "2", dir)
	if err != nil {
		t.Fatalf("dupfind --json: %v", err)
	}
	var report struct {
		ScanID string `json:"scan_id"`
		Groups []struct {
			Size       int64    `json:"size"`
			Canonical  string   `json:"canonical"`
			Duplicates []string `json:"duplicates"`
		} `json:"groups"`
	}
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("decode: %v\n%s", err, stdout)
	}
	if report.ScanID == "" || len(report.Groups) != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.Groups[0].Canonical != a || len(report.Groups[0].Duplicates) != 1 || report.Groups[0].Duplicates[0] != b {
		t.Fatalf("unexpected group %+v", report.Groups[0])
	}
}

func TestScanSQLiteExport(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "a"), 30, 's')
	testsupport.WriteFile(t, filepath.Join(dir, "b"), 30, 's')
	work := t.TempDir()
	t.Chdir(work)

	if _, _, err := runCLI(t, "-o", "--export-format", "sqlite", dir); err != nil {
		t.Fatalf("dupfind: %v", err)
	}
	info, err := os.Stat(filepath.Join(work, "duplicatefiles.db"))
	if err != nil {
		t.Fatalf("expected sqlite export: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("sqlite export is empty")
	}
	if _, err := os.Stat(filepath.Join(work, "duplicatefiles.csv")); !os.IsNotExist(err) {
		t.Fatalf("csv export should not be written, stat err=%v", err)
	}
}

func TestScanUnreadableSubdirectoryStillSucceeds(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	testsupport.WriteFile(t, a, 16, 'p')
	testsupport.WriteFile(t, b, 16, 'p')
	locked := filepath.Join(dir, "locked")
	testsupport.WriteFile(t, filepath.Join(locked, "inner"), 16, 'p')
	testsupport.MakeUnreadable(t, locked)

	stdout, stderr, err := runCLI(t, "-r", dir)
	if err != nil {
		t.Fatalf("dupfind: %v", err)
	}
	requireContains(t, stdout, "\t\t"+a+"\n\t\t"+b+"\n")
	requireContains(t, stderr, "cannot read path; skipping")
	requireContains(t, stderr, "event_type=traversal_error")
}

func TestScanRejectsBadRoots(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	testsupport.WriteContent(t, file, "x")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "missing", args: []string{filepath.Join(dir, "nope")}, want: "does not exist"},
		{name: "file", args: []string{file}, want: "not a directory"},
		{name: "no args", args: nil, want: "accepts 1 arg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(t, tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			requireContains(t, err.Error(), tt.want)
		})
	}
}

func TestScanRejectsInvalidFlags(t *testing.T) {
	dir := t.TempDir()
	_, _, err := runCLI(t, "--export-format", "xml", dir)
	if err == nil {
		t.Fatal("expected unsupported format error")
	}
	requireContains(t, err.Error(), "export.format")

	_, _, err = runCLI(t, "--workers", "0", dir)
	if err == nil {
		t.Fatal("expected invalid workers error")
	}
	requireContains(t, err.Error(), "scan.workers")
}

func TestScanUsesConfigFile(t *testing.T) {
	dir := t.TempDir()
	top := filepath.Join(dir, "top")
	nested := filepath.Join(dir, "sub", "nested")
	testsupport.WriteFile(t, top, 40, 'c')
	testsupport.WriteFile(t, nested, 40, 'c')
	cfgPath := writeTestConfig(t, testsupport.NewConfig(t, testsupport.WithRecursive(), testsupport.WithWorkers(3)))

	stdout, _, err := runCLI(t, "--config", cfgPath, dir)
	if err != nil {
		t.Fatalf("dupfind: %v", err)
	}
	requireContains(t, stdout, "\t\t"+top+"\n\t\t"+nested+"\n")
}

func TestScanWarnsAboutMissingConfig(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(t.TempDir(), "absent.toml")

	_, stderr, err := runCLI(t, "--config", missing, dir)
	if err != nil {
		t.Fatalf("dupfind: %v", err)
	}
	requireContains(t, stderr, "config file not found; using defaults")
}
