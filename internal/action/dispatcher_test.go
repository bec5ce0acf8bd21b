package action

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"dupfind/internal/config"
	"dupfind/internal/fingerprint"
	"dupfind/internal/grouper"
	"dupfind/internal/metrics"
	"dupfind/internal/testsupport"
)

func makeGroup(t *testing.T, dir string, size int64, names ...string) grouper.DuplicateGroup {
	t.Helper()
	g := grouper.DuplicateGroup{Size: size}
	for _, name := range names {
		p := filepath.Join(dir, name)
		testsupport.WriteFile(t, p, size, 'q')
		g.Paths = append(g.Paths, p)
	}
	fp, err := fingerprint.File(context.Background(), g.Paths[0], 0, nil)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	g.Fingerprint = fp
	return g
}

func TestTextReportWithGroups(t *testing.T) {
	groups := []grouper.DuplicateGroup{
		{Size: 3, Paths: []string{"/d/a.txt", "/d/b.txt"}},
		{Size: 9, Paths: []string{"/d/x", "/d/y", "/d/z"}},
	}
	var out bytes.Buffer
	if _, err := New(Options{Out: &out}).Run(context.Background(), groups); err != nil {
		t.Fatalf("Run: %v", err)
	}

	rule := strings.Repeat("_", 120)
	want := "Duplicates Found:\n" +
		"files with same content:\n" +
		"\n" + rule + "\n" +
		"\t\t/d/a.txt\n\t\t/d/b.txt\n" + rule + "\n" +
		"\t\t/d/x\n\t\t/d/y\n\t\t/d/z\n" + rule + "\n"
	if out.String() != want {
		t.Fatalf("unexpected report:\n%q\nwant:\n%q", out.String(), want)
	}
}

func TestTextReportWithoutGroups(t *testing.T) {
	var out bytes.Buffer
	if _, err := New(Options{Out: &out}).Run(context.Background(), nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.String() != "No duplicate files found.\n" {
		t.Fatalf("unexpected report %q", out.String())
	}
}

func TestJSONReport(t *testing.T) {
	groups := []grouper.DuplicateGroup{
		{Size: 3, Fingerprint: fingerprint.Fingerprint(0xabc), Paths: []string{"/d/a", "/d/b", "/d/c"}},
	}
	var out bytes.Buffer
	d := New(Options{Out: &out, JSON: true, ScanID: "scan-1"})
	if _, err := d.Run(context.Background(), groups); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var got jsonReport
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out.String())
	}
	if got.ScanID != "scan-1" || len(got.Groups) != 1 {
		t.Fatalf("unexpected report: %+v", got)
	}
	g := got.Groups[0]
	if g.Canonical != "/d/a" || !reflect.DeepEqual(g.Duplicates, []string{"/d/b", "/d/c"}) {
		t.Fatalf("unexpected group: %+v", g)
	}
	if g.Fingerprint != "0000000000000abc" || g.Size != 3 {
		t.Fatalf("unexpected group metadata: %+v", g)
	}
}

func TestJSONReportEmptyGroupsIsArray(t *testing.T) {
	var out bytes.Buffer
	if _, err := New(Options{Out: &out, JSON: true}).Run(context.Background(), nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), `"groups": []`) {
		t.Fatalf("expected empty groups array, got %s", out.String())
	}
}

func TestRunOnlyOnce(t *testing.T) {
	d := New(Options{})
	if _, err := d.Run(context.Background(), nil); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if _, err := d.Run(context.Background(), nil); !errors.Is(err, ErrAlreadyRun) {
		t.Fatalf("expected ErrAlreadyRun, got %v", err)
	}
}

func TestExportCSV(t *testing.T) {
	dir := t.TempDir()
	groups := []grouper.DuplicateGroup{
		makeGroup(t, dir, 100, "a.txt", "b.txt"),
		makeGroup(t, dir, 7, "c.bin", "d,e.bin"),
	}
	out := filepath.Join(t.TempDir(), CSVFileName)

	outcome, err := New(Options{Export: true, ExportPath: out}).Run(context.Background(), groups)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.ExportPath != out {
		t.Fatalf("unexpected export path %q", outcome.ExportPath)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	join := func(name string) string { return filepath.Join(dir, name) }
	want := "FileName,FilePath\n" +
		"a.txt," + join("a.txt") + "\n" +
		"b.txt," + join("b.txt") + "\n" +
		"\n" +
		"c.bin," + join("c.bin") + "\n" +
		`"d,e.bin","` + join("d,e.bin") + `"` + "\n" +
		"\n"
	if string(data) != want {
		t.Fatalf("unexpected csv:\n%q\nwant:\n%q", data, want)
	}
}

func TestExportCSVHeaderOnlyWhenEmpty(t *testing.T) {
	out := filepath.Join(t.TempDir(), CSVFileName)
	if err := ExportCSV(out, nil); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "FileName,FilePath\n" {
		t.Fatalf("unexpected csv %q", data)
	}
}

func TestExportSQLite(t *testing.T) {
	dir := t.TempDir()
	groups := []grouper.DuplicateGroup{
		makeGroup(t, dir, 10, "a", "b", "c"),
		makeGroup(t, dir, 20, "x", "y"),
	}
	out := filepath.Join(t.TempDir(), SQLiteFileName)
	if err := os.WriteFile(out, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	d := New(Options{Export: true, ExportFormat: config.ExportSQLite, ExportPath: out})
	if _, err := d.Run(context.Background(), groups); err != nil {
		t.Fatalf("Run: %v", err)
	}

	db, err := sql.Open("sqlite", out)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var rows int
	if err := db.QueryRow("SELECT COUNT(1) FROM duplicates").Scan(&rows); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if rows != 5 {
		t.Fatalf("expected 5 rows, got %d", rows)
	}

	var path, fp string
	var size int64
	if err := db.QueryRow(
		"SELECT file_path, size, fingerprint FROM duplicates WHERE group_id = 2 AND canonical = 1",
	).Scan(&path, &size, &fp); err != nil {
		t.Fatalf("query canonical: %v", err)
	}
	if path != filepath.Join(dir, "x") || size != 20 || fp != groups[1].Fingerprint.String() {
		t.Fatalf("unexpected canonical row: %s %d %s", path, size, fp)
	}

	var canonicals int
	if err := db.QueryRow("SELECT COUNT(1) FROM duplicates WHERE canonical = 1").Scan(&canonicals); err != nil {
		t.Fatal(err)
	}
	if canonicals != 2 {
		t.Fatalf("expected one canonical per group, got %d", canonicals)
	}
}

func TestDeleteKeepsFirstPath(t *testing.T) {
	dir := t.TempDir()
	g := makeGroup(t, dir, 50, "a", "b", "c")
	stats := &metrics.Stats{}

	outcome, err := New(Options{Delete: true, Stats: stats}).Run(context.Background(), []grouper.DuplicateGroup{g})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !testsupport.Exists(t, g.Paths[0]) {
		t.Fatal("canonical copy must survive")
	}
	for _, p := range g.Paths[1:] {
		if testsupport.Exists(t, p) {
			t.Fatalf("expected %s to be deleted", p)
		}
	}
	if !reflect.DeepEqual(outcome.Deleted, g.Paths[1:]) {
		t.Fatalf("unexpected deleted list %v", outcome.Deleted)
	}
	snap := stats.Snapshot()
	if snap.Deleted != 2 || snap.DeletedBytes != 100 {
		t.Fatalf("unexpected deletion stats %+v", snap)
	}
}

func TestDeleteContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	g := makeGroup(t, dir, 5, "a", "b", "c")
	if err := os.Remove(g.Paths[1]); err != nil {
		t.Fatal(err)
	}

	outcome, err := New(Options{Delete: true}).Run(context.Background(), []grouper.DuplicateGroup{g})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(outcome.Failures) != 1 || outcome.Failures[0].Path != g.Paths[1] {
		t.Fatalf("unexpected failures %v", outcome.Failures)
	}
	if !errors.Is(outcome.Failures[0], fs.ErrNotExist) {
		t.Fatalf("expected not-exist failure, got %v", outcome.Failures[0])
	}
	if testsupport.Exists(t, g.Paths[2]) {
		t.Fatal("later duplicates must still be deleted")
	}
}

func TestDeleteLeavesResizedDuplicate(t *testing.T) {
	dir := t.TempDir()
	g := makeGroup(t, dir, 5, "a", "b")
	testsupport.WriteContent(t, g.Paths[1], "changed content")

	outcome, err := New(Options{Delete: true}).Run(context.Background(), []grouper.DuplicateGroup{g})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(outcome.Failures) != 1 || !errors.Is(outcome.Failures[0], ErrSizeChanged) {
		t.Fatalf("expected ErrSizeChanged failure, got %v", outcome.Failures)
	}
	if !testsupport.Exists(t, g.Paths[1]) {
		t.Fatal("a file that changed after the scan must not be deleted")
	}
}

func TestDeleteSkipsGroupWithoutCanonical(t *testing.T) {
	dir := t.TempDir()
	g := makeGroup(t, dir, 5, "a", "b")
	other := makeGroup(t, dir, 6, "x", "y")
	if err := os.Remove(g.Paths[0]); err != nil {
		t.Fatal(err)
	}

	outcome, err := New(Options{Delete: true}).Run(context.Background(), []grouper.DuplicateGroup{g, other})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.SkippedGroups != 1 {
		t.Fatalf("expected one skipped group, got %d", outcome.SkippedGroups)
	}
	if !testsupport.Exists(t, g.Paths[1]) {
		t.Fatal("last remaining copy must not be deleted")
	}
	if testsupport.Exists(t, other.Paths[1]) {
		t.Fatal("unaffected groups should still be processed")
	}
}

func TestExportRunsBeforeDelete(t *testing.T) {
	dir := t.TempDir()
	g := makeGroup(t, dir, 8, "a", "b")
	out := filepath.Join(t.TempDir(), CSVFileName)

	if _, err := New(Options{Export: true, ExportPath: out, Delete: true}).Run(context.Background(), []grouper.DuplicateGroup{g}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), g.Paths[1]) {
		t.Fatalf("export should list the deleted copy:\n%s", data)
	}
	if testsupport.Exists(t, g.Paths[1]) {
		t.Fatal("expected duplicate to be deleted")
	}
}

func TestDeletionErrorFormatting(t *testing.T) {
	err := &DeletionError{Path: "/x", Err: fs.ErrPermission}
	if err.Error() != "delete /x: permission denied" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, fs.ErrPermission) {
		t.Fatal("expected Unwrap to expose the cause")
	}
}
