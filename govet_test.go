package govet_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	govet "github.com/codacy/codacy-govet"
	"github.com/codacy/codacy-govet/internal/deadline"
	"github.com/codacy/codacy-govet/internal/manifest"
)

const selfAssign = `package sample

func f() int {
	x := 1
	x = x
	return x
}
`

type workspace struct {
	src    string
	config string
}

func newWorkspace(t *testing.T, codacyrc string, files map[string]string) workspace {
	t.Helper()
	root := t.TempDir()
	ws := workspace{src: filepath.Join(root, "src"), config: filepath.Join(root, ".codacyrc")}
	for name, content := range files {
		path := filepath.Join(ws.src, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if codacyrc != "" {
		if err := os.WriteFile(ws.config, []byte(codacyrc), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return ws
}

func (ws workspace) opts(extra ...govet.Option) []govet.Option {
	return append([]govet.Option{
		govet.WithConfigPath(ws.config),
		govet.WithSourceRoot(ws.src),
		govet.WithScratchDir(filepath.Dir(ws.src)),
		govet.WithWorkers(2),
	}, extra...)
}

func decode(t *testing.T, out string) []govet.Result {
	t.Helper()
	var records []govet.Result
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		var r govet.Result
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			t.Fatalf("invalid record %q: %v", line, err)
		}
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Filename != records[j].Filename {
			return records[i].Filename < records[j].Filename
		}
		return records[i].Line < records[j].Line
	})
	return records
}

func TestAnalyzeExplicitPattern(t *testing.T) {
	ws := newWorkspace(t, `{"files": ["a.go"], "patterns": [{"patternId": "assign"}]}`,
		map[string]string{"a.go": selfAssign})

	var buf bytes.Buffer
	stats, err := govet.Analyze(context.Background(), &buf, ws.opts()...)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	records := decode(t, buf.String())
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1: %s", len(records), buf.String())
	}
	r := records[0]
	if r.Filename != "a.go" || r.PatternID != "assign" || r.Line != 5 {
		t.Errorf("unexpected record %+v", r)
	}
	if !strings.HasPrefix(buf.String(), `{"filename":"a.go","message":"`) {
		t.Errorf("unexpected field order: %s", buf.String())
	}
	if stats.FilesAnalyzed != 1 {
		t.Errorf("FilesAnalyzed = %d, want 1", stats.FilesAnalyzed)
	}
}

func TestAnalyzeToolEntry(t *testing.T) {
	ws := newWorkspace(t, `{"tools": [{"name": "other", "patterns": [{"patternId": "nilfunc"}]},
		{"name": "govet", "patterns": [{"patternId": "assign"}]}]}`,
		map[string]string{"a.go": selfAssign})

	var buf bytes.Buffer
	if _, err := govet.Analyze(context.Background(), &buf, ws.opts()...); err != nil {
		t.Fatal(err)
	}
	records := decode(t, buf.String())
	if len(records) != 1 || records[0].PatternID != "assign" {
		t.Fatalf("unexpected records: %s", buf.String())
	}
}

func TestAnalyzeParseFailure(t *testing.T) {
	ws := newWorkspace(t, `{"files": ["broken.go", "a.go"], "patterns": [{"patternId": "assign"}]}`,
		map[string]string{"a.go": selfAssign, "broken.go": "package broken\n\nfunc {\n"})

	var buf bytes.Buffer
	stats, err := govet.Analyze(context.Background(), &buf, ws.opts()...)
	if err != nil {
		t.Fatal(err)
	}
	records := decode(t, buf.String())
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2: %s", len(records), buf.String())
	}
	if !strings.Contains(buf.String(), `{"filename":"broken.go","message":"could not parse the file"}`) {
		t.Errorf("missing failure record: %s", buf.String())
	}
	if stats.FilesFailed != 1 {
		t.Errorf("FilesFailed = %d, want 1", stats.FilesFailed)
	}
}

func TestAnalyzeMissingListedFile(t *testing.T) {
	ws := newWorkspace(t, `{"files": ["gone.go"], "patterns": [{"patternId": "assign"}]}`, nil)

	var buf bytes.Buffer
	if _, err := govet.Analyze(context.Background(), &buf, ws.opts()...); err != nil {
		t.Fatal(err)
	}
	want := `{"filename":"gone.go","message":"could not parse the file"}` + "\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestAnalyzeWalksSourceRootWithoutFileList(t *testing.T) {
	ws := newWorkspace(t, `{"patterns": [{"patternId": "assign"}]}`, map[string]string{
		"a.go":        selfAssign,
		"pkg/b.go":    strings.Replace(selfAssign, "package sample", "package pkg", 1),
		"README.md":   "# readme\n",
		"notes.go.md": "x = x\n",
	})

	var buf bytes.Buffer
	if _, err := govet.Analyze(context.Background(), &buf, ws.opts()...); err != nil {
		t.Fatal(err)
	}
	records := decode(t, buf.String())
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2: %s", len(records), buf.String())
	}
	if records[0].Filename != "a.go" || records[1].Filename != "pkg/b.go" {
		t.Errorf("unexpected files: %+v", records)
	}
}

func TestAnalyzeNeverReportsDeniedRules(t *testing.T) {
	ws := newWorkspace(t, `{"patterns": [{"patternId": "buildtag"}, {"patternId": "assign"}]}`, map[string]string{
		"a.go": "//go:build linux\n// +build windows\n\n" + selfAssign,
	})

	var buf bytes.Buffer
	if _, err := govet.Analyze(context.Background(), &buf, ws.opts()...); err != nil {
		t.Fatal(err)
	}
	for _, r := range decode(t, buf.String()) {
		if r.PatternID == "buildtag" {
			t.Errorf("deny-listed rule reported: %+v", r)
		}
	}
}

func TestAnalyzeSideChannelLifecycle(t *testing.T) {
	ws := newWorkspace(t, `{"patterns": [{"patternId": "assign"}, {"patternId": "printf", "parameters": [{"name": "funcs", "value": ""}]}]}`,
		map[string]string{"a.go": selfAssign})

	a, err := govet.Prepare(&bytes.Buffer{}, ws.opts()...)
	if err != nil {
		t.Fatal(err)
	}
	side := a.SideChannel()
	if side == "" {
		t.Fatal("expected a side channel for explicit patterns")
	}
	if _, err := os.Stat(side); err != nil {
		t.Fatalf("side channel missing during the run: %v", err)
	}
	if _, err := a.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Dir(side)); !os.IsNotExist(err) {
		t.Errorf("scratch directory still present after Close: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestAnalyzeRemovesScratchDirWhenRunFails(t *testing.T) {
	ws := newWorkspace(t, `{"patterns": [{"patternId": "assign"}]}`, map[string]string{"a.go": selfAssign})

	a, err := govet.Prepare(failingWriter{}, ws.opts()...)
	if err != nil {
		t.Fatal(err)
	}
	side := a.SideChannel()
	if _, err := a.Run(context.Background()); err == nil {
		t.Fatal("expected the run to fail on a broken writer")
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Dir(side)); !os.IsNotExist(err) {
		t.Errorf("scratch directory still present after a failed run: %v", err)
	}
}

func TestAnalyzeRemovesScratchDirOnTimeout(t *testing.T) {
	ws := newWorkspace(t, `{"patterns": [{"patternId": "assign"}]}`, map[string]string{"a.go": selfAssign})

	a, err := govet.Prepare(&bytes.Buffer{}, ws.opts()...)
	if err != nil {
		t.Fatal(err)
	}
	side := a.SideChannel()

	gov := deadline.New(nil)
	var code int
	gov.Exit = func(c int) { code = c }
	gov.Stderr = &bytes.Buffer{}
	gov.AtExit(a.Close)

	release := make(chan struct{})
	finished := make(chan struct{})
	err = gov.Run(context.Background(), "0", func(ctx context.Context) error {
		defer close(finished)
		<-release
		_, err := a.Run(ctx)
		return err
	})
	close(release)
	<-finished

	if !errors.Is(err, deadline.ErrTimeout) || code != deadline.ExitTimeout {
		t.Fatalf("err = %v, exit code = %d, want timeout", err, code)
	}
	if _, err := os.Stat(filepath.Dir(side)); !os.IsNotExist(err) {
		t.Errorf("scratch directory still present after timeout: %v", err)
	}
}

func TestAnalyzeCachedManifest(t *testing.T) {
	ws := newWorkspace(t, "", map[string]string{"a.go": selfAssign})
	doc := &manifest.Document{Rules: []manifest.Rule{{Key: "assign"}}}
	if err := manifest.SaveJSON(manifest.Path(ws.src), doc); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	a, err := govet.Prepare(&buf, ws.opts()...)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	if a.SideChannel() != manifest.Path(ws.src) {
		t.Errorf("SideChannel = %q, want the cached manifest", a.SideChannel())
	}
	if _, err := a.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	records := decode(t, buf.String())
	if len(records) != 1 || records[0].PatternID != "assign" {
		t.Fatalf("unexpected records: %s", buf.String())
	}
}

func TestPrepareCorruptManifest(t *testing.T) {
	ws := newWorkspace(t, "", map[string]string{
		"a.go":              selfAssign,
		".govet-rules.json": `{"rules": [{"id": "assign"}]}`,
	})
	_, err := govet.Prepare(&bytes.Buffer{}, ws.opts()...)
	if !errors.Is(err, govet.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}

func TestPrepareInvalidConfig(t *testing.T) {
	ws := newWorkspace(t, `{"patterns": [{"parameters": []}]}`, nil)
	_, err := govet.Prepare(&bytes.Buffer{}, ws.opts()...)
	if !errors.Is(err, govet.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}

func TestAnalyzeCancelled(t *testing.T) {
	ws := newWorkspace(t, `{"patterns": [{"patternId": "assign"}]}`, map[string]string{"a.go": selfAssign})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	_, err := govet.Analyze(ctx, &buf, ws.opts()...)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if buf.Len() != 0 {
		t.Errorf("unexpected output after cancellation: %s", buf.String())
	}
}

func TestAnalyzeIllTypedFilesKeepFindings(t *testing.T) {
	ws := newWorkspace(t, `{"files": ["ext.go", "typo.go"]}`, map[string]string{
		"ext.go": "package ext\n\nimport \"github.com/foo/bar\"\n\nfunc f() int {\n\treturn bar.Value\n\tprintln(\"dead\")\n}\n",
		"typo.go": "package typo\n\nfunc g() int {\n\treturn undefinedThing\n\tprintln(\"dead\")\n}\n",
	})

	var buf bytes.Buffer
	stats, err := govet.Analyze(context.Background(), &buf, ws.opts()...)
	if err != nil {
		t.Fatal(err)
	}
	if stats.FilesFailed != 0 {
		t.Errorf("FilesFailed = %d, want 0: %s", stats.FilesFailed, buf.String())
	}
	want := map[string]int{"ext.go": 7, "typo.go": 5}
	for _, r := range decode(t, buf.String()) {
		if r.PatternID == "" {
			t.Errorf("failure record for %s: %s", r.Filename, buf.String())
		}
		if r.PatternID == "unreachable" && want[r.Filename] == r.Line {
			delete(want, r.Filename)
		}
	}
	if len(want) != 0 {
		t.Errorf("missing unreachable findings %v: %s", want, buf.String())
	}
}

func TestAnalyzeParametersDoNotLeakIntoLaterRuns(t *testing.T) {
	const src = "package sample\n\nimport \"os\"\n\nfunc f() {\n\t_ = os.Remove(\"x\")\n}\n"
	run := func(codacyrc string) []govet.Result {
		t.Helper()
		ws := newWorkspace(t, codacyrc, map[string]string{"a.go": src})
		var buf bytes.Buffer
		if _, err := govet.Analyze(context.Background(), &buf, ws.opts()...); err != nil {
			t.Fatal(err)
		}
		return decode(t, buf.String())
	}
	plain := `{"patterns": [{"patternId": "errcheck"}]}`
	blank := `{"patterns": [{"patternId": "errcheck", "parameters": [{"name": "blank", "value": true}]}]}`

	if records := run(plain); len(records) != 0 {
		t.Fatalf("unexpected records without parameters: %+v", records)
	}
	if records := run(blank); len(records) != 1 || records[0].PatternID != "errcheck" || records[0].Line != 6 {
		t.Fatalf("unexpected records with blank=true: %+v", records)
	}
	if records := run(plain); len(records) != 0 {
		t.Errorf("blank=true leaked into the next run: %+v", records)
	}
}

func TestListRules(t *testing.T) {
	infos := govet.ListRules()
	if len(infos) < 100 {
		t.Fatalf("ListRules returned %d rules, want > 100", len(infos))
	}
	ids := make(map[string]bool, len(infos))
	for i, info := range infos {
		ids[info.ID] = true
		if i > 0 && infos[i-1].ID > info.ID {
			t.Errorf("rules not sorted: %s before %s", infos[i-1].ID, info.ID)
		}
		if info.Utility {
			t.Errorf("utility rule %s listed", info.ID)
		}
	}
	for _, id := range []string{"printf", "errcheck", "SA4006"} {
		if !ids[id] {
			t.Errorf("missing rule %s", id)
		}
	}
	for _, id := range []string{"asmdecl", "buildtag", "cgocall", "inspect"} {
		if ids[id] {
			t.Errorf("rule %s should not be listed", id)
		}
	}
}

func TestListRulesWithCategory(t *testing.T) {
	infos := govet.ListRules(govet.WithCategory("codestyle"))
	if len(infos) == 0 {
		t.Fatal("expected CodeStyle rules")
	}
	for _, info := range infos {
		if info.Category != "CodeStyle" {
			t.Errorf("rule %s has category %s", info.ID, info.Category)
		}
	}
}

func TestExplainRule(t *testing.T) {
	info, err := govet.ExplainRule("printf")
	if err != nil {
		t.Fatal(err)
	}
	if info.ID != "printf" || info.Doc == "" {
		t.Errorf("unexpected rule info %+v", info)
	}
	if _, err := govet.ExplainRule("NOPE"); err == nil {
		t.Error("expected an error for an unknown rule")
	}
}

func TestWriteManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", manifest.FileName)
	if err := govet.WriteManifest(path); err != nil {
		t.Fatal(err)
	}
	doc, err := manifest.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	keys := map[string]bool{}
	for _, k := range doc.Keys() {
		keys[k] = true
	}
	if !keys["printf"] || keys["buildtag"] || keys["inspect"] {
		t.Errorf("unexpected manifest keys: %v", doc.Keys())
	}
	if _, ok := doc.Params()["printf"]["funcs"]; !ok {
		t.Error("printf funcs default missing from manifest")
	}
}

func TestGenerateDocs(t *testing.T) {
	dir := t.TempDir()
	if err := govet.GenerateDocs(dir, "1.0.0", false); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"patterns.json", "description/description.json", "description/printf.md"} {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(name))); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}
