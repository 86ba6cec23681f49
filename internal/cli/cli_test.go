package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/guji/pkg/errors"
	"github.com/matzehuels/guji/pkg/ocr"
	"github.com/matzehuels/guji/pkg/store"
)

// newTestCLI returns a CLI whose config, cache and documents live in a
// temporary directory.
func newTestCLI(t *testing.T) *CLI {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	return New(io.Discard, log.FatalLevel)
}

// execute runs the root command with args and returns what it wrote to
// its output stream.
func execute(t *testing.T, c *CLI, stdin string, args ...string) (string, error) {
	t.Helper()
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// twoColumnPage is a vertical page whose detections arrive out of order.
// Read right column first: 天地宇宙.
func twoColumnPage() *ocr.Page {
	return ocr.NewPage(
		ocr.Detection{Polygon: ocr.Rect(50, 0, 70, 50), Text: "宇", Score: 0.9},
		ocr.Detection{Polygon: ocr.Rect(100, 60, 120, 110), Text: "地", Score: 0.8},
		ocr.Detection{Polygon: ocr.Rect(100, 0, 120, 50), Text: "天", Score: 0.95},
		ocr.Detection{Polygon: ocr.Rect(50, 60, 70, 110), Text: "宙", Score: 0.7},
	)
}

func writePage(t *testing.T, p *ocr.Page) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.json")
	if err := ocr.WritePageFile(path, p, ocr.Horizontal); err != nil {
		t.Fatalf("write page: %v", err)
	}
	return path
}

func pageJSON(t *testing.T, p *ocr.Page) string {
	t.Helper()
	data, err := ocr.MarshalPage(p)
	if err != nil {
		t.Fatalf("marshal page: %v", err)
	}
	return string(data)
}

func TestTextCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"classified", []string{"text"}, "天地宇宙\n"},
		{"separator", []string{"text", "--sep", "/"}, "天/地/宇/宙\n"},
		{"forced horizontal", []string{"text", "--orientation", "horizontal", "--no-cache"}, "宇天宙地\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCLI(t)
			path := writePage(t, twoColumnPage())
			out, err := execute(t, c, "", append(tt.args, path)...)
			if err != nil {
				t.Fatalf("text: %v", err)
			}
			if out != tt.want {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestTextCommandStdin(t *testing.T) {
	c := newTestCLI(t)
	out, err := execute(t, c, pageJSON(t, twoColumnPage()), "text", "-")
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	if out != "天地宇宙\n" {
		t.Errorf("output = %q", out)
	}
}

func TestOrderCommand(t *testing.T) {
	c := newTestCLI(t)
	in := writePage(t, twoColumnPage())
	out := filepath.Join(t.TempDir(), "ordered.json")

	if _, err := execute(t, c, "", "order", in, "-o", out); err != nil {
		t.Fatalf("order: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	got, err := ocr.ReadOrdered(f)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if got.Orientation != ocr.Vertical {
		t.Errorf("orientation = %v, want vertical", got.Orientation)
	}
	if text := got.Page.Text(""); text != "天地宇宙" {
		t.Errorf("text = %q, want 天地宇宙", text)
	}
}

func TestOrderCommandStdout(t *testing.T) {
	c := newTestCLI(t)
	out, err := execute(t, c, "", "order", writePage(t, twoColumnPage()))
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	if !strings.Contains(out, `"orientation": "vertical"`) {
		t.Errorf("stdout should hold the ordered page JSON, got:\n%s", out)
	}
}

func TestOrderCommandErrors(t *testing.T) {
	c := newTestCLI(t)
	path := writePage(t, twoColumnPage())

	if _, err := execute(t, c, "", "order", filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
	_, err := execute(t, c, "", "order", path, "--orientation", "diagonal")
	if !errs.Is(err, errs.ErrCodeInvalidOrientation) {
		t.Errorf("err = %v, want INVALID_ORIENTATION", err)
	}
}

func TestOrderCommandMalformedPoints(t *testing.T) {
	c := newTestCLI(t)
	in := `{"rec_polys":[[[0,60],[40,60],[40,68],[0,68]],[[null,null],[10,0],[10,50],[0,50]],[["x",0],[1,0],[1,1],[0,1]]],` +
		`"rec_texts":["甲","乙","丙"],"rec_scores":[0.9,0.8,0.7]}`

	out, err := execute(t, c, in, "order", "-")
	if err != nil {
		t.Fatalf("malformed points should degrade, not fail: %v", err)
	}
	got, err := ocr.ReadOrdered(strings.NewReader(out))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if text := got.Page.Text(""); text != "甲乙丙" {
		t.Errorf("text = %q, want detector order", text)
	}
	for _, want := range []string{"null", `"x"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output lost the point %s:\n%s", want, out)
		}
	}
}

func TestColumnsCommand(t *testing.T) {
	c := newTestCLI(t)
	out, err := execute(t, c, "", "columns", writePage(t, twoColumnPage()))
	if err != nil {
		t.Fatalf("columns: %v", err)
	}
	for _, want := range []string{"vertical", "columns", "天 地", "宇 宙"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestGraphCommandDOT(t *testing.T) {
	c := newTestCLI(t)
	out, err := execute(t, c, "", "graph", "-f", "dot", writePage(t, twoColumnPage()))
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	for _, want := range []string{"digraph G", "subgraph cluster_0", "subgraph cluster_1", "n0 -> n1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	_, err = execute(t, c, "", "graph", "-f", "gif", writePage(t, twoColumnPage()))
	if !errs.Is(err, errs.ErrCodeUnsupported) {
		t.Errorf("err = %v, want UNSUPPORTED", err)
	}
}

func TestEditCommands(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode errs.Code
		check    func(t *testing.T, p *ocr.Page)
	}{
		{
			name: "text",
			args: []string{"edit", "text", "", "0", "玄"},
			check: func(t *testing.T, p *ocr.Page) {
				if p.Texts[0] != "玄" {
					t.Errorf("Texts[0] = %q, want 玄", p.Texts[0])
				}
			},
		},
		{
			name: "remove",
			args: []string{"edit", "remove", "", "1"},
			check: func(t *testing.T, p *ocr.Page) {
				if p.Len() != 3 || p.Texts[1] != "天" {
					t.Errorf("texts after remove = %v", p.Texts)
				}
			},
		},
		{
			name: "resize",
			args: []string{"edit", "resize", "", "2", "100", "0", "130", "60"},
			check: func(t *testing.T, p *ocr.Page) {
				b := p.Polygons[2].Bounds()
				if b.Width() != 30 || b.Height() != 60 {
					t.Errorf("box = %+v", b)
				}
			},
		},
		{
			name: "replace",
			args: []string{"edit", "replace", "", "3", "[[0,0],[20,0],[20,80],[0,80]]"},
			check: func(t *testing.T, p *ocr.Page) {
				if b := p.Polygons[3].Bounds(); b.YMax != 80 {
					t.Errorf("box = %+v", b)
				}
			},
		},
		{name: "index out of range", args: []string{"edit", "remove", "", "9"}, wantCode: errs.ErrCodeInvalidIndex},
		{name: "index not a number", args: []string{"edit", "text", "", "x", "玄"}, wantCode: errs.ErrCodeInvalidIndex},
		{name: "box too small", args: []string{"edit", "resize", "", "0", "0", "0", "5", "5"}, wantCode: errs.ErrCodeInvalidInput},
		{name: "bad polygon", args: []string{"edit", "replace", "", "0", "[[0,0]]"}, wantCode: errs.ErrCodeMalformedGeometry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCLI(t)
			path := writePage(t, twoColumnPage())
			tt.args[2] = path

			_, err := execute(t, c, "", tt.args...)
			if tt.wantCode != "" {
				if !errs.Is(err, tt.wantCode) {
					t.Fatalf("err = %v, want %s", err, tt.wantCode)
				}
				p, _ := ocr.ReadPageFile(path)
				if p.Len() != 4 {
					t.Error("failed edit should leave the file untouched")
				}
				return
			}
			if err != nil {
				t.Fatalf("edit: %v", err)
			}
			p, err := ocr.ReadPageFile(path)
			if err != nil {
				t.Fatalf("read edited page: %v", err)
			}
			tt.check(t, p)
		})
	}
}

func TestDocImportAndShow(t *testing.T) {
	c := newTestCLI(t)
	first := writePage(t, twoColumnPage())
	second := writePage(t, ocr.NewPage(
		ocr.Detection{Polygon: ocr.Rect(0, 50, 100, 70), Text: "下", Score: 1},
		ocr.Detection{Polygon: ocr.Rect(0, 0, 100, 20), Text: "上", Score: 1},
	))

	if _, err := execute(t, c, "", "doc", "import", "論語.pdf", first, second); err != nil {
		t.Fatalf("import: %v", err)
	}
	if _, err := execute(t, c, "", "doc", "save", "論語.pdf", "1", "--punctuated", "上，下。"); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := execute(t, c, "", "doc", "show", "論語.pdf", "--json")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	var doc store.Document
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode show output: %v\n%s", err, out)
	}
	if got := doc.PageNumbers(); len(got) != 2 {
		t.Fatalf("pages = %v, want [0 1]", got)
	}
	p0, _ := doc.Page(0)
	if p0.OCR == nil || p0.OCR.Page.Text("") != "天地宇宙" || p0.OCR.Orientation != ocr.Vertical {
		t.Errorf("page 0 = %+v", p0.OCR)
	}
	p1, _ := doc.Page(1)
	if p1.OCR == nil || p1.OCR.Page.Text("") != "上下" {
		t.Errorf("page 1 OCR = %+v", p1.OCR)
	}
	if p1.Punctuated != "上，下。" {
		t.Errorf("page 1 punctuated = %q", p1.Punctuated)
	}

	out, err = execute(t, c, "", "doc", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.TrimSpace(out) != "論語.pdf" {
		t.Errorf("list = %q", out)
	}

	if _, err := execute(t, c, "", "doc", "show", "論語.pdf", "--page", "7"); !errs.Is(err, errs.ErrCodeNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}

	if _, err := execute(t, c, "", "doc", "delete", "論語.pdf"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	out, _ = execute(t, c, "", "doc", "list")
	if strings.Contains(out, "論語.pdf") {
		t.Error("document should be gone after delete")
	}
}

func TestDocSaveNeedsContent(t *testing.T) {
	c := newTestCLI(t)
	_, err := execute(t, c, "", "doc", "save", "a.pdf", "0")
	if !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
	_, err = execute(t, c, "", "doc", "save", "a.pdf", "-1", "--punctuated", "x")
	if !errs.Is(err, errs.ErrCodeInvalidIndex) {
		t.Errorf("err = %v, want INVALID_INDEX", err)
	}
}

func TestConfigCommands(t *testing.T) {
	c := newTestCLI(t)
	path := filepath.Join(t.TempDir(), "guji.toml")

	out, err := execute(t, c, "", "--config", path, "config", "path")
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	if strings.TrimSpace(out) != path {
		t.Errorf("config path = %q, want %q", out, path)
	}

	if _, err := execute(t, c, "", "--config", path, "config", "init"); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	out, err = execute(t, c, "", "--config", path, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	for _, want := range []string{"[cache]", `backend = "file"`, "[layout]"} {
		if !strings.Contains(out, want) {
			t.Errorf("config show missing %q:\n%s", want, out)
		}
	}
}

func TestInvalidConfig(t *testing.T) {
	c := newTestCLI(t)
	path := filepath.Join(t.TempDir(), "guji.toml")
	if err := os.WriteFile(path, []byte("[cache]\nbackend = \"tape\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := execute(t, c, "", "--config", path, "text", writePage(t, twoColumnPage()))
	if !errs.Is(err, errs.ErrCodeInvalidConfig) {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}

func TestCachePathAndClear(t *testing.T) {
	c := newTestCLI(t)

	out, err := execute(t, c, "", "cache", "path")
	if err != nil {
		t.Fatalf("cache path: %v", err)
	}
	want := filepath.Join(os.Getenv("XDG_CACHE_HOME"), appName)
	if strings.TrimSpace(out) != want {
		t.Errorf("cache path = %q, want %q", out, want)
	}

	if _, err := execute(t, c, "", "text", writePage(t, twoColumnPage())); err != nil {
		t.Fatalf("text: %v", err)
	}
	entries, _ := os.ReadDir(want)
	if len(entries) == 0 {
		t.Fatal("ordering should have populated the file cache")
	}

	if _, err := execute(t, c, "", "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	entries, _ = os.ReadDir(want)
	if len(entries) != 0 {
		t.Errorf("cache dir holds %d entries after clear", len(entries))
	}
}

func TestNewCacheBackends(t *testing.T) {
	ctx := context.Background()
	c := newTestCLI(t)

	c.cfg.Cache.Backend = "memory"
	cc, err := c.newCache(ctx, false)
	if err != nil {
		t.Fatalf("newCache: %v", err)
	}
	if _, ok := unwrapCache(cc).(interface{ Len() int }); !ok {
		t.Errorf("memory backend = %T", cc)
	}

	c.cfg.Cache.Backend = "none"
	cc, _ = c.newCache(ctx, false)
	if _, hit, _ := cc.Get(ctx, "k"); hit {
		t.Error("none backend should never hit")
	}
}

func TestConfigShowYAMLAndEnv(t *testing.T) {
	c := newTestCLI(t)
	t.Setenv("GUJI_SERVER_ADDR", ":7777")

	out, err := execute(t, c, "", "config", "show", "-f", "yaml")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	for _, want := range []string{"cache:", "backend: file", ":7777"} {
		if !strings.Contains(out, want) {
			t.Errorf("config show missing %q:\n%s", want, out)
		}
	}

	if _, err := execute(t, c, "", "config", "show", "-f", "ini"); !errs.Is(err, errs.ErrCodeUnsupported) {
		t.Errorf("err = %v, want UNSUPPORTED", err)
	}
}
