package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	docerrors "github.com/FocuswithJustin/docbridge/core/errors"
	docbridge "github.com/FocuswithJustin/docbridge/core/transform"
	"github.com/FocuswithJustin/docbridge/internal/archive"
	"github.com/FocuswithJustin/docbridge/internal/config"
	"github.com/FocuswithJustin/docbridge/internal/imagestore"
)

const sample = "# Title\n\nHello *world*\n\n- one\n- two\n"

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type harness struct {
	rt     *runtime
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newHarness(cfg config.Config, stdin string) *harness {
	h := &harness{stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	h.rt = &runtime{cfg: &cfg, stdin: strings.NewReader(stdin), stdout: h.stdout, stderr: h.stderr}
	return h
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func convert(t *testing.T, from, to string, input []byte) []byte {
	t.Helper()
	res, err := docbridge.Convert(context.Background(), docbridge.Request{From: from, To: to, Input: input})
	if err != nil {
		t.Fatal(err)
	}
	return res.Output
}

func TestConvertToStdout(t *testing.T) {
	h := newHarness(config.Config{}, "")
	cmd := &ConvertCmd{Input: writeFile(t, "doc.md", []byte(sample)), Output: stdio, To: "html"}
	if err := cmd.Run(h.rt); err != nil {
		t.Fatal(err)
	}
	if want := convert(t, "markdown", "html", []byte(sample)); !bytes.Equal(h.stdout.Bytes(), want) {
		t.Errorf("stdout = %q, want %q", h.stdout, want)
	}
	if !strings.Contains(h.stderr.String(), "markdown") || !strings.Contains(h.stderr.String(), "html") {
		t.Errorf("summary = %q", h.stderr)
	}
}

func TestConvertFromStdin(t *testing.T) {
	h := newHarness(config.Config{}, "plain words\n")
	cmd := &ConvertCmd{Input: stdio, Output: stdio, From: "text", To: "json"}
	if err := cmd.Run(h.rt); err != nil {
		t.Fatal(err)
	}
	doc, err := docbridge.Default().Parse("json", h.stdout.Bytes(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Body) != 1 {
		t.Errorf("body = %#v", doc.Body)
	}
}

func TestConvertTargetFromOutputName(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "doc.json")
	cmd := &ConvertCmd{Input: writeFile(t, "doc.md", []byte(sample)), Output: out}
	if err := cmd.Run(newHarness(config.Config{}, "").rt); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	got, err := docbridge.Default().Parse("json", data, nil)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := docbridge.Default().Parse("markdown", []byte(sample), nil)
	if !cdm.Equal(got, want) {
		t.Errorf("json output does not match the markdown document")
	}
}

func TestConvertCompression(t *testing.T) {
	gz, err := archive.Compress([]byte(sample), archive.Gzip)
	if err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "doc.txt.xz")
	cmd := &ConvertCmd{Input: writeFile(t, "doc.md.gz", gz), Output: out}
	if err := cmd.Run(newHarness(config.Config{}, "").rt); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	plain, comp, err := archive.Decompress(data)
	if err != nil {
		t.Fatal(err)
	}
	if comp != archive.XZ {
		t.Errorf("compression = %v, want xz", comp)
	}
	if want := convert(t, "markdown", "text", []byte(sample)); !bytes.Equal(plain, want) {
		t.Errorf("output = %q, want %q", plain, want)
	}
}

func TestConvertBundleRoundTrip(t *testing.T) {
	md := "![logo](data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes) + ")\n"
	dir := t.TempDir()
	bundle := filepath.Join(dir, "out.tar.xz")

	cmd := &ConvertCmd{Input: writeFile(t, "doc.md", []byte(md)), Output: bundle, To: "markdown"}
	if err := cmd.Run(newHarness(config.Config{}, "").rt); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(bundle)
	if err != nil {
		t.Fatal(err)
	}
	files, err := archive.ReadBundle(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 || files[0].Name != "document.md" || files[1].Name != "image0.png" {
		t.Fatalf("bundle = %v", files)
	}
	if string(files[0].Data) != "![logo](image0.png)\n" || !bytes.Equal(files[1].Data, pngBytes) {
		t.Errorf("bundle document = %q", files[0].Data)
	}

	h := newHarness(config.Config{}, "")
	back := &ConvertCmd{Input: bundle, Output: stdio, To: "json"}
	if err := back.Run(h.rt); err != nil {
		t.Fatal(err)
	}
	doc, err := docbridge.Default().Parse("json", h.stdout.Bytes(), nil)
	if err != nil {
		t.Fatal(err)
	}
	img, ok := doc.Body[0].(cdm.Image)
	if !ok || !bytes.Equal(img.Bytes, pngBytes) {
		t.Errorf("body[0] = %#v, want the bundled image", doc.Body[0])
	}
}

func TestConvertImageStores(t *testing.T) {
	md := "![logo](data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes) + ")\n"
	input := writeFile(t, "doc.md", []byte(md))

	t.Run("directory", func(t *testing.T) {
		dir := t.TempDir()
		h := newHarness(config.Config{ImagesDir: dir}, "")
		if err := (&ConvertCmd{Input: input, Output: stdio, To: "html"}).Run(h.rt); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(h.stdout.String(), `src="image0.png"`) {
			t.Errorf("stdout = %q", h.stdout)
		}
		saved, err := os.ReadFile(filepath.Join(dir, "image0.png"))
		if err != nil || !bytes.Equal(saved, pngBytes) {
			t.Errorf("saved image = %x, %v", saved, err)
		}
	})

	t.Run("database", func(t *testing.T) {
		db := filepath.Join(t.TempDir(), "images.db")
		h := newHarness(config.Config{ImageDB: db}, "")
		if err := (&ConvertCmd{Input: input, Output: stdio, To: "markdown"}).Run(h.rt); err != nil {
			t.Fatal(err)
		}
		if h.stdout.String() != "![logo](image0.png)\n" {
			t.Errorf("stdout = %q", h.stdout)
		}
		s, err := imagestore.Open(db)
		if err != nil {
			t.Fatal(err)
		}
		defer s.Close()
		entries, err := s.List()
		if err != nil || len(entries) != 1 || entries[0].Name != "image0.png" {
			t.Errorf("List() = %v, %v", entries, err)
		}
	})

	t.Run("missing database", func(t *testing.T) {
		db := filepath.Join(t.TempDir(), "absent.db")
		h := newHarness(config.Config{ImageDB: db}, "")
		plain := &ConvertCmd{Input: writeFile(t, "plain.md", []byte(sample)), Output: stdio, To: "json"}
		if err := plain.Run(h.rt); err != nil {
			t.Fatalf("conversion without images: %v", err)
		}
		if _, err := os.Stat(db); !os.IsNotExist(err) {
			t.Errorf("read-only conversion created %s", db)
		}

		h = newHarness(config.Config{ImageDB: db}, "")
		linked := &ConvertCmd{Input: writeFile(t, "linked.md", []byte("![logo](logo.png)\n")), Output: stdio, To: "json"}
		err := linked.Run(h.rt)
		var ce *docerrors.CallbackError
		if !errors.As(err, &ce) || !errors.Is(err, docerrors.ErrNotFound) {
			t.Errorf("Run() error = %v, want a failed load of a missing image", err)
		}
	})
}

func TestConvertErrors(t *testing.T) {
	input := writeFile(t, "doc.md", []byte(sample))
	tests := []struct {
		name  string
		cmd   ConvertCmd
		check func(error) bool
	}{
		{"no target", ConvertCmd{Input: input, Output: stdio}, func(err error) bool {
			var ve *docerrors.ValidationError
			return errors.As(err, &ve) && ve.Field == "to"
		}},
		{"unknown target", ConvertCmd{Input: input, Output: stdio, To: "epub"}, func(err error) bool {
			var ufe *docerrors.UnsupportedFormatError
			return errors.As(err, &ufe)
		}},
		{"missing input", ConvertCmd{Input: filepath.Join(t.TempDir(), "absent.md"), Output: stdio, To: "text"}, func(err error) bool {
			return errors.Is(err, docerrors.ErrNotFound)
		}},
		{"read-only target", ConvertCmd{Input: input, Output: stdio, To: "xls"}, func(err error) bool {
			return errors.Is(err, docerrors.ErrUnsupported)
		}},
		{"undetectable source", ConvertCmd{Input: writeFile(t, "blob", []byte{0, 1, 2, 3, 0xff}), Output: stdio, To: "text"}, func(err error) bool {
			var ufe *docerrors.UnsupportedFormatError
			return errors.As(err, &ufe)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(config.Config{}, "")
			err := tt.cmd.Run(h.rt)
			if !tt.check(err) {
				t.Errorf("Run() error = %v", err)
			}
			if h.stdout.Len() != 0 {
				t.Errorf("stdout = %q, want nothing on failure", h.stdout)
			}
		})
	}
}

func TestFormats(t *testing.T) {
	h := newHarness(config.Config{}, "")
	if err := (&FormatsCmd{}).Run(h.rt); err != nil {
		t.Fatal(err)
	}
	for _, name := range docbridge.Names() {
		if !strings.Contains(h.stdout.String(), name) {
			t.Errorf("formats output misses %s", name)
		}
	}

	h = newHarness(config.Config{}, "")
	if err := (&FormatsCmd{JSON: true}).Run(h.rt); err != nil {
		t.Fatal(err)
	}
	var caps []docbridge.Capability
	if err := json.Unmarshal(h.stdout.Bytes(), &caps); err != nil {
		t.Fatal(err)
	}
	if len(caps) != 13 {
		t.Errorf("capabilities = %v", caps)
	}
	for _, c := range caps {
		if c.ReadOnly != (c.Name == "xls") {
			t.Errorf("%s read_only = %v", c.Name, c.ReadOnly)
		}
	}
}

func TestInspect(t *testing.T) {
	input := writeFile(t, "doc.md", []byte(sample))
	h := newHarness(config.Config{}, "")
	if err := (&InspectCmd{Input: input, JSON: true}).Run(h.rt); err != nil {
		t.Fatal(err)
	}
	var got Inspection
	if err := json.Unmarshal(h.stdout.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	doc, _ := docbridge.Default().Parse("markdown", []byte(sample), nil)
	if got.Format != "markdown" || got.Fingerprint != cdm.Fingerprint(doc) {
		t.Errorf("inspection = %+v", got)
	}
	if got.Elements["header"] != 1 || got.Elements["list"] != 1 {
		t.Errorf("elements = %v", got.Elements)
	}
	if got.PageWidth != cdm.A4.Width {
		t.Errorf("page width = %v", got.PageWidth)
	}

	h = newHarness(config.Config{}, "")
	if err := (&InspectCmd{Input: input}).Run(h.rt); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"format:      markdown", "header=1", "fingerprint: " + got.Fingerprint} {
		if !strings.Contains(h.stdout.String(), want) {
			t.Errorf("inspect output misses %q:\n%s", want, h.stdout)
		}
	}
}

func TestVersion(t *testing.T) {
	h := newHarness(config.Config{}, "")
	if err := (&VersionCmd{}).Run(h.rt); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(h.stdout.String(), "docbridge version "+version) {
		t.Errorf("version output = %q", h.stdout)
	}
}
