package imagestore

import (
	"bytes"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	"github.com/FocuswithJustin/docbridge/core/errors"
	docbridge "github.com/FocuswithJustin/docbridge/core/transform"
	_ "github.com/FocuswithJustin/docbridge/internal/formats/markdown"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

// store is the loader/saver pair shared by both backends.
type store interface {
	Load(name string) ([]byte, error)
	Save(data []byte, name string) error
}

func TestCheckName(t *testing.T) {
	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"image0.png", "image0.png", true},
		{"img/./a.png", "img/a.png", true},
		{`img\a.png`, "img/a.png", true},
		{"", "", false},
		{"/etc/passwd", "", false},
		{`C:\x.png`, "", false},
		{"../x.png", "", false},
		{"img/../../x.png", "", false},
		{"https://x.test/a.png", "", false},
		{"data:image/png;base64,AA==", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckName(tt.name)
			if (err == nil) != tt.ok || got != tt.want {
				t.Errorf("CheckName(%q) = %q, %v", tt.name, got, err)
			}
		})
	}
}

func testStore(t *testing.T, s store) {
	t.Helper()
	if err := s.Save(pngBytes, "img/image0.png"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := s.Load("img/image0.png")
	if err != nil || !bytes.Equal(got, pngBytes) {
		t.Errorf("Load() = %x, %v", got, err)
	}

	if err := s.Save([]byte("replaced"), "img/image0.png"); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Load("img/image0.png"); string(got) != "replaced" {
		t.Errorf("Load() after overwrite = %q", got)
	}

	_, err = s.Load("missing.png")
	var nf *errors.NotFoundError
	if !stderrors.As(err, &nf) || !stderrors.Is(err, errors.ErrNotFound) {
		t.Errorf("Load(missing) error = %v, want NotFoundError", err)
	}
	if _, err := s.Load("../escape.png"); err == nil {
		t.Error("Load() should reject traversal")
	}
	if err := s.Save(pngBytes, "/abs.png"); err == nil {
		t.Error("Save() should reject absolute paths")
	}
}

func TestDisk(t *testing.T) {
	dir := t.TempDir()
	testStore(t, Disk{Dir: dir})

	if _, err := os.Stat(filepath.Join(dir, "img", "image0.png")); err != nil {
		t.Errorf("saved file missing: %v", err)
	}
	entries, _ := os.ReadDir(filepath.Join(dir, "img"))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "images.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	testStore(t, s)

	if err := s.Save(pngBytes, "logo.png"); err != nil {
		t.Fatal(err)
	}
	list, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[1].Name != "logo.png" {
		t.Fatalf("List() = %+v", list)
	}
	logo := list[1]
	if logo.Digest != Digest(pngBytes) || len(logo.Digest) != 64 || logo.MIME != "image/png" || logo.Size != len(pngBytes) {
		t.Errorf("entry = %+v", logo)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	if got, err := reopened.Load("logo.png"); err != nil || !bytes.Equal(got, pngBytes) {
		t.Errorf("Load() after reopen = %x, %v", got, err)
	}
}

func TestSQLiteReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "images.db")
	if _, err := OpenReadOnly(path); !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("OpenReadOnly(missing) error = %v, want ErrNotFound", err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(pngBytes, "logo.png"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	ro, err := OpenReadOnly(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ro.Close()
	if got, err := ro.Load("logo.png"); err != nil || !bytes.Equal(got, pngBytes) {
		t.Errorf("Load() = %x, %v", got, err)
	}
	var ioe *errors.IOError
	if err := ro.Save(pngBytes, "other.png"); !stderrors.As(err, &ioe) {
		t.Errorf("Save() on read-only store error = %v, want IOError", err)
	}
}

func TestStoresServeConversions(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "images.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	doc := cdm.NewDocument(cdm.Image{Bytes: pngBytes, Alt: "logo", Encoding: cdm.PNG})
	out, _, err := docbridge.Default().Generate("markdown", doc, s.Save)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "![logo](image0.png)\n" {
		t.Errorf("Generate() = %q", out)
	}

	back, err := docbridge.Default().Parse("markdown", out, s.Load)
	if err != nil {
		t.Fatal(err)
	}
	if !cdm.ElementsEqual(back.Body, doc.Body) {
		t.Errorf("Parse() = %#v", back.Body)
	}
}
