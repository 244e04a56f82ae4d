// Package archive wraps converted documents in gzip or xz streams and packs
// a document with its images into tar bundles.
package archive

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/ulikunitz/xz"
)

// MaxDecompressed bounds the size of a decompressed stream.
const MaxDecompressed = 512 << 20

// Compression identifies a stream compression.
type Compression int

const (
	None Compression = iota
	Gzip
	XZ
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	xzMagic   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case XZ:
		return "xz"
	default:
		return "none"
	}
}

// Extension returns the file suffix for c, including the dot.
func (c Compression) Extension() string {
	switch c {
	case Gzip:
		return ".gz"
	case XZ:
		return ".xz"
	default:
		return ""
	}
}

// Sniff identifies the compression of data by its magic bytes.
func Sniff(data []byte) Compression {
	switch {
	case bytes.HasPrefix(data, xzMagic):
		return XZ
	case bytes.HasPrefix(data, gzipMagic):
		return Gzip
	default:
		return None
	}
}

// FromName identifies the compression of a file by its suffix.
func FromName(name string) Compression {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".xz"), strings.HasSuffix(lower, ".txz"):
		return XZ
	case strings.HasSuffix(lower, ".gz"), strings.HasSuffix(lower, ".tgz"):
		return Gzip
	default:
		return None
	}
}

// StripExtension removes a compression suffix, so report.md.xz yields
// report.md. The short tar forms expand to .tar.
func StripExtension(name string) string {
	lower := strings.ToLower(name)
	for _, ext := range []string{".tgz", ".txz"} {
		if strings.HasSuffix(lower, ext) {
			return name[:len(name)-len(ext)] + ".tar"
		}
	}
	for _, ext := range []string{".gz", ".xz"} {
		if strings.HasSuffix(lower, ext) {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

// NewReader returns a reader that decompresses r.
func NewReader(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case Gzip:
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		return gzr, nil
	case XZ:
		xzr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		return io.NopCloser(xzr), nil
	default:
		return io.NopCloser(r), nil
	}
}

// NewWriter returns a writer that compresses into w. Close flushes the
// stream but leaves w open.
func NewWriter(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case Gzip:
		return gzip.NewWriter(w), nil
	case XZ:
		xw, err := xz.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("xz writer: %w", err)
		}
		return xw, nil
	default:
		return nopWriteCloser{w}, nil
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// Decompress sniffs and decompresses data. Uncompressed input is returned
// unchanged.
func Decompress(data []byte) ([]byte, Compression, error) {
	c := Sniff(data)
	if c == None {
		return data, None, nil
	}
	r, err := NewReader(bytes.NewReader(data), c)
	if err != nil {
		return nil, c, err
	}
	defer r.Close()
	out, err := io.ReadAll(io.LimitReader(r, MaxDecompressed+1))
	if err != nil {
		return nil, c, fmt.Errorf("%s decompress: %w", c, err)
	}
	if len(out) > MaxDecompressed {
		return nil, c, fmt.Errorf("%s stream exceeds %d bytes", c, MaxDecompressed)
	}
	return out, c, nil
}

// Compress compresses data with c.
func Compress(data []byte, c Compression) ([]byte, error) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, c)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("%s compress: %w", c, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%s compress: %w", c, err)
	}
	return buf.Bytes(), nil
}
