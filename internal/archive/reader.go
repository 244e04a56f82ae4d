package archive

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
)

// File is one bundle entry.
type File struct {
	Name string
	Data []byte
}

// IsBundle reports whether name is a tar archive, compressed or not.
func IsBundle(name string) bool {
	return strings.HasSuffix(strings.ToLower(StripExtension(name)), ".tar")
}

// Reader wraps a tar.Reader over a possibly compressed stream.
type Reader struct {
	*tar.Reader
	decompressor io.Closer
}

// NewBundleReader opens a tar bundle, sniffing gzip or xz compression.
func NewBundleReader(data []byte) (*Reader, error) {
	r, err := NewReader(bytes.NewReader(data), Sniff(data))
	if err != nil {
		return nil, err
	}
	return &Reader{Reader: tar.NewReader(r), decompressor: r}, nil
}

// Close closes the decompressor.
func (r *Reader) Close() error {
	return r.decompressor.Close()
}

// Visitor is a callback function for iterating archive entries.
// Return true to stop iteration, false to continue.
type Visitor func(header *tar.Header, content io.Reader) (stop bool, err error)

// Iterate walks through all entries in the archive, calling the visitor for each.
func (r *Reader) Iterate(visitor Visitor) error {
	for {
		header, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read header: %w", err)
		}

		stop, err := visitor(header, r)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

// cleanName normalizes an entry name and rejects names escaping the
// bundle root.
func cleanName(name string) (string, error) {
	clean := path.Clean(strings.TrimPrefix(name, "./"))
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("unsafe entry name %q", name)
	}
	return clean, nil
}

// ReadBundle reads every regular file of a bundle in archive order.
func ReadBundle(data []byte) ([]File, error) {
	r, err := NewBundleReader(data)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var files []File
	var total int64
	err = r.Iterate(func(header *tar.Header, content io.Reader) (bool, error) {
		if header.Typeflag != tar.TypeReg {
			return false, nil
		}
		name, err := cleanName(header.Name)
		if err != nil {
			return true, err
		}
		total += header.Size
		if total > MaxDecompressed {
			return true, fmt.Errorf("bundle exceeds %d bytes", MaxDecompressed)
		}
		body, err := io.ReadAll(content)
		if err != nil {
			return true, fmt.Errorf("read %s: %w", name, err)
		}
		files = append(files, File{Name: name, Data: body})
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Find returns the file called name.
func Find(files []File, name string) ([]byte, bool) {
	clean, err := cleanName(name)
	if err != nil {
		return nil, false
	}
	for _, f := range files {
		if f.Name == clean {
			return f.Data, true
		}
	}
	return nil, false
}

// FindFirst returns the first file matching the predicate.
func FindFirst(files []File, predicate func(name string) bool) (File, bool) {
	for _, f := range files {
		if predicate(f.Name) {
			return f, true
		}
	}
	return File{}, false
}

// Loader resolves image references against the bundle entries.
func Loader(files []File) func(url string) ([]byte, error) {
	return func(url string) ([]byte, error) {
		data, ok := Find(files, url)
		if !ok {
			return nil, fmt.Errorf("file not found in bundle: %s", url)
		}
		return data, nil
	}
}
