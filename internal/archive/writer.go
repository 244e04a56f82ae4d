package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"time"
)

// epoch is the modification time of every bundle entry, so equal inputs
// produce equal bundles.
var epoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// WriteBundle writes files as a tar archive compressed with c.
func WriteBundle(w io.Writer, c Compression, files []File) error {
	cw, err := NewWriter(w, c)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(cw)
	for _, f := range files {
		name, err := cleanName(f.Name)
		if err != nil {
			return err
		}
		header := &tar.Header{
			Name:     name,
			Mode:     0644,
			Size:     int64(len(f.Data)),
			ModTime:  epoch,
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(header); err != nil {
			return fmt.Errorf("failed to write header for %s: %w", name, err)
		}
		if _, err := tw.Write(f.Data); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	return cw.Close()
}

// Collector gathers files handed to a saver.
type Collector struct {
	Files []File
}

// Save records a copy of data under name.
func (c *Collector) Save(data []byte, name string) error {
	c.Files = append(c.Files, File{Name: name, Data: append([]byte(nil), data...)})
	return nil
}
