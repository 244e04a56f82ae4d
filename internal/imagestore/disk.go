package imagestore

import (
	"os"
	"path/filepath"

	"github.com/FocuswithJustin/docbridge/core/errors"
)

// Disk keeps images as files under Dir.
type Disk struct {
	Dir string
}

// Load reads the image called name.
func (d Disk) Load(name string) ([]byte, error) {
	clean, err := CheckName(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(d.Dir, filepath.FromSlash(clean)))
	if os.IsNotExist(err) {
		return nil, errors.NewNotFound("image", clean)
	}
	if err != nil {
		return nil, errors.NewIO("read", clean, err)
	}
	return data, nil
}

// Save writes data to Dir/name atomically through a temp file.
func (d Disk) Save(data []byte, name string) error {
	clean, err := CheckName(name)
	if err != nil {
		return err
	}
	target := filepath.Join(d.Dir, filepath.FromSlash(clean))
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "create image directory")
	}

	tmp, err := os.CreateTemp(dir, ".image-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.NewIO("write", clean, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.NewIO("write", clean, err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return errors.NewIO("rename", clean, err)
	}
	return nil
}
