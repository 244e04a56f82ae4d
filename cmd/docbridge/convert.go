package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/FocuswithJustin/docbridge/core/cache"
	"github.com/FocuswithJustin/docbridge/core/errors"
	docbridge "github.com/FocuswithJustin/docbridge/core/transform"
	"github.com/FocuswithJustin/docbridge/internal/archive"
	"github.com/FocuswithJustin/docbridge/internal/config"
	"github.com/FocuswithJustin/docbridge/internal/detect"
	"github.com/FocuswithJustin/docbridge/internal/imagestore"
	"github.com/FocuswithJustin/docbridge/internal/logging"
)

// stdio names standard input or output in place of a file.
const stdio = "-"

// imageCacheBytes bounds the images kept by the loader cache.
const imageCacheBytes = 64 << 20

// ConvertCmd converts one document.
type ConvertCmd struct {
	Input  string `arg:"" help:"Input file, - for stdin"`
	Output string `short:"o" default:"-" help:"Output file, - for stdout"`
	From   string `help:"Source format (default: detected)"`
	To     string `help:"Target format (default: from the output name)"`
	XZ     bool   `name:"xz" help:"Compress the output with xz"`
	Bundle bool   `help:"Write a tar bundle holding the document and its images"`
}

func (c *ConvertCmd) Run(rt *runtime) error {
	ctx, cancel := rt.cfg.Context(context.Background())
	defer cancel()
	ctx = logging.WithRunID(ctx, uuid.NewString())

	input, err := readInput(c.Input, rt.stdin)
	if err != nil {
		return err
	}
	src, err := openSource(c.Input, input)
	if err != nil {
		return err
	}
	from, err := detect.Format(c.From, src.name, src.data)
	if err != nil {
		return err
	}
	to, err := c.target()
	if err != nil {
		return err
	}
	if readOnly(to) {
		return errors.NewUnsupported(to+" output", "the format can be read but not written")
	}
	bundle := c.Bundle || archive.IsBundle(c.Output)
	logging.DebugContext(ctx, "resolved conversion", "input", c.Input, "from", from, "to", to, "bundle", bundle)

	load := hasImages(from) && src.load == nil
	save := hasImages(to) && !bundle
	images, err := openImages(rt.cfg, load, save)
	if err != nil {
		return err
	}
	defer images.Close()

	req := docbridge.Request{From: from, To: to, Input: src.data}
	if hasImages(from) {
		req.Loader = src.load
		if req.Loader == nil {
			req.Loader = images.load
		}
	}
	var collected archive.Collector
	if hasImages(to) {
		req.Saver = images.save
		if bundle {
			req.Saver = collected.Save
		}
	}

	start := time.Now()
	res, err := docbridge.Convert(ctx, req)
	if err != nil {
		return err
	}

	out, err := c.encode(res.Output, to, bundle, collected.Files)
	if err != nil {
		return err
	}
	if err := writeOutput(c.Output, rt.stdout, out); err != nil {
		return err
	}
	fmt.Fprintf(rt.stderr, "%s (%s) -> %s (%s) in %s, %s, %d diagnostics\n",
		from, humanize.Bytes(uint64(len(input))),
		to, humanize.Bytes(uint64(len(out))),
		time.Since(start).Round(time.Millisecond),
		res.Report.Class, len(res.Report.Diagnostics))
	return nil
}

// target resolves the output format from --to or the output file name.
func (c *ConvertCmd) target() (string, error) {
	if c.To != "" {
		if !docbridge.Has(c.To) {
			return "", &errors.UnsupportedFormatError{Name: c.To}
		}
		return strings.ToLower(c.To), nil
	}
	if c.Output != stdio && !archive.IsBundle(c.Output) {
		if f, ok := detect.FromName(c.Output); ok {
			return f, nil
		}
	}
	return "", errors.NewValidation("to", "cannot determine the target format, use --to")
}

// encode wraps the generated bytes in a bundle or compression as requested.
func (c *ConvertCmd) encode(doc []byte, to string, bundle bool, images []archive.File) ([]byte, error) {
	comp := archive.FromName(c.Output)
	if c.XZ {
		comp = archive.XZ
	}
	if bundle {
		files := append([]archive.File{{Name: "document" + detect.Extension(to), Data: doc}}, images...)
		var buf bytes.Buffer
		if err := archive.WriteBundle(&buf, comp, files); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	if comp == archive.None {
		return doc, nil
	}
	return archive.Compress(doc, comp)
}

// source is the document to parse and, for bundles, the loader serving
// the bundled images.
type source struct {
	name string
	data []byte
	load docbridge.Loader
}

func openSource(name string, data []byte) (source, error) {
	if !archive.IsBundle(name) {
		plain, _, err := archive.Decompress(data)
		if err != nil {
			return source{}, errors.NewIO("decompress", name, err)
		}
		return source{name: archive.StripExtension(name), data: plain}, nil
	}
	files, err := archive.ReadBundle(data)
	if err != nil {
		return source{}, errors.NewIO("read bundle", name, err)
	}
	doc, ok := archive.FindFirst(files, func(n string) bool {
		_, ok := detect.FromName(n)
		return ok
	})
	if !ok {
		return source{}, errors.NewNotFound("document", name)
	}
	return source{name: doc.Name, data: doc.Data, load: archive.Loader(files)}, nil
}

func readOnly(format string) bool {
	t, err := docbridge.Lookup(format)
	if err != nil {
		return false
	}
	ro, ok := t.(docbridge.ReadOnly)
	return ok && ro.ReadOnly()
}

func hasImages(format string) bool {
	t, err := docbridge.Lookup(format)
	if err != nil {
		return false
	}
	_, ok := docbridge.AsImageTransformer(t)
	return ok
}

// imageStore is the configured image store. Both callbacks are nil when
// neither an images directory nor an image database is set.
type imageStore struct {
	load  docbridge.Loader
	save  docbridge.Saver
	close func() error
}

// openImages opens the configured store when the conversion loads or saves
// images. The image database is opened read-only unless images are saved;
// a missing one then fails only the loads.
func openImages(cfg *config.Config, load, save bool) (*imageStore, error) {
	if !load && !save {
		return &imageStore{}, nil
	}
	switch {
	case cfg.ImageDB != "":
		open := imagestore.OpenReadOnly
		if save {
			open = imagestore.Open
		}
		s, err := open(cfg.ImageDB)
		if !save && errors.Is(err, errors.ErrNotFound) {
			return &imageStore{load: func(string) ([]byte, error) { return nil, err }}, nil
		}
		if err != nil {
			return nil, err
		}
		return &imageStore{load: cache.Loader(s.Load, imageCacheBytes), save: s.Save, close: s.Close}, nil
	case cfg.ImagesDir != "":
		d := imagestore.Disk{Dir: cfg.ImagesDir}
		return &imageStore{load: cache.Loader(d.Load, imageCacheBytes), save: d.Save}, nil
	}
	return &imageStore{}, nil
}

func (i *imageStore) Close() error {
	if i.close == nil {
		return nil
	}
	return i.close()
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == stdio {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, errors.NewIO("read", "stdin", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("file", path)
		}
		return nil, errors.NewIO("read", path, err)
	}
	return data, nil
}

func writeOutput(path string, stdout io.Writer, data []byte) error {
	if path == stdio {
		if _, err := stdout.Write(data); err != nil {
			return errors.NewIO("write", "stdout", err)
		}
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.NewIO("mkdir", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.NewIO("write", path, err)
	}
	return nil
}
