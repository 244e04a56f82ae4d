// Package opc provides pure Go reading and writing of ZIP packages of named
// parts, the container used by OOXML documents (Open Packaging Conventions)
// and by OpenDocument files.
package opc

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	corexml "github.com/FocuswithJustin/docbridge/core/xml"
)

// maxPartSize bounds the decompressed size of a single part.
const maxPartSize = 64 << 20

// Namespaces of the package-level parts.
const (
	RelationshipsNS = "http://schemas.openxmlformats.org/package/2006/relationships"
	ContentTypesNS  = "http://schemas.openxmlformats.org/package/2006/content-types"
)

// TypeOfficeDocument is the relationship type of the main document part.
const TypeOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"

// ErrMissingPart is returned when a required part is absent.
var ErrMissingPart = errors.New("missing part")

// Package is an opened package held in memory.
type Package struct {
	parts map[string][]byte
	names []string
}

// Open reads every part of a ZIP package.
func Open(data []byte) (*Package, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("invalid package archive: %w", err)
	}

	p := &Package{parts: make(map[string][]byte, len(r.File))}
	for _, f := range r.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		if f.UncompressedSize64 > maxPartSize {
			return nil, fmt.Errorf("part %s exceeds %d bytes", f.Name, maxPartSize)
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening part %s: %w", f.Name, err)
		}
		content, err := io.ReadAll(io.LimitReader(rc, maxPartSize+1))
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("reading part %s: %w", f.Name, err)
		}
		if len(content) > maxPartSize {
			return nil, fmt.Errorf("part %s exceeds %d bytes", f.Name, maxPartSize)
		}
		name := strings.TrimPrefix(f.Name, "/")
		if _, dup := p.parts[name]; !dup {
			p.names = append(p.names, name)
		}
		p.parts[name] = content
	}
	return p, nil
}

// Names returns the part names in archive order.
func (p *Package) Names() []string {
	return append([]string(nil), p.names...)
}

// Part returns the content of a part. A leading slash is ignored.
func (p *Package) Part(name string) ([]byte, bool) {
	data, ok := p.parts[strings.TrimPrefix(name, "/")]
	return data, ok
}

// XML parses a part with the strict XML reader.
func (p *Package) XML(name string) (*corexml.Document, error) {
	data, ok := p.Part(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingPart, name)
	}
	doc, err := corexml.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("part %s: %w", name, err)
	}
	return doc, nil
}

// Relationship is one entry of a relationships part.
type Relationship struct {
	ID       string
	Type     string
	Target   string
	External bool
}

// RelsPath returns the name of the relationships part for source. The empty
// source names the package itself.
func RelsPath(source string) string {
	if source == "" {
		return "_rels/.rels"
	}
	dir, file := path.Split(source)
	return dir + "_rels/" + file + ".rels"
}

// ResolveTarget returns the part name a relative target of source refers to.
func ResolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return path.Clean(target[1:])
	}
	return path.Join(path.Dir(source), target)
}

// Relationships reads the relationships of source keyed by ID. A missing
// relationships part yields an empty map.
func (p *Package) Relationships(source string) (map[string]Relationship, error) {
	rels := make(map[string]Relationship)
	name := RelsPath(source)
	if _, ok := p.Part(name); !ok {
		return rels, nil
	}
	doc, err := p.XML(name)
	if err != nil {
		return nil, err
	}
	root := doc.Root()
	if !root.IsNS(RelationshipsNS, "Relationships") {
		return nil, fmt.Errorf("part %s: root is not Relationships", name)
	}
	for _, n := range root.ChildrenNS(RelationshipsNS, "Relationship") {
		r := Relationship{
			ID:       n.AttrValueNS("", "Id"),
			Type:     n.AttrValueNS("", "Type"),
			Target:   n.AttrValueNS("", "Target"),
			External: n.AttrValueNS("", "TargetMode") == "External",
		}
		if r.ID != "" {
			rels[r.ID] = r
		}
	}
	return rels, nil
}

// MainPart returns the target of the package's officeDocument relationship,
// or fallback when the package declares none.
func (p *Package) MainPart(fallback string) (string, error) {
	rels, err := p.Relationships("")
	if err != nil {
		return "", err
	}
	for _, r := range rels {
		if r.Type == TypeOfficeDocument && !r.External {
			return ResolveTarget("", r.Target), nil
		}
	}
	return fallback, nil
}
