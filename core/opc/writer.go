package opc

import (
	"archive/zip"
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"time"

	corexml "github.com/FocuswithJustin/docbridge/core/xml"
)

// epoch is the modification time stamped on every entry so that equal
// input yields equal bytes.
var epoch = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// Writer assembles a package.
type Writer struct {
	buf   bytes.Buffer
	zw    *zip.Writer
	names map[string]bool
}

// NewWriter returns an empty package writer.
func NewWriter() *Writer {
	w := &Writer{names: make(map[string]bool)}
	w.zw = zip.NewWriter(&w.buf)
	return w
}

// Store adds an uncompressed part. OpenDocument requires this for its
// leading mimetype entry.
func (w *Writer) Store(name string, data []byte) error {
	return w.add(name, data, zip.Store)
}

// Add adds a deflated part.
func (w *Writer) Add(name string, data []byte) error {
	return w.add(name, data, zip.Deflate)
}

func (w *Writer) add(name string, data []byte, method uint16) error {
	if w.names[name] {
		return fmt.Errorf("duplicate part %s", name)
	}
	w.names[name] = true
	fw, err := w.zw.CreateHeader(&zip.FileHeader{Name: name, Method: method, Modified: epoch})
	if err != nil {
		return fmt.Errorf("creating part %s: %w", name, err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("writing part %s: %w", name, err)
	}
	return nil
}

// Bytes closes the archive and returns it.
func (w *Writer) Bytes() ([]byte, error) {
	if err := w.zw.Close(); err != nil {
		return nil, fmt.Errorf("closing package: %w", err)
	}
	return w.buf.Bytes(), nil
}

// ContentTypes builds the [Content_Types].xml part.
type ContentTypes struct {
	defaults  map[string]string
	overrides map[string]string
}

// NewContentTypes returns content types with the rels and xml defaults.
func NewContentTypes() *ContentTypes {
	c := &ContentTypes{defaults: make(map[string]string), overrides: make(map[string]string)}
	c.Default("rels", "application/vnd.openxmlformats-package.relationships+xml")
	c.Default("xml", "application/xml")
	return c
}

// Default maps a file extension to a content type.
func (c *ContentTypes) Default(ext, contentType string) {
	c.defaults[ext] = contentType
}

// Override sets the content type of one part.
func (c *ContentTypes) Override(part, contentType string) {
	c.overrides["/"+part] = contentType
}

// Bytes renders the part with entries sorted by key.
func (c *ContentTypes) Bytes() ([]byte, error) {
	w := corexml.NewWriter("")
	w.Start("Types", "xmlns", ContentTypesNS)
	for _, ext := range sortedKeys(c.defaults) {
		w.Empty("Default", "Extension", ext, "ContentType", c.defaults[ext])
	}
	for _, part := range sortedKeys(c.overrides) {
		w.Empty("Override", "PartName", part, "ContentType", c.overrides[part])
	}
	w.End("Types")
	return w.Bytes()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RelationshipSet builds the relationships part of one source part.
type RelationshipSet struct {
	rels []Relationship
}

// Add appends a relationship and returns its ID, rId1 upwards.
func (s *RelationshipSet) Add(typ, target string, external bool) string {
	id := "rId" + strconv.Itoa(len(s.rels)+1)
	s.rels = append(s.rels, Relationship{ID: id, Type: typ, Target: target, External: external})
	return id
}

// Len returns the number of relationships.
func (s *RelationshipSet) Len() int {
	return len(s.rels)
}

// Bytes renders the relationships part.
func (s *RelationshipSet) Bytes() ([]byte, error) {
	w := corexml.NewWriter("")
	w.Start("Relationships", "xmlns", RelationshipsNS)
	for _, r := range s.rels {
		attrs := []string{"Id", r.ID, "Type", r.Type, "Target", r.Target}
		if r.External {
			attrs = append(attrs, "TargetMode", "External")
		}
		w.Empty("Relationship", attrs...)
	}
	w.End("Relationships")
	return w.Bytes()
}
