// Package cdm provides the Common Document Model shared by every docbridge format.
//
// A parser turns bytes into a *Document and a generator turns a *Document
// back into bytes, so any two formats compose through this package instead
// of through pairwise converters.
//
// # Core Types
//
//   - Document: ordered body elements, page geometry, page header and footer
//   - Element: closed set of variants (Text, Header, Paragraph, Table, List,
//     Image, Hyperlink)
//   - ListItem, TableHeader, TableRow, TableCell: supporting containers
//
// Element is sealed: only the seven variant types in this package implement
// it. Code that maps elements uses an exhaustive type switch whose default
// branch reports an unknown element.
//
// # Ownership
//
// Elements are plain values. A parent owns its children and nothing refers
// back up the tree, so traversal never needs cycle detection. Clone produces
// a deep copy when a caller needs to mutate a document it did not build.
//
// # Size
//
// Text and Hyperlink carry a relative size where 0 is body text, positive
// values are emphasized and negative values are de-emphasized. Each format
// maps the scale onto its own native representation.
package cdm
