package reconcile

import "github.com/FocuswithJustin/docbridge/core/cdm"

// ListEntry is one list item of a format that stores lists as a flat run of
// indented paragraphs.
type ListEntry struct {
	Depth    int
	Numbered bool
	// Key identifies the list the entry belongs to. A change of key at the
	// same depth starts a sibling list.
	Key     string
	Element cdm.Element
}

// KindKey keys entries by bullet or numbered kind, for formats without
// list identities.
func KindKey(numbered bool) string {
	if numbered {
		return "numbered"
	}
	return "bullet"
}

// StartsList reports whether e begins a new top-level list after pending.
func StartsList(pending []ListEntry, e ListEntry) bool {
	return len(pending) > 0 && e.Depth <= pending[0].Depth && e.Key != pending[0].Key
}

// NestList rebuilds the list tree. Entries deeper than the first become a
// nested List item after the preceding entry.
func NestList(entries []ListEntry) cdm.List {
	root := entries[0]
	l := cdm.List{Numbered: root.Numbered}
	for i := 0; i < len(entries); {
		e := entries[i]
		if e.Depth <= root.Depth {
			l.Items = append(l.Items, cdm.ListItem{Element: e.Element})
			i++
			continue
		}
		j := i + 1
		for j < len(entries) && entries[j].Depth > root.Depth &&
			!(entries[j].Depth <= e.Depth && entries[j].Key != e.Key) {
			j++
		}
		l.Items = append(l.Items, cdm.ListItem{Element: NestList(entries[i:j])})
		i = j
	}
	return l
}
