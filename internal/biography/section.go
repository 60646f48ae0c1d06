package biography

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Section is one node of the biography tree. The title carries the dotted
// section number followed by the human label ("1.2 Education"); the number
// is display data and never used as a storage key.
type Section struct {
	ID        string
	Title     string
	Content   string
	CreatedAt string
	LastEdit  string

	// IsNew marks a section added during the current edit session and not
	// yet confirmed by the backend. It is advisory and never persisted.
	IsNew bool
}

// Document is the root biography container. Sections live in a flat
// id-indexed arena with explicit parent links; sibling order is kept as
// sorted id slices, so a rename never invalidates a lookup key.
type Document struct {
	ID        string
	Title     string
	Content   string
	CreatedAt string
	LastEdit  string

	nodes    map[string]*Section
	parent   map[string]string   // section id -> parent section id, "" for root
	children map[string][]string // parent id ("" for root) -> ordered child ids
}

// NewDocument creates an empty biography document.
func NewDocument(id, title string) *Document {
	now := nowRFC3339()
	return &Document{
		ID:        id,
		Title:     title,
		CreatedAt: now,
		LastEdit:  now,
		nodes:     make(map[string]*Section),
		parent:    make(map[string]string),
		children:  make(map[string][]string),
	}
}

// NewSection creates a section with a fresh stable id and creation timestamps.
func NewSection(title, content string) *Section {
	now := nowRFC3339()
	return &Section{
		ID:        "section-" + uuid.New().String(),
		Title:     title,
		Content:   content,
		CreatedAt: now,
		LastEdit:  now,
	}
}

// SectionByID returns the section with the given id, or nil. Lookup is by
// stable id, so it survives renames that change the section number.
func (d *Document) SectionByID(id string) *Section {
	return d.nodes[id]
}

// ParentID returns the id of a section's parent ("" for top-level) and
// whether the section exists at all.
func (d *Document) ParentID(id string) (string, bool) {
	p, ok := d.parent[id]
	return p, ok
}

// Children returns a section's direct children in sibling order. Pass ""
// for the top-level sections.
func (d *Document) Children(parentID string) []*Section {
	ids := d.children[parentID]
	out := make([]*Section, 0, len(ids))
	for _, id := range ids {
		out = append(out, d.nodes[id])
	}
	return out
}

// Len returns the number of sections in the tree.
func (d *Document) Len() int {
	return len(d.nodes)
}

// Insert attaches a section under the given parent ("" for root) and
// re-sorts the sibling order.
func (d *Document) Insert(parentID string, sec *Section) error {
	if sec == nil || sec.ID == "" {
		return fmt.Errorf("section id is required")
	}
	if _, exists := d.nodes[sec.ID]; exists {
		return fmt.Errorf("duplicate section id: %s", sec.ID)
	}
	if parentID != "" {
		if _, ok := d.nodes[parentID]; !ok {
			return fmt.Errorf("parent section %s not in tree", parentID)
		}
	}
	d.nodes[sec.ID] = sec
	d.parent[sec.ID] = parentID
	d.children[parentID] = append(d.children[parentID], sec.ID)
	d.sortSiblings(parentID)
	d.LastEdit = nowRFC3339()
	return nil
}

// Rename changes a section's title and re-sorts its siblings, since the
// embedded number is the sibling sort key. The section keeps its id and
// its parent.
func (d *Document) Rename(id, newTitle string) error {
	sec, ok := d.nodes[id]
	if !ok {
		return fmt.Errorf("section %s not in tree", id)
	}
	sec.Title = newTitle
	sec.LastEdit = nowRFC3339()
	d.sortSiblings(d.parent[id])
	d.LastEdit = sec.LastEdit
	return nil
}

// SetContent replaces a section's content body. The content is opaque to
// the tree; reference markers inside it are preserved verbatim.
func (d *Document) SetContent(id, content string) error {
	sec, ok := d.nodes[id]
	if !ok {
		return fmt.Errorf("section %s not in tree", id)
	}
	sec.Content = content
	sec.LastEdit = nowRFC3339()
	d.LastEdit = sec.LastEdit
	return nil
}

// Delete removes a section and its entire subtree from the arena. The ids
// are never reused.
func (d *Document) Delete(id string) error {
	if _, ok := d.nodes[id]; !ok {
		return fmt.Errorf("section %s not in tree", id)
	}
	var drop func(string)
	drop = func(target string) {
		// Copy first: dropping a child compacts the slice being ranged.
		kids := append([]string(nil), d.children[target]...)
		for _, child := range kids {
			drop(child)
		}
		delete(d.children, target)
		parentID := d.parent[target]
		d.children[parentID] = removeID(d.children[parentID], target)
		delete(d.parent, target)
		delete(d.nodes, target)
	}
	drop(id)
	d.LastEdit = nowRFC3339()
	return nil
}

// FindParentByNumber resolves the section that should own a child with the
// given dotted number. It returns nil for single-segment numbers (root
// level) and for numbers whose parent prefix matches no section.
func (d *Document) FindParentByNumber(number string) *Section {
	parts := strings.Split(number, ".")
	if len(parts) < 2 {
		return nil
	}
	parentNumber := strings.Join(parts[:len(parts)-1], ".")
	return d.findByNumber("", parentNumber)
}

func (d *Document) findByNumber(parentID, number string) *Section {
	for _, id := range d.children[parentID] {
		sec := d.nodes[id]
		current := Number(sec.Title)
		if current == number {
			return sec
		}
		// Descend only where the wanted number extends this branch.
		if strings.HasPrefix(number, current+".") {
			if found := d.findByNumber(id, number); found != nil {
				return found
			}
		}
	}
	return nil
}

// Walk visits every section depth-first in sibling order. Depth starts at
// 1 for top-level sections.
func (d *Document) Walk(fn func(sec *Section, depth int)) {
	var visit func(parentID string, depth int)
	visit = func(parentID string, depth int) {
		for _, id := range d.children[parentID] {
			fn(d.nodes[id], depth)
			visit(id, depth+1)
		}
	}
	visit("", 1)
}

// Clone deep-copies the document so an edit session can mutate its own
// tree without touching the original.
func (d *Document) Clone() *Document {
	out := &Document{
		ID:        d.ID,
		Title:     d.Title,
		Content:   d.Content,
		CreatedAt: d.CreatedAt,
		LastEdit:  d.LastEdit,
		nodes:     make(map[string]*Section, len(d.nodes)),
		parent:    make(map[string]string, len(d.parent)),
		children:  make(map[string][]string, len(d.children)),
	}
	for id, sec := range d.nodes {
		copied := *sec
		out.nodes[id] = &copied
	}
	for id, p := range d.parent {
		out.parent[id] = p
	}
	for id, kids := range d.children {
		out.children[id] = append([]string(nil), kids...)
	}
	return out
}

// SortSections returns a new slice of the given sections ordered by their
// dotted numbers. The input is not mutated.
func SortSections(secs []*Section) []*Section {
	out := append([]*Section(nil), secs...)
	sort.SliceStable(out, func(i, j int) bool {
		return CompareNumbers(Number(out[i].Title), Number(out[j].Title)) < 0
	})
	return out
}

// Validate checks the numbering invariants: every number well formed,
// depth at most MaxDepth, unique among siblings, and each child number a
// one-segment extension of its parent's number.
func (d *Document) Validate() error {
	var check func(parentID, parentNumber string, depth int) error
	check = func(parentID, parentNumber string, depth int) error {
		seen := make(map[string]bool)
		for _, id := range d.children[parentID] {
			sec := d.nodes[id]
			number := Number(sec.Title)
			if !IsValidPathFormat(number) {
				return fmt.Errorf("section %q: invalid number %q", sec.Title, number)
			}
			if depth > MaxDepth {
				return fmt.Errorf("section %q: nesting deeper than %d levels", sec.Title, MaxDepth)
			}
			if seen[number] {
				return fmt.Errorf("section %q: duplicate number %q among siblings", sec.Title, number)
			}
			seen[number] = true
			if parentNumber != "" && !IsValidSubsectionNumber(parentNumber, number) {
				return fmt.Errorf("section %q: number %q does not extend parent %q", sec.Title, number, parentNumber)
			}
			if parentNumber == "" && strings.Contains(number, ".") {
				return fmt.Errorf("section %q: top-level number %q must have a single segment", sec.Title, number)
			}
			if err := check(id, number, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return check("", "", 1)
}

func (d *Document) sortSiblings(parentID string) {
	ids := d.children[parentID]
	sort.SliceStable(ids, func(i, j int) bool {
		a := Number(d.nodes[ids[i]].Title)
		b := Number(d.nodes[ids[j]].Title)
		return CompareNumbers(a, b) < 0
	})
}

func removeID(ids []string, target string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
