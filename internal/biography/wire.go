package biography

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// The backend exchanges biographies as a recursively nested JSON tree with
// subsections keyed by the child's full title string. Internally the
// document is an arena, so the codec below converts between the two.

//go:embed biography.schema.json
var biographySchemaJSON string

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

type wireSection struct {
	ID          string                  `json:"id"`
	Title       string                  `json:"title"`
	Content     string                  `json:"content"`
	CreatedAt   string                  `json:"created_at"`
	LastEdit    string                  `json:"last_edit"`
	Subsections map[string]*wireSection `json:"subsections"`
}

type wireBiography struct {
	ID          string                  `json:"id"`
	Title       string                  `json:"title"`
	Content     string                  `json:"content"`
	CreatedAt   string                  `json:"created_at"`
	LastEdit    string                  `json:"last_edit"`
	Subsections map[string]*wireSection `json:"subsections"`
}

// DecodeDocument parses and validates a biography wire payload. The JSON is
// checked against the embedded schema before the tree invariants are
// enforced, so a malformed backend response fails loudly instead of
// producing a half-built tree.
func DecodeDocument(data []byte) (*Document, error) {
	if err := validateWithSchema(data); err != nil {
		return nil, fmt.Errorf("biography schema validation failed: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("biography tree invalid: %w", err)
	}
	return &doc, nil
}

// EncodeDocument renders the document back into the nested wire shape,
// validating the tree invariants first.
func EncodeDocument(d *Document) ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("biography tree invalid: %w", err)
	}
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// MarshalJSON emits the nested wire shape with subsections keyed by the
// child's full title.
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireBiography{
		ID:          d.ID,
		Title:       d.Title,
		Content:     d.Content,
		CreatedAt:   d.CreatedAt,
		LastEdit:    d.LastEdit,
		Subsections: d.wireChildren(""),
	})
}

// UnmarshalJSON accepts the nested wire shape. Sibling order is re-derived
// from the dotted numbers, not from map key order.
func (d *Document) UnmarshalJSON(data []byte) error {
	var w wireBiography
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	d.ID = w.ID
	d.Title = w.Title
	d.Content = w.Content
	d.CreatedAt = w.CreatedAt
	d.LastEdit = w.LastEdit
	d.nodes = make(map[string]*Section)
	d.parent = make(map[string]string)
	d.children = make(map[string][]string)
	if err := attachWireSections(d, "", w.Subsections); err != nil {
		return err
	}
	// Insert stamps LastEdit on every attach; restore the wire value.
	d.LastEdit = w.LastEdit
	return nil
}

func (d *Document) wireChildren(parentID string) map[string]*wireSection {
	out := make(map[string]*wireSection)
	for _, id := range d.children[parentID] {
		sec := d.nodes[id]
		key := sec.Title
		if _, taken := out[key]; taken {
			// Same-titled siblings cannot share a map key on the wire;
			// fall back to the id, which the decoder ignores anyway.
			key = sec.ID
		}
		out[key] = &wireSection{
			ID:          sec.ID,
			Title:       sec.Title,
			Content:     sec.Content,
			CreatedAt:   sec.CreatedAt,
			LastEdit:    sec.LastEdit,
			Subsections: d.wireChildren(id),
		}
	}
	return out
}

func attachWireSections(d *Document, parentID string, subs map[string]*wireSection) error {
	for _, w := range subs {
		if w == nil {
			continue
		}
		if strings.TrimSpace(w.ID) == "" {
			return fmt.Errorf("section %q: id is required", w.Title)
		}
		sec := &Section{
			ID:        w.ID,
			Title:     w.Title,
			Content:   w.Content,
			CreatedAt: w.CreatedAt,
			LastEdit:  w.LastEdit,
		}
		if err := d.Insert(parentID, sec); err != nil {
			return err
		}
		if err := attachWireSections(d, sec.ID, w.Subsections); err != nil {
			return err
		}
	}
	return nil
}

func validateWithSchema(data []byte) error {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("biography.schema.json", strings.NewReader(biographySchemaJSON)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile("biography.schema.json")
	})
	if schemaErr != nil {
		return fmt.Errorf("failed to compile biography schema: %w", schemaErr)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	return compiledSchema.Validate(v)
}
