package storage

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"cli-page/internal/page"
)

//go:embed document.schema.json
var documentSchema []byte

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(documentSchema))
})

// Encode serializes doc as the persisted JSON array of rows.
func Encode(doc page.Document) ([]byte, error) {
	if err := page.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return data, nil
}

// Decode parses and validates a persisted document.
func Decode(data []byte) (page.Document, error) {
	schema, err := compiledSchema()
	if err != nil {
		return page.Document{}, fmt.Errorf("compile document schema: %w", err)
	}
	res, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		// not JSON at all
		return page.Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return page.Document{}, fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(msgs, "; "))
	}
	var doc page.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return page.Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if err := page.Validate(doc); err != nil {
		return page.Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return doc, nil
}
