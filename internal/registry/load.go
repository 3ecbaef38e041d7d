package registry

import (
	"bytes"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hlop3z/alabq/internal/alerr"
	"github.com/hlop3z/alabq/internal/ast"
)

// Document is the on-disk schema format:
//
//	tables:
//	  - name: users
//	    columns:
//	      - {name: id, kind: integer, primary_key: true}
//	      - {name: name, kind: text}
//	    relations:
//	      - {name: posts, type: many, target: posts, source_columns: [id], target_columns: [author_id]}
type Document struct {
	Tables []*ast.TableDef `yaml:"tables"`
}

// Parse decodes a schema document and builds a validated Registry from it.
// Unknown keys are rejected so that typos surface at load time.
func Parse(data []byte) (*Registry, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, alerr.Wrap(alerr.ErrSchemaInvalid, err, "failed to parse schema document")
	}
	if len(doc.Tables) == 0 {
		return nil, alerr.New(alerr.ErrSchemaInvalid, "schema document declares no tables")
	}
	return FromTables(doc.Tables...)
}

// LoadFile reads and parses the schema document at path.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, alerr.Wrap(alerr.ErrSchemaNotFound, err, "failed to read schema document").
			With("file", path)
	}
	r, err := Parse(data)
	if err != nil {
		if e, ok := err.(*alerr.Error); ok {
			e.With("file", path)
		}
		return nil, err
	}
	return r, nil
}
