package schema

import (
	_ "embed"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/datalit/lang/types"
)

// Example is a schema document declaring a small set of sample types.
//
//go:embed example.yaml
var Example []byte

// Export returns the document that declares every user type in reg.
func Export(reg *types.Registry) *Document {
	doc := &Document{
		Enums:   make(map[string]yaml.MapSlice),
		Structs: make(map[string]Record),
		Classes: make(map[string]Record),
	}

	for _, name := range reg.Names() {
		t, _ := reg.Lookup(name)

		switch t := t.(type) {
		case *types.Enum:
			var items yaml.MapSlice
			for _, v := range reg.EnumValues(t.Table) {
				items = append(items, yaml.MapItem{Key: v.Name, Value: v.Value})
			}

			doc.Enums[name] = items

		case *types.Struct:
			doc.Structs[name] = exportRecord(t)

		case *types.Class:
			doc.Classes[name] = exportRecord(t)
		}
	}

	return doc
}

func exportRecord(rec types.Record) Record {
	var r Record

	if p := rec.Parent(); p != nil {
		r.Parent = p.String()
	}

	for _, f := range rec.Fields() {
		r.Fields = append(r.Fields, Field{Name: f.Name, Type: f.Type.String()})
	}

	return r
}

// Marshal encodes doc as YAML.
func (doc *Document) Marshal() ([]byte, error) {
	return yaml.Marshal(doc)
}
