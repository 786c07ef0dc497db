package opds2

import (
	"github.com/google/jsonschema-go/jsonschema"
)

// A relaxed subset of https://drafts.opds.io/schema/feed.schema.json: enough to tell an OPDS 2 catalog from an
// arbitrary JSON document.
//
// Subschemas must form a tree, so every constructor returns a fresh instance.
func feedSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:     "object",
		Required: []string{"metadata", "links"},
		Properties: map[string]*jsonschema.Schema{
			"metadata":     collectionMetadataSchema(),
			"links":        linksSchema(),
			"navigation":   linksSchema(),
			"publications": publicationsSchema(),
			"facets": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type:     "object",
					Required: []string{"metadata", "links"},
					Properties: map[string]*jsonschema.Schema{
						"metadata": collectionMetadataSchema(),
						"links":    linksSchema(),
					},
				},
			},
			"groups": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type:     "object",
					Required: []string{"metadata"},
					Properties: map[string]*jsonschema.Schema{
						"metadata":     collectionMetadataSchema(),
						"links":        linksSchema(),
						"navigation":   linksSchema(),
						"publications": publicationsSchema(),
					},
				},
			},
		},
	}
}

func collectionMetadataSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:     "object",
		Required: []string{"title"},
		Properties: map[string]*jsonschema.Schema{
			"title":         localizedStringSchema(),
			"numberOfItems": {Type: "integer", Minimum: ptr(0.0)},
			"itemsPerPage":  {Type: "integer", Minimum: ptr(1.0)},
			"currentPage":   {Type: "integer", Minimum: ptr(1.0)},
		},
	}
}

func publicationsSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "array",
		Items: &jsonschema.Schema{
			Type:     "object",
			Required: []string{"metadata", "links"},
			Properties: map[string]*jsonschema.Schema{
				"metadata": {
					Type:     "object",
					Required: []string{"title"},
					Properties: map[string]*jsonschema.Schema{
						"title": localizedStringSchema(),
					},
				},
				"links":  linksSchema(),
				"images": linksSchema(),
			},
		},
	}
}

func linksSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "array",
		Items: &jsonschema.Schema{
			Type:     "object",
			Required: []string{"href"},
			Properties: map[string]*jsonschema.Schema{
				"href":      {Type: "string"},
				"type":      {Type: "string"},
				"title":     {Type: "string"},
				"rel":       {Types: []string{"string", "array"}},
				"templated": {Type: "boolean"},
			},
		},
	}
}

func localizedStringSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Types: []string{"string", "object"}}
}

func ptr[T any](value T) *T {
	return &value
}
