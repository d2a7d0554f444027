// Package extract maps an object's attribute list onto a ledger record.
package extract

import (
	"strings"

	"museumscraper/pkg/models"
)

// Attribute tags understood by Extract
const (
	TagAuthor            = "author"
	TagObjectTitle       = "object_title"
	TagMaterialTechnique = "material_techniq"
	TagDimensions        = "dimensions"
	TagType              = "typeiss"
)

// FieldDelimiter separates material from technique in a material_techniq value
const FieldDelimiter = ";"

// Extract copies the known attributes into a record. Unknown tags and tags
// with an empty value or data list are skipped; Folder and Image are left for
// the caller. When a tag repeats, the last non-empty entry wins.
func Extract(attributes []models.AttributeEntry) models.Record {
	var r models.Record

	for _, entry := range attributes {
		switch entry.Attribute {
		case TagAuthor:
			if len(entry.Data) > 0 {
				r.Author = entry.Data[0].Title
			}
		case TagObjectTitle:
			if len(entry.Value) > 0 {
				r.Title = entry.Value[0]
			}
		case TagMaterialTechnique:
			if len(entry.Value) > 0 {
				r.Material, r.Technique = SplitMaterialTechnique(entry.Value[0])
			}
		case TagDimensions:
			if len(entry.Value) > 0 {
				r.Dimensions = entry.Value[0]
			}
		case TagType:
			if len(entry.Data) > 0 {
				r.Type = entry.Data[0].Title
			}
		}
	}

	return r
}

// SplitMaterialTechnique splits on the first delimiter. Without a delimiter
// the whole value is the material and technique is empty.
func SplitMaterialTechnique(value string) (material, technique string) {
	parts := strings.SplitN(value, FieldDelimiter, 2)
	material = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		technique = strings.TrimSpace(parts[1])
	}
	return material, technique
}
