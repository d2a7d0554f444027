package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ObjectID identifies one object in the collection. The API sends it as a
// number in search results and as a string elsewhere, so both decode.
type ObjectID string

func (id ObjectID) String() string {
	return string(id)
}

// UnmarshalJSON accepts a JSON number or a JSON string
func (id *ObjectID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ObjectID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("object id must be a string or a number, got %s", raw)
	}
	if i, err := n.Int64(); err == nil {
		*id = ObjectID(strconv.FormatInt(i, 10))
		return nil
	}
	*id = ObjectID(n.String())
	return nil
}

// Record is one ledger row. Empty strings mean the source had no value.
type Record struct {
	Author     string `json:"author,omitempty" parquet:"author"`
	Title      string `json:"title,omitempty" parquet:"title"`
	Material   string `json:"material,omitempty" parquet:"material"`
	Technique  string `json:"technique,omitempty" parquet:"technique"`
	Dimensions string `json:"dimensions,omitempty" parquet:"dimensions"`
	Type       string `json:"type,omitempty" parquet:"type"`
	Folder     string `json:"folder" parquet:"folder"`
	Image      string `json:"image" parquet:"image"`
}

// Columns is the fixed ledger header, in column order
var Columns = []string{"Author", "Title", "Material", "Technique", "Dimensions", "Type", "Folder", "Image"}

// Row returns the record's values in Columns order
func (r Record) Row() []string {
	return []string{r.Author, r.Title, r.Material, r.Technique, r.Dimensions, r.Type, r.Folder, r.Image}
}

// RecordFromRow builds a record from values in Columns order.
// Missing trailing cells are left empty.
func RecordFromRow(row []string) Record {
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return Record{
		Author:     cell(0),
		Title:      cell(1),
		Material:   cell(2),
		Technique:  cell(3),
		Dimensions: cell(4),
		Type:       cell(5),
		Folder:     cell(6),
		Image:      cell(7),
	}
}

// DataRef is a linked entity inside an attribute, e.g. an author or a type
type DataRef struct {
	Title string `json:"title"`
}

// AttributeEntry is one item of an object's attribute list. Which of Value
// and Data is populated depends on Attribute. Entries of other tags may use
// any shape; whatever is not a list of strings or of titled entities
// decodes as empty instead of failing the payload.
type AttributeEntry struct {
	Attribute string    `json:"attribute"`
	Value     []string  `json:"value"`
	Data      []DataRef `json:"data"`
}

// UnmarshalJSON decodes an attribute entry without rejecting unexpected shapes.
// Non-string list items keep their position as empty strings.
func (e *AttributeEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Attribute json.RawMessage `json:"attribute"`
		Value     json.RawMessage `json:"value"`
		Data      json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		// not an object at all; keep it as an entry nobody matches
		*e = AttributeEntry{}
		return nil
	}

	*e = AttributeEntry{
		Attribute: looseString(raw.Attribute),
		Value:     looseStrings(raw.Value),
	}
	for _, item := range looseList(raw.Data) {
		var ref struct {
			Title json.RawMessage `json:"title"`
		}
		if err := json.Unmarshal(item, &ref); err != nil {
			e.Data = append(e.Data, DataRef{})
			continue
		}
		e.Data = append(e.Data, DataRef{Title: looseString(ref.Title)})
	}
	return nil
}

// looseString returns a JSON string's value, or "" for any other JSON value
func looseString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// looseList splits a JSON array into its items. A bare non-null value is
// treated as a one-item list.
func looseList(raw json.RawMessage) []json.RawMessage {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	var items []json.RawMessage
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil
		}
		return items
	}
	return []json.RawMessage{raw}
}

func looseStrings(raw json.RawMessage) []string {
	items := looseList(raw)
	if items == nil {
		return nil
	}
	values := make([]string, 0, len(items))
	for _, item := range items {
		values = append(values, looseString(item))
	}
	return values
}
