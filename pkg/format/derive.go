package format

import (
	"fmt"
	"strings"

	"github.com/quartzerp/globalsearch/pkg/registry"
)

// Record is one raw source row, keyed by column name.
type Record map[string]interface{}

// ID returns the record's identifier column as a string.
func (r Record) ID(d *registry.EntityDescriptor) string {
	return stringValue(r[d.IDColumn])
}

// DeriveTitle builds the display title for a record: the first non-empty
// primary field. The indexing pipeline uses the same derivation when building
// index documents, so both backends present an entity identically.
func DeriveTitle(d *registry.EntityDescriptor, rec Record) string {
	for _, f := range d.Fields.Primary {
		if v := stringValue(rec[f.Name]); v != "" {
			return v
		}
	}
	return ""
}

// DeriveDescription builds the description: the first non-empty secondary
// text field.
func DeriveDescription(d *registry.EntityDescriptor, rec Record) string {
	for _, f := range d.Fields.Secondary {
		if f.Kind != registry.KindText {
			continue
		}
		if v := stringValue(rec[f.Name]); v != "" {
			return v
		}
	}
	return ""
}

// DeriveMetadata collects the metadata-group fields that are present.
func DeriveMetadata(d *registry.EntityDescriptor, rec Record) map[string]interface{} {
	meta := make(map[string]interface{}, len(d.Fields.Metadata))
	for _, f := range d.Fields.Metadata {
		if v, ok := rec[f.Name]; ok && v != nil {
			meta[f.Name] = v
		}
	}
	return meta
}

// DeriveTags collects secondary keyword values; they become the tags field of
// an index document.
func DeriveTags(d *registry.EntityDescriptor, rec Record) []string {
	var tags []string
	for _, f := range d.Fields.Secondary {
		if f.Kind != registry.KindKeyword {
			continue
		}
		if v := stringValue(rec[f.Name]); v != "" {
			tags = append(tags, v)
		}
	}
	return tags
}

// ExpandURL fills an entity's URL template with record values: every {column}
// placeholder is replaced by the record's value for that column.
func ExpandURL(d *registry.EntityDescriptor, rec Record) string {
	url := d.URLTemplate
	if url == "" {
		return ""
	}
	url = strings.ReplaceAll(url, "{id}", rec.ID(d))
	for _, f := range d.AllFields() {
		placeholder := "{" + f.Name + "}"
		if strings.Contains(url, placeholder) {
			url = strings.ReplaceAll(url, placeholder, stringValue(rec[f.Name]))
		}
	}
	return url
}

// StringValue coerces a raw column value to its display string. Drivers hand
// back []byte for text columns and int64 for numerics; both read naturally.
func StringValue(v interface{}) string {
	return stringValue(v)
}

func stringValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}
