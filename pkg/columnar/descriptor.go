package columnar

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Descriptor summarises a column for reports and the command line.
type Descriptor struct {
	Type         string   `json:"type"`
	Category     string   `json:"category"`
	Variant      string   `json:"variant"`
	Size         int      `json:"size"`
	Capabilities []string `json:"capabilities"`
	Dictionary   []any    `json:"dictionary,omitempty"`
	NonDefaults  *int     `json:"non_defaults,omitempty"`
	MemoryBytes  int64    `json:"memory_bytes"`
}

// Describe builds the descriptor of col.
func Describe(col Column) Descriptor {
	d := Descriptor{
		Type:        col.Type().String(),
		Category:    col.Category().String(),
		Variant:     strings.TrimPrefix(fmt.Sprintf("%T", col), "*columnar."),
		Size:        col.Size(),
		MemoryBytes: col.MemoryUsage(),
	}
	for _, c := range Capabilities {
		if col.Has(c) {
			d.Capabilities = append(d.Capabilities, c.String())
		}
	}
	if dict, err := col.Dictionary(); err == nil {
		d.Dictionary = dict.Values()
	}
	if sparse, ok := col.(interface{ NonDefaults() int }); ok {
		n := sparse.NonDefaults()
		d.NonDefaults = &n
	}
	return d
}

// MarshalIndent renders the descriptor as indented JSON.
func (d Descriptor) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}
