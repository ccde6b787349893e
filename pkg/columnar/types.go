package columnar

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"
)

// TypeID identifies the logical type of a column.
type TypeID int

const (
	Real TypeID = iota
	Integer
	DateTime
	Time
	Nominal
	Text
	TextSetID
	TextListID
	Custom
)

func (id TypeID) String() string {
	switch id {
	case Real:
		return "real"
	case Integer:
		return "integer"
	case DateTime:
		return "date-time"
	case Time:
		return "time"
	case Nominal:
		return "nominal"
	case Text:
		return "text"
	case TextSetID:
		return "text-set"
	case TextListID:
		return "text-list"
	case Custom:
		return "custom"
	default:
		return fmt.Sprintf("TypeID(%d)", int(id))
	}
}

// Category determines which readable capabilities a column has.
type Category int

const (
	Numeric Category = iota
	Categorical
	Object
)

func (c Category) String() string {
	switch c {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	case Object:
		return "object"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Capability is an operation a column may support.
type Capability int

const (
	NumericReadable Capability = iota
	ObjectReadable
	Sortable
)

func (c Capability) String() string {
	switch c {
	case NumericReadable:
		return "numeric-readable"
	case ObjectReadable:
		return "object-readable"
	case Sortable:
		return "sortable"
	default:
		return fmt.Sprintf("Capability(%d)", int(c))
	}
}

// Capabilities lists every capability.
var Capabilities = []Capability{NumericReadable, ObjectReadable, Sortable}

// Comparator orders two non-nil element values.
type Comparator func(a, b any) int

// ColumnType describes the element type of a column. Instances are immutable and
// compared by pointer.
type ColumnType struct {
	id          TypeID
	category    Category
	elementName string
	compare     Comparator
}

// ID returns the type identifier.
func (t *ColumnType) ID() TypeID { return t.id }

// Category returns the column category.
func (t *ColumnType) Category() Category { return t.category }

// ElementName names the Go type of object values.
func (t *ColumnType) ElementName() string { return t.elementName }

// Comparator returns the element comparator, or nil when elements are unordered.
func (t *ColumnType) Comparator() Comparator { return t.compare }

func (t *ColumnType) String() string {
	if t.id == Custom {
		return fmt.Sprintf("custom(%s)", t.elementName)
	}
	return t.id.String()
}

// NewCategoricalType creates a custom dictionary-encoded type. compare may be
// nil, in which case the column sorts by dictionary index.
func NewCategoricalType(elementName string, compare Comparator) *ColumnType {
	return &ColumnType{id: Custom, category: Categorical, elementName: elementName, compare: compare}
}

// NewObjectType creates a custom object type. Without a comparator columns of
// this type are not sortable.
func NewObjectType(elementName string, compare Comparator) *ColumnType {
	return &ColumnType{id: Custom, category: Object, elementName: elementName, compare: compare}
}

// TextSet is a sorted set of strings.
type TextSet []string

// NewTextSet returns the sorted, deduplicated set of values.
func NewTextSet(values ...string) TextSet {
	set := slices.Clone(values)
	slices.Sort(set)
	return slices.Compact(set)
}

// Contains reports whether v is a member of the set.
func (s TextSet) Contains(v string) bool {
	_, found := slices.BinarySearch(s, v)
	return found
}

// TextList is an ordered list of strings.
type TextList []string

var (
	TypeReal = &ColumnType{id: Real, category: Numeric, elementName: "float64"}

	TypeInteger = &ColumnType{id: Integer, category: Numeric, elementName: "float64"}

	TypeDateTime = &ColumnType{id: DateTime, category: Object, elementName: "time.Time",
		compare: func(a, b any) int { return a.(time.Time).Compare(b.(time.Time)) }}

	TypeTime = &ColumnType{id: Time, category: Object, elementName: "time.Duration",
		compare: func(a, b any) int { return cmp.Compare(a.(time.Duration), b.(time.Duration)) }}

	TypeNominal = &ColumnType{id: Nominal, category: Categorical, elementName: "string",
		compare: func(a, b any) int { return strings.Compare(a.(string), b.(string)) }}

	TypeText = &ColumnType{id: Text, category: Object, elementName: "string",
		compare: func(a, b any) int { return strings.Compare(a.(string), b.(string)) }}

	// TypeTextSet orders sets lexicographically by their sorted members.
	TypeTextSet = &ColumnType{id: TextSetID, category: Object, elementName: "columnar.TextSet",
		compare: func(a, b any) int { return slices.Compare(a.(TextSet), b.(TextSet)) }}

	TypeTextList = &ColumnType{id: TextListID, category: Object, elementName: "columnar.TextList",
		compare: func(a, b any) int { return slices.Compare(a.(TextList), b.(TextList)) }}
)
