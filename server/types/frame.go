package types

// Field names a frame column and carries the storage-native type tag of the
// system the frame was read from.
type Field struct {
	Name string
	Type string
}

// Frame is a whole table materialized in memory. Cells hold normalized values
// (see NormalizeValue) so frames read from different systems compare directly.
type Frame struct {
	Fields []Field
	Rows   [][]any
}

// NumRows returns the number of rows
func (f *Frame) NumRows() int {
	return len(f.Rows)
}

// Names returns the field names in order
func (f *Frame) Names() []string {
	names := make([]string, len(f.Fields))
	for i, field := range f.Fields {
		names[i] = field.Name
	}
	return names
}

// ColumnIndex returns the position of name or -1
func (f *Frame) ColumnIndex(name string) int {
	for i, field := range f.Fields {
		if field.Name == name {
			return i
		}
	}
	return -1
}

// TypeMap maps field name to type tag
func (f *Frame) TypeMap() map[string]string {
	m := make(map[string]string, len(f.Fields))
	for _, field := range f.Fields {
		m[field.Name] = field.Type
	}
	return m
}
