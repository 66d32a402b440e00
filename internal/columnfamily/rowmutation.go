package columnfamily

// RowMutation accumulates (column, value) pairs for a single row before
// a single PutRow call assigns them all one timestamp. It is a pure
// ergonomics layer over PutRow, not a new write path.
type RowMutation struct {
	row     []byte
	columns map[string][]byte
}

// NewRowMutation starts a batch of column writes for row.
func NewRowMutation(row []byte) *RowMutation {
	return &RowMutation{row: row, columns: make(map[string][]byte)}
}

// Set stages a (column, value) pair and returns the receiver for
// chaining.
func (m *RowMutation) Set(column string, value []byte) *RowMutation {
	m.columns[column] = value
	return m
}

// Apply commits every staged column to cf via a single PutRow call,
// assigning them all one timestamp.
func (m *RowMutation) Apply(cf *ColumnFamily) error {
	return cf.PutRow(m.row, m.columns)
}
