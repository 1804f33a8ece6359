package model

// ColumnInfo mirrors the information_schema.columns fields used by the
// admin console.
type ColumnInfo struct {
    ColumnName string  `json:"COLUMN_NAME"`
    DataType   string  `json:"DATA_TYPE"`
    ColumnKey  string  `json:"COLUMN_KEY"`
    IsNullable string  `json:"IS_NULLABLE"`
    Extra      *string `json:"EXTRA"`
}

// TableInfo describes one allow-listed table. PrimaryKey is set only when
// the key has exactly one column; CompositeKey always lists every key column.
type TableInfo struct {
    PrimaryKey   *string      `json:"primaryKey"`
    CompositeKey []string     `json:"compositeKey"`
    Columns      []ColumnInfo `json:"columns"`
}

// HasColumn reports whether name is one of the table's columns.
func (t TableInfo) HasColumn(name string) bool {
    for _, c := range t.Columns {
        if c.ColumnName == name {
            return true
        }
    }
    return false
}

// AutoIncrement returns the auto-increment column name, or "".
func (t TableInfo) AutoIncrement() string {
    for _, c := range t.Columns {
        if c.Extra != nil && containsFold(*c.Extra, "auto_increment") {
            return c.ColumnName
        }
    }
    return ""
}

// Searchable returns the char and text columns.
func (t TableInfo) Searchable() []string {
    var out []string
    for _, c := range t.Columns {
        if containsFold(c.DataType, "char") || containsFold(c.DataType, "text") {
            out = append(out, c.ColumnName)
        }
    }
    return out
}

// ExecResult is returned for statements that do not produce rows.
type ExecResult struct {
    AffectedRows int64 `json:"affectedRows"`
    InsertID     int64 `json:"insertId"`
}
