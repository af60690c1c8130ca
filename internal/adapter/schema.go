package adapter

// Schema describes the live database structure handed to the SQL
// generation prompt and exposed over the API.
type Schema struct {
	Tables []Table `json:"tables"`
}

// Table is one table with its columns in ordinal order.
type Table struct {
	Name        string       `json:"name"`
	Columns     []string     `json:"columns"`
	ForeignKeys []ForeignKey `json:"foreignKeys"`
}

// ForeignKey maps a column to "referencedTable.referencedColumn".
type ForeignKey struct {
	Column     string `json:"column"`
	References string `json:"references"`
}
