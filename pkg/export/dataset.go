package export

// Column describes one exported field. Width is a relative weight used by
// the PDF layout; zero means 1.
type Column struct {
	Key   string
	Label string
	Width float64
}

// Dataset defines tabular export content.
type Dataset struct {
	Title   string
	Columns []Column
	Rows    []map[string]string
}

// Labels returns the column headings in order.
func (d Dataset) Labels() []string {
	labels := make([]string, len(d.Columns))
	for i, col := range d.Columns {
		labels[i] = col.Label
		if labels[i] == "" {
			labels[i] = col.Key
		}
	}
	return labels
}

// Record returns a row's values in column order.
func (d Dataset) Record(row map[string]string) []string {
	record := make([]string, len(d.Columns))
	for i, col := range d.Columns {
		record[i] = row[col.Key]
	}
	return record
}
