package models

// PageAssessment represents the result of analysing a helpdesk page
type PageAssessment struct {
	PageType    string   `json:"page_type"`
	Confidence  string   `json:"confidence"`
	Description string   `json:"description"`
	Indicators  []string `json:"indicators"`
	CallsTotal  int      `json:"calls_total"`
	HasCalls    bool     `json:"has_calls"`
}

// CellSnapshot is a rendered table cell
type CellSnapshot struct {
	Text          string `json:"text"`
	FirstLinkText string `json:"first_link_text,omitempty"`
}

// RowSnapshot is a rendered table row
type RowSnapshot struct {
	Cells []CellSnapshot `json:"cells"`
}

// TableSnapshot is a rendered table, rows in document order
type TableSnapshot struct {
	Rows []RowSnapshot `json:"rows"`
}

// Width returns the widest row's cell count
func (t TableSnapshot) Width() int {
	w := 0
	for _, r := range t.Rows {
		if len(r.Cells) > w {
			w = len(r.Cells)
		}
	}
	return w
}

// PageSnapshot is the tabular view of one rendered page
type PageSnapshot struct {
	URL    string          `json:"url"`
	Tables []TableSnapshot `json:"tables"`
}
