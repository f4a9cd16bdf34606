package models

// Scan strategies reported in ScanResult
const (
	StrategyBackward = "backward"
	StrategyForward  = "forward"
	StrategyFull     = "full"
)

// ScanResult is the output of one scan over one listing
type ScanResult struct {
	TotalRecordsSeen int            `json:"total_records_seen"`
	RecordsInWindow  []TicketRecord `json:"records_in_window"`
	PagesVisited     int            `json:"pages_visited"`
	Strategy         string         `json:"strategy"`
	HitCeiling       bool           `json:"hit_ceiling"`
}
