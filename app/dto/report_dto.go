package dto

// ReportRequest carries the common inputs of every group report
type ReportRequest struct {
	Group     string `json:"group" validate:"required"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// GroupTotals is the dashboard totals-by-currency-class summary of one group
type GroupTotals struct {
	TotalValueZiG    float64 `json:"total_value_zig"`
	TotalVolumeZiG   int64   `json:"total_volume_zig"`
	TotalValueUSD    float64 `json:"total_value_usd"`
	TotalVolumeUSD   int64   `json:"total_volume_usd"`
	ActivityRatioZiG float64 `json:"activity_ratio_zig"`
	ActivityRatioUSD float64 `json:"activity_ratio_usd"`
}

// DashboardDataResponse maps every group name to its totals
type DashboardDataResponse struct {
	Message string                 `json:"message"`
	Groups  map[string]GroupTotals `json:"groups"`
}

type GroupTotalsResponse struct {
	Message string      `json:"message"`
	Group   string      `json:"group"`
	Totals  GroupTotals `json:"totals"`
}

// MatrixRow is one terminal of the value/volume grid, one cell per date column
type MatrixRow struct {
	TerminalID string    `json:"terminal_id"`
	Values     []float64 `json:"values"`
	Volumes    []int64   `json:"volumes"`
}

type ValueVolumeMatrixResponse struct {
	Message string      `json:"message"`
	Group   string      `json:"group"`
	Dates   []string    `json:"dates"`
	Rows    []MatrixRow `json:"rows"`
}

type DailySummaryRow struct {
	Date        string  `json:"date"`
	ValueInZiG  float64 `json:"value_in_zig"`
	VolumeInZiG int64   `json:"volume_in_zig"`
	ValueInUSD  float64 `json:"value_in_usd"`
	VolumeInUSD int64   `json:"volume_in_usd"`
}

type DailySummaryResponse struct {
	Message string            `json:"message"`
	Group   string            `json:"group"`
	Rows    []DailySummaryRow `json:"rows"`
}

type CumulativeTerminalRow struct {
	MerchantName string  `json:"merchant_name"`
	TerminalID   string  `json:"terminal_id"`
	TotalValue   float64 `json:"total_value"`
	TotalVolume  int64   `json:"total_volume"`
}

type CumulativeByTerminalResponse struct {
	Message string                  `json:"message"`
	Group   string                  `json:"group"`
	Rows    []CumulativeTerminalRow `json:"rows"`
}

type CumulativeBranchRow struct {
	NumTerminals int     `json:"num_terminals"`
	Branch       string  `json:"branch"`
	ValueInZiG   float64 `json:"value_in_zig"`
	VolumeInZiG  int64   `json:"volume_in_zig"`
	ValueInUSD   float64 `json:"value_in_usd"`
	VolumeInUSD  int64   `json:"volume_in_usd"`
}

type CumulativeByBranchResponse struct {
	Message string                `json:"message"`
	Group   string                `json:"group"`
	Rows    []CumulativeBranchRow `json:"rows"`
}

// ExportFile is a generated workbook ready to be sent as an attachment
type ExportFile struct {
	Filename string
	Content  []byte
}
