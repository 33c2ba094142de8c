package response_models

type UsageRow struct {
	Service  string  `json:"service"`
	Endpoint string  `json:"endpoint"`
	Calls    int64   `json:"calls"`
	Errors   int64   `json:"errors"`
	AvgMs    float64 `json:"avg_ms"`
	CostUSD  float64 `json:"cost_usd"`
}

type UsageSummary struct {
	Since   int64      `json:"since"`
	Rows    []UsageRow `json:"rows"`
	CostUSD float64    `json:"cost_usd"`
}
