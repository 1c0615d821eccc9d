package models

// ScreenRequest is the query of GET /api/volatile-stocks and GET /api/screen.
// Symbols is a comma separated list; empty means the configured watchlist.
type ScreenRequest struct {
	Symbols string `query:"symbols" json:"symbols" validate:"omitempty,max=2000,tickers"`
	TopN    int    `query:"top_n" json:"top_n" default:"5" validate:"gte=1,lte=50"`
}
