package models

import "time"

// DateStatus is one row of the completeness ledger: for every tracked
// calendar date it records whether a full day of prices has landed and
// whether the market traded at all on that date.
//
// Rows are created by the gap synchronizer with CompleteData=false and
// MarketOpen=true, mutated only by the backfill controller, and never
// deleted.
type DateStatus struct {
	Date         time.Time `json:"date"`
	CompleteData bool      `json:"complete_data"`
	MarketOpen   bool      `json:"market_open"`
}

// Terminal reports whether the date has reached a stable classification.
// Complete and market-closed dates are never revisited by backfill; a date
// that is neither is still pending and eligible for ingestion on the next
// run.
func (d DateStatus) Terminal() bool {
	return d.CompleteData || !d.MarketOpen
}
