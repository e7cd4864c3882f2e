package backfill

import (
	"errors"

	"github.com/stockview/market-data-service/internal/polygon"
)

// Outcome is the terminal-or-retry classification of one ingestion attempt
type Outcome int

const (
	// OutcomeComplete: the date landed with at least the completeness
	// threshold of tickers.
	OutcomeComplete Outcome = iota
	// OutcomeMarketClosed: either the source signalled zero results, or the
	// day came back below threshold. Both are recorded as market_open=false
	// and never retried.
	OutcomeMarketClosed
	// OutcomeRetry: transport failure. The date stays pending and is
	// retried on the next run.
	OutcomeRetry
)

// Classify maps a fetch result to its ledger classification. A successful
// fetch below the threshold classifies as a closed market, not as a
// transient error.
func Classify(err error, barCount, threshold int) Outcome {
	switch {
	case errors.Is(err, polygon.ErrMarketClosed):
		return OutcomeMarketClosed
	case err != nil:
		return OutcomeRetry
	case barCount >= threshold:
		return OutcomeComplete
	default:
		return OutcomeMarketClosed
	}
}
