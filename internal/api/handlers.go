package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/stockview/market-data-service/internal/cache"
	"github.com/stockview/market-data-service/internal/database"
	"github.com/stockview/market-data-service/internal/models"
)

const defaultPriceLimit = 100

// QuoteFetcher retrieves a live quote from the market-data API
type QuoteFetcher interface {
	FetchQuote(ctx context.Context, ticker string) (*models.Quote, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	db     *database.DB
	quotes *cache.QuoteCache
	source QuoteFetcher
}

// NewHandler creates a new Handler. quotes and source may be nil, in which
// case live-quote lookups fall back to the last stored quote.
func NewHandler(db *database.DB, quotes *cache.QuoteCache, source QuoteFetcher) *Handler {
	return &Handler{
		db:     db,
		quotes: quotes,
		source: source,
	}
}

// GetAllCompanies handles GET /companies
func (h *Handler) GetAllCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.db.GetAllCompanies()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, companies)
}

// GetCompany handles GET /companies/{ticker}
func (h *Handler) GetCompany(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ticker := vars["ticker"]

	company, err := h.db.GetCompany(ticker)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, company)
}

// GetPrices handles GET /prices/{ticker}. With start and end query
// parameters it returns the bars in that date range oldest-first;
// otherwise the most recent bars up to limit.
func (h *Handler) GetPrices(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ticker := vars["ticker"]

	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr != "" && endStr != "" {
		start, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			http.Error(w, "invalid start date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		end, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			http.Error(w, "invalid end date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		prices, err := h.db.GetPriceRecordsRange(ticker, start, end)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, prices)
		return
	}

	limit := defaultPriceLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	prices, err := h.db.GetPriceRecordsByTicker(ticker, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, prices)
}

// GetDateStatus handles GET /dates/{date}
func (h *Handler) GetDateStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	date, err := time.Parse("2006-01-02", vars["date"])
	if err != nil {
		http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	status, err := h.db.GetDateStatus(date)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, status)
}

// GetBackfillStatus handles GET /backfill/status
func (h *Handler) GetBackfillStatus(w http.ResponseWriter, r *http.Request) {
	summary, err := h.db.GetLedgerSummary()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// GetQuote handles GET /quotes/{ticker}. Lookup order: Redis cache, then
// the live API (refreshing the cache), then the last stored quote.
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ticker := vars["ticker"]
	ctx := r.Context()

	if h.quotes != nil {
		if quote, err := h.quotes.Get(ctx, ticker); err == nil {
			respondJSON(w, http.StatusOK, quote)
			return
		}
	}

	if h.source != nil {
		quote, err := h.source.FetchQuote(ctx, ticker)
		if err == nil {
			if h.quotes != nil {
				if err := h.quotes.Set(ctx, quote); err != nil {
					log.Printf("Failed to cache quote for %s: %v", ticker, err)
				}
			}
			respondJSON(w, http.StatusOK, quote)
			return
		}
		log.Printf("Live quote fetch failed for %s, falling back to store: %v", ticker, err)
	}

	quote, err := h.db.GetQuote(ticker)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, quote)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
