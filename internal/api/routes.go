package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/companies", handler.GetAllCompanies).Methods("GET")
	api.HandleFunc("/companies/{ticker}", handler.GetCompany).Methods("GET")
	api.HandleFunc("/prices/{ticker}", handler.GetPrices).Methods("GET")
	api.HandleFunc("/dates/{date}", handler.GetDateStatus).Methods("GET")
	api.HandleFunc("/backfill/status", handler.GetBackfillStatus).Methods("GET")
	api.HandleFunc("/quotes/{ticker}", handler.GetQuote).Methods("GET")

	return r
}
