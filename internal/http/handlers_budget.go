package http

import (
	"net/http"
)

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	userID := userIDFrom(r.Context())
	c, err := s.ledger.CreateCategory(r.Context(), userID, req.toCategory())
	if err != nil {
		writeServiceError(w, r, "create_category", err)
		return
	}
	s.status.Invalidate(userID)
	NewJSONResponse().Status(http.StatusCreated).Payload(c).Write(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	list, err := s.ledger.ListCategories(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, "list_categories", err)
		return
	}
	NewJSONResponse().Payload(list).Write(w)
}

// handleBudgetStatus serves the report from cache when it is fresh.
func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	if rows, ok := s.status.Get(userID); ok {
		NewJSONResponse().Header("X-Cache", "HIT").Payload(rows).Write(w)
		return
	}

	rows, err := s.periods.BudgetStatus(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, "budget_status", err)
		return
	}
	s.status.Set(userID, rows)
	NewJSONResponse().Header("X-Cache", "MISS").Payload(rows).Write(w)
}

func (s *Server) handleCloseMonth(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	rows, err := s.periods.CloseMonth(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, "close_month", err)
		return
	}
	s.status.Invalidate(userID)
	NewJSONResponse().Payload(nonNilRows(rows)).Write(w)
}

func nonNilRows[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}
