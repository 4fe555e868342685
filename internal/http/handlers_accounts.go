package http

import (
	"net/http"
)

func (s *Server) handleCreateDebt(w http.ResponseWriter, r *http.Request) {
	var req debtRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	d, err := s.ledger.CreateDebt(r.Context(), userIDFrom(r.Context()), req.toDebt())
	if err != nil {
		writeServiceError(w, r, "create_debt", err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Payload(d).Write(w)
}

func (s *Server) handleListDebts(w http.ResponseWriter, r *http.Request) {
	list, err := s.ledger.ListDebts(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, "list_debts", err)
		return
	}
	NewJSONResponse().Payload(list).Write(w)
}

func (s *Server) handleApplyInterest(w http.ResponseWriter, r *http.Request) {
	rows, err := s.periods.ApplyMonthlyInterest(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, "apply_interest", err)
		return
	}
	NewJSONResponse().Payload(nonNilRows(rows)).Write(w)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	g, err := s.ledger.CreateSavingGoal(r.Context(), userIDFrom(r.Context()), req.toGoal())
	if err != nil {
		writeServiceError(w, r, "create_saving_goal", err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Payload(g).Write(w)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	list, err := s.ledger.ListSavingGoals(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, "list_saving_goals", err)
		return
	}
	NewJSONResponse().Payload(list).Write(w)
}
