package http

import "net/http"

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	list, err := s.recurring.List(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, "list_recurring", err)
		return
	}
	NewJSONResponse().Payload(list).Write(w)
}

func (s *Server) handleScanRecurring(w http.ResponseWriter, r *http.Request) {
	created, err := s.recurring.Scan(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, "scan_recurring", err)
		return
	}
	NewJSONResponse().Payload(nonNilRows(created)).Write(w)
}

// handleRespondRecurring applies ?action=confirm|ignore to one detected expense.
// The action is matched exactly, without case folding or trimming.
func (s *Server) handleRespondRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	re, err := s.recurring.Respond(r.Context(), userIDFrom(r.Context()), id, r.URL.Query().Get("action"))
	if err != nil {
		writeServiceError(w, r, "respond_recurring", err)
		return
	}
	NewJSONResponse().Payload(re).Write(w)
}
