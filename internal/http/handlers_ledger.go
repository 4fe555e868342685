package http

import (
	"errors"
	"net/http"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// writeServiceError logs unexpected failures and maps err to a response.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if !errors.Is(err, core.ErrNotFound) && !errors.Is(err, core.ErrInvalidInput) && !errors.Is(err, core.ErrInvalidAction) {
		fields := applog.NewFields().
			WithOperation(op).
			WithUser(userIDFrom(r.Context())).
			WithError(err)
		logger.ErrorContext(r.Context(), "Request failed", fields.ToSlice()...)
	}
	FromError(err).Write(w)
}

func (s *Server) handlePostTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	userID := userIDFrom(r.Context())
	t, err := s.ledger.PostTransaction(r.Context(), userID, req.toInput())
	if err != nil {
		writeServiceError(w, r, "post_transaction", err)
		return
	}

	// A posted expense may have moved a category's spent amount.
	s.status.Invalidate(userID)
	NewJSONResponse().Status(http.StatusCreated).Payload(t).Write(w)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	list, err := s.ledger.ListTransactions(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, "list_transactions", err)
		return
	}
	NewJSONResponse().Payload(list).Write(w)
}
