package handlers

import (
	"net/http"

	"github.com/benvon/smart-dashboard/internal/dashboard"
	"github.com/benvon/smart-dashboard/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreatePaymentRequest is the body of POST /api/v1/payments
type CreatePaymentRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Amount   string `json:"amount" validate:"required,money"`
	Currency string `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	DueDate  string `json:"due_date" validate:"required,civil_date"`
}

// DuePaymentsResponse is the body of GET /api/v1/payments/due
type DuePaymentsResponse struct {
	Date         models.Date      `json:"date"`
	Payments     []models.Payment `json:"payments"`
	PendingCount int              `json:"pending_count"`
}

// ListPayments handles GET /api/v1/payments
func (h *DashboardHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var payments []models.Payment
	s.View(func(st *dashboard.State) {
		payments = st.Payments()
	})
	respondJSON(w, http.StatusOK, map[string]any{
		"payments": nonNil(payments),
	})
}

// CreatePayment handles POST /api/v1/payments
func (h *DashboardHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var payment models.Payment
	err := s.Do(r.Context(), func(st *dashboard.State) error {
		due := models.MustParseDate(req.DueDate)
		var (
			id  uuid.UUID
			err error
		)
		if req.Currency != "" {
			id, err = st.AddPaymentIn(req.Name, req.Amount, req.Currency, due)
		} else {
			id, err = st.AddPayment(req.Name, req.Amount, due)
		}
		if err != nil {
			return err
		}
		for _, p := range st.Payments() {
			if p.ID == id {
				payment = p
				break
			}
		}
		return nil
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	h.logger.Debug("payment_created",
		zap.String("payment_id", payment.ID.String()),
		zap.String("due_date", payment.DueDate.String()),
	)
	respondJSON(w, http.StatusCreated, payment)
}

// TogglePaid handles POST /api/v1/payments/{id}/toggle
func (h *DashboardHandler) TogglePaid(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var paid bool
	err := s.Do(r.Context(), func(st *dashboard.State) error {
		var err error
		paid, err = st.TogglePaid(id)
		return err
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ToggleResult{ID: id, Value: paid})
}

// DuePayments handles GET /api/v1/payments/due. Without ?date= the reference is today.
func (h *DashboardHandler) DuePayments(w http.ResponseWriter, r *http.Request) {
	date, ok := queryDate(w, r)
	if !ok {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var out DuePaymentsResponse
	s.View(func(st *dashboard.State) {
		if date.IsZero() {
			date = st.Today()
		}
		out = DuePaymentsResponse{
			Date:         date,
			Payments:     nonNil(st.DueToday(date)),
			PendingCount: st.PendingCount(),
		}
	})
	respondJSON(w, http.StatusOK, out)
}
