package dashboard

import (
	"errors"
	"fmt"

	"github.com/benvon/smart-dashboard/internal/models"
	"github.com/benvon/smart-dashboard/internal/validation"
	"github.com/google/uuid"
)

// AddPayment records a bill. amount accepts forms such as "1200", "1200.00", "$50" and
// "1,200.50"; it must be positive.
func (s *State) AddPayment(name, amount string, dueDate models.Date) (uuid.UUID, error) {
	return s.AddPaymentIn(name, amount, models.DefaultCurrency, dueDate)
}

// AddPaymentIn is AddPayment with an explicit currency code.
func (s *State) AddPaymentIn(name, amount, currency string, dueDate models.Date) (uuid.UUID, error) {
	name = validation.SanitizeText(name)
	if name == "" {
		return uuid.Nil, invalid("name", "name must not be empty")
	}
	money, err := models.ParseMoney(amount, currency)
	if err != nil {
		msg := models.ErrInvalidAmount.Error()
		if errors.Is(err, models.ErrNonPositiveAmount) {
			msg = models.ErrNonPositiveAmount.Error()
		}
		return uuid.Nil, invalid("amount", msg)
	}
	if dueDate.IsZero() {
		return uuid.Nil, invalid("due_date", "due date is required")
	}

	p := &models.Payment{
		ID:        s.newID(),
		Name:      name,
		Amount:    money,
		DueDate:   dueDate,
		CreatedAt: s.Now(),
	}
	s.payments = append(s.payments, p)
	s.paymentIndex[p.ID] = p
	return p.ID, nil
}

// TogglePaid flips the paid flag and logs the transition in either direction.
func (s *State) TogglePaid(paymentID uuid.UUID) (bool, error) {
	p, ok := s.paymentIndex[paymentID]
	if !ok {
		return false, notFound("payment", paymentID.String())
	}
	p.Paid = !p.Paid
	if p.Paid {
		now := s.Now()
		p.PaidAt = &now
		s.appendNotification(models.NotificationPayment, fmt.Sprintf("Payment '%s' completed", p.Name))
	} else {
		p.PaidAt = nil
		s.appendNotification(models.NotificationPayment, fmt.Sprintf("Payment '%s' marked pending", p.Name))
	}
	return p.Paid, nil
}

// DueToday returns unpaid payments due on the reference date, in insertion order.
func (s *State) DueToday(reference models.Date) []models.Payment {
	var out []models.Payment
	for _, p := range s.payments {
		if p.DueDate == reference && !p.Paid {
			out = append(out, *p)
		}
	}
	return out
}

// PendingCount is the number of unpaid payments.
func (s *State) PendingCount() int {
	n := 0
	for _, p := range s.payments {
		if !p.Paid {
			n++
		}
	}
	return n
}

// Payments returns a copy of all payments in insertion order.
func (s *State) Payments() []models.Payment {
	out := make([]models.Payment, 0, len(s.payments))
	for _, p := range s.payments {
		out = append(out, *p)
	}
	return out
}
