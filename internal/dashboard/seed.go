package dashboard

type seedPayment struct {
	name     string
	amount   string
	dueAfter int
}

var demoPayments = []seedPayment{
	{"Electricity Bill", "50.00", 2},
	{"Internet Bill", "30.00", 4},
	{"Netflix Subscription", "15.00", 3},
}

// SeedDemoPayments adds the example bills a fresh session starts with, due a few days
// after today.
func (s *State) SeedDemoPayments() error {
	today := s.Today()
	for _, sp := range demoPayments {
		if _, err := s.AddPayment(sp.name, sp.amount, today.AddDays(sp.dueAfter)); err != nil {
			return err
		}
	}
	return nil
}
