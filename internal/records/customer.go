package records

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukaforge/cadence/internal/store"
	"github.com/dukaforge/cadence/pkg/types"
)

// CustomerService owns the customers table. Deleting a customer never
// cascades to its tasks; the schema's SET NULL rule clears their reference.
type CustomerService struct {
	store  store.Store
	reload Reloader
	logger *slog.Logger
}

// NewCustomerService wires a customer service. reload may be nil.
func NewCustomerService(st store.Store, reload Reloader, logger *slog.Logger) *CustomerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CustomerService{store: st, reload: reload, logger: logger}
}

// Create inserts a customer and returns its id.
func (s *CustomerService) Create(ctx context.Context, customer types.Customer) (int64, error) {
	if customer.Name == "" {
		return 0, types.ErrInvalidTitle
	}
	res, err := s.store.Execute(ctx,
		"INSERT INTO customers (name, email, phone, icon, color) VALUES (?, ?, ?, ?, ?)",
		[]any{customer.Name, customer.Email, customer.Phone, customer.Icon, customer.Color})
	if err != nil {
		return 0, fmt.Errorf("inserting customer: %w", err)
	}
	s.logger.Info("customer created", "customer", res.Changes.LastID, "name", customer.Name)
	return res.Changes.LastID, nil
}

// Get loads one customer by id.
func (s *CustomerService) Get(ctx context.Context, id int64) (types.Customer, error) {
	res, err := s.store.Execute(ctx, "SELECT * FROM customers WHERE id = ?", []any{id})
	if err != nil {
		return types.Customer{}, fmt.Errorf("loading customer %d: %w", id, err)
	}
	if len(res.Values) == 0 {
		return types.Customer{}, types.ErrNotFound
	}
	return CustomerFromRow(res.Values[0]), nil
}

// GetAll loads every customer ordered by name.
func (s *CustomerService) GetAll(ctx context.Context) ([]types.Customer, error) {
	res, err := s.store.Execute(ctx, "SELECT * FROM customers ORDER BY name", nil)
	if err != nil {
		return nil, fmt.Errorf("loading customers: %w", err)
	}
	customers := make([]types.Customer, 0, len(res.Values))
	for _, row := range res.Values {
		customers = append(customers, CustomerFromRow(row))
	}
	return customers, nil
}

// Update rewrites a customer's fields.
func (s *CustomerService) Update(ctx context.Context, customer types.Customer) error {
	if customer.ID <= 0 {
		return types.ErrInvalidID
	}
	if customer.Name == "" {
		return types.ErrInvalidTitle
	}
	if _, err := s.Get(ctx, customer.ID); err != nil {
		return err
	}
	_, err := s.store.Execute(ctx,
		"UPDATE customers SET name = ?, email = ?, phone = ?, icon = ?, color = ? WHERE id = ?",
		[]any{customer.Name, customer.Email, customer.Phone, customer.Icon, customer.Color, customer.ID})
	if err != nil {
		return fmt.Errorf("updating customer %d: %w", customer.ID, err)
	}
	return s.afterMutation(ctx)
}

// Delete removes a customer. Tasks referencing it keep existing with their
// customerId cleared by the foreign-key rule.
func (s *CustomerService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if _, err := s.store.Execute(ctx, "DELETE FROM customers WHERE id = ?", []any{id}); err != nil {
		return fmt.Errorf("deleting customer %d: %w", id, err)
	}
	s.logger.Info("customer deleted", "customer", id)
	return s.afterMutation(ctx)
}

func (s *CustomerService) afterMutation(ctx context.Context) error {
	if s.reload == nil {
		return nil
	}
	return s.reload(ctx)
}
