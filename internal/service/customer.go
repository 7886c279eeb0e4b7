package service

import (
	"context"
	"strings"

	"rentalshop-backend/internal/domain"
	"rentalshop-backend/internal/repository"
)

type customerService struct {
	customerRepo repository.CustomerRepository
}

func NewCustomerService(customerRepo repository.CustomerRepository) CustomerService {
	return &customerService{customerRepo: customerRepo}
}

func validateCustomer(c *domain.Customer) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = strings.TrimSpace(c.Phone)
	if c.Name == "" {
		return domain.Invalid("name", "is required")
	}
	switch c.Verification {
	case "":
		c.Verification = domain.VerificationPending
	case domain.VerificationPending, domain.VerificationVerified, domain.VerificationRejected:
	default:
		return domain.Invalid("verification", "unknown status %q", c.Verification)
	}
	return nil
}

func (s *customerService) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	if err := validateCustomer(c); err != nil {
		return err
	}
	return s.customerRepo.Create(ctx, c)
}

func (s *customerService) GetCustomer(ctx context.Context, shopID, id int32) (*domain.Customer, error) {
	return s.customerRepo.GetByID(ctx, shopID, id)
}

func (s *customerService) UpdateCustomer(ctx context.Context, c *domain.Customer) error {
	if err := validateCustomer(c); err != nil {
		return err
	}
	return s.customerRepo.Update(ctx, c)
}

func (s *customerService) ListCustomers(ctx context.Context, shopID int32, query string, page, pageSize int32) ([]domain.Customer, int32, error) {
	return s.customerRepo.List(ctx, shopID, strings.TrimSpace(query), page, pageSize)
}
