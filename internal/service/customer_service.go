package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"cardapio/internal/domain"
	"cardapio/internal/logging"
	"cardapio/internal/models"

	"github.com/rs/zerolog"
)

type CustomerService struct {
	repo   domain.CustomerRepository
	logger *zerolog.Logger
}

var _ domain.CustomerService = (*CustomerService)(nil)

func NewCustomerService(repo domain.CustomerRepository, logger *zerolog.Logger) *CustomerService {
	return &CustomerService{
		repo:   repo,
		logger: logging.Component(logger, "customers"),
	}
}

func (s *CustomerService) Register(ctx context.Context, c *models.Customer) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Phone = strings.TrimSpace(c.Phone)

	if c.Name == "" || c.Email == "" || c.Phone == "" {
		return fmt.Errorf("%w: nome, email e telefone são obrigatórios", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return fmt.Errorf("%w: email inválido: %s", ErrInvalidInput, c.Email)
	}

	if err := s.repo.CreateCustomer(ctx, c); err != nil {
		return err
	}
	s.logger.Info().Int64("customer_id", c.ID).Msg("Customer registered")
	return nil
}

func (s *CustomerService) List(ctx context.Context) ([]*models.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

func (s *CustomerService) Deactivate(ctx context.Context, id int64) error {
	return s.repo.DeactivateCustomer(ctx, id)
}
