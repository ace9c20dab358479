package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"cardapio/internal/database"
	"cardapio/internal/domain"
	"cardapio/internal/logging"
	"cardapio/internal/models"

	"github.com/rs/zerolog"
)

const orderNumberAttempts = 5

type OrderService struct {
	repo   domain.OrderRepository
	logger *zerolog.Logger
	now    func() time.Time
}

var _ domain.OrderService = (*OrderService)(nil)

func NewOrderService(repo domain.OrderRepository, logger *zerolog.Logger) *OrderService {
	return &OrderService{
		repo:   repo,
		logger: logging.Component(logger, "orders"),
		now:    time.Now,
	}
}

// NewOrderNumber formats GB + YYMMDD + three random digits.
func NewOrderNumber(t time.Time) string {
	return fmt.Sprintf("GB%s%03d", t.Format("060102"), rand.IntN(1000))
}

// PlaceOrder validates and stores a public order, assigning its number.
func (s *OrderService) PlaceOrder(ctx context.Context, order *models.Order) error {
	if err := s.validate(order); err != nil {
		return err
	}

	order.Status = models.OrderStatusPending
	if order.PaymentMethod == "" {
		order.PaymentMethod = models.PaymentCash
	}
	if order.ChangeFor != nil && *order.ChangeFor <= 0 {
		order.ChangeFor = nil
	}

	var err error
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order.Number = NewOrderNumber(s.now())
		err = s.repo.CreateOrder(ctx, order)
		if !errors.Is(err, database.ErrDuplicateOrderNumber) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("failed to place order: %w", err)
	}

	s.logger.Info().
		Int64("order_id", order.ID).
		Str("number", order.Number).
		Float64("total", order.Total).
		Msg("Order placed")
	return nil
}

func (s *OrderService) validate(order *models.Order) error {
	order.CustomerName = strings.TrimSpace(order.CustomerName)
	order.CustomerPhone = strings.TrimSpace(order.CustomerPhone)
	order.CustomerAddress = strings.TrimSpace(order.CustomerAddress)

	if order.CustomerName == "" || order.CustomerPhone == "" || order.CustomerAddress == "" ||
		len(order.Items) == 0 || order.Total <= 0 {
		return fmt.Errorf("%w: nome, telefone, endereço, itens e total são obrigatórios", ErrInvalidInput)
	}
	for _, it := range order.Items {
		if it.Quantity <= 0 || it.Price < 0 {
			return fmt.Errorf("%w: item %d com quantidade ou preço inválido", ErrInvalidInput, it.ItemID)
		}
	}
	if order.PaymentMethod != "" && !models.IsValidPaymentMethod(order.PaymentMethod) {
		return fmt.Errorf("%w: forma de pagamento inválida: %s", ErrInvalidInput, order.PaymentMethod)
	}
	// the client computes the total; reject anything that disagrees by more than a cent
	if math.Abs(order.ItemsTotal()-order.Total) > 0.01 {
		return fmt.Errorf("%w: total %.2f não confere com os itens (%.2f)", ErrInvalidInput, order.Total, order.ItemsTotal())
	}
	return nil
}

func (s *OrderService) ListOrders(ctx context.Context, status string) ([]*models.Order, error) {
	if status != "" && !models.IsValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: status inválido: %s", ErrInvalidInput, status)
	}
	return s.repo.ListOrders(ctx, status)
}

func (s *OrderService) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	return s.repo.GetOrder(ctx, id)
}

func (s *OrderService) UpdateStatus(ctx context.Context, id int64, status string) (*models.Order, error) {
	if !models.IsValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: status inválido: %s", ErrInvalidInput, status)
	}
	if err := s.repo.UpdateOrderStatus(ctx, id, status); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("order_id", id).Str("status", status).Msg("Order status updated")
	return s.repo.GetOrder(ctx, id)
}

// Cancel marks the order cancelled and hides it from listings.
func (s *OrderService) Cancel(ctx context.Context, id int64) error {
	if err := s.repo.UpdateOrderStatus(ctx, id, models.OrderStatusCancelled); err != nil {
		return err
	}
	if err := s.repo.DeactivateOrder(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("order_id", id).Msg("Order cancelled")
	return nil
}
