package service

import (
	"context"
	"testing"

	"cardapio/internal/database"
	"cardapio/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCustomerService_Register(t *testing.T) {
	logger := zerolog.Nop()
	repo := new(MockCustomerRepository)
	s := NewCustomerService(repo, &logger)
	ctx := context.Background()

	repo.On("CreateCustomer", mock.Anything, mock.MatchedBy(func(c *models.Customer) bool {
		return c.Email == "ana@example.com"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Customer).ID = 10
	}).Return(nil).Once()

	c := &models.Customer{Name: "Ana", Email: " Ana@Example.com ", Phone: "119"}
	require.NoError(t, s.Register(ctx, c))
	assert.Equal(t, int64(10), c.ID)

	t.Run("Duplicate", func(t *testing.T) {
		repo.On("CreateCustomer", mock.Anything, mock.Anything).Return(database.ErrDuplicateEmail).Once()
		err := s.Register(ctx, &models.Customer{Name: "Ana", Email: "ana@example.com", Phone: "119"})
		assert.ErrorIs(t, err, database.ErrDuplicateEmail)
	})

	t.Run("Invalid", func(t *testing.T) {
		assert.ErrorIs(t, s.Register(ctx, &models.Customer{Name: "Ana", Phone: "1"}), ErrInvalidInput)
		assert.ErrorIs(t, s.Register(ctx, &models.Customer{Name: "Ana", Email: "nope", Phone: "1"}), ErrInvalidInput)
	})

	repo.AssertExpectations(t)
}

func TestCustomerService_ListAndDeactivate(t *testing.T) {
	logger := zerolog.Nop()
	repo := new(MockCustomerRepository)
	s := NewCustomerService(repo, &logger)

	repo.On("ListCustomers", mock.Anything).Return([]*models.Customer{{ID: 1}}, nil)
	repo.On("DeactivateCustomer", mock.Anything, int64(1)).Return(nil)

	list, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.NoError(t, s.Deactivate(context.Background(), 1))
	repo.AssertExpectations(t)
}
