package service

import (
	"context"
	"testing"

	"cardapio/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSiteInfoService_Update(t *testing.T) {
	repo := new(MockSiteInfoRepository)
	s := NewSiteInfoService(repo)
	ctx := context.Background()

	repo.On("SetSiteInfo", mock.Anything, map[string]string{models.SiteInfoPhone: "1133334444"}).Return(nil)
	repo.On("GetSiteInfo", mock.Anything).Return(map[string]string{
		models.SiteInfoName:  "Golliath Burger",
		models.SiteInfoPhone: "1133334444",
	}, nil)

	got, err := s.Update(ctx, map[string]string{models.SiteInfoPhone: " 1133334444 "})
	require.NoError(t, err)
	assert.Equal(t, "1133334444", got[models.SiteInfoPhone])
	assert.Equal(t, "Golliath Burger", got[models.SiteInfoName])

	_, err = s.Update(ctx, map[string]string{"senha": "x"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.Update(ctx, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
	repo.AssertExpectations(t)
}
