package service

import (
	"context"
	"fmt"
	"strings"

	"cardapio/internal/domain"
	"cardapio/internal/models"
)

// SiteInfoService serves the restaurant's public contact and address data.
type SiteInfoService struct {
	repo domain.SiteInfoRepository
}

var _ domain.SiteInfoService = (*SiteInfoService)(nil)

func NewSiteInfoService(repo domain.SiteInfoRepository) *SiteInfoService {
	return &SiteInfoService{repo: repo}
}

func (s *SiteInfoService) Get(ctx context.Context) (map[string]string, error) {
	return s.repo.GetSiteInfo(ctx)
}

// Update stores only known keys and returns the full resulting set.
func (s *SiteInfoService) Update(ctx context.Context, values map[string]string) (map[string]string, error) {
	clean := make(map[string]string, len(values))
	for k, v := range values {
		if !models.IsSiteInfoKey(k) {
			return nil, fmt.Errorf("%w: chave desconhecida: %s", ErrInvalidInput, k)
		}
		clean[k] = strings.TrimSpace(v)
	}
	if len(clean) == 0 {
		return nil, fmt.Errorf("%w: nenhum campo informado", ErrInvalidInput)
	}
	if err := s.repo.SetSiteInfo(ctx, clean); err != nil {
		return nil, err
	}
	return s.repo.GetSiteInfo(ctx)
}
