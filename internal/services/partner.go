package services

import (
	"context"
	"log"

	"gorm.io/gorm"

	"harborview/internal/domain"
)

// PartnerService serves the partner carriers shown on the public site
type PartnerService struct {
	db *gorm.DB
}

// NewPartnerService creates a new partner service
func NewPartnerService(db *gorm.DB) *PartnerService {
	return &PartnerService{db: db}
}

// List returns the active partners in display order
func (s *PartnerService) List(ctx context.Context) ([]domain.Partner, error) {
	var partners []domain.Partner
	if err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Order("display_order ASC, name ASC").
		Find(&partners).Error; err != nil {
		log.Printf("[PARTNER] List failed: database error: %v", err)
		return nil, NewInternalError("failed to fetch partners", err)
	}
	return partners, nil
}
