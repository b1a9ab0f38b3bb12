package service

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Josephquito/back-streaming/internal/model"
	"github.com/Josephquito/back-streaming/internal/repository"
	"github.com/Josephquito/back-streaming/pkg/apperr"
)

// ReferenceService manages the catalog data the ledger core keys by:
// platforms (global) and clients (per business).
type ReferenceService struct {
	db           *gorm.DB
	log          *logrus.Logger
	platformRepo *repository.PlatformRepository
	clientRepo   *repository.ClientRepository
}

func NewReferenceService(db *gorm.DB, log *logrus.Logger) *ReferenceService {
	return &ReferenceService{
		db:           db,
		log:          log,
		platformRepo: repository.NewPlatformRepository(db),
		clientRepo:   repository.NewClientRepository(db),
	}
}

func (s *ReferenceService) CreatePlatform(ctx context.Context, name string, ident Identity) (*model.Platform, error) {
	if err := ident.RequireBusiness(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, apperr.Validationf("el nombre de la plataforma es obligatorio")
	}
	platform := &model.Platform{Name: name}
	if err := s.platformRepo.Create(ctx, platform); err != nil {
		return nil, err
	}
	return platform, nil
}

func (s *ReferenceService) ListPlatforms(ctx context.Context) ([]*model.Platform, error) {
	return s.platformRepo.List(ctx)
}

func (s *ReferenceService) CreateClient(ctx context.Context, name, phone string, ident Identity) (*model.Client, error) {
	if err := ident.RequireBusiness(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, apperr.Validationf("el nombre del cliente es obligatorio")
	}
	client := &model.Client{BusinessID: ident.BusinessID, Name: name, Phone: phone}
	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *ReferenceService) ListClients(ctx context.Context, ident Identity) ([]*model.Client, error) {
	if err := ident.RequireBusiness(); err != nil {
		return nil, err
	}
	return s.clientRepo.ListByBusiness(ctx, ident.BusinessID)
}
