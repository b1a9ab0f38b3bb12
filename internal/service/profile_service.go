package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Josephquito/back-streaming/internal/config"
	"github.com/Josephquito/back-streaming/internal/model"
	"github.com/Josephquito/back-streaming/internal/repository"
	"github.com/Josephquito/back-streaming/pkg/apperr"
	"github.com/Josephquito/back-streaming/pkg/duration"
	"github.com/Josephquito/back-streaming/pkg/idgen"
)

// ProfileService sells slots out of accounts and takes them back. A sale
// captures the ledger's current average cost once; deactivation returns the
// slot to the ledger at that recorded cost.
type ProfileService struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cfg          *config.Config
	log          *logrus.Logger
	accountRepo  *repository.AccountRepository
	profileRepo  *repository.ProfileRepository
	clientRepo   *repository.ClientRepository
	platformRepo *repository.PlatformRepository
	inventory    *InventoryService
}

func NewProfileService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, log *logrus.Logger) *ProfileService {
	return &ProfileService{
		db:           db,
		redisClient:  redisClient,
		cfg:          cfg,
		log:          log,
		accountRepo:  repository.NewAccountRepository(db),
		profileRepo:  repository.NewProfileRepository(db),
		clientRepo:   repository.NewClientRepository(db),
		platformRepo: repository.NewPlatformRepository(db),
		inventory:    NewInventoryService(db, redisClient, cfg, log),
	}
}

type SellProfileInput struct {
	AccountID    int64
	ClientID     int64
	Price        decimal.Decimal
	AssignedTime string
	SaleDate     time.Time
}

type UpdateProfileInput struct {
	ClientID     *int64
	Price        *decimal.Decimal
	AssignedTime *string
	SaleDate     *time.Time
}

// Sell assigns one slot of the account to a client. The profile's cost is
// the platform's current average cost, captured here and never recomputed
// by later entries or exits.
func (s *ProfileService) Sell(ctx context.Context, in SellProfileInput, ident Identity) (*model.Profile, error) {
	if err := ident.RequireBusiness(); err != nil {
		return nil, err
	}
	if in.Price.IsNegative() {
		return nil, apperr.Validationf("el precio no puede ser negativo")
	}

	account, err := s.accountRepo.GetByID(ctx, nil, in.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, apperr.NotFoundf("cuenta no encontrada")
	}
	if account.BusinessID != ident.BusinessID {
		return nil, apperr.Forbiddenf("no tienes acceso a esta cuenta")
	}
	if account.Disabled {
		return nil, apperr.Conflictf("la cuenta está inhabilitada")
	}

	client, err := s.clientRepo.GetByID(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}
	if client == nil || client.BusinessID != ident.BusinessID {
		return nil, apperr.NotFoundf("cliente no encontrado")
	}

	days := duration.Days(in.AssignedTime)
	cutoff := in.SaleDate.AddDate(0, 0, days)

	var profile *model.Profile
	err = withLedgerLock(ctx, s.db, s.redisClient, account.PlatformID, account.BusinessID, func(tx *gorm.DB) error {
		sold, err := s.profileRepo.CountActiveByAccount(ctx, tx, account.ID)
		if err != nil {
			return err
		}
		if sold >= account.SlotCount {
			return apperr.Forbiddenf("la cuenta ya alcanzó el máximo de perfiles permitidos (%d)", account.SlotCount)
		}

		stock, err := s.inventory.stockRepo.GetForKey(ctx, tx, account.PlatformID, account.BusinessID)
		if err != nil {
			return err
		}
		if stock == nil || stock.Stock <= 0 {
			return apperr.Conflictf("no hay stock disponible para esta plataforma")
		}

		cost := stock.AvgCost.Round(2)
		accountID := account.ID
		profile = &model.Profile{
			SaleNo:       idgen.GenerateSaleNo(),
			AccountID:    &accountID,
			BusinessID:   account.BusinessID,
			ClientID:     client.ID,
			SellerID:     ident.UserID,
			AssignedTime: in.AssignedTime,
			SaleDate:     in.SaleDate,
			CutoffDate:   &cutoff,
			Price:        in.Price,
			Cost:         cost,
			Gain:         in.Price.Sub(cost),
			Active:       true,
		}
		if err := s.profileRepo.Create(ctx, tx, profile); err != nil {
			return err
		}

		_, err = s.inventory.Exit(ctx, tx, ExitInput{
			PlatformID:  account.PlatformID,
			BusinessID:  account.BusinessID,
			Qty:         1,
			Description: fmt.Sprintf("Perfil de %q vendido a %q", account.Login, client.Name),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"profile_id": profile.ID,
		"sale_no":    profile.SaleNo,
		"account_id": account.ID,
		"client_id":  client.ID,
	}).Info("perfil vendido")

	return profile, nil
}

// Deactivate frees a sold slot. The slot re-enters the ledger at the cost
// recorded at its sale, which pulls the moving average back toward that
// value. The profile survives as a historical row: it detaches from the
// account and keeps a snapshot of the login and platform name.
func (s *ProfileService) Deactivate(ctx context.Context, profileID int64, ident Identity) (*model.Profile, error) {
	if err := ident.RequireBusiness(); err != nil {
		return nil, err
	}

	profile, err := s.profileRepo.GetByID(ctx, nil, profileID)
	if err != nil {
		return nil, err
	}
	if profile == nil || profile.BusinessID != ident.BusinessID {
		return nil, apperr.NotFoundf("perfil no encontrado")
	}
	if !profile.Active || profile.AccountID == nil {
		return nil, apperr.Conflictf("el perfil ya está desocupado")
	}

	account, err := s.accountRepo.GetByID(ctx, nil, *profile.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, apperr.NotFoundf("cuenta no encontrada")
	}

	platform, err := s.platformRepo.GetByID(ctx, account.PlatformID)
	if err != nil {
		return nil, err
	}
	platformName := ""
	if platform != nil {
		platformName = platform.Name
	}

	err = withLedgerLock(ctx, s.db, s.redisClient, account.PlatformID, account.BusinessID, func(tx *gorm.DB) error {
		if _, err := s.inventory.Entry(ctx, tx, EntryInput{
			PlatformID:  account.PlatformID,
			BusinessID:  account.BusinessID,
			Qty:         1,
			TotalCost:   profile.Cost,
			Description: fmt.Sprintf("Perfil de %q desocupado", account.Login),
		}); err != nil {
			return err
		}

		now := time.Now()
		profile.Active = false
		profile.CutoffDate = nil
		profile.DeactivatedAt = &now
		profile.AccountLogin = account.Login
		profile.PlatformName = platformName
		profile.AccountID = nil
		return s.profileRepo.Save(ctx, tx, profile)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"profile_id": profile.ID, "account_id": account.ID}).Info("perfil desocupado")
	return profile, nil
}

// Update edits the commercial terms of an active profile. Price changes
// recompute the gain against the recorded cost; duration or sale-date
// changes recompute the cutoff.
func (s *ProfileService) Update(ctx context.Context, profileID int64, in UpdateProfileInput, ident Identity) (*model.Profile, error) {
	if err := ident.RequireBusiness(); err != nil {
		return nil, err
	}

	profile, err := s.profileRepo.GetByID(ctx, nil, profileID)
	if err != nil {
		return nil, err
	}
	if profile == nil || profile.BusinessID != ident.BusinessID {
		return nil, apperr.NotFoundf("perfil no encontrado")
	}
	if !profile.Active {
		return nil, apperr.Conflictf("el perfil ya está desocupado")
	}

	if in.ClientID != nil {
		client, err := s.clientRepo.GetByID(ctx, *in.ClientID)
		if err != nil {
			return nil, err
		}
		if client == nil || client.BusinessID != ident.BusinessID {
			return nil, apperr.NotFoundf("cliente no encontrado")
		}
		profile.ClientID = client.ID
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, apperr.Validationf("el precio no puede ser negativo")
		}
		profile.Price = *in.Price
		profile.Gain = profile.Price.Sub(profile.Cost)
	}
	if in.SaleDate != nil {
		profile.SaleDate = *in.SaleDate
	}
	if in.AssignedTime != nil {
		profile.AssignedTime = *in.AssignedTime
	}
	if in.SaleDate != nil || in.AssignedTime != nil {
		cutoff := profile.SaleDate.AddDate(0, 0, duration.Days(profile.AssignedTime))
		profile.CutoffDate = &cutoff
	}

	if err := s.profileRepo.Save(ctx, nil, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *ProfileService) Get(ctx context.Context, profileID int64, ident Identity) (*model.Profile, error) {
	if err := ident.RequireBusiness(); err != nil {
		return nil, err
	}
	profile, err := s.profileRepo.GetByID(ctx, nil, profileID)
	if err != nil {
		return nil, err
	}
	if profile == nil || profile.BusinessID != ident.BusinessID {
		return nil, apperr.NotFoundf("perfil no encontrado")
	}
	return profile, nil
}

func (s *ProfileService) ListByAccount(ctx context.Context, accountID int64, ident Identity) ([]*model.Profile, error) {
	if err := ident.RequireBusiness(); err != nil {
		return nil, err
	}
	account, err := s.accountRepo.GetByID(ctx, nil, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil || account.BusinessID != ident.BusinessID {
		return nil, apperr.NotFoundf("cuenta no encontrada")
	}
	return s.profileRepo.ListActiveByAccount(ctx, nil, accountID)
}

func (s *ProfileService) ListByBusiness(ctx context.Context, ident Identity) ([]*model.Profile, error) {
	if err := ident.RequireBusiness(); err != nil {
		return nil, err
	}
	return s.profileRepo.ListByBusiness(ctx, ident.BusinessID)
}
