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
)

// AccountService owns the account lifecycle. Every mutation that changes how
// many slots are sellable drives the inventory ledger inside the same
// transaction: full capacity enters on creation, available capacity leaves on
// disable/removal and re-enters on enable.
type AccountService struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cfg          *config.Config
	log          *logrus.Logger
	accountRepo  *repository.AccountRepository
	profileRepo  *repository.ProfileRepository
	platformRepo *repository.PlatformRepository
	inventory    *InventoryService
}

func NewAccountService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, log *logrus.Logger) *AccountService {
	return &AccountService{
		db:           db,
		redisClient:  redisClient,
		cfg:          cfg,
		log:          log,
		accountRepo:  repository.NewAccountRepository(db),
		profileRepo:  repository.NewProfileRepository(db),
		platformRepo: repository.NewPlatformRepository(db),
		inventory:    NewInventoryService(db, redisClient, cfg, log),
	}
}

type CreateAccountInput struct {
	Login        string
	Secret       string
	Provider     string
	PurchaseDate time.Time
	AssignedTime string
	TotalCost    decimal.Decimal
	SlotCount    int
	PlatformID   int64
	Disabled     bool
}

type UpdateAccountInput struct {
	Login        *string
	Secret       *string
	Provider     *string
	PurchaseDate *time.Time
	AssignedTime *string
	TotalCost    *decimal.Decimal
	SlotCount    *int
	Disabled     *bool
}

// AccountSummary decorates an account with its current slot usage.
type AccountSummary struct {
	*model.Account
	SoldProfiles   int `json:"sold_profiles"`
	AvailableSlots int `json:"available_slots"`
}

func (s *AccountService) Create(ctx context.Context, in CreateAccountInput, ident Identity) (*model.Account, error) {
	if err := ident.RequireBusiness(); err != nil {
		return nil, err
	}
	if in.SlotCount < 1 {
		return nil, apperr.Validationf("el número de perfiles debe ser al menos 1")
	}
	if in.TotalCost.IsNegative() {
		return nil, apperr.Validationf("el costo total no puede ser negativo")
	}

	platform, err := s.platformRepo.GetByID(ctx, in.PlatformID)
	if err != nil {
		return nil, err
	}
	if platform == nil {
		return nil, apperr.NotFoundf("plataforma no encontrada")
	}

	exists, err := s.accountRepo.ExistsIdentity(ctx, in.Login, in.PlatformID, ident.BusinessID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflictf("ya existe una cuenta con el correo %s en esta plataforma para tu negocio", in.Login)
	}

	days := duration.Days(in.AssignedTime)
	account := &model.Account{
		Login:        in.Login,
		Secret:       in.Secret,
		Provider:     in.Provider,
		PurchaseDate: in.PurchaseDate,
		AssignedTime: in.AssignedTime,
		CutoffDate:   in.PurchaseDate.AddDate(0, 0, days),
		TotalCost:    in.TotalCost,
		SlotCount:    in.SlotCount,
		PlatformID:   in.PlatformID,
		BusinessID:   ident.BusinessID,
		Disabled:     in.Disabled,
	}

	err = withLedgerLock(ctx, s.db, s.redisClient, in.PlatformID, ident.BusinessID, func(tx *gorm.DB) error {
		if err := s.accountRepo.Create(ctx, tx, account); err != nil {
			return err
		}
		_, err := s.inventory.Entry(ctx, tx, EntryInput{
			PlatformID:  account.PlatformID,
			BusinessID:  account.BusinessID,
			Qty:         account.SlotCount,
			TotalCost:   account.TotalCost,
			Description: fmt.Sprintf("Compra de cuenta %q (%d perfiles)", account.Login, account.SlotCount),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"account_id":  account.ID,
		"platform_id": account.PlatformID,
		"business_id": account.BusinessID,
		"slots":       account.SlotCount,
	}).Info("cuenta creada")

	return account, nil
}

// Update patches the account, recomputes the cutoff date and keeps the
// ledger and the sold profiles consistent: a cost or slot-count change
// rewrites every sold profile's cost and gain, and toggling the disabled
// flag moves the available capacity out of or back into the ledger.
func (s *AccountService) Update(ctx context.Context, id int64, in UpdateAccountInput, ident Identity) (*model.Account, error) {
	if err := ident.RequireBusiness(); err != nil {
		return nil, err
	}

	account, err := s.accountRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, apperr.NotFoundf("cuenta no encontrada")
	}
	if account.BusinessID != ident.BusinessID {
		return nil, apperr.Forbiddenf("no tienes acceso a esta cuenta")
	}

	wasDisabled := account.Disabled

	if in.Login != nil {
		account.Login = *in.Login
	}
	if in.Secret != nil {
		account.Secret = *in.Secret
	}
	if in.Provider != nil {
		account.Provider = *in.Provider
	}
	if in.PurchaseDate != nil {
		account.PurchaseDate = *in.PurchaseDate
	}
	if in.AssignedTime != nil {
		account.AssignedTime = *in.AssignedTime
	}
	if in.TotalCost != nil {
		if in.TotalCost.IsNegative() {
			return nil, apperr.Validationf("el costo total no puede ser negativo")
		}
		account.TotalCost = *in.TotalCost
	}
	if in.SlotCount != nil {
		if *in.SlotCount < 1 {
			return nil, apperr.Validationf("el número de perfiles debe ser al menos 1")
		}
		account.SlotCount = *in.SlotCount
	}
	if in.Disabled != nil {
		account.Disabled = *in.Disabled
	}

	account.CutoffDate = account.PurchaseDate.AddDate(0, 0, duration.Days(account.AssignedTime))

	costChanged := in.TotalCost != nil || in.SlotCount != nil
	willDisabled := account.Disabled

	err = withLedgerLock(ctx, s.db, s.redisClient, account.PlatformID, account.BusinessID, func(tx *gorm.DB) error {
		sold, err := s.profileRepo.ListActiveByAccount(ctx, tx, account.ID)
		if err != nil {
			return err
		}

		if err := s.accountRepo.Save(ctx, tx, account); err != nil {
			return err
		}

		// Deliberate cascade: an in-place cost edit rewrites the unit cost
		// and gain of every profile already sold out of this account.
		if costChanged {
			unitCost := account.UnitCost()
			for _, p := range sold {
				p.Cost = unitCost
				p.Gain = p.Price.Sub(unitCost)
				if err := s.profileRepo.Save(ctx, tx, p); err != nil {
					return err
				}
			}
		}

		available := account.SlotCount - len(sold)
		if available <= 0 {
			return nil
		}

		if wasDisabled && !willDisabled {
			cost := account.TotalCost.
				Mul(decimal.NewFromInt(int64(available))).
				DivRound(decimal.NewFromInt(int64(account.SlotCount)), 2)
			_, err := s.inventory.Entry(ctx, tx, EntryInput{
				PlatformID:  account.PlatformID,
				BusinessID:  account.BusinessID,
				Qty:         available,
				TotalCost:   cost,
				Description: fmt.Sprintf("Habilitación de cuenta %q", account.Login),
			})
			return err
		}

		if !wasDisabled && willDisabled {
			_, err := s.inventory.Exit(ctx, tx, ExitInput{
				PlatformID:  account.PlatformID,
				BusinessID:  account.BusinessID,
				Qty:         available,
				Description: fmt.Sprintf("Inhabilitación de cuenta %q", account.Login),
			})
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// Remove deletes an account. Deletion is refused while profiles remain sold
// out of it; that keeps the historical profile rows attached to a real
// account until they are deactivated.
func (s *AccountService) Remove(ctx context.Context, id int64, ident Identity) error {
	if err := ident.RequireBusiness(); err != nil {
		return err
	}

	account, err := s.accountRepo.GetByID(ctx, nil, id)
	if err != nil {
		return err
	}
	if account == nil {
		return apperr.NotFoundf("cuenta no encontrada")
	}
	if account.BusinessID != ident.BusinessID {
		return apperr.Forbiddenf("no tienes acceso a esta cuenta")
	}

	return withLedgerLock(ctx, s.db, s.redisClient, account.PlatformID, account.BusinessID, func(tx *gorm.DB) error {
		soldCount, err := s.profileRepo.CountActiveByAccount(ctx, tx, account.ID)
		if err != nil {
			return err
		}
		if soldCount > 0 {
			return apperr.Conflictf("la cuenta aún tiene %d perfiles vendidos; desocúpalos antes de eliminarla", soldCount)
		}

		available := account.SlotCount - soldCount
		if !account.Disabled && available > 0 {
			_, err := s.inventory.Exit(ctx, tx, ExitInput{
				PlatformID:  account.PlatformID,
				BusinessID:  account.BusinessID,
				Qty:         available,
				Description: fmt.Sprintf("Eliminación de cuenta %q", account.Login),
			})
			if err != nil {
				return err
			}
		}

		return s.accountRepo.Delete(ctx, tx, account)
	})
}

func (s *AccountService) Get(ctx context.Context, id int64, ident Identity) (*AccountSummary, error) {
	if err := ident.RequireBusiness(); err != nil {
		return nil, err
	}

	account, err := s.accountRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if account == nil || account.BusinessID != ident.BusinessID {
		return nil, apperr.NotFoundf("cuenta no encontrada en tu negocio")
	}

	sold, err := s.profileRepo.CountActiveByAccount(ctx, nil, account.ID)
	if err != nil {
		return nil, err
	}
	return &AccountSummary{Account: account, SoldProfiles: sold, AvailableSlots: account.SlotCount - sold}, nil
}

func (s *AccountService) List(ctx context.Context, ident Identity) ([]*AccountSummary, error) {
	if err := ident.RequireBusiness(); err != nil {
		return nil, err
	}

	accounts, err := s.accountRepo.ListByBusiness(ctx, ident.BusinessID)
	if err != nil {
		return nil, err
	}

	summaries := make([]*AccountSummary, 0, len(accounts))
	for _, account := range accounts {
		sold, err := s.profileRepo.CountActiveByAccount(ctx, nil, account.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, &AccountSummary{
			Account:        account,
			SoldProfiles:   sold,
			AvailableSlots: account.SlotCount - sold,
		})
	}
	return summaries, nil
}

// FindAvailableForReplacement lists donor candidates for a platform.
func (s *AccountService) FindAvailableForReplacement(ctx context.Context, platformID int64, ident Identity) ([]*model.Account, error) {
	if err := ident.RequireBusiness(); err != nil {
		return nil, err
	}
	return s.accountRepo.FindAvailableForReplacement(ctx, nil, ident.BusinessID, platformID, 0, time.Now())
}
