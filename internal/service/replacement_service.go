package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Josephquito/back-streaming/internal/config"
	"github.com/Josephquito/back-streaming/internal/model"
	"github.com/Josephquito/back-streaming/internal/repository"
	"github.com/Josephquito/back-streaming/pkg/apperr"
	"github.com/Josephquito/back-streaming/pkg/duration"
)

// Replacement modes for a failing account.
const (
	ModeCredentialRotation = "CREDENTIAL_ROTATION"
	ModeFreshPurchase      = "FRESH_PURCHASE"
	ModeDonorSwap          = "DONOR_SWAP"
)

// CredentialRotationInput carries the new credentials handed over by the
// provider. The account keeps its cost basis and its ledger position.
type CredentialRotationInput struct {
	Login  string `json:"login" binding:"required"`
	Secret string `json:"secret" binding:"required"`
}

// FreshPurchaseInput retires the failing account's cost basis and
// re-establishes it from a brand new purchase.
type FreshPurchaseInput struct {
	Login        string          `json:"login" binding:"required"`
	Secret       string          `json:"secret" binding:"required"`
	Provider     string          `json:"provider"`
	PurchaseDate time.Time       `json:"purchase_date" binding:"required"`
	AssignedTime string          `json:"assigned_time" binding:"required"`
	TotalCost    decimal.Decimal `json:"total_cost"`
}

// DonorSwapInput selects an idle account whose data replaces the failing
// one. DonorID zero lets the coordinator pick any eligible donor.
type DonorSwapInput struct {
	DonorID int64 `json:"donor_id"`
}

// ReplaceInput is a tagged variant: Mode decides which payload is read.
type ReplaceInput struct {
	Mode     string                   `json:"mode" binding:"required"`
	Rotation *CredentialRotationInput `json:"rotation,omitempty"`
	Fresh    *FreshPurchaseInput      `json:"fresh,omitempty"`
	Donor    *DonorSwapInput          `json:"donor,omitempty"`
}

// ReplacementService orchestrates the three account replacement protocols.
// Every mode runs as one transaction under the ledger lock of the failing
// account's (platform, business) key; a failure at any step leaves no
// partial writes behind.
type ReplacementService struct {
	db          *gorm.DB
	redisClient *redis.Client
	cfg         *config.Config
	log         *logrus.Logger
	accountRepo *repository.AccountRepository
	profileRepo *repository.ProfileRepository
	inventory   *InventoryService
}

func NewReplacementService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, log *logrus.Logger) *ReplacementService {
	return &ReplacementService{
		db:          db,
		redisClient: redisClient,
		cfg:         cfg,
		log:         log,
		accountRepo: repository.NewAccountRepository(db),
		profileRepo: repository.NewProfileRepository(db),
		inventory:   NewInventoryService(db, redisClient, cfg, log),
	}
}

func (s *ReplacementService) Replace(ctx context.Context, accountID int64, in ReplaceInput, ident Identity) (*model.Account, error) {
	if err := ident.RequireBusiness(); err != nil {
		return nil, err
	}

	account, err := s.accountRepo.GetByID(ctx, nil, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil || account.BusinessID != ident.BusinessID {
		return nil, apperr.NotFoundf("cuenta original no encontrada")
	}

	switch in.Mode {
	case ModeCredentialRotation:
		return s.rotateCredentials(ctx, account, in.Rotation)
	case ModeFreshPurchase:
		return s.freshPurchase(ctx, account, in.Fresh)
	case ModeDonorSwap:
		return s.donorSwap(ctx, account, in.Donor)
	default:
		return nil, apperr.Validationf("tipo de reemplazo desconocido: %s", in.Mode)
	}
}

// rotateCredentials overwrites login and secret in place. The ledger is not
// touched: capacity and cost basis are unchanged.
func (s *ReplacementService) rotateCredentials(ctx context.Context, account *model.Account, in *CredentialRotationInput) (*model.Account, error) {
	if in == nil {
		return nil, apperr.Validationf("faltan las credenciales nuevas para la rotación")
	}

	if in.Login != account.Login {
		exists, err := s.accountRepo.ExistsIdentity(ctx, in.Login, account.PlatformID, account.BusinessID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, apperr.Conflictf("ya existe una cuenta con el correo %s en esta plataforma para tu negocio", in.Login)
		}
	}

	account.Login = in.Login
	account.Secret = in.Secret
	if err := s.accountRepo.Save(ctx, nil, account); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"account_id": account.ID, "mode": ModeCredentialRotation}).Info("cuenta reemplazada")
	return account, nil
}

// freshPurchase retires the whole cost basis of the failing account and
// re-establishes it from the new purchase: the full slot count leaves the
// ledger at the old average and re-enters at the new cost. Profiles already
// sold keep the cost captured at their sale.
func (s *ReplacementService) freshPurchase(ctx context.Context, account *model.Account, in *FreshPurchaseInput) (*model.Account, error) {
	if in == nil {
		return nil, apperr.Validationf("faltan los datos de la compra nueva")
	}
	if in.TotalCost.IsNegative() {
		return nil, apperr.Validationf("el costo total no puede ser negativo")
	}

	err := withLedgerLock(ctx, s.db, s.redisClient, account.PlatformID, account.BusinessID, func(tx *gorm.DB) error {
		account.Disabled = true
		if err := s.accountRepo.Save(ctx, tx, account); err != nil {
			return err
		}

		if _, err := s.inventory.Exit(ctx, tx, ExitInput{
			PlatformID:  account.PlatformID,
			BusinessID:  account.BusinessID,
			Qty:         account.SlotCount,
			Description: fmt.Sprintf("Reemplazo de cuenta %q (compra nueva)", account.Login),
		}); err != nil {
			return err
		}

		account.Login = in.Login
		account.Secret = in.Secret
		account.Provider = in.Provider
		account.PurchaseDate = in.PurchaseDate
		account.AssignedTime = in.AssignedTime
		account.CutoffDate = in.PurchaseDate.AddDate(0, 0, duration.Days(in.AssignedTime))
		account.TotalCost = in.TotalCost
		account.Disabled = false
		if err := s.accountRepo.Save(ctx, tx, account); err != nil {
			return err
		}

		_, err := s.inventory.Entry(ctx, tx, EntryInput{
			PlatformID:  account.PlatformID,
			BusinessID:  account.BusinessID,
			Qty:         account.SlotCount,
			TotalCost:   account.TotalCost,
			Description: fmt.Sprintf("Reemplazo de cuenta %q (compra nueva)", account.Login),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"account_id": account.ID, "mode": ModeFreshPurchase}).Info("cuenta reemplazada")
	return account, nil
}

// donorSwap substitutes the failing account's operational data with an idle
// donor's. The swap conserves total platform stock: only the failing
// account's prior capacity exits, the donor's capacity was already counted
// and gets no entry. The donor ends up disabled, holding the failing
// account's original data.
func (s *ReplacementService) donorSwap(ctx context.Context, account *model.Account, in *DonorSwapInput) (*model.Account, error) {
	if in == nil {
		in = &DonorSwapInput{}
	}

	err := withLedgerLock(ctx, s.db, s.redisClient, account.PlatformID, account.BusinessID, func(tx *gorm.DB) error {
		donor, err := s.pickDonor(ctx, tx, account, in.DonorID)
		if err != nil {
			return err
		}

		original := struct {
			Login        string
			Secret       string
			Provider     string
			PurchaseDate time.Time
			CutoffDate   time.Time
			AssignedTime string
			TotalCost    decimal.Decimal
			SlotCount    int
		}{
			Login:        account.Login,
			Secret:       account.Secret,
			Provider:     account.Provider,
			PurchaseDate: account.PurchaseDate,
			CutoffDate:   account.CutoffDate,
			AssignedTime: account.AssignedTime,
			TotalCost:    account.TotalCost,
			SlotCount:    account.SlotCount,
		}
		donorLogin := donor.Login

		// The temporary login frees the donor's real login from the
		// identity uniqueness constraint before it moves over.
		donor.Login = fmt.Sprintf("tmp-%s@temporal.com", uuid.NewString())
		if err := s.accountRepo.Save(ctx, tx, donor); err != nil {
			return err
		}

		if _, err := s.inventory.Exit(ctx, tx, ExitInput{
			PlatformID:  account.PlatformID,
			BusinessID:  account.BusinessID,
			Qty:         original.SlotCount,
			Description: fmt.Sprintf("Reemplazo de cuenta %q (cuenta existente)", original.Login),
		}); err != nil {
			return err
		}

		// The failing row takes the donor's data so its sold profiles stay
		// attached under the same account identity.
		account.Login = donorLogin
		account.Secret = donor.Secret
		account.Provider = donor.Provider
		account.PurchaseDate = donor.PurchaseDate
		account.CutoffDate = donor.CutoffDate
		account.AssignedTime = donor.AssignedTime
		account.TotalCost = donor.TotalCost
		account.SlotCount = donor.SlotCount
		account.Disabled = false
		if err := s.accountRepo.Save(ctx, tx, account); err != nil {
			return err
		}

		donor.Login = original.Login
		donor.Secret = original.Secret
		donor.Provider = original.Provider
		donor.PurchaseDate = original.PurchaseDate
		donor.CutoffDate = original.CutoffDate
		donor.AssignedTime = original.AssignedTime
		donor.TotalCost = original.TotalCost
		donor.SlotCount = original.SlotCount
		donor.Disabled = true
		return s.accountRepo.Save(ctx, tx, donor)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"account_id": account.ID, "mode": ModeDonorSwap}).Info("cuenta reemplazada")
	return account, nil
}

// pickDonor validates an explicit donor or auto-selects the first eligible
// one. Eligible means same platform and business, enabled, unexpired and
// with zero sold profiles.
func (s *ReplacementService) pickDonor(ctx context.Context, tx *gorm.DB, account *model.Account, donorID int64) (*model.Account, error) {
	if donorID == 0 {
		candidates, err := s.accountRepo.FindAvailableForReplacement(ctx, tx, account.BusinessID, account.PlatformID, account.ID, time.Now())
		if err != nil {
			return nil, err
		}
		if len(candidates) == 0 {
			return nil, apperr.Conflictf("no hay cuentas disponibles en inventario para el reemplazo")
		}
		return candidates[0], nil
	}

	donor, err := s.accountRepo.GetByID(ctx, tx, donorID)
	if err != nil {
		return nil, err
	}
	if donor == nil || donor.BusinessID != account.BusinessID || donor.Disabled {
		return nil, apperr.NotFoundf("cuenta existente no válida")
	}
	if donor.PlatformID != account.PlatformID {
		return nil, apperr.Validationf("la cuenta existente pertenece a otra plataforma")
	}
	if donor.ID == account.ID {
		return nil, apperr.Validationf("la cuenta existente no puede ser la misma cuenta a reemplazar")
	}
	if !donor.CutoffDate.After(time.Now()) {
		return nil, apperr.Conflictf("la cuenta existente ya está vencida")
	}
	sold, err := s.profileRepo.CountActiveByAccount(ctx, tx, donor.ID)
	if err != nil {
		return nil, err
	}
	if sold > 0 {
		return nil, apperr.Conflictf("la cuenta existente ya tiene perfiles asignados")
	}
	return donor, nil
}
