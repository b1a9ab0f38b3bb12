package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Josephquito/back-streaming/internal/model"
	"github.com/Josephquito/back-streaming/internal/repository"
)

// SalesService is the read side of profile sales: listings and totals for a
// business. It never writes; cost attribution already happened at sale time.
type SalesService struct {
	db          *gorm.DB
	log         *logrus.Logger
	profileRepo *repository.ProfileRepository
}

func NewSalesService(db *gorm.DB, log *logrus.Logger) *SalesService {
	return &SalesService{
		db:          db,
		log:         log,
		profileRepo: repository.NewProfileRepository(db),
	}
}

type SalesFilter struct {
	From     *time.Time
	To       *time.Time
	SellerID *int64
	Active   *bool
}

type SalesReport struct {
	Sales      []*model.Profile `json:"sales"`
	Count      int              `json:"count"`
	TotalPrice decimal.Decimal  `json:"total_price"`
	TotalCost  decimal.Decimal  `json:"total_cost"`
	TotalGain  decimal.Decimal  `json:"total_gain"`
}

func (s *SalesService) Report(ctx context.Context, filter SalesFilter, ident Identity) (*SalesReport, error) {
	if err := ident.RequireBusiness(); err != nil {
		return nil, err
	}

	profiles, err := s.profileRepo.ListByBusiness(ctx, ident.BusinessID)
	if err != nil {
		return nil, err
	}

	report := &SalesReport{Sales: make([]*model.Profile, 0, len(profiles))}
	for _, p := range profiles {
		if filter.From != nil && p.SaleDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && p.SaleDate.After(*filter.To) {
			continue
		}
		if filter.SellerID != nil && p.SellerID != *filter.SellerID {
			continue
		}
		if filter.Active != nil && p.Active != *filter.Active {
			continue
		}
		report.Sales = append(report.Sales, p)
		report.TotalPrice = report.TotalPrice.Add(p.Price)
		report.TotalCost = report.TotalCost.Add(p.Cost)
		report.TotalGain = report.TotalGain.Add(p.Gain)
	}
	report.Count = len(report.Sales)
	return report, nil
}
