package services

import (
	"context"

	"crm-backend/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const recentCustomers = 5

// StatsService computes dashboard aggregates over active customers.
type StatsService struct {
	db *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

type Summary struct {
	TotalCustomers   int64             `json:"total_customers"`
	TotalOutstanding decimal.Decimal   `json:"total_outstanding"`
	TotalAdvance     decimal.Decimal   `json:"total_advance"`
	RecentCustomers  []models.Customer `json:"recent_customers"`
}

type StateCount struct {
	State string `json:"state"`
	Count int64  `json:"count"`
}

type TopCustomers struct {
	Period    string            `json:"period"`
	Customers []models.Customer `json:"customers"`
}

func (s *StatsService) active(ctx context.Context, companyID uint) *gorm.DB {
	return s.db.WithContext(ctx).Model(&models.Customer{}).
		Where("company_id = ? AND is_active = ?", companyID, true)
}

func (s *StatsService) Summary(ctx context.Context, company *models.Company) (*Summary, error) {
	out := &Summary{RecentCustomers: make([]models.Customer, 0)}
	if err := s.active(ctx, company.ID).Count(&out.TotalCustomers).Error; err != nil {
		return nil, err
	}

	var sums struct {
		Outstanding decimal.NullDecimal
		Advance     decimal.NullDecimal
	}
	if err := s.active(ctx, company.ID).
		Select("SUM(outstanding_balance) AS outstanding, SUM(advance_balance) AS advance").
		Scan(&sums).Error; err != nil {
		return nil, err
	}
	out.TotalOutstanding = decimal.Zero
	if sums.Outstanding.Valid {
		out.TotalOutstanding = sums.Outstanding.Decimal
	}
	out.TotalAdvance = decimal.Zero
	if sums.Advance.Valid {
		out.TotalAdvance = sums.Advance.Decimal
	}

	if err := s.active(ctx, company.ID).
		Order("created_at DESC, id DESC").Limit(recentCustomers).
		Find(&out.RecentCustomers).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ByState counts active customers per billing state; customers without a state share "".
func (s *StatsService) ByState(ctx context.Context, company *models.Company) ([]StateCount, error) {
	rows := make([]StateCount, 0)
	err := s.active(ctx, company.ID).
		Select("COALESCE(billing_state, '') AS state, COUNT(*) AS count").
		Group("COALESCE(billing_state, '')").
		Order("COUNT(*) DESC, state ASC").
		Scan(&rows).Error
	return rows, err
}

// TopCustomers ranks customers by positive outstanding balance. period is reported back
// but does not filter: the ranking is always all-time.
func (s *StatsService) TopCustomers(ctx context.Context, company *models.Company, limit int, period string) (*TopCustomers, error) {
	if limit <= 0 {
		limit = 10
	}
	if period == "" {
		period = "all"
	}
	out := &TopCustomers{Period: period, Customers: make([]models.Customer, 0)}
	err := s.active(ctx, company.ID).
		Where("outstanding_balance > ?", 0).
		Order("outstanding_balance DESC, id ASC").
		Limit(limit).
		Find(&out.Customers).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
