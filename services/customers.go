package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"crm-backend/models"
	"crm-backend/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultPageSize    = 20
	maxPageSize        = 100
	defaultSearchLimit = 10
	maxSearchLimit     = 50

	// MaxProximityScan caps how many customers a nearby query inspects.
	MaxProximityScan = 10000
)

// CustomerService owns the customer business rules. db is usually the request transaction;
// every method that writes wraps its work in db.Transaction, which nests as a savepoint.
type CustomerService struct {
	db           *gorm.DB
	geocoder     Geocoder
	countryCodes string
	log          *zap.Logger
}

func NewCustomerService(db *gorm.DB, geocoder Geocoder, countryCodes string, log *zap.Logger) *CustomerService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CustomerService{
		db:           db,
		geocoder:     geocoder,
		countryCodes: strings.ToLower(strings.TrimSpace(countryCodes)),
		log:          log,
	}
}

func (s *CustomerService) activeCustomers(ctx context.Context, companyID uint) *gorm.DB {
	return s.db.WithContext(ctx).Model(&models.Customer{}).
		Where("company_id = ? AND is_active = ?", companyID, true)
}

// CreateCustomer persists a new customer with its opening-balance items and contacts
// as one unit.
func (s *CustomerService) CreateCustomer(ctx context.Context, company *models.Company, in CustomerCreate) (*models.Customer, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, newValidationError("Customer name is required")
	}

	c := &models.Customer{
		CompanyID:          company.ID,
		Name:               name,
		DisplayName:        utils.TrimPtr(in.DisplayName),
		Email:              utils.TrimPtr(in.Email),
		Contact:            utils.TrimPtr(in.Contact),
		Mobile:             utils.TrimPtr(in.Mobile),
		Website:            utils.TrimPtr(in.Website),
		TaxNumber:          utils.TrimPtr(in.TaxNumber),
		PAN:                utils.TrimPtr(in.PAN),
		VendorCode:         utils.TrimPtr(in.VendorCode),
		Notes:              utils.TrimPtr(in.Notes),
		OpeningBalance:     in.OpeningBalance,
		OpeningBalanceType: in.OpeningBalanceType,
		OpeningBalanceMode: in.OpeningBalanceMode,
		CreditLimit:        in.CreditLimit,
		CreditDays:         in.CreditDays,

		BillingAddress:      utils.TrimPtr(in.BillingAddress),
		BillingAddressLine1: utils.TrimPtr(in.BillingAddressLine1),
		BillingAddressLine2: utils.TrimPtr(in.BillingAddressLine2),
		BillingCity:         utils.TrimPtr(in.BillingCity),
		BillingState:        utils.TrimPtr(in.BillingState),
		BillingZip:          utils.TrimPtr(in.BillingZip),
		BillingCountry:      utils.TrimPtr(in.BillingCountry),

		ShippingAddress:      utils.TrimPtr(in.ShippingAddress),
		ShippingAddressLine1: utils.TrimPtr(in.ShippingAddressLine1),
		ShippingAddressLine2: utils.TrimPtr(in.ShippingAddressLine2),
		ShippingCity:         utils.TrimPtr(in.ShippingCity),
		ShippingState:        utils.TrimPtr(in.ShippingState),
		ShippingZip:          utils.TrimPtr(in.ShippingZip),
		ShippingCountry:      utils.TrimPtr(in.ShippingCountry),

		LocationLat:     in.LocationLat,
		LocationLng:     in.LocationLng,
		LocationAddress: utils.TrimPtr(in.LocationAddress),

		CustomerType: strings.TrimSpace(in.CustomerType),
		IsActive:     true,
	}
	if c.OpeningBalanceType == "" {
		c.OpeningBalanceType = models.BalanceTypeOutstanding
	}
	if c.OpeningBalanceMode == "" {
		c.OpeningBalanceMode = models.BalanceModeSingle
	}
	if c.CustomerType == "" {
		c.CustomerType = models.DefaultCustomerType
	}

	var items []models.OpeningBalanceItem
	if c.OpeningBalanceMode == models.BalanceModeSplit {
		items = toItems(in.OpeningBalanceItems, 0)
		c.OpeningBalance = sumItems(items)
	}
	deriveBalances(c)

	s.tryGeocode(ctx, c)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := insertWithCode(tx, c); err != nil {
			return err
		}
		for i := range items {
			items[i].CustomerID = c.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		contacts := toContacts(in.ContactPersons, c.ID)
		if len(contacts) > 0 {
			if err := tx.Create(&contacts).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("customer created",
		zap.Uint("company_id", company.ID), zap.Uint("customer_id", c.ID), zap.String("code", c.Code))
	return s.GetCustomer(ctx, company, c.ID)
}

// GetCustomer loads an active customer of the company with its children.
func (s *CustomerService) GetCustomer(ctx context.Context, company *models.Company, id uint) (*models.Customer, error) {
	var c models.Customer
	err := s.db.WithContext(ctx).
		Preload("OpeningBalanceItems", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("ContactPersons", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("id = ? AND company_id = ? AND is_active = ?", id, company.ID, true).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func billingChanged(c *models.Customer, in CustomerUpdate) bool {
	pairs := []struct {
		cur *string
		upd utils.Opt[string]
	}{
		{c.BillingAddress, in.BillingAddress},
		{c.BillingAddressLine1, in.BillingAddressLine1},
		{c.BillingAddressLine2, in.BillingAddressLine2},
		{c.BillingCity, in.BillingCity},
		{c.BillingState, in.BillingState},
		{c.BillingZip, in.BillingZip},
		{c.BillingCountry, in.BillingCountry},
	}
	for _, p := range pairs {
		if p.upd.Set && utils.Deref(trimOpt(p.upd).Ptr()) != utils.Deref(p.cur) {
			return true
		}
	}
	return false
}

// trimOpt trims a present string; a blank value becomes null.
func trimOpt(o utils.Opt[string]) utils.Opt[string] {
	if !o.Present() {
		return o
	}
	v := strings.TrimSpace(o.Value)
	if v == "" {
		return utils.Null[string]()
	}
	return utils.Some(v)
}

// UpdateCustomer applies the fields present in the payload. Items and contacts, when
// supplied, replace the stored sets wholesale.
func (s *CustomerService) UpdateCustomer(ctx context.Context, c *models.Customer, in CustomerUpdate) (*models.Customer, error) {
	if in.Name.Present() && strings.TrimSpace(in.Name.Value) == "" {
		return nil, newValidationError("Customer name cannot be blank")
	}

	clearLocation := billingChanged(c, in) && !in.LocationLat.Set && !in.LocationLng.Set

	if in.Name.Present() {
		c.Name = strings.TrimSpace(in.Name.Value)
	}
	utils.ApplyNullable(&c.DisplayName, trimOpt(in.DisplayName))
	utils.ApplyNullable(&c.Email, trimOpt(in.Email))
	utils.ApplyNullable(&c.Contact, trimOpt(in.Contact))
	utils.ApplyNullable(&c.Mobile, trimOpt(in.Mobile))
	utils.ApplyNullable(&c.Website, trimOpt(in.Website))
	utils.ApplyNullable(&c.TaxNumber, trimOpt(in.TaxNumber))
	utils.ApplyNullable(&c.PAN, trimOpt(in.PAN))
	utils.ApplyNullable(&c.VendorCode, trimOpt(in.VendorCode))
	utils.ApplyNullable(&c.Notes, trimOpt(in.Notes))

	utils.ApplyValue(&c.OpeningBalance, in.OpeningBalance)
	utils.ApplyValue(&c.OpeningBalanceType, trimOpt(in.OpeningBalanceType))
	utils.ApplyValue(&c.OpeningBalanceMode, trimOpt(in.OpeningBalanceMode))
	utils.ApplyValue(&c.CreditLimit, in.CreditLimit)
	utils.ApplyValue(&c.CreditDays, in.CreditDays)
	if ct := trimOpt(in.CustomerType); ct.Present() {
		c.CustomerType = ct.Value
	}

	utils.ApplyNullable(&c.BillingAddress, trimOpt(in.BillingAddress))
	utils.ApplyNullable(&c.BillingAddressLine1, trimOpt(in.BillingAddressLine1))
	utils.ApplyNullable(&c.BillingAddressLine2, trimOpt(in.BillingAddressLine2))
	utils.ApplyNullable(&c.BillingCity, trimOpt(in.BillingCity))
	utils.ApplyNullable(&c.BillingState, trimOpt(in.BillingState))
	utils.ApplyNullable(&c.BillingZip, trimOpt(in.BillingZip))
	utils.ApplyNullable(&c.BillingCountry, trimOpt(in.BillingCountry))

	utils.ApplyNullable(&c.ShippingAddress, trimOpt(in.ShippingAddress))
	utils.ApplyNullable(&c.ShippingAddressLine1, trimOpt(in.ShippingAddressLine1))
	utils.ApplyNullable(&c.ShippingAddressLine2, trimOpt(in.ShippingAddressLine2))
	utils.ApplyNullable(&c.ShippingCity, trimOpt(in.ShippingCity))
	utils.ApplyNullable(&c.ShippingState, trimOpt(in.ShippingState))
	utils.ApplyNullable(&c.ShippingZip, trimOpt(in.ShippingZip))
	utils.ApplyNullable(&c.ShippingCountry, trimOpt(in.ShippingCountry))

	if clearLocation {
		c.LocationLat, c.LocationLng, c.LocationAddress = nil, nil, nil
	}
	utils.ApplyNullable(&c.LocationLat, in.LocationLat)
	utils.ApplyNullable(&c.LocationLng, in.LocationLng)
	utils.ApplyNullable(&c.LocationAddress, trimOpt(in.LocationAddress))

	// Explicit null on a non-nullable field (balances, items) leaves it untouched.
	balanceTouched := in.OpeningBalance.Present() || in.OpeningBalanceType.Present() ||
		in.OpeningBalanceMode.Present() || in.OpeningBalanceItems.Present()

	s.tryGeocode(ctx, c)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items []models.OpeningBalanceItem
		if in.OpeningBalanceItems.Present() {
			if err := tx.Where("customer_id = ?", c.ID).Delete(&models.OpeningBalanceItem{}).Error; err != nil {
				return err
			}
			items = toItems(in.OpeningBalanceItems.Value, c.ID)
			if len(items) > 0 {
				if err := tx.Create(&items).Error; err != nil {
					return err
				}
			}
		} else if balanceTouched && c.OpeningBalanceMode == models.BalanceModeSplit {
			if err := tx.Where("customer_id = ?", c.ID).Find(&items).Error; err != nil {
				return err
			}
		}

		if balanceTouched {
			if c.OpeningBalanceMode == models.BalanceModeSplit {
				c.OpeningBalance = sumItems(items)
			}
			deriveBalances(c)
		}

		if in.ContactPersons.Present() {
			if err := tx.Where("customer_id = ?", c.ID).Delete(&models.ContactPerson{}).Error; err != nil {
				return err
			}
			contacts := toContacts(in.ContactPersons.Value, c.ID)
			if len(contacts) > 0 {
				if err := tx.Create(&contacts).Error; err != nil {
					return err
				}
			}
		}

		return tx.Omit(clause.Associations).Save(c).Error
	})
	if err != nil {
		return nil, err
	}

	return s.GetCustomer(ctx, &models.Company{ID: c.CompanyID}, c.ID)
}

// DeleteCustomer soft-deletes the customer. Its id and code are never reused.
func (s *CustomerService) DeleteCustomer(ctx context.Context, c *models.Customer) error {
	res := s.db.WithContext(ctx).Model(&models.Customer{}).
		Where("id = ? AND company_id = ? AND is_active = ?", c.ID, c.CompanyID, true).
		Updates(map[string]any{"is_active": false, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.log.Info("customer deleted", zap.Uint("company_id", c.CompanyID), zap.Uint("customer_id", c.ID))
	return nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// likePattern builds a case-insensitive substring pattern; wildcards in q match literally.
func likePattern(q string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(q))) + "%"
}

// likeAny matches one pattern against any of cols. '!' is the escape character since a
// backslash literal is read differently by MySQL and Postgres.
func likeAny(cols ...string) string {
	conds := make([]string, len(cols))
	for i, col := range cols {
		conds[i] = "LOWER(" + col + ") LIKE ? ESCAPE '!'"
	}
	return "(" + strings.Join(conds, " OR ") + ")"
}

func repeatArg(v any, n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = v
	}
	return args
}

// GetCustomers lists active customers: substring search over identity and tax fields,
// exact customer-type filter, 1-based pagination.
func (s *CustomerService) GetCustomers(ctx context.Context, company *models.Company, f CustomerFilter) (*CustomerPage, error) {
	page := f.Page
	if page < 1 {
		page = 1
	}
	size := utils.Clamp(f.PageSize, defaultPageSize, 1, maxPageSize)

	q := s.activeCustomers(ctx, company.ID)
	if strings.TrimSpace(f.Search) != "" {
		p := likePattern(f.Search)
		cols := []string{"name", "email", "contact", "mobile", "tax_number", "pan", "vendor_code", "code"}
		q = q.Where(likeAny(cols...), repeatArg(p, len(cols))...)
	}
	if ct := strings.TrimSpace(f.CustomerType); ct != "" {
		q = q.Where("customer_type = ?", ct)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	customers := make([]models.Customer, 0)
	if err := q.Order("created_at DESC, id DESC").
		Offset((page - 1) * size).Limit(size).
		Find(&customers).Error; err != nil {
		return nil, err
	}

	return &CustomerPage{Customers: customers, Total: total, Page: page, PageSize: size}, nil
}

// SearchCustomers is the unpaginated quick search used by pickers.
func (s *CustomerService) SearchCustomers(ctx context.Context, company *models.Company, query string, limit int) ([]models.Customer, error) {
	limit = utils.Clamp(limit, defaultSearchLimit, 1, maxSearchLimit)
	customers := make([]models.Customer, 0)
	if strings.TrimSpace(query) == "" {
		return customers, nil
	}

	cols := []string{"name", "contact", "email", "tax_number", "vendor_code"}
	err := s.activeCustomers(ctx, company.ID).
		Where(likeAny(cols...), repeatArg(likePattern(query), len(cols))...).
		Order("name ASC, id ASC").
		Limit(limit).
		Find(&customers).Error
	return customers, err
}

// ListForProximity returns up to max active customers for the in-process distance filter.
func (s *CustomerService) ListForProximity(ctx context.Context, company *models.Company, max int) ([]models.Customer, error) {
	customers := make([]models.Customer, 0)
	err := s.activeCustomers(ctx, company.ID).Order("id ASC").Limit(max).Find(&customers).Error
	return customers, err
}

// GeocodeResult reports a bulk geocoding run.
type GeocodeResult struct {
	Processed int `json:"processed"`
	Updated   int `json:"updated"`
}

// GeocodeMissing geocodes up to limit active customers that have no coordinates, one at a
// time. It stops before the next customer once ctx is done; a result already looked up is
// still stored. Callers bound the run with a deadline on ctx.
func (s *CustomerService) GeocodeMissing(ctx context.Context, company *models.Company, limit int) (*GeocodeResult, error) {
	var pending []models.Customer
	if err := s.activeCustomers(ctx, company.ID).
		Where("location_lat IS NULL AND location_lng IS NULL").
		Order("id ASC").Limit(limit).
		Find(&pending).Error; err != nil {
		return nil, err
	}

	res := &GeocodeResult{}
	for i := range pending {
		if ctx.Err() != nil {
			break
		}
		c := &pending[i]
		res.Processed++
		if !s.tryGeocode(ctx, c) {
			continue
		}
		// s.db carries the request context, so this write survives ctx expiring.
		if err := s.db.Model(&models.Customer{}).Where("id = ?", c.ID).
			Updates(map[string]any{
				"location_lat":     c.LocationLat,
				"location_lng":     c.LocationLng,
				"location_address": c.LocationAddress,
				"updated_at":       time.Now(),
			}).Error; err != nil {
			return nil, err
		}
		res.Updated++
	}

	s.log.Info("geocode missing finished",
		zap.Uint("company_id", company.ID), zap.Int("processed", res.Processed), zap.Int("updated", res.Updated))
	return res, nil
}
