package services

import (
	"context"
	"encoding/json"
	"testing"

	"crm-backend/geocoding"
	"crm-backend/models"
	"crm-backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCreateCustomer_DefaultsAndCodes(t *testing.T) {
	db := newTestDB(t)
	company := newCompany(t, db, "Acme")
	svc := NewCustomerService(db, nil, "", nil)
	ctx := context.Background()

	first, err := svc.CreateCustomer(ctx, company, CustomerCreate{Name: "  Ravi Traders ", OpeningBalance: dec("1200.50")})
	require.NoError(t, err)
	assert.Equal(t, "CUST-001", first.Code)
	assert.Equal(t, "Ravi Traders", first.Name)
	assert.Equal(t, models.BalanceTypeOutstanding, first.OpeningBalanceType)
	assert.Equal(t, models.BalanceModeSingle, first.OpeningBalanceMode)
	assert.Equal(t, models.DefaultCustomerType, first.CustomerType)
	assert.True(t, first.IsActive)
	requireDecimal(t, "1200.50", first.OutstandingBalance)
	requireDecimal(t, "0", first.AdvanceBalance)

	second, err := svc.CreateCustomer(ctx, company, CustomerCreate{
		Name:               "Prepaid Co",
		OpeningBalance:     dec("300"),
		OpeningBalanceType: models.BalanceTypeAdvance,
	})
	require.NoError(t, err)
	assert.Equal(t, "CUST-002", second.Code)
	requireDecimal(t, "0", second.OutstandingBalance)
	requireDecimal(t, "300", second.AdvanceBalance)
}

func TestCreateCustomer_BlankNameRejected(t *testing.T) {
	db := newTestDB(t)
	company := newCompany(t, db, "Acme")

	_, err := NewCustomerService(db, nil, "", nil).CreateCustomer(context.Background(), company, CustomerCreate{Name: "   "})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Customer name is required", ve.Message)
}

func TestCreateCustomer_CodesArePerCompany(t *testing.T) {
	db := newTestDB(t)
	a := newCompany(t, db, "A")
	b := newCompany(t, db, "B")
	svc := NewCustomerService(db, nil, "", nil)

	ca, err := svc.CreateCustomer(context.Background(), a, CustomerCreate{Name: "one"})
	require.NoError(t, err)
	cb, err := svc.CreateCustomer(context.Background(), b, CustomerCreate{Name: "one"})
	require.NoError(t, err)

	assert.Equal(t, "CUST-001", ca.Code)
	assert.Equal(t, "CUST-001", cb.Code)
}

func TestCreateCustomer_RetriesTakenCode(t *testing.T) {
	db := newTestDB(t)
	company := newCompany(t, db, "Acme")
	svc := NewCustomerService(db, nil, "", nil)

	// A row carrying the next number makes count+1 collide once.
	squatter := models.Customer{CompanyID: company.ID, Code: "CUST-002", Name: "manual", IsActive: true,
		OpeningBalanceType: models.BalanceTypeOutstanding, OpeningBalanceMode: models.BalanceModeSingle, CustomerType: "b2b"}
	require.NoError(t, db.Create(&squatter).Error)

	c, err := svc.CreateCustomer(context.Background(), company, CustomerCreate{Name: "next"})
	require.NoError(t, err)
	assert.Equal(t, "CUST-003", c.Code)
}

func TestCreateCustomer_SplitModeSumsItems(t *testing.T) {
	db := newTestDB(t)
	company := newCompany(t, db, "Acme")
	svc := NewCustomerService(db, nil, "", nil)

	c, err := svc.CreateCustomer(context.Background(), company, CustomerCreate{
		Name:               "Split",
		OpeningBalance:     dec("999"), // ignored in split mode
		OpeningBalanceMode: models.BalanceModeSplit,
		OpeningBalanceItems: []OpeningBalanceItemInput{
			{Date: "2024-01-01", VoucherName: "INV-1", Amount: dec("100")},
			{Date: "2024-02-01", VoucherName: "INV-2", Amount: dec("50.50")},
		},
		ContactPersons: []ContactPersonInput{
			{Name: "Asha", Email: str("asha@example.com")},
			{Name: "   "},
		},
	})
	require.NoError(t, err)

	requireDecimal(t, "150.50", c.OpeningBalance)
	requireDecimal(t, "150.50", c.OutstandingBalance)
	require.Len(t, c.OpeningBalanceItems, 2)
	assert.Equal(t, "INV-1", c.OpeningBalanceItems[0].VoucherName)
	require.Len(t, c.ContactPersons, 1)
	assert.Equal(t, "Asha", c.ContactPersons[0].Name)
}

func TestCreateCustomer_GeocodesOnlyWithoutCoordinates(t *testing.T) {
	db := newTestDB(t)
	company := newCompany(t, db, "Acme")
	geo := &fakeGeocoder{result: &geocoding.Result{Lat: 18.52, Lng: 73.85, DisplayName: "Pune, Maharashtra, India"}}
	svc := NewCustomerService(db, geo, "in", nil)
	ctx := context.Background()

	located, err := svc.CreateCustomer(ctx, company, CustomerCreate{
		Name:           "Located",
		BillingCity:    str("Pune"),
		BillingCountry: str("India"),
	})
	require.NoError(t, err)
	require.True(t, located.HasLocation())
	assert.Equal(t, 18.52, *located.LocationLat)
	assert.Equal(t, "Pune, Maharashtra, India", *located.LocationAddress)
	assert.Equal(t, []string{"Pune, India"}, geo.addresses)
	assert.Equal(t, []string{"in"}, geo.countries)

	// One coordinate supplied: no lookup.
	_, err = svc.CreateCustomer(ctx, company, CustomerCreate{Name: "Half", BillingCity: str("Pune"), LocationLat: flt(1)})
	require.NoError(t, err)
	// Nothing to look up.
	_, err = svc.CreateCustomer(ctx, company, CustomerCreate{Name: "Empty"})
	require.NoError(t, err)
	assert.Equal(t, 1, geo.calls())
}

func TestCreateCustomer_GeocodeFailureIsSoft(t *testing.T) {
	db := newTestDB(t)
	company := newCompany(t, db, "Acme")
	svc := NewCustomerService(db, &fakeGeocoder{}, "", nil)

	c, err := svc.CreateCustomer(context.Background(), company, CustomerCreate{Name: "Nowhere", BillingCity: str("Atlantis")})
	require.NoError(t, err)
	assert.False(t, c.HasLocation())
	assert.Nil(t, c.LocationAddress)
}

func TestGetCustomer_TenantAndSoftDelete(t *testing.T) {
	db := newTestDB(t)
	a := newCompany(t, db, "A")
	b := newCompany(t, db, "B")
	svc := NewCustomerService(db, nil, "", nil)
	ctx := context.Background()

	c, err := svc.CreateCustomer(ctx, a, CustomerCreate{Name: "mine"})
	require.NoError(t, err)

	_, err = svc.GetCustomer(ctx, b, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.DeleteCustomer(ctx, c))
	_, err = svc.GetCustomer(ctx, a, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.DeleteCustomer(ctx, c), ErrNotFound)

	// Codes of deleted customers are never reused.
	next, err := svc.CreateCustomer(ctx, a, CustomerCreate{Name: "next"})
	require.NoError(t, err)
	assert.Equal(t, "CUST-002", next.Code)
}

func TestUpdateCustomer_Sparse(t *testing.T) {
	db := newTestDB(t)
	company := newCompany(t, db, "Acme")
	svc := NewCustomerService(db, nil, "", nil)
	ctx := context.Background()

	c, err := svc.CreateCustomer(ctx, company, CustomerCreate{
		Name:   "Original",
		Email:  str("a@example.com"),
		Mobile: str("98450"),
		Notes:  str("keep"),
	})
	require.NoError(t, err)

	updated, err := svc.UpdateCustomer(ctx, c, CustomerUpdate{
		Name:   utils.Null[string](), // non-nullable: explicit null is ignored
		Email:  utils.Null[string](),
		Mobile: utils.Some("  11111 "),
	})
	require.NoError(t, err)

	assert.Equal(t, "Original", updated.Name)
	assert.Nil(t, updated.Email)
	assert.Equal(t, "11111", *updated.Mobile)
	assert.Equal(t, "keep", *updated.Notes)
	assert.Equal(t, c.Code, updated.Code)

	_, err = svc.UpdateCustomer(ctx, updated, CustomerUpdate{Name: utils.Some("  ")})
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestUpdateCustomer_RederivesBalances(t *testing.T) {
	db := newTestDB(t)
	company := newCompany(t, db, "Acme")
	svc := NewCustomerService(db, nil, "", nil)
	ctx := context.Background()

	c, err := svc.CreateCustomer(ctx, company, CustomerCreate{Name: "Bal", OpeningBalance: dec("500")})
	require.NoError(t, err)

	c, err = svc.UpdateCustomer(ctx, c, CustomerUpdate{OpeningBalanceType: utils.Some(models.BalanceTypeAdvance)})
	require.NoError(t, err)
	requireDecimal(t, "0", c.OutstandingBalance)
	requireDecimal(t, "500", c.AdvanceBalance)

	c, err = svc.UpdateCustomer(ctx, c, CustomerUpdate{
		OpeningBalanceMode: utils.Some(models.BalanceModeSplit),
		OpeningBalanceItems: utils.Some([]OpeningBalanceItemInput{
			{VoucherName: "A", Amount: dec("10")},
			{VoucherName: "B", Amount: dec("20.25")},
		}),
	})
	require.NoError(t, err)
	requireDecimal(t, "30.25", c.OpeningBalance)
	requireDecimal(t, "30.25", c.AdvanceBalance)
	require.Len(t, c.OpeningBalanceItems, 2)

	// Switching type in split mode re-sums the stored items.
	c, err = svc.UpdateCustomer(ctx, c, CustomerUpdate{OpeningBalanceType: utils.Some(models.BalanceTypeOutstanding)})
	require.NoError(t, err)
	requireDecimal(t, "30.25", c.OutstandingBalance)
	requireDecimal(t, "0", c.AdvanceBalance)
	require.Len(t, c.OpeningBalanceItems, 2)

	// Unrelated updates leave balances alone.
	c, err = svc.UpdateCustomer(ctx, c, CustomerUpdate{Notes: utils.Some("x")})
	require.NoError(t, err)
	requireDecimal(t, "30.25", c.OutstandingBalance)
}

func TestUpdateCustomer_ReplacesContacts(t *testing.T) {
	db := newTestDB(t)
	company := newCompany(t, db, "Acme")
	svc := NewCustomerService(db, nil, "", nil)
	ctx := context.Background()

	c, err := svc.CreateCustomer(ctx, company, CustomerCreate{
		Name:           "C",
		ContactPersons: []ContactPersonInput{{Name: "Old"}},
	})
	require.NoError(t, err)

	c, err = svc.UpdateCustomer(ctx, c, CustomerUpdate{
		ContactPersons: utils.Some([]ContactPersonInput{{Name: "New 1"}, {Name: ""}, {Name: "New 2"}}),
	})
	require.NoError(t, err)
	require.Len(t, c.ContactPersons, 2)
	assert.Equal(t, "New 1", c.ContactPersons[0].Name)
	assert.Equal(t, "New 2", c.ContactPersons[1].Name)

	var stored int64
	require.NoError(t, db.Model(&models.ContactPerson{}).Where("customer_id = ?", c.ID).Count(&stored).Error)
	assert.EqualValues(t, 2, stored)
}

func TestUpdateCustomer_BillingChangeRelocates(t *testing.T) {
	db := newTestDB(t)
	company := newCompany(t, db, "Acme")
	geo := &fakeGeocoder{result: &geocoding.Result{Lat: 18.52, Lng: 73.85, DisplayName: "Pune"}}
	svc := NewCustomerService(db, geo, "", nil)
	ctx := context.Background()

	c, err := svc.CreateCustomer(ctx, company, CustomerCreate{Name: "Mover", BillingCity: str("Pune")})
	require.NoError(t, err)
	require.True(t, c.HasLocation())

	// Same value after trimming is not a change.
	c, err = svc.UpdateCustomer(ctx, c, CustomerUpdate{BillingCity: utils.Some(" Pune ")})
	require.NoError(t, err)
	assert.Equal(t, 1, geo.calls())

	geo.result = &geocoding.Result{Lat: 19.07, Lng: 72.87, DisplayName: "Mumbai"}
	c, err = svc.UpdateCustomer(ctx, c, CustomerUpdate{BillingCity: utils.Some("Mumbai")})
	require.NoError(t, err)
	require.True(t, c.HasLocation())
	assert.Equal(t, 19.07, *c.LocationLat)
	assert.Equal(t, "Mumbai", *c.LocationAddress)

	// Lookup failure leaves the customer unlocated rather than at the old place.
	geo.result = nil
	c, err = svc.UpdateCustomer(ctx, c, CustomerUpdate{BillingCity: utils.Some("Atlantis")})
	require.NoError(t, err)
	assert.False(t, c.HasLocation())
	assert.Nil(t, c.LocationAddress)

	// Explicit coordinates win over the billing change.
	c, err = svc.UpdateCustomer(ctx, c, CustomerUpdate{
		BillingCity: utils.Some("Delhi"),
		LocationLat: utils.Some(28.61),
		LocationLng: utils.Some(77.20),
	})
	require.NoError(t, err)
	assert.Equal(t, 28.61, *c.LocationLat)
	assert.Equal(t, 3, geo.calls())
}

func TestGetCustomers_FilterAndPaginate(t *testing.T) {
	db := newTestDB(t)
	company := newCompany(t, db, "Acme")
	other := newCompany(t, db, "Other")
	svc := NewCustomerService(db, nil, "", nil)
	ctx := context.Background()

	for _, in := range []CustomerCreate{
		{Name: "Alpha Stores", Email: str("alpha@shop.in")},
		{Name: "Beta Retail", TaxNumber: str("27ABCDE1234F1Z5"), CustomerType: "b2c"},
		{Name: "Gamma", VendorCode: str("V-ALPHA")},
		{Name: "Delta"},
	} {
		_, err := svc.CreateCustomer(ctx, company, in)
		require.NoError(t, err)
	}
	_, err := svc.CreateCustomer(ctx, other, CustomerCreate{Name: "Alpha Elsewhere"})
	require.NoError(t, err)

	page, err := svc.GetCustomers(ctx, company, CustomerFilter{Search: "ALPHA"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)

	page, err = svc.GetCustomers(ctx, company, CustomerFilter{Search: "abcde"})
	require.NoError(t, err)
	require.Len(t, page.Customers, 1)
	assert.Equal(t, "Beta Retail", page.Customers[0].Name)

	page, err = svc.GetCustomers(ctx, company, CustomerFilter{CustomerType: "b2b"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)

	page, err = svc.GetCustomers(ctx, company, CustomerFilter{Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.EqualValues(t, 4, page.Total)
	require.Len(t, page.Customers, 1)
	// Newest first, so the last page holds the oldest customer.
	assert.Equal(t, "Alpha Stores", page.Customers[0].Name)
}

func TestSearchCustomers(t *testing.T) {
	db := newTestDB(t)
	company := newCompany(t, db, "Acme")
	svc := NewCustomerService(db, nil, "", nil)
	ctx := context.Background()

	for _, name := range []string{"Zeta Foods", "Eta Foods", "Theta"} {
		_, err := svc.CreateCustomer(ctx, company, CustomerCreate{Name: name})
		require.NoError(t, err)
	}

	found, err := svc.SearchCustomers(ctx, company, "foods", 0)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Eta Foods", found[0].Name)

	found, err = svc.SearchCustomers(ctx, company, "foods", 1)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	found, err = svc.SearchCustomers(ctx, company, "  ", 0)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestGeocodeMissing(t *testing.T) {
	db := newTestDB(t)
	company := newCompany(t, db, "Acme")
	ctx := context.Background()

	plain := NewCustomerService(db, nil, "", nil)
	for _, in := range []CustomerCreate{
		{Name: "one", BillingCity: str("Pune")},
		{Name: "two", BillingCity: str("Nashik")},
		{Name: "blank"},
		{Name: "located", LocationLat: flt(1), LocationLng: flt(2)},
	} {
		_, err := plain.CreateCustomer(ctx, company, in)
		require.NoError(t, err)
	}

	geo := &fakeGeocoder{result: &geocoding.Result{Lat: 10, Lng: 20, DisplayName: "somewhere"}}
	svc := NewCustomerService(db, geo, "", nil)

	res, err := svc.GeocodeMissing(ctx, company, 50)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Processed)
	assert.Equal(t, 2, res.Updated)

	var located int64
	require.NoError(t, db.Model(&models.Customer{}).Where("location_lat IS NOT NULL").Count(&located).Error)
	assert.EqualValues(t, 3, located)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	res, err = svc.GeocodeMissing(cancelled, company, 50)
	if err == nil {
		assert.Equal(t, 0, res.Processed)
	}
}

func TestListForProximity(t *testing.T) {
	db := newTestDB(t)
	company := newCompany(t, db, "Acme")
	svc := NewCustomerService(db, nil, "", nil)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		_, err := svc.CreateCustomer(ctx, company, CustomerCreate{Name: name})
		require.NoError(t, err)
	}
	list, err := svc.ListForProximity(ctx, company, 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestGetCustomers_SecondPageOfTwelve(t *testing.T) {
	db := newTestDB(t)
	company := newCompany(t, db, "Acme")
	svc := NewCustomerService(db, nil, "", nil)
	ctx := context.Background()

	for i := 0; i < 13; i++ {
		_, err := svc.CreateCustomer(ctx, company, CustomerCreate{Name: "bulk"})
		require.NoError(t, err)
	}
	last, err := svc.SearchCustomers(ctx, company, "bulk", 1)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteCustomer(ctx, &last[0]))

	page, err := svc.GetCustomers(ctx, company, CustomerFilter{Page: 2, PageSize: 5})
	require.NoError(t, err)
	assert.EqualValues(t, 12, page.Total)
	assert.Len(t, page.Customers, 5)
}

func TestUpdateCustomer_NullCollectionsLeaveChildrenAlone(t *testing.T) {
	db := newTestDB(t)
	company := newCompany(t, db, "Acme")
	svc := NewCustomerService(db, nil, "", nil)
	ctx := context.Background()

	c, err := svc.CreateCustomer(ctx, company, CustomerCreate{
		Name:               "Split",
		OpeningBalanceMode: models.BalanceModeSplit,
		OpeningBalanceItems: []OpeningBalanceItemInput{
			{VoucherName: "A", Amount: dec("10")},
			{VoucherName: "B", Amount: dec("20")},
		},
		ContactPersons: []ContactPersonInput{{Name: "Asha"}},
	})
	require.NoError(t, err)

	var in CustomerUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"opening_balance_items":null,"contact_persons":null,"opening_balance":null}`), &in))
	c, err = svc.UpdateCustomer(ctx, c, in)
	require.NoError(t, err)

	requireDecimal(t, "30", c.OpeningBalance)
	requireDecimal(t, "30", c.OutstandingBalance)
	assert.Len(t, c.OpeningBalanceItems, 2)
	assert.Len(t, c.ContactPersons, 1)

	// An empty list still clears.
	var clearAll CustomerUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"opening_balance_items":[],"contact_persons":[]}`), &clearAll))
	c, err = svc.UpdateCustomer(ctx, c, clearAll)
	require.NoError(t, err)
	requireDecimal(t, "0", c.OpeningBalance)
	assert.Empty(t, c.OpeningBalanceItems)
	assert.Empty(t, c.ContactPersons)
}

func TestSearch_WildcardsMatchLiterally(t *testing.T) {
	db := newTestDB(t)
	company := newCompany(t, db, "Acme")
	svc := NewCustomerService(db, nil, "", nil)
	ctx := context.Background()

	for _, name := range []string{"50% Off Store", "500 Club", "a_b Traders", "axb Traders", "Bang! Co"} {
		_, err := svc.CreateCustomer(ctx, company, CustomerCreate{Name: name})
		require.NoError(t, err)
	}

	found, err := svc.SearchCustomers(ctx, company, "50%", 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "50% Off Store", found[0].Name)

	page, err := svc.GetCustomers(ctx, company, CustomerFilter{Search: "a_b"})
	require.NoError(t, err)
	require.Len(t, page.Customers, 1)
	assert.Equal(t, "a_b Traders", page.Customers[0].Name)

	page, err = svc.GetCustomers(ctx, company, CustomerFilter{Search: "g!"})
	require.NoError(t, err)
	require.Len(t, page.Customers, 1)
	assert.Equal(t, "Bang! Co", page.Customers[0].Name)
}

func TestGeocodeMissing_StopsWhenContextEnds(t *testing.T) {
	db := newTestDB(t)
	company := newCompany(t, db, "Acme")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	plain := NewCustomerService(db, nil, "", nil)
	for _, city := range []string{"Pune", "Nashik", "Nagpur"} {
		_, err := plain.CreateCustomer(ctx, company, CustomerCreate{Name: city, BillingCity: str(city)})
		require.NoError(t, err)
	}

	// The deadline passes during the first lookup.
	geo := &fakeGeocoder{result: &geocoding.Result{Lat: 1, Lng: 2, DisplayName: "x"}, onLookup: cancel}
	res, err := NewCustomerService(db, geo, "", nil).GeocodeMissing(ctx, company, 50)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, geo.calls())

	var located int64
	require.NoError(t, db.Model(&models.Customer{}).Where("location_lat IS NOT NULL").Count(&located).Error)
	assert.EqualValues(t, 1, located)
}

func TestCreateCustomer_FailedGeocodeLogsCustomer(t *testing.T) {
	db := newTestDB(t)
	company := newCompany(t, db, "Acme")
	core, recorded := observer.New(zapcore.DebugLevel)
	svc := NewCustomerService(db, &fakeGeocoder{}, "", zap.New(core))

	_, err := svc.CreateCustomer(context.Background(), company, CustomerCreate{Name: "Lost", BillingCity: str("Atlantis")})
	require.NoError(t, err)

	entries := recorded.FilterMessage("customer not geocoded").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "Lost", fields["name"])
	assert.EqualValues(t, company.ID, fields["company_id"])
	assert.NotContains(t, fields, "code")
}
