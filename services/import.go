package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"crm-backend/models"
	"crm-backend/utils"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// ImportRowError describes one rejected import row. Row is 1-based.
type ImportRowError struct {
	Row   int             `json:"row"`
	Error string          `json:"error"`
	Data  json.RawMessage `json:"data"`
}

type ImportResult struct {
	BatchID  uint             `json:"batch_id"`
	Imported int              `json:"imported"`
	Total    int              `json:"total"`
	Errors   []ImportRowError `json:"errors"`
}

// ImportCustomers creates each row independently: a failing row is recorded and the
// batch continues. The outcome is kept as an ImportBatch.
func (s *CustomerService) ImportCustomers(ctx context.Context, company *models.Company, rows []json.RawMessage) (*ImportResult, error) {
	res := &ImportResult{Total: len(rows), Errors: make([]ImportRowError, 0)}

	for i, raw := range rows {
		if err := s.importRow(ctx, company, raw); err != nil {
			res.Errors = append(res.Errors, ImportRowError{Row: i + 1, Error: err.Error(), Data: raw})
			continue
		}
		res.Imported++
	}

	errs, err := json.Marshal(res.Errors)
	if err != nil {
		return nil, err
	}
	batch := models.ImportBatch{
		CompanyID: company.ID,
		Total:     res.Total,
		Imported:  res.Imported,
		Errors:    datatypes.JSON(errs),
	}
	if err := s.db.WithContext(ctx).Create(&batch).Error; err != nil {
		return nil, err
	}
	res.BatchID = batch.ID

	s.log.Info("customer import finished",
		zap.Uint("company_id", company.ID), zap.Int("total", res.Total), zap.Int("imported", res.Imported))
	return res, nil
}

func (s *CustomerService) importRow(ctx context.Context, company *models.Company, raw json.RawMessage) error {
	var in CustomerCreate
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&in); err != nil {
		return fmt.Errorf("invalid customer payload: %w", err)
	}
	if err := utils.Validate.Struct(in); err != nil {
		return err
	}
	_, err := s.CreateCustomer(ctx, company, in)
	return err
}
