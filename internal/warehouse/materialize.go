package warehouse

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"roiflow/internal/pipeline"
	"roiflow/pkg/errors"
	"roiflow/pkg/models"
)

const insertBatchSize = 1000

const roiTableDDL = `(
	device_id VARCHAR NOT NULL,
	channel VARCHAR,
	campaign_id VARCHAR,
	is_organic BOOLEAN NOT NULL,
	acquisition_cost NUMBER(18,4) NOT NULL,
	lifetime_revenue NUMBER(18,4) NOT NULL,
	roi NUMBER(18,4) NOT NULL
)`

// MaterializeROI writes the result set to the environment's output table
// all-or-nothing: rows land in a staging table first, and the target is
// replaced from staging in one statement. Readers of the target never see
// a half-written run; a failure at any point leaves the previous target
// untouched.
func (s *Service) MaterializeROI(ctx context.Context, env models.Environment, rows []pipeline.UserROI) error {
	target, err := qualifiedName(env.Database, env.Schema, env.OutputTable)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "Invalid output table for environment").
			WithContext("environment", env.Name)
	}
	staging, err := qualifiedName(env.Database, env.Schema, env.OutputTable+"_STAGING")
	if err != nil {
		return err
	}

	logCtx := log.WithFields(log.Fields{"environment": env.Name, "table": target, "rows": len(rows)})
	logCtx.Info("materializing run output")

	createSQL := fmt.Sprintf("CREATE OR REPLACE TABLE %s %s", staging, roiTableDDL)
	if _, err := s.db.ExecContext(ctx, createSQL); err != nil {
		return errors.SQLError("Failed to create staging table", createSQL, err)
	}

	if err := s.insertBatches(ctx, staging, rows); err != nil {
		s.dropStaging(ctx, staging)
		return err
	}

	swapSQL := fmt.Sprintf("CREATE OR REPLACE TABLE %s CLONE %s", target, staging)
	if _, err := s.db.ExecContext(ctx, swapSQL); err != nil {
		s.dropStaging(ctx, staging)
		return errors.Wrap(
			errors.SQLError("Failed to publish staging table", swapSQL, err),
			errors.ErrCodeMaterializeFailed, "Run output was not materialized")
	}

	s.dropStaging(ctx, staging)
	logCtx.Info("run output materialized")
	return nil
}

func (s *Service) insertBatches(ctx context.Context, staging string, rows []pipeline.UserROI) error {
	for start := 0; start < len(rows); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		placeholders := make([]string, len(batch))
		args := make([]interface{}, 0, len(batch)*7)
		for i, row := range batch {
			placeholders[i] = "(?, ?, ?, ?, ?, ?, ?)"
			args = append(args,
				row.DeviceID,
				nullable(row.Channel),
				nullable(row.CampaignID),
				row.Organic,
				row.AcquisitionCost.String(),
				row.LifetimeRevenue.String(),
				row.ROI.String(),
			)
		}

		insertSQL := fmt.Sprintf("INSERT INTO %s VALUES %s", staging, strings.Join(placeholders, ", "))
		if _, err := s.db.ExecContext(ctx, insertSQL, args...); err != nil {
			return errors.SQLError("Failed to insert output batch", insertSQL, err).
				WithContext("batch_start", start).
				WithContext("batch_size", len(batch))
		}
	}
	return nil
}

// dropStaging is best-effort cleanup; a leftover staging table is cosmetic.
func (s *Service) dropStaging(ctx context.Context, staging string) {
	dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s", staging)
	if _, err := s.db.ExecContext(ctx, dropSQL); err != nil {
		log.WithField("table", staging).WithError(err).Warn("failed to drop staging table")
	}
}

// nullable maps empty strings to SQL NULL for the optional columns.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
