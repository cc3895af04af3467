package csvio

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"roiflow/internal/pipeline"
	"roiflow/pkg/errors"
)

// roiHeader is the output contract consumed by reporting.
var roiHeader = []string{
	"device_id", "channel", "campaign_id", "is_organic",
	"acquisition_cost", "lifetime_revenue", "roi",
}

// WriteROI materializes the result set to a CSV file atomically: rows are
// written to a temp file in the target directory and renamed into place, so
// a failed run never leaves a partial output behind.
func WriteROI(path string, rows []pipeline.UserROI) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return errors.Wrap(err, errors.ErrCodeFileOperation, "Failed to create output directory").
			WithContext("path", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeFileOperation, "Failed to create temp output file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	writer := csv.NewWriter(tmp)
	if err := writer.Write(roiHeader); err != nil {
		tmp.Close()
		return errors.Wrap(err, errors.ErrCodeMaterializeFailed, "Failed to write output header")
	}

	for _, row := range rows {
		record := []string{
			row.DeviceID,
			row.Channel,
			row.CampaignID,
			strconv.FormatBool(row.Organic),
			row.AcquisitionCost.String(),
			row.LifetimeRevenue.String(),
			row.ROI.String(),
		}
		if err := writer.Write(record); err != nil {
			tmp.Close()
			return errors.Wrap(err, errors.ErrCodeMaterializeFailed, "Failed to write output row").
				WithContext("device_id", row.DeviceID)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return errors.Wrap(err, errors.ErrCodeMaterializeFailed, "Failed to flush output")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, errors.ErrCodeFileOperation, "Failed to close temp output file")
	}

	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrap(err, errors.ErrCodeMaterializeFailed, "Failed to move output into place").
			WithContext("path", path)
	}

	return nil
}
