package csvio

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"roiflow/internal/common"
	"roiflow/internal/feed"
	"roiflow/pkg/errors"
)

// ReadRows reads one CSV feed into raw rows keyed by canonical column name.
// The first line must be a header; header names are lowercased and trimmed
// so exports with inconsistent casing still map onto the expected columns.
func ReadRows(path, feedName string) ([]feed.Row, error) {
	cleaned, err := common.CleanPath(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeFileOperation, "Invalid feed path").
			WithContext("feed", feedName)
	}

	f, err := os.Open(cleaned) // #nosec G304 - path is validated
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(err, errors.ErrCodeFileNotFound, "Feed file not found").
				WithContext("feed", feedName).
				WithContext("path", path)
		}
		return nil, errors.FeedError("Failed to open feed file", feedName, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // ragged rows are handled per-record below

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New(errors.ErrCodeFeedHeader, "Feed file is empty").
			WithContext("feed", feedName).
			WithContext("path", path)
	}
	if err != nil {
		return nil, errors.FeedError("Failed to read feed header", feedName, err)
	}

	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = strings.ToLower(strings.TrimSpace(name))
	}

	var rows []feed.Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.FeedError("Failed to read feed row", feedName, err)
		}

		row := make(feed.Row, len(columns))
		for i, value := range record {
			if i < len(columns) {
				row[columns[i]] = value
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}
