package datasets

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Columns recognized by LoadCSV. Every other header column is an observer.
var (
	requiredColumns = []string{"content_id", "asset_id", "path"}
	optionalColumns = []string{"ref_path", "content_name"}
)

// LoadCSV loads a rating table from every CSV file matching pattern. Each
// row is one distorted video; each observer column holds that observer's
// score, with an empty cell meaning the observer did not rate the video.
//
// Header requirements:
//   - content_id, asset_id, path are mandatory
//   - ref_path and content_name are optional; reference videos are derived
//     from the distinct (content_id, ref_path) pairs in row order
//   - all files must share the same observer columns in the same order
//
// CSV carries no reference score, so refScore is supplied by the caller.
func LoadCSV(pattern string, refScore float64) (*Dataset, error) {
	csvPaths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to glob pattern %s: %w", pattern, err)
	}
	if len(csvPaths) == 0 {
		return nil, fmt.Errorf("no CSV files found matching pattern: %s", pattern)
	}

	ds := &Dataset{
		DatasetName: strings.TrimSuffix(filepath.Base(csvPaths[0]), filepath.Ext(csvPaths[0])),
		RefScore:    refScore,
	}
	refIdx := make(map[int]int)

	for fileIdx, path := range csvPaths {
		if err := ds.readCSVFile(fileIdx, path, refIdx); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	if err := ds.Validate(); err != nil {
		return nil, err
	}
	slog.Debug("loaded CSV dataset", "files", len(csvPaths), "dis_videos", len(ds.DisVideos), "observers", len(ds.Observers))
	return ds, nil
}

// readCSVFile appends the rows of one file to ds. refIdx maps content id to
// its position in ds.RefVideos across files.
func (d *Dataset) readCSVFile(fileIdx int, path string, refIdx map[int]int) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	colIndex, observers, observerCols, err := indexColumns(header)
	if err != nil {
		return err
	}
	if fileIdx == 0 {
		d.Observers = observers
	} else if !sameStrings(d.Observers, observers) {
		return fmt.Errorf("observer columns %v differ from first file %v", observers, d.Observers)
	}

	rowIdx := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read row %d: %w", rowIdx, err)
		}
		if err := d.appendCSVRecord(record, colIndex, observerCols, refIdx); err != nil {
			return fmt.Errorf("row %d: %w", rowIdx, err)
		}
		rowIdx++
	}
	return nil
}

func (d *Dataset) appendCSVRecord(record []string, colIndex map[string]int, observerCols []int, refIdx map[int]int) error {
	contentID, err := parseInt(record[colIndex["content_id"]])
	if err != nil {
		return fmt.Errorf("failed to parse content_id: %w", err)
	}
	assetID, err := parseInt(record[colIndex["asset_id"]])
	if err != nil {
		return fmt.Errorf("failed to parse asset_id: %w", err)
	}

	refPath := ""
	if i, ok := colIndex["ref_path"]; ok {
		refPath = strings.TrimSpace(record[i])
	}
	contentName := ""
	if i, ok := colIndex["content_name"]; ok {
		contentName = strings.TrimSpace(record[i])
	}

	if i, ok := refIdx[contentID]; ok {
		if d.RefVideos[i].Path != refPath {
			return fmt.Errorf("content_id %d has conflicting ref_path %q and %q", contentID, d.RefVideos[i].Path, refPath)
		}
	} else {
		refIdx[contentID] = len(d.RefVideos)
		d.RefVideos = append(d.RefVideos, RefVideo{ContentID: contentID, ContentName: contentName, Path: refPath})
	}

	scores := make([]float64, len(observerCols))
	for j, col := range observerCols {
		s, err := parseScore(record[col])
		if err != nil {
			return fmt.Errorf("failed to parse score of %s: %w", d.Observers[j], err)
		}
		scores[j] = s
	}

	d.DisVideos = append(d.DisVideos, DisVideo{
		ContentID: contentID,
		AssetID:   assetID,
		Path:      strings.TrimSpace(record[colIndex["path"]]),
		OS:        scores,
	})
	return nil
}

// indexColumns maps the lower-cased fixed column names to positions and
// returns the observer columns, by exact name and header position.
func indexColumns(header []string) (map[string]int, []string, []int, error) {
	known := make(map[string]bool)
	for _, col := range append(requiredColumns, optionalColumns...) {
		known[col] = true
	}

	colIndex := make(map[string]int)
	var observers []string
	var observerCols []int
	seen := make(map[string]bool)
	for i, col := range header {
		name := strings.TrimSpace(col)
		if key := strings.ToLower(name); known[key] {
			if _, dup := colIndex[key]; dup {
				return nil, nil, nil, fmt.Errorf("column %q appears twice in CSV header", key)
			}
			colIndex[key] = i
			continue
		}
		if seen[name] {
			return nil, nil, nil, fmt.Errorf("observer column %q appears twice in CSV header", name)
		}
		seen[name] = true
		observers = append(observers, name)
		observerCols = append(observerCols, i)
	}
	for _, col := range requiredColumns {
		if _, ok := colIndex[col]; !ok {
			return nil, nil, nil, fmt.Errorf("required column %q not found in CSV", col)
		}
	}
	if len(observers) == 0 {
		return nil, nil, nil, fmt.Errorf("no observer columns in CSV header")
	}
	return colIndex, observers, observerCols, nil
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
