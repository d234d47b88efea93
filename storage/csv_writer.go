package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/leolan92/Parsing-house-price/models"
)

// csvHeader is the fixed nine-column header of the export file.
var csvHeader = []string{
	"dealtime", "type", "address", "room", "dealprice", "unitprice", "space", "floor", "total_floor",
}

// CSVWriter writes normalized listings to a CSV file.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// Write appends one row per listing, in field order.
func (c *CSVWriter) Write(listings []*models.Listing) error {
	for _, l := range listings {
		if err := c.writer.Write(toRow(l)); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		_ = c.file.Close()
		return fmt.Errorf("csv: flush: %w", err)
	}
	return c.file.Close()
}

// ExportCSV overwrites path with the header and all listings.
func ExportCSV(path string, listings []*models.Listing) error {
	w, err := NewCSVWriter(path)
	if err != nil {
		return err
	}
	if err := w.Write(listings); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// ReadCSV parses a file produced by CSVWriter back into listings.
func ReadCSV(path string) ([]*models.Listing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(csvHeader)

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}
	for i, name := range csvHeader {
		if header[i] != name {
			return nil, fmt.Errorf("csv: unexpected column %d %q, want %q", i, header[i], name)
		}
	}

	var listings []*models.Listing
	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read line %d: %w", line, err)
		}
		l, err := fromRow(row)
		if err != nil {
			return nil, fmt.Errorf("csv: line %d: %w", line, err)
		}
		listings = append(listings, l)
	}
	return listings, nil
}

func toRow(l *models.Listing) []string {
	totalFloor := ""
	if l.TotalFloor != nil {
		totalFloor = *l.TotalFloor
	}
	return []string{
		l.DealTime,
		l.Type,
		l.Address,
		l.Room,
		formatAmount(l.DealPrice),
		formatAmount(l.UnitPrice),
		formatAmount(l.FloorSpace),
		l.Floor,
		totalFloor,
	}
}

func fromRow(row []string) (*models.Listing, error) {
	l := &models.Listing{
		DealTime: row[0],
		Type:     row[1],
		Address:  row[2],
		Room:     row[3],
		Floor:    row[7],
	}

	var err error
	if l.DealPrice, err = parseAmount(row[4]); err != nil {
		return nil, fmt.Errorf("dealprice: %w", err)
	}
	if l.UnitPrice, err = parseAmount(row[5]); err != nil {
		return nil, fmt.Errorf("unitprice: %w", err)
	}
	if l.FloorSpace, err = parseAmount(row[6]); err != nil {
		return nil, fmt.Errorf("space: %w", err)
	}
	if row[8] != "" {
		l.TotalFloor = models.String(row[8])
	}
	return l, nil
}

func formatAmount(v *float64) string {
	if v == nil {
		return models.NotAvailable
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func parseAmount(s string) (*float64, error) {
	if s == models.NotAvailable || s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
