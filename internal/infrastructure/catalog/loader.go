// Package catalog loads the product catalog from spreadsheet exports.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/proposalagent/backend/internal/domain"
)

// productNamespace scopes product ids so the same name and row always map to the same id
var productNamespace = uuid.MustParse("6f1c2a4e-8d0b-4c57-9a3e-2b7d5e1f0c92")

// Loader reads name,price rows into products
type Loader struct {
	logger zerolog.Logger
}

// NewLoader creates a catalog loader
func NewLoader(logger zerolog.Logger) *Loader {
	return &Loader{logger: logger.With().Str("component", "catalog").Logger()}
}

// LoadFile loads a .csv or .xlsx catalog
func (l *Loader) LoadFile(path string) ([]domain.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	var products []domain.Product
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		products, err = l.LoadCSV(f)
	case ".xlsx":
		products, err = l.LoadXLSX(f)
	default:
		return nil, fmt.Errorf("%w: unsupported extension %q", domain.ErrInvalidCatalogFile, filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	l.logger.Info().Str("path", path).Int("products", len(products)).Msg("catalog loaded")
	return products, nil
}

// LoadCSV reads a CSV with a header row followed by name,price rows.
// Blank and malformed rows are skipped.
func (l *Loader) LoadCSV(r io.Reader) ([]domain.Product, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				l.logger.Warn().Err(err).Msg("skipping malformed csv row")
				continue
			}
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCatalogFile, err)
		}
		rows = append(rows, record)
	}

	return l.fromRows(rows), nil
}

// LoadXLSX reads the first sheet of a workbook with the same layout as the CSV
func (l *Loader) LoadXLSX(r io.Reader) ([]domain.Product, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCatalogFile, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", domain.ErrInvalidCatalogFile)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", domain.ErrInvalidCatalogFile, sheet, err)
	}

	return l.fromRows(rows), nil
}

// fromRows skips the header and converts each usable row in order
func (l *Loader) fromRows(rows [][]string) []domain.Product {
	if len(rows) <= 1 {
		return []domain.Product{}
	}

	products := make([]domain.Product, 0, len(rows)-1)
	for i, row := range rows[1:] {
		line := i + 2
		if len(row) < 2 {
			continue
		}

		name := strings.TrimSpace(row[0])
		priceStr := strings.TrimSpace(row[1])
		if name == "" || priceStr == "" {
			continue
		}

		price, err := ParseCurrency(priceStr)
		if err != nil {
			l.logger.Warn().Int("row", line).Str("price", priceStr).Msg("skipping row with invalid price")
			continue
		}

		products = append(products, domain.Product{
			ID:        ProductID(name, line),
			Name:      name,
			UnitPrice: price,
		})
	}

	return products
}

// ProductID derives a stable id from the product name and its source row
func ProductID(name string, row int) string {
	return uuid.NewSHA1(productNamespace, []byte(fmt.Sprintf("%s|%d", name, row))).String()
}

// ParseCurrency converts "$1,234.56" style amounts to cents, rounding half away from zero
func ParseCurrency(value string) (int64, error) {
	cleaned := strings.NewReplacer(`"`, "", "$", "", ",", "", " ", "").Replace(value)
	if cleaned == "" {
		return 0, fmt.Errorf("empty amount")
	}

	dollars, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", value, err)
	}
	if dollars < 0 || math.IsNaN(dollars) || math.IsInf(dollars, 0) {
		return 0, fmt.Errorf("amount out of range: %q", value)
	}

	return int64(math.Round(dollars * 100)), nil
}
