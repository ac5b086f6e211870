package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Company maps a ticker to its SEC identifier.
type Company struct {
	Ticker string `json:"ticker"`
	CIK    string `json:"cik"` // zero-padded to 10 digits
	Title  string `json:"title"`
	Sector string `json:"sector,omitempty"`
}

// CompanyList is the on-disk company directory used by ingestion.
type CompanyList struct {
	Source    string    `json:"source"`
	UpdatedAt string    `json:"updated_at"` // ISO 8601 timestamp
	Companies []Company `json:"companies"`
}

// Lookup finds a company by case-insensitive ticker.
func (l *CompanyList) Lookup(ticker string) (Company, bool) {
	if l == nil {
		return Company{}, false
	}
	for _, c := range l.Companies {
		if strings.EqualFold(c.Ticker, ticker) {
			return c, true
		}
	}
	return Company{}, false
}

func LoadCompanies(filePath string) (*CompanyList, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read companies file: %w", err)
	}

	var list CompanyList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("failed to parse companies file: %w", err)
	}

	return &list, nil
}

func SaveCompanies(list *CompanyList, filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	raw, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal companies: %w", err)
	}

	if err := os.WriteFile(filePath, raw, 0644); err != nil {
		return fmt.Errorf("failed to write companies file: %w", err)
	}

	return nil
}

// DefaultCompaniesPath returns COMPANIES_FILE or data/companies.json.
func DefaultCompaniesPath() string {
	if path := os.Getenv("COMPANIES_FILE"); path != "" {
		return path
	}
	return "./data/companies.json"
}
