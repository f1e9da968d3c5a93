package storage

import (
	"strings"

	"promptly/domain"
)

const (
	// DefaultSheetName is used when no tab name is configured.
	DefaultSheetName = "Sheet1"

	EnvClientEmail   = "GOOGLE_CLIENT_EMAIL"
	EnvPrivateKey    = "GOOGLE_PRIVATE_KEY"
	EnvSpreadsheetID = "GOOGLE_SPREADSHEET_ID"
	EnvSheetName     = "GOOGLE_SHEET_NAME"

	sheetColumns = "A:D"
)

// SheetConfig holds the service-account credentials and the location of the
// prompt sheet. It is read from server-side configuration only.
type SheetConfig struct {
	ClientEmail   string
	PrivateKey    string
	SpreadsheetID string
	SheetName     string
}

// NewSheetConfig builds a config from raw values, unescaping literal "\n"
// sequences in the private key and defaulting the sheet name.
func NewSheetConfig(clientEmail, privateKey, spreadsheetID, sheetName string) SheetConfig {
	cfg := SheetConfig{
		ClientEmail:   strings.TrimSpace(clientEmail),
		PrivateKey:    strings.ReplaceAll(privateKey, `\n`, "\n"),
		SpreadsheetID: strings.TrimSpace(spreadsheetID),
		SheetName:     strings.TrimSpace(sheetName),
	}
	if cfg.SheetName == "" {
		cfg.SheetName = DefaultSheetName
	}
	return cfg
}

// Range returns the A1 range covering the four prompt columns.
func (c SheetConfig) Range() string {
	name := c.SheetName
	if name == "" {
		name = DefaultSheetName
	}
	return name + "!" + sheetColumns
}

// Validate reports every missing required field as a single configuration
// error.
func (c SheetConfig) Validate() error {
	var missing []string
	if strings.TrimSpace(c.PrivateKey) == "" {
		missing = append(missing, EnvPrivateKey)
	}
	if c.ClientEmail == "" {
		missing = append(missing, EnvClientEmail)
	}
	if c.SpreadsheetID == "" {
		missing = append(missing, EnvSpreadsheetID)
	}
	if len(missing) == 0 {
		return nil
	}
	return &domain.LoadError{
		Kind:    domain.KindConfiguration,
		Title:   "Configuration Error",
		Hint:    "The server is missing required configuration. Set the following environment variables: " + strings.Join(missing, ", ") + ".",
		Missing: missing,
	}
}
