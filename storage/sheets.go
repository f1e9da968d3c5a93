package storage

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"promptly/domain"
)

const sheetsRequestTimeout = 30 * time.Second

// valueReader reads a value range from a spreadsheet.
type valueReader interface {
	ReadRange(ctx context.Context, spreadsheetID, rng string) ([][]any, error)
}

// SheetSource loads prompts from a Google Sheet using service-account
// credentials.
type SheetSource struct {
	cfg    SheetConfig
	reader valueReader
	logger log.FieldLogger
}

// NewSheetSource creates a source for cfg. Configuration is validated on
// each fetch so a misconfigured deployment still starts and reports the
// problem to the page.
func NewSheetSource(cfg SheetConfig, logger log.FieldLogger) *SheetSource {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &SheetSource{
		cfg:    cfg,
		reader: &sheetsReader{cfg: cfg, authenticate: true},
		logger: logger,
	}
}

// Key identifies the sheet range for caching.
func (s *SheetSource) Key() string {
	return "sheets:" + s.cfg.SpreadsheetID + ":" + s.cfg.Range()
}

// FetchPrompts reads columns A-D of the configured sheet and normalizes
// them. Failures are returned as *domain.LoadError.
func (s *SheetSource) FetchPrompts(ctx context.Context) ([]domain.Prompt, error) {
	if err := s.cfg.Validate(); err != nil {
		s.logger.WithError(err).Error("sheet source misconfigured")
		return nil, err
	}

	fields := log.Fields{
		"client_email":   s.cfg.ClientEmail,
		"spreadsheet_id": s.cfg.SpreadsheetID,
		"range":          s.cfg.Range(),
	}
	s.logger.WithFields(fields).Debug("fetching prompts from sheet")

	ctx, cancel := context.WithTimeout(ctx, sheetsRequestTimeout)
	defer cancel()

	rows, err := s.reader.ReadRange(ctx, s.cfg.SpreadsheetID, s.cfg.Range())
	if err != nil {
		loadErr := Classify(err, s.cfg)
		s.logger.WithFields(fields).WithField("kind", loadErr.Kind).WithError(err).Error("sheet fetch failed")
		return nil, loadErr
	}
	if len(rows) == 0 {
		s.logger.WithFields(fields).Warn("sheet is empty")
	}

	prompts := NormalizeRows(rows, s.logger.WithFields(fields))
	s.logger.WithFields(fields).WithFields(log.Fields{
		"rows":    len(rows),
		"prompts": len(prompts),
	}).Info("loaded prompts from sheet")
	return prompts, nil
}

type sheetsReader struct {
	cfg          SheetConfig
	base         http.RoundTripper
	opts         []option.ClientOption
	authenticate bool
}

func (r *sheetsReader) ReadRange(ctx context.Context, spreadsheetID, rng string) ([][]any, error) {
	transport := r.base
	if transport == nil {
		transport = http.DefaultTransport
	}
	if r.authenticate {
		conf := &jwt.Config{
			Email:      r.cfg.ClientEmail,
			PrivateKey: []byte(r.cfg.PrivateKey),
			Scopes:     []string{sheets.SpreadsheetsReadonlyScope},
			TokenURL:   google.JWTTokenURL,
		}
		transport = &oauth2.Transport{Source: conf.TokenSource(ctx), Base: transport}
	}
	opts := append([]option.ClientOption{option.WithHTTPClient(&http.Client{Transport: transport})}, r.opts...)
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	resp, err := svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}
