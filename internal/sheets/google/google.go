// Package google appends ledger rows to a Google Sheet.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/ports"
	"budget/internal/sheets"
)

var _ ports.LedgerExporter = (*Exporter)(nil)

// Config selects the spreadsheet and the credentials used to reach it.
// With TokenFile set, the credentials are an OAuth client and the token is
// read from TokenFile; otherwise they are a service account key.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
	TokenFile       string
}

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

// New builds an exporter from cfg. Extra client options are appended after
// the credentials, so tests can point the client at a local endpoint.
func New(ctx context.Context, cfg Config, logger *log.Logger, opts ...goption.ClientOption) (*Exporter, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(cfg.SheetName) == "" {
		cfg.SheetName = "Ledger"
	}
	if logger == nil {
		logger = log.Discard()
	}

	var clientOpts []goption.ClientOption
	if len(opts) == 0 {
		authOpt, err := credentialsOption(ctx, cfg)
		if err != nil {
			return nil, err
		}
		clientOpts = append(clientOpts, authOpt)
	}
	clientOpts = append(clientOpts, opts...)

	svc, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Exporter{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
		logger:        logger.WithComponent(log.ComponentSheets),
	}, nil
}

func credentialsOption(ctx context.Context, cfg Config) (goption.ClientOption, error) {
	credentials, err := readCredentials(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.TokenFile == "" {
		return goption.WithCredentialsJSON(credentials), nil
	}

	oauthCfg, err := goauth.ConfigFromJSON(credentials, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	tok, err := ReadToken(cfg.TokenFile)
	if err != nil {
		return nil, err
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, newHTTPClientWithPooling())
	return goption.WithHTTPClient(oauthCfg.Client(ctx, tok)), nil
}

// OAuthConfig returns the OAuth client described by the configured
// credentials, scoped to spreadsheet access.
func OAuthConfig(cfg Config) (*oauth2.Config, error) {
	credentials, err := readCredentials(cfg)
	if err != nil {
		return nil, err
	}
	oauthCfg, err := goauth.ConfigFromJSON(credentials, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	return oauthCfg, nil
}

func readCredentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case cfg.CredentialsFile != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing sheets credentials (set sheets.credentialsfile or sheets.credentialsjson)")
	}
}

// ReadToken loads an OAuth token written by SaveToken.
func ReadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open token file: %w", err)
	}
	defer f.Close()
	var tok oauth2.Token
	if err := json.NewDecoder(f).Decode(&tok); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return &tok, nil
}

// SaveToken writes tok to path with owner-only permissions.
func SaveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(tok)
}

// newHTTPClientWithPooling is the base transport for OAuth requests.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// ExportExpense appends e and returns the updated range.
func (x *Exporter) ExportExpense(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	return x.append(ctx, sheets.ExpenseRow(e))
}

func (x *Exporter) ExportPaycheck(ctx context.Context, p core.Paycheck) (string, error) {
	if err := p.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	return x.append(ctx, sheets.PaycheckRow(p))
}

func (x *Exporter) append(ctx context.Context, row sheets.Row) (string, error) {
	if x.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:H", x.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{row}}

	resp, err := x.svc.Spreadsheets.Values.Append(x.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", x.sheetName, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	x.logger.DebugContext(ctx, "Appended ledger row", "range", ref, "kind", row[0])
	return ref, nil
}

// EnsureHeader writes the header row when A1 is empty.
func (x *Exporter) EnsureHeader(ctx context.Context) error {
	if x.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A1:H1", x.sheetName)
	resp, err := x.svc.Spreadsheets.Values.Get(x.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}
	_, err = x.svc.Spreadsheets.Values.Update(x.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{sheets.Header}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}
