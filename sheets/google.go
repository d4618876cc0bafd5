package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// LegacyDefaultWorksheet is the GData id of a spreadsheet's first worksheet
const LegacyDefaultWorksheet = "od6"

// DefaultRequestsPerMinute matches the per-user write quota of the Sheets API
const DefaultRequestsPerMinute = 60

// requestBurst is the number of requests allowed back to back before the rate applies
const requestBurst = 5

const (
	valueInputRaw         = "RAW"
	valueInputUserEntered = "USER_ENTERED"
	insertDataRows        = "INSERT_ROWS"
)

var _ TableClient = (*googleClient)(nil)
var _ Authenticator = (*GoogleAuthenticator)(nil)

// GoogleConfig identifies the results worksheet and the credentials used to reach it.
// Either CredentialsFile, or ClientEmail together with PrivateKeyFile, must be set.
type GoogleConfig struct {
	SpreadsheetKey    string
	WorksheetID       string // Numeric sheet id, sheet title, or "od6" for the first sheet
	CredentialsFile   string // Service account JSON
	ClientEmail       string // Service account email of the credential pair
	PrivateKeyFile    string // PEM private key of the credential pair
	RequestsPerMinute int    // Upper bound on API calls; 0 disables the limit
}

// GoogleAuthenticator opens sessions on a Google Sheets worksheet
type GoogleAuthenticator struct {
	cfg  GoogleConfig
	log  log.Logger
	opts []option.ClientOption
}

// NewGoogleAuthenticator creates an authenticator for cfg. Extra client options
// are passed to the Sheets service; when they carry their own transport no
// credentials need to be configured.
func NewGoogleAuthenticator(cfg GoogleConfig, logger log.Logger, opts ...option.ClientOption) *GoogleAuthenticator {
	if logger == nil {
		logger = log.Root()
	}
	return &GoogleAuthenticator{cfg: cfg, log: logger, opts: opts}
}

// Authenticate implements Authenticator
func (a *GoogleAuthenticator) Authenticate(ctx context.Context) (TableClient, error) {
	if a.cfg.SpreadsheetKey == "" {
		return nil, errors.New("spreadsheet key is required")
	}
	opts, err := a.clientOptions(ctx)
	if err != nil {
		return nil, err
	}
	a.log.Debug("Opening Google Sheets session", "spreadsheet", a.cfg.SpreadsheetKey, "worksheet", a.cfg.WorksheetID)
	return NewGoogleClient(ctx, a.cfg.SpreadsheetKey, a.cfg.WorksheetID, NewRequestLimiter(a.cfg.RequestsPerMinute), opts...)
}

func (a *GoogleAuthenticator) clientOptions(ctx context.Context) ([]option.ClientOption, error) {
	opts := append([]option.ClientOption(nil), a.opts...)

	switch {
	case a.cfg.CredentialsFile != "":
		data, err := os.ReadFile(a.cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, sheetsapi.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("failed to parse credentials file: %w", err)
		}
		opts = append(opts, option.WithCredentials(creds))

	case a.cfg.ClientEmail != "" || a.cfg.PrivateKeyFile != "":
		if a.cfg.ClientEmail == "" || a.cfg.PrivateKeyFile == "" {
			return nil, errors.New("both the client email and the private key file are required")
		}
		key, err := os.ReadFile(a.cfg.PrivateKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key: %w", err)
		}
		conf := &jwt.Config{
			Email:      a.cfg.ClientEmail,
			PrivateKey: key,
			Scopes:     []string{sheetsapi.SpreadsheetsScope},
			TokenURL:   google.JWTTokenURL,
		}
		opts = append(opts, option.WithTokenSource(conf.TokenSource(ctx)))

	case len(a.opts) == 0:
		return nil, errors.New("no sheet credentials configured")
	}

	return opts, nil
}

// NewRequestLimiter spreads perMinute requests evenly over a minute. It
// returns nil, meaning unlimited, when perMinute is not positive.
func NewRequestLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), requestBurst)
}

// googleClient implements TableClient on one worksheet of a spreadsheet
type googleClient struct {
	svc           *sheetsapi.Service
	limiter       *rate.Limiter
	spreadsheetID string
	sheetID       int64
	title         string
}

// NewGoogleClient creates a TableClient for the worksheet identified by
// worksheetID. Every API call waits on limiter; a nil limiter never blocks.
func NewGoogleClient(ctx context.Context, spreadsheetID, worksheetID string, limiter *rate.Limiter, opts ...option.ClientOption) (TableClient, error) {
	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	c := &googleClient{svc: svc, limiter: limiter, spreadsheetID: spreadsheetID}
	props, err := c.resolveSheet(ctx, worksheetID)
	if err != nil {
		return nil, err
	}
	c.sheetID = props.SheetId
	c.title = props.Title
	return c, nil
}

// wait blocks until the next API call is allowed
func (c *googleClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("sheets request not sent: %w", err)
	}
	return nil
}

func (c *googleClient) sheetProperties(ctx context.Context) ([]*sheetsapi.SheetProperties, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet %s: %w", c.spreadsheetID, err)
	}
	props := make([]*sheetsapi.SheetProperties, 0, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh != nil && sh.Properties != nil {
			props = append(props, sh.Properties)
		}
	}
	return props, nil
}

func (c *googleClient) resolveSheet(ctx context.Context, worksheetID string) (*sheetsapi.SheetProperties, error) {
	props, err := c.sheetProperties(ctx)
	if err != nil {
		return nil, err
	}
	if len(props) == 0 {
		return nil, fmt.Errorf("spreadsheet %s has no worksheets", c.spreadsheetID)
	}

	if worksheetID == "" || worksheetID == LegacyDefaultWorksheet {
		first := props[0]
		for _, p := range props {
			if p.Index < first.Index {
				first = p
			}
		}
		return first, nil
	}

	if gid, err := strconv.ParseInt(worksheetID, 10, 64); err == nil {
		for _, p := range props {
			if p.SheetId == gid {
				return p, nil
			}
		}
	}
	for _, p := range props {
		if p.Title == worksheetID {
			return p, nil
		}
	}
	return nil, fmt.Errorf("worksheet %q not found in spreadsheet %s", worksheetID, c.spreadsheetID)
}

// a1 qualifies a range with the worksheet title
func (c *googleClient) a1(rng string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(c.title, "'", "''"), rng)
}

// Header implements TableClient
func (c *googleClient) Header(ctx context.Context) (Header, error) {
	if err := c.wait(ctx); err != nil {
		return Header{}, err
	}
	vr, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.a1(fmt.Sprintf("%d:%d", HeaderRow, HeaderRow))).Context(ctx).Do()
	if err != nil {
		return Header{}, err
	}
	if len(vr.Values) == 0 {
		return Header{}, nil
	}
	labels := make([]string, len(vr.Values[0]))
	for i, v := range vr.Values[0] {
		labels[i] = fmt.Sprint(v)
	}
	return NewHeader(labels), nil
}

// ColumnCount implements TableClient
func (c *googleClient) ColumnCount(ctx context.Context) (int, error) {
	props, err := c.sheetProperties(ctx)
	if err != nil {
		return 0, err
	}
	for _, p := range props {
		if p.SheetId != c.sheetID {
			continue
		}
		if p.GridProperties == nil {
			return 0, &AcknowledgmentError{Op: "read capacity", Detail: "worksheet has no grid properties"}
		}
		return int(p.GridProperties.ColumnCount), nil
	}
	return 0, fmt.Errorf("worksheet %d disappeared from spreadsheet %s", c.sheetID, c.spreadsheetID)
}

// ResizeColumns implements TableClient
func (c *googleClient) ResizeColumns(ctx context.Context, columns int) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			UpdateSheetProperties: &sheetsapi.UpdateSheetPropertiesRequest{
				Properties: &sheetsapi.SheetProperties{
					SheetId:        c.sheetID,
					GridProperties: &sheetsapi.GridProperties{ColumnCount: int64(columns)},
					// The first sheet has id 0, which would otherwise be dropped from the request
					ForceSendFields: []string{"SheetId"},
				},
				Fields: "gridProperties.columnCount",
			},
		}},
	}
	resp, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return err
	}
	if len(resp.Replies) != 1 {
		return &AcknowledgmentError{Op: "resize", Detail: fmt.Sprintf("%d replies, expected 1", len(resp.Replies))}
	}
	return nil
}

// WriteCell implements TableClient
func (c *googleClient) WriteCell(ctx context.Context, row, col int, value string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	rng := c.a1(fmt.Sprintf("%s%d", ColumnName(col), row))
	vr := &sheetsapi.ValueRange{Values: [][]interface{}{{value}}}
	resp, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption(valueInputRaw).
		Context(ctx).
		Do()
	if err != nil {
		return err
	}
	if resp.UpdatedCells != 1 {
		return &AcknowledgmentError{Op: "write cell", Detail: fmt.Sprintf("%d cells updated at %s, expected 1", resp.UpdatedCells, rng)}
	}
	return nil
}

// AppendRow implements TableClient. Values are entered as if typed, so
// formulas such as the version hyperlink are evaluated.
func (c *googleClient) AppendRow(ctx context.Context, values []string) (AppendAck, error) {
	if err := c.wait(ctx); err != nil {
		return AppendAck{}, err
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	vr := &sheetsapi.ValueRange{Values: [][]interface{}{row}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.a1("A1"), vr).
		ValueInputOption(valueInputUserEntered).
		InsertDataOption(insertDataRows).
		Context(ctx).
		Do()
	if err != nil {
		return AppendAck{}, err
	}
	if resp.Updates == nil {
		return AppendAck{}, nil
	}
	return AppendAck{
		UpdatedRange: resp.Updates.UpdatedRange,
		UpdatedRows:  int(resp.Updates.UpdatedRows),
	}, nil
}

// Close implements TableClient
func (c *googleClient) Close() error {
	return nil
}

// ColumnName converts a 1-based column index to its A1 letters (1 -> A, 27 -> AA)
func ColumnName(col int) string {
	if col < 1 {
		return ""
	}
	var name []byte
	for col > 0 {
		col--
		name = append([]byte{byte('A' + col%26)}, name...)
		col /= 26
	}
	return string(name)
}
