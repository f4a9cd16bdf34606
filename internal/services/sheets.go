package services

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/ternarybob/arbor"
	"golang.org/x/oauth2/google"

	"aktis-collector-wonderdesk/internal/common"
)

const sheetsScope = "https://www.googleapis.com/auth/spreadsheets"

const maxSheetTitle = 100

var (
	sheetTitleForbidden = regexp.MustCompile(`[\[\]:*?/\\]`)
	whitespaceRun       = regexp.MustCompile(`\s+`)
)

// SheetTitle makes s usable as a tab name: forbidden characters become
// spaces and the result is capped at 100 characters.
func SheetTitle(s string) string {
	s = sheetTitleForbidden.ReplaceAllString(s, " ")
	s = strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
	if r := []rune(s); len(r) > maxSheetTitle {
		s = string(r[:maxSheetTitle])
	}
	return s
}

// NewSheetsHTTPClient returns an HTTP client authorised with a service account key file
func NewSheetsHTTPClient(ctx context.Context, credentialsFile string) (*http.Client, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, common.WrapError(err, common.ErrorTypeConfiguration, "SHEETS_CREDENTIALS", "cannot read service account file").
			WithContext("path", credentialsFile)
	}

	conf, err := google.JWTConfigFromJSON(data, sheetsScope)
	if err != nil {
		return nil, common.WrapError(err, common.ErrorTypeConfiguration, "SHEETS_CREDENTIALS", "invalid service account file").
			WithContext("path", credentialsFile)
	}
	return conf.Client(ctx), nil
}

type sheetProperties struct {
	SheetID        int64  `json:"sheetId"`
	Title          string `json:"title"`
	GridProperties struct {
		RowCount    int `json:"rowCount"`
		ColumnCount int `json:"columnCount"`
	} `json:"gridProperties"`
}

type spreadsheetResponse struct {
	Sheets []struct {
		Properties sheetProperties `json:"properties"`
	} `json:"sheets"`
}

type valueRange struct {
	Range          string     `json:"range,omitempty"`
	MajorDimension string     `json:"majorDimension,omitempty"`
	Values         [][]string `json:"values"`
}

type batchUpdateRequest struct {
	Requests []map[string]interface{} `json:"requests"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// SheetsPublisher writes tables to a Google spreadsheet over the Sheets v4 REST API
type SheetsPublisher struct {
	client        *resty.Client
	spreadsheetID string
	logger        arbor.ILogger
}

func NewSheetsPublisher(httpClient *http.Client, cfg *common.SheetsConfig, logger arbor.ILogger) *SheetsPublisher {
	client := resty.NewWithClient(httpClient).
		SetBaseURL(strings.TrimRight(cfg.APIBaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &SheetsPublisher{
		client:        client,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}
}

func (p *SheetsPublisher) request(ctx context.Context) *resty.Request {
	return p.client.R().
		SetContext(ctx).
		SetPathParam("id", p.spreadsheetID).
		SetError(&apiError{})
}

func publishError(resp *resty.Response, err error, action string) error {
	if err != nil {
		return common.WrapError(err, common.ErrorTypePublish, "SHEETS_REQUEST", action)
	}
	if !resp.IsError() {
		return nil
	}

	details := resp.Status()
	if e, ok := resp.Error().(*apiError); ok && e.Error.Message != "" {
		details = fmt.Sprintf("%d %s: %s", e.Error.Code, e.Error.Status, e.Error.Message)
	}
	return common.NewPublishError("SHEETS_API", action).
		WithDetails(details).
		WithContext("status", resp.StatusCode())
}

func (p *SheetsPublisher) sheets(ctx context.Context) ([]sheetProperties, error) {
	var out spreadsheetResponse
	resp, err := p.request(ctx).
		SetQueryParam("fields", "sheets.properties").
		SetResult(&out).
		Get("/v4/spreadsheets/{id}")
	if err := publishError(resp, err, "failed to read spreadsheet"); err != nil {
		return nil, err
	}

	props := make([]sheetProperties, 0, len(out.Sheets))
	for _, s := range out.Sheets {
		props = append(props, s.Properties)
	}
	return props, nil
}

func (p *SheetsPublisher) batchUpdate(ctx context.Context, requests ...map[string]interface{}) error {
	resp, err := p.request(ctx).
		SetBody(batchUpdateRequest{Requests: requests}).
		Post("/v4/spreadsheets/{id}:batchUpdate")
	return publishError(resp, err, "spreadsheet batch update failed")
}

func quoteRange(title, cells string) string {
	quoted := "'" + strings.ReplaceAll(title, "'", "''") + "'"
	if cells == "" {
		return quoted
	}
	return quoted + "!" + cells
}

func (p *SheetsPublisher) writeValues(ctx context.Context, rng string, rows [][]string) error {
	resp, err := p.request(ctx).
		SetPathParam("range", rng).
		SetQueryParam("valueInputOption", "USER_ENTERED").
		SetBody(valueRange{Range: rng, MajorDimension: "ROWS", Values: rows}).
		Put("/v4/spreadsheets/{id}/values/{range}")
	return publishError(resp, err, "failed to write values")
}

func (p *SheetsPublisher) clearValues(ctx context.Context, rng string) error {
	resp, err := p.request(ctx).
		SetPathParam("range", rng).
		SetBody(map[string]interface{}{}).
		Post("/v4/spreadsheets/{id}/values/{range}:clear")
	return publishError(resp, err, "failed to clear values")
}

func (p *SheetsPublisher) readColumn(ctx context.Context, title, column string) ([][]string, error) {
	var out valueRange
	rng := quoteRange(title, column+":"+column)
	resp, err := p.request(ctx).
		SetPathParam("range", rng).
		SetResult(&out).
		Get("/v4/spreadsheets/{id}/values/{range}")
	if err := publishError(resp, err, "failed to read values"); err != nil {
		return nil, err
	}
	return out.Values, nil
}

func addSheetRequest(title string, rows, cols int) map[string]interface{} {
	return map[string]interface{}{
		"addSheet": map[string]interface{}{
			"properties": map[string]interface{}{
				"title": title,
				"gridProperties": map[string]interface{}{
					"rowCount":       max(rows, 1),
					"columnCount":    max(cols, 1),
					"frozenRowCount": 1,
				},
			},
		},
	}
}

func freezeHeaderRequest(sheetID int64) map[string]interface{} {
	return map[string]interface{}{
		"updateSheetProperties": map[string]interface{}{
			"properties": map[string]interface{}{
				"sheetId":        sheetID,
				"gridProperties": map[string]interface{}{"frozenRowCount": 1},
			},
			"fields": "gridProperties.frozenRowCount",
		},
	}
}

func appendRowsRequest(sheetID int64, n int) map[string]interface{} {
	return map[string]interface{}{
		"appendDimension": map[string]interface{}{
			"sheetId":   sheetID,
			"dimension": "ROWS",
			"length":    n,
		},
	}
}

// ensureTab returns the tab called title, adding it when missing
func (p *SheetsPublisher) ensureTab(ctx context.Context, title string, cols int) (sheetProperties, error) {
	sheets, err := p.sheets(ctx)
	if err != nil {
		return sheetProperties{}, err
	}
	if sheet, ok := findSheet(sheets, title); ok {
		return sheet, nil
	}

	if err := p.batchUpdate(ctx, addSheetRequest(title, 1000, cols)); err != nil {
		return sheetProperties{}, err
	}
	p.logger.Info().Str("tab", title).Msg("Created tab")

	if sheets, err = p.sheets(ctx); err != nil {
		return sheetProperties{}, err
	}
	sheet, ok := findSheet(sheets, title)
	if !ok {
		return sheetProperties{}, common.NewPublishError("SHEETS_TAB", "tab missing after creation").WithDetails(title)
	}
	return sheet, nil
}

func findSheet(sheets []sheetProperties, title string) (sheetProperties, bool) {
	for _, s := range sheets {
		if s.Title == title {
			return s, true
		}
	}
	return sheetProperties{}, false
}

func tableWidth(rows [][]string) int {
	w := 0
	for _, r := range rows {
		w = max(w, len(r))
	}
	return w
}

// ReplaceTab writes rows into a tab called title, discarding whatever the
// tab held before. The header row is frozen.
func (p *SheetsPublisher) ReplaceTab(ctx context.Context, title string, rows [][]string) error {
	title = SheetTitle(title)

	sheets, err := p.sheets(ctx)
	if err != nil {
		return err
	}

	existing, exists := findSheet(sheets, title)
	switch {
	case exists && len(sheets) > 1:
		err = p.batchUpdate(ctx,
			map[string]interface{}{"deleteSheet": map[string]interface{}{"sheetId": existing.SheetID}},
			addSheetRequest(title, len(rows), tableWidth(rows)),
		)
	case exists:
		if err = p.clearValues(ctx, quoteRange(title, "")); err == nil {
			err = p.batchUpdate(ctx, freezeHeaderRequest(existing.SheetID))
		}
	default:
		err = p.batchUpdate(ctx, addSheetRequest(title, len(rows), tableWidth(rows)))
	}
	if err != nil {
		return err
	}

	if len(rows) > 0 {
		if err := p.writeValues(ctx, quoteRange(title, "A1"), rows); err != nil {
			return err
		}
	}

	p.logger.Info().Str("tab", title).Int("rows", len(rows)).Msg("Sheet tab replaced")
	return nil
}

// AppendDaily appends the rows built for the first free row of tab, creating
// the tab with header when missing. It returns the first row written.
func (p *SheetsPublisher) AppendDaily(ctx context.Context, tab string, header []string, build func(startRow int) [][]string) (int, error) {
	tab = SheetTitle(tab)

	sheet, err := p.ensureTab(ctx, tab, len(header))
	if err != nil {
		return 0, err
	}

	filled, err := p.readColumn(ctx, tab, "A")
	if err != nil {
		return 0, err
	}

	lastRow := len(filled)
	if lastRow == 0 {
		if err := p.writeValues(ctx, quoteRange(tab, "A1"), [][]string{header}); err != nil {
			return 0, err
		}
		lastRow = 1
	}

	startRow := lastRow + 1
	rows := build(startRow)
	if len(rows) == 0 {
		return startRow, nil
	}

	if endRow := startRow + len(rows) - 1; endRow > sheet.GridProperties.RowCount {
		if err := p.batchUpdate(ctx, appendRowsRequest(sheet.SheetID, endRow-sheet.GridProperties.RowCount)); err != nil {
			return 0, err
		}
	}

	if err := p.writeValues(ctx, quoteRange(tab, fmt.Sprintf("A%d", startRow)), rows); err != nil {
		return 0, err
	}

	p.logger.Info().Str("tab", tab).Int("start_row", startRow).Int("rows", len(rows)).Msg("Daily rows appended")
	return startRow, nil
}
