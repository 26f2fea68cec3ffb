// backend/src/parsers/notion/parser.go
package notion

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/username/tradelog/backend/src/models"
)

// headerAliases maps each canonical column to the header spellings seen in
// Notion exports. Matching is exact-or-substring, first alias wins.
var headerAliases = map[string][]string{
	"ticker":       {"ティッカー", "Ticker", "ticker", "銘柄"},
	"entryDate":    {"エントリー", "エントリー日", "Entry Date", "entry_date"},
	"entryPrice":   {"取得単価（ドル）", "取得単価(ドル)", "取得単価", "Entry Price", "entry_price", "買値"},
	"shares":       {"取得株数", "株数", "Shares", "shares"},
	"per":          {"PER", "per"},
	"perFwd":       {"予想PER", "予想per", "Forward PER"},
	"exitDate":     {"クローズ", "決済日", "Exit Date", "exit_date"},
	"exitShares":   {"売却株数", "Exit Shares"},
	"note":         {"備考", "メモ", "Note", "note"},
	"pnl":          {"損益（円）", "損益(円)", "損益", "PnL"},
	"deliveryDate": {"受渡日", "Delivery Date"},
	"totalCost":    {"投資元本（円）", "投資元本(円)", "投資元本", "投資総額"},
}

var datePattern = regexp.MustCompile(`(\d{4})[/\-](\d{1,2})[/\-](\d{1,2})`)

// NotionParser converts a Notion trade-log CSV export into positions.
type NotionParser struct{}

func NewParser() *NotionParser {
	return &NotionParser{}
}

// Parse reads a Notion CSV export and converts its rows into positions.
// Rows without a ticker are skipped; everything else is taken permissively,
// with missing numeric cells recorded as zero rather than rejecting the row.
// A row carrying both an exit date and exit share count gets a single
// synthetic exit whose P&L comes straight from the sheet.
func (p *NotionParser) Parse(file io.Reader, fxRate float64) ([]models.Position, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("notion parser: failed to read CSV header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.Trim(strings.TrimSpace(header[i]), `"'`))
	}

	idx := map[string]int{}
	for key, aliases := range headerAliases {
		idx[key] = findColumn(header, aliases)
	}
	if idx["ticker"] == -1 {
		return nil, fmt.Errorf("notion parser: no ticker column found in header %v", header)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("notion parser: failed to read CSV records: %w", err)
	}

	var positions []models.Position
	for rowNum, record := range records {
		get := func(key string) string {
			i := idx[key]
			if i < 0 || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(strings.Trim(strings.TrimSpace(record[i]), `"'`))
		}

		ticker := strings.ToUpper(get("ticker"))
		if ticker == "" {
			continue
		}

		entryPrice := parseFloatCell(get("entryPrice"))
		shares := parseIntCell(get("shares"))
		totalCost := parseFloatCell(get("totalCost"))
		if totalCost == 0 && entryPrice > 0 && shares > 0 {
			totalCost = math.Round(entryPrice * fxRate * float64(shares))
		}

		pos := models.Position{
			Ticker:       ticker,
			EntryDate:    formatNotionDate(get("entryDate")),
			EntryPrice:   entryPrice,
			Shares:       shares,
			EntryFx:      fxRate,
			TotalCost:    totalCost,
			Commission:   0,
			Account:      models.AccountNisa,
			PER:          parseFloatPtr(get("per")),
			PERFwd:       parseFloatPtr(get("perFwd")),
			DeliveryDate: formatNotionDate(get("deliveryDate")),
			Note:         get("note"),
			Exits:        []models.Exit{},
		}

		exitDate := formatNotionDate(get("exitDate"))
		exitShares := parseIntCell(get("exitShares"))
		if exitDate != "" && exitShares > 0 {
			pnl := parseFloatCell(get("pnl"))
			pnlPct := 0.0
			if pos.Shares > 0 {
				costOfSold := pos.TotalCost * float64(exitShares) / float64(pos.Shares)
				if pnl != 0 && costOfSold != 0 {
					pnlPct = pnl / costOfSold * 100
				}
			}
			pos.Exits = []models.Exit{{
				Shares: exitShares,
				Price:  0, // Notion exports carry no USD sell price
				Fx:     fxRate,
				Date:   exitDate,
				Pnl:    pnl,
				PnlPct: pnlPct,
			}}
		}

		if pos.EntryDate == "" {
			slog.Debug("notion parser: row has no parseable entry date", "row", rowNum+2, "ticker", ticker)
		}
		positions = append(positions, pos)
	}

	return positions, nil
}

func findColumn(header []string, aliases []string) int {
	for _, a := range aliases {
		for i, h := range header {
			if h == a || strings.Contains(h, a) {
				return i
			}
		}
	}
	return -1
}

// formatNotionDate normalizes Notion's date spellings (YYYY/M/D or
// YYYY-M-D, possibly embedded in a longer cell) to ISO YYYY-MM-DD.
// Unparseable cells come back empty.
func formatNotionDate(s string) string {
	m := datePattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	return fmt.Sprintf("%s-%02d-%02d", m[1], month, day)
}

func stripCurrency(s string) string {
	s = strings.ReplaceAll(s, "¥", "")
	s = strings.ReplaceAll(s, ",", "")
	return strings.TrimSpace(s)
}

func parseFloatCell(s string) float64 {
	v, err := strconv.ParseFloat(stripCurrency(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseFloatPtr(s string) *float64 {
	v, err := strconv.ParseFloat(stripCurrency(s), 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseIntCell(s string) int {
	v, err := strconv.Atoi(stripCurrency(s))
	if err != nil {
		// Notion sometimes renders counts as "100.0"
		if f, ferr := strconv.ParseFloat(stripCurrency(s), 64); ferr == nil {
			return int(f)
		}
		return 0
	}
	return v
}
