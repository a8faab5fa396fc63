package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/curve"
	"github.com/rovshanmuradov/launchpad/internal/eventlog"
	"github.com/rovshanmuradov/launchpad/internal/launch"
)

// ExportFormat represents the export file format
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

// ExportOptions configures the export behavior
type ExportOptions struct {
	Format     ExportFormat
	StartTime  time.Time
	EndTime    time.Time
	KindFilter launch.EventKind // Only events of this kind
	OutputDir  string
}

// Row is one exported event. Amounts are decimal strings in SOL and whole
// tokens so nothing is lost to float rounding.
type Row struct {
	Time         time.Time `json:"time"`
	Slot         uint64    `json:"slot"`
	Signature    string    `json:"signature"`
	Index        int       `json:"index"`
	Kind         string    `json:"kind"`
	User         string    `json:"user,omitempty"`
	SOL          string    `json:"sol"`
	Tokens       string    `json:"tokens"`
	Fee          string    `json:"fee"`
	Price        string    `json:"price"`
	SolReserve   string    `json:"sol_reserve"`
	TokenReserve string    `json:"token_reserve"`
	Graduated    bool      `json:"graduated"`

	solVolume decimal.Decimal
	feeSOL    decimal.Decimal
}

// CSVHeaders returns the CSV column names
func CSVHeaders() []string {
	return []string{"time", "slot", "signature", "index", "kind", "user", "sol", "tokens", "fee", "price", "sol_reserve", "token_reserve", "graduated"}
}

// ToCSV returns the row as CSV fields
func (r Row) ToCSV() []string {
	t := ""
	if !r.Time.IsZero() {
		t = r.Time.UTC().Format(time.RFC3339)
	}
	return []string{
		t,
		strconv.FormatUint(r.Slot, 10),
		r.Signature,
		strconv.Itoa(r.Index),
		r.Kind,
		r.User,
		r.SOL,
		r.Tokens,
		r.Fee,
		r.Price,
		r.SolReserve,
		r.TokenReserve,
		strconv.FormatBool(r.Graduated),
	}
}

// EventExporter writes launch histories to files
type EventExporter struct {
	params curve.Params
	logger *zap.Logger
}

// NewEventExporter creates an exporter pricing events with params.
func NewEventExporter(params curve.Params, logger *zap.Logger) *EventExporter {
	return &EventExporter{
		params: params,
		logger: logger,
	}
}

// Rows prices records and converts them to rows, keeping their order.
func (ee *EventExporter) Rows(records []eventlog.Record) ([]Row, error) {
	points, err := eventlog.PriceSeries(ee.params, records)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(records))
	for i, rec := range records {
		p := points[i]
		row := Row{
			Time:         rec.BlockTime,
			Slot:         rec.Slot,
			Signature:    rec.Signature.String(),
			Index:        rec.Index,
			Kind:         p.Kind,
			Price:        p.SOLPerToken.String(),
			SolReserve:   curve.LamportsToSOL(p.SolReserve).String(),
			TokenReserve: curve.BaseUnitsToTokens(p.TokenReserve).String(),
			Graduated:    p.Graduated,
		}

		var lamports, units, fee uint64
		switch e := rec.Event.(type) {
		case *launch.Created:
			row.User = e.Creator.String()
			units = e.TokenReserve
		case *launch.Bought:
			row.User = e.User.String()
			lamports, units, fee = e.SolIn, e.TokensOut, e.FeeLamports
		case *launch.Sold:
			row.User = e.User.String()
			lamports, units, fee = e.SolOutNet, e.TokensIn, e.FeeLamports
		}
		row.solVolume = curve.LamportsToSOL(lamports)
		row.feeSOL = curve.LamportsToSOL(fee)
		row.SOL = row.solVolume.String()
		row.Tokens = curve.BaseUnitsToTokens(units).String()
		row.Fee = row.feeSOL.String()
		rows = append(rows, row)
	}
	return rows, nil
}

// ExportEvents exports the history of launchAddr based on the provided
// options and returns the file path.
func (ee *EventExporter) ExportEvents(launchAddr string, records []eventlog.Record, options ExportOptions) (string, error) {
	rows, err := ee.Rows(records)
	if err != nil {
		return "", err
	}
	filtered := filterRows(rows, options)
	if len(filtered) == 0 {
		return "", fmt.Errorf("no events match the export criteria")
	}

	filename := generateFilename(launchAddr, options)
	outputPath := filepath.Join(options.OutputDir, filename)

	if err := os.MkdirAll(options.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	switch options.Format {
	case FormatCSV:
		err = exportToCSV(filtered, outputPath)
	case FormatJSON:
		err = exportToJSON(launchAddr, filtered, outputPath)
	default:
		err = fmt.Errorf("unsupported format: %s", options.Format)
	}
	if err != nil {
		return "", err
	}

	ee.logger.Info("Events exported",
		zap.String("file", outputPath),
		zap.Int("count", len(filtered)),
		zap.String("format", string(options.Format)))

	return outputPath, nil
}

// filterRows applies filters to the row list
func filterRows(rows []Row, options ExportOptions) []Row {
	var filtered []Row
	for _, row := range rows {
		if !options.StartTime.IsZero() && row.Time.Before(options.StartTime) {
			continue
		}
		if !options.EndTime.IsZero() && row.Time.After(options.EndTime) {
			continue
		}
		if options.KindFilter != "" && row.Kind != string(options.KindFilter) {
			continue
		}
		filtered = append(filtered, row)
	}
	return filtered
}

// generateFilename creates a filename based on export options
func generateFilename(launchAddr string, options ExportOptions) string {
	timestamp := time.Now().Format("20060102_150405")

	prefix := "events_all"
	if options.KindFilter != "" {
		prefix = fmt.Sprintf("events_%s", options.KindFilter)
	}
	if len(launchAddr) >= 8 {
		prefix += "_" + launchAddr[:8]
	}

	return fmt.Sprintf("%s_%s.%s", prefix, timestamp, options.Format)
}

// exportToCSV exports rows to CSV format
func exportToCSV(rows []Row, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(CSVHeaders()); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row.ToCSV()); err != nil {
			return fmt.Errorf("failed to write event: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// exportToJSON exports rows with a summary to JSON format
func exportToJSON(launchAddr string, rows []Row, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	exportData := struct {
		ExportTime time.Time     `json:"export_time"`
		Launch     string        `json:"launch"`
		EventCount int           `json:"event_count"`
		Summary    ExportSummary `json:"summary"`
		Hourly     []HourlyStats `json:"hourly_breakdown"`
		Events     []Row         `json:"events"`
	}{
		ExportTime: time.Now(),
		Launch:     launchAddr,
		EventCount: len(rows),
		Summary:    Summarize(rows),
		Hourly:     hourlyBreakdown(rows),
		Events:     rows,
	}

	if err := encoder.Encode(exportData); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// ExportSummary contains summary statistics for exported events
type ExportSummary struct {
	TotalEvents int       `json:"total_events"`
	BuyCount    int       `json:"buy_count"`
	SellCount   int       `json:"sell_count"`
	UniqueUsers int       `json:"unique_users"`
	BuyVolume   string    `json:"buy_volume_sol"`
	SellVolume  string    `json:"sell_volume_sol"`
	TotalFees   string    `json:"total_fees_sol"`
	OpenPrice   string    `json:"open_price"`
	LastPrice   string    `json:"last_price"`
	PriceChange string    `json:"price_change_pct"`
	Graduated   bool      `json:"graduated"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
}

// Summarize calculates summary statistics for rows
func Summarize(rows []Row) ExportSummary {
	summary := ExportSummary{TotalEvents: len(rows)}
	if len(rows) == 0 {
		return summary
	}

	summary.StartDate = rows[0].Time
	summary.EndDate = rows[len(rows)-1].Time
	summary.OpenPrice = rows[0].Price
	summary.LastPrice = rows[len(rows)-1].Price

	users := make(map[string]bool)
	var buyVol, sellVol, fees decimal.Decimal
	for _, row := range rows {
		if row.User != "" && row.Kind != string(launch.EventCreated) {
			users[row.User] = true
		}
		fees = fees.Add(row.feeSOL)
		switch launch.EventKind(row.Kind) {
		case launch.EventBought:
			summary.BuyCount++
			buyVol = buyVol.Add(row.solVolume)
		case launch.EventSold:
			summary.SellCount++
			sellVol = sellVol.Add(row.solVolume)
		}
		summary.Graduated = summary.Graduated || row.Graduated
	}
	summary.UniqueUsers = len(users)
	summary.BuyVolume = buyVol.String()
	summary.SellVolume = sellVol.String()
	summary.TotalFees = fees.String()

	open, err1 := decimal.NewFromString(summary.OpenPrice)
	last, err2 := decimal.NewFromString(summary.LastPrice)
	if err1 == nil && err2 == nil && open.IsPositive() {
		summary.PriceChange = last.Sub(open).Div(open).Mul(decimal.NewFromInt(100)).StringFixed(2)
	}
	return summary
}

// HourlyStats represents trading statistics for an hour
type HourlyStats struct {
	Hour      int    `json:"hour"`
	Events    int    `json:"events"`
	BuyCount  int    `json:"buy_count"`
	SellCount int    `json:"sell_count"`
	Volume    string `json:"volume_sol"`
}

// hourlyBreakdown groups rows by UTC hour of day
func hourlyBreakdown(rows []Row) []HourlyStats {
	type acc struct {
		stats  HourlyStats
		volume decimal.Decimal
	}
	hourly := make(map[int]*acc)

	for _, row := range rows {
		if row.Time.IsZero() {
			continue
		}
		hour := row.Time.UTC().Hour()
		a, ok := hourly[hour]
		if !ok {
			a = &acc{stats: HourlyStats{Hour: hour}}
			hourly[hour] = a
		}
		a.stats.Events++
		a.volume = a.volume.Add(row.solVolume)
		switch launch.EventKind(row.Kind) {
		case launch.EventBought:
			a.stats.BuyCount++
		case launch.EventSold:
			a.stats.SellCount++
		}
	}

	var breakdown []HourlyStats
	for hour := 0; hour < 24; hour++ {
		if a, ok := hourly[hour]; ok {
			a.stats.Volume = a.volume.String()
			breakdown = append(breakdown, a.stats)
		}
	}
	return breakdown
}
