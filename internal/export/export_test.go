package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/curve"
	"github.com/rovshanmuradov/launchpad/internal/eventlog"
	"github.com/rovshanmuradov/launchpad/internal/launch"
)

const launchAddr = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"

func generateTestRecords() []eventlog.Record {
	user := solana.NewWallet().PublicKey()
	base := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	const supply = 1_000_000_000_000_000

	return []eventlog.Record{
		{
			Slot: 1, BlockTime: base, Signature: solana.Signature{1},
			Event: &launch.Created{Creator: user, FeeRateBps: 100, TokenReserve: supply},
		},
		{
			Slot: 2, BlockTime: base.Add(time.Minute), Signature: solana.Signature{2},
			Event: &launch.Bought{User: user, SolIn: 1_000_000_000, FeeLamports: 10_000_000, TokensOut: 900_000_000_000_000,
				SolReserve: 990_000_000, TokenReserve: supply - 900_000_000_000_000},
		},
		{
			Slot: 3, BlockTime: base.Add(2 * time.Hour), Signature: solana.Signature{3},
			Event: &launch.Sold{User: user, TokensIn: 100_000_000_000_000, SolOutGross: 500_000_000, FeeLamports: 5_000_000,
				SolOutNet: 495_000_000, SolReserve: 490_000_000, TokenReserve: supply - 800_000_000_000_000},
		},
	}
}

func newExporter() *EventExporter {
	return NewEventExporter(curve.DefaultParams(), zap.NewNop())
}

func TestRows(t *testing.T) {
	rows, err := newExporter().Rows(generateTestRecords())
	if err != nil {
		t.Fatalf("Rows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}

	if rows[0].Kind != "created" || rows[0].Tokens != "1000000000" || rows[0].SOL != "0" {
		t.Errorf("Unexpected created row: %+v", rows[0])
	}
	if rows[1].SOL != "1" || rows[1].Fee != "0.01" || rows[1].Tokens != "900000000" {
		t.Errorf("Unexpected bought row: %+v", rows[1])
	}
	if rows[2].SOL != "0.495" || rows[2].Tokens != "100000000" {
		t.Errorf("Unexpected sold row: %+v", rows[2])
	}
}

func TestSummarize(t *testing.T) {
	rows, err := newExporter().Rows(generateTestRecords())
	if err != nil {
		t.Fatal(err)
	}
	s := Summarize(rows)

	if s.TotalEvents != 3 || s.BuyCount != 1 || s.SellCount != 1 {
		t.Errorf("Unexpected counts: %+v", s)
	}
	if s.UniqueUsers != 1 {
		t.Errorf("Expected 1 unique user, got %d", s.UniqueUsers)
	}
	if s.BuyVolume != "1" || s.SellVolume != "0.495" || s.TotalFees != "0.015" {
		t.Errorf("Unexpected volumes: buy %s sell %s fees %s", s.BuyVolume, s.SellVolume, s.TotalFees)
	}
	if s.PriceChange == "" || strings.HasPrefix(s.PriceChange, "-") {
		t.Errorf("Expected a positive price change, got %q", s.PriceChange)
	}
	if s.Graduated {
		t.Error("Expected launch not graduated")
	}

	if empty := Summarize(nil); empty.TotalEvents != 0 || empty.PriceChange != "" {
		t.Errorf("Unexpected empty summary: %+v", empty)
	}
}

func TestEventExportCSV(t *testing.T) {
	tempDir := t.TempDir()
	outputPath, err := newExporter().ExportEvents(launchAddr, generateTestRecords(), ExportOptions{
		Format:    FormatCSV,
		OutputDir: tempDir,
	})
	if err != nil {
		t.Fatalf("Failed to export events: %v", err)
	}
	if !strings.Contains(outputPath, "events_all_9xQeWvG8") {
		t.Errorf("Unexpected file name %s", outputPath)
	}

	f, err := os.Open(outputPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("Expected header and 3 rows, got %d", len(records))
	}
	if strings.Join(records[0], ",") != strings.Join(CSVHeaders(), ",") {
		t.Errorf("Unexpected header %v", records[0])
	}
	if records[2][4] != "bought" || records[2][0] != "2026-03-01T10:31:00Z" {
		t.Errorf("Unexpected row %v", records[2])
	}
}

func TestEventExportJSON(t *testing.T) {
	tempDir := t.TempDir()
	outputPath, err := newExporter().ExportEvents(launchAddr, generateTestRecords(), ExportOptions{
		Format:     FormatJSON,
		KindFilter: launch.EventBought,
		OutputDir:  tempDir,
	})
	if err != nil {
		t.Fatalf("Failed to export events: %v", err)
	}

	content, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("Failed to read export file: %v", err)
	}
	var doc struct {
		Launch     string        `json:"launch"`
		EventCount int           `json:"event_count"`
		Summary    ExportSummary `json:"summary"`
		Hourly     []HourlyStats `json:"hourly_breakdown"`
		Events     []Row         `json:"events"`
	}
	if err := json.Unmarshal(content, &doc); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if doc.Launch != launchAddr || doc.EventCount != 1 || len(doc.Events) != 1 {
		t.Errorf("Unexpected document: %+v", doc)
	}
	if doc.Events[0].Kind != "bought" || doc.Summary.BuyVolume != "1" {
		t.Errorf("Unexpected event %+v", doc.Events[0])
	}
	if len(doc.Hourly) != 1 || doc.Hourly[0].Hour != 10 || doc.Hourly[0].BuyCount != 1 {
		t.Errorf("Unexpected hourly breakdown %+v", doc.Hourly)
	}
}

func TestExportFilters(t *testing.T) {
	exporter := newExporter()
	records := generateTestRecords()
	base := records[0].BlockTime

	_, err := exporter.ExportEvents(launchAddr, records, ExportOptions{
		Format:    FormatCSV,
		StartTime: base.Add(24 * time.Hour),
		OutputDir: t.TempDir(),
	})
	if err == nil {
		t.Error("Expected error when no events match")
	}

	rows, _ := exporter.Rows(records)
	window := filterRows(rows, ExportOptions{StartTime: base.Add(time.Second), EndTime: base.Add(time.Hour)})
	if len(window) != 1 || window[0].Kind != "bought" {
		t.Errorf("Unexpected window %+v", window)
	}

	_, err = exporter.ExportEvents(launchAddr, records, ExportOptions{Format: "xml", OutputDir: t.TempDir()})
	if err == nil {
		t.Error("Expected error for unsupported format")
	}
}
