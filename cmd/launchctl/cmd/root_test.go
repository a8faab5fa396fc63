package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/launchpad/internal/app"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.json")
	body := `{"log": {"file": "` + filepath.Join(dir, "launchctl.log") + `"}}`
	require.NoError(t, os.WriteFile(cfgFile, []byte(body), 0600))

	application, cancel = nil, nil
	simulateExport, exportFormat, exportDir, exportKind = false, "csv", "exports", ""
	balanceMint, balanceOwner, listArchived = "", "", false
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", cfgFile}, args...))

	err := rootCmd.ExecuteContext(context.Background())
	if cancel != nil {
		cancel()
	}
	if application != nil {
		require.NoError(t, application.Close())
	}
	return out.String(), err
}

func TestSimulate(t *testing.T) {
	out, err := execute(t, "simulate", "--name", "Demo", "--symbol", "DMO", "--uri", "https://example.com/d.json",
		"buy:0.05", "buy:0.02", "sell:1000000")
	require.NoError(t, err, out)

	assert.Contains(t, out, "Launch created")
	assert.Contains(t, out, "Demo (DMO)")
	assert.Contains(t, out, "created")
	assert.Contains(t, out, "bought")
	assert.Contains(t, out, "sold")
	assert.Contains(t, out, "progress")
}

func TestSimulateRejectsBadStep(t *testing.T) {
	_, err := execute(t, "simulate", "hold:1")
	assert.ErrorContains(t, err, `unknown side "hold"`)

	_, err = execute(t, "simulate", "buy")
	assert.ErrorContains(t, err, "want buy:<SOL> or sell:<tokens>")
}

func TestLocalnetNeedsSharedState(t *testing.T) {
	for _, args := range [][]string{
		{"buy", "11111111111111111111111111111111", "1"},
		{"show", "11111111111111111111111111111111"},
		{"history", "11111111111111111111111111111111"},
	} {
		_, err := execute(t, args...)
		assert.ErrorIs(t, err, app.ErrLocalnetState, args[0])
	}
}

func TestCreateOnLocalnet(t *testing.T) {
	out, err := execute(t, "create", "--fee-bps", "250", "--supply", "1000")
	require.NoError(t, err, out)
	assert.Contains(t, out, "250 bps")
	assert.Contains(t, out, "signature")
}

func TestParseAmounts(t *testing.T) {
	lamports, err := parseSOL("1.5")
	require.NoError(t, err)
	assert.Equal(t, uint64(1_500_000_000), lamports)

	units, err := parseTokens("2")
	require.NoError(t, err)
	assert.Equal(t, uint64(2_000_000), units)

	for _, bad := range []string{"", "-1", "0", "abc"} {
		_, err := parseSOL(bad)
		assert.Error(t, err, bad)
		_, err = parseTokens(bad)
		assert.Error(t, err, bad)
	}
}

func TestSimulateExport(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "simulate", "--export", "--format", "json", "--out", dir, "buy:0.05", "sell:1000")
	require.NoError(t, err, out)
	assert.Contains(t, out, "exported 3 events to "+dir)

	files, err := filepath.Glob(filepath.Join(dir, "events_all_*.json"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestExportNeedsSharedState(t *testing.T) {
	_, err := execute(t, "export", "11111111111111111111111111111111")
	assert.ErrorIs(t, err, app.ErrLocalnetState)
}

func TestBalanceOnLocalnet(t *testing.T) {
	out, err := execute(t, "balance")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Wallet ")
	assert.Contains(t, out, "1000 SOL")
	assert.NotContains(t, out, "tokens")

	mint := solana.NewWallet().PublicKey().String()
	out, err = execute(t, "balance", "--mint", mint)
	require.NoError(t, err, out)
	assert.Contains(t, out, mint)
	assert.Contains(t, out, "token account")

	owner := solana.NewWallet().PublicKey().String()
	out, err = execute(t, "balance", "--owner", owner)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Wallet "+owner)
	assert.Contains(t, out, "0 SOL")

	_, err = execute(t, "balance", "--owner", "not-a-key")
	assert.ErrorContains(t, err, "invalid address")
}

func TestIndexList(t *testing.T) {
	out, err := execute(t, "index", "--list")
	require.NoError(t, err, out)
	assert.Contains(t, out, "archive is empty")

	_, err = execute(t, "index", "--list", "11111111111111111111111111111111")
	assert.Error(t, err)

	_, err = execute(t, "index")
	assert.Error(t, err)
}
