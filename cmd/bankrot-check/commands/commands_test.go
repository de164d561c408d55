package commands

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bankrot-check/internal/components/chrono"
	"bankrot-check/internal/record"
	"bankrot-check/internal/store"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.json5"))
	require.NoError(t, err)
	require.Equal(t, Config{}, cfg)

	path := filepath.Join(t.TempDir(), "bankrot.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{
		// comments are allowed
		proxy: "socks5://127.0.0.1:1080",
		workers: 3,
		delay_min_ms: 500,
	}`), 0600))

	cfg, err = loadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "socks5://127.0.0.1:1080", cfg.Proxy)
	require.Equal(t, 3, cfg.Workers)

	opts := cfg.sessionOptions()
	require.Equal(t, 500*time.Millisecond, opts.DelayMin)
}

func TestApplyFlags(t *testing.T) {
	flags := pflag.NewFlagSet("check", pflag.ContinueOnError)
	flags.String("proxy", "", "")
	flags.String("input", defaultInput, "")
	flags.String("output", "", "")
	flags.String("output-dir", defaultOutputDir, "")
	flags.String("store", "xlsx", "")
	flags.Int("workers", 1, "")
	flags.String("dump-dir", "", "")
	flags.Float64("rate-limit", 0, "")
	flags.Int("max-attempts", 20, "")
	require.NoError(t, flags.Parse([]string{"--workers", "5", "--proxy", "http://proxy:3128"}))

	cfg := Config{Workers: 2, Proxy: "socks5://old:1080", Input: "roster.xlsx"}
	require.NoError(t, cfg.applyFlags(flags))
	require.Equal(t, 5, cfg.Workers)
	require.Equal(t, "http://proxy:3128", cfg.Proxy)
	// unset flags keep the config value
	require.Equal(t, "roster.xlsx", cfg.Input)
}

func TestWithDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	require.Equal(t, defaultInput, cfg.Input)
	require.Equal(t, defaultOutputDir, cfg.OutputDir)
	require.Equal(t, "xlsx", cfg.Store)
	require.Equal(t, 1, cfg.Workers)
}

func TestOutputLocation(t *testing.T) {
	clock := chrono.FixedImpl{At: time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)}

	cfg := Config{OutputDir: "out", Store: "xlsx"}
	require.Equal(t, filepath.Join("out", "bankrot_2024-03-05_14-07-09.xlsx"), cfg.outputLocation(clock))

	cfg.Store = "sqlite"
	require.Equal(t, filepath.Join("out", "bankrot_2024-03-05_14-07-09.db"), cfg.outputLocation(clock))

	cfg.Output = "libsql://db.example.org"
	require.Equal(t, "libsql://db.example.org", cfg.outputLocation(clock))
	require.True(t, isURL(cfg.Output))
	require.False(t, isURL("out/result.db"))
}

const emptyResultPage = `<html><body><table class="bank" id="ctl00_cphBody_gvDebtors">
<tr><th>Категория</th><th>Должник</th><th>ИНН</th><th>ОГРНИП</th><th>СНИЛС</th><th>Регион</th><th>Адрес</th></tr>
</table></body></html>`

func TestRunCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(emptyResultPage))
	}))
	t.Cleanup(server.Close)

	dir := t.TempDir()
	input := filepath.Join(dir, "debtors_list.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Фамилия", "Имя", "Отчество"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Иванов", "Иван", "Иванович"}))
	require.NoError(t, f.SaveAs(input))
	require.NoError(t, f.Close())

	cfg := Config{
		Endpoint:  server.URL,
		Input:     input,
		OutputDir: filepath.Join(dir, "output"),
	}.withDefaults()
	clock := chrono.FixedImpl{At: time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)}

	summary, err := runCheck(context.Background(), cfg, clock)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Count(record.StatusNotFound))

	out, err := excelize.OpenFile(cfg.outputLocation(clock))
	require.NoError(t, err)
	defer out.Close()
	rows, err := out.GetRows(store.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, record.Header(), rows[0])
	require.Equal(t, "Иванов", rows[1][0])
	require.Equal(t, record.StatusNotFound.String(), rows[1][len(rows[1])-1])
}
