package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"EditaisScanner/internal/domain"
)

const listingPage = `<html><body>
<a href="/uploads/edital-01.pdf">EDITAL Nº 01 - CABO - Técnico em Informática</a>
<a href="/uploads/edital-02.pdf">EDITAL Nº 02 - RECIFE - Técnico em Informática</a>
<a href="/uploads/resultado.pdf">Resultado do edital 01</a>
</body></html>`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		resetFlags(t)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

// resetFlags clears values and the Changed mark so viper falls back to the environment.
func resetFlags(t *testing.T) {
	t.Helper()
	for _, flags := range []*pflag.FlagSet{rootCmd.PersistentFlags(), runCmd.Flags()} {
		flags.VisitAll(func(f *pflag.Flag) {
			require.NoError(t, f.Value.Set(f.DefValue))
			f.Changed = false
		})
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "editais.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearSecrets(t *testing.T) {
	t.Helper()
	for _, key := range []string{"TELEGRAM_BOT_TOKEN", "BOT_TOKEN", "TELEGRAM_CHAT_ID", "KAFKA_BROKERS", "DATABASE_DSN", "LOG_LEVEL", "EDITAIS_CONFIG", "EDITAIS_LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	require.Equal(t, "editais dev\n", out)
}

func TestConfigShowRedactsSecrets(t *testing.T) {
	clearSecrets(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:secret")
	path := writeConfig(t, "filter:\n  locality: recife\n")

	out, err := execute(t, "config", "show", "--config", path)
	require.NoError(t, err)
	require.Contains(t, out, "locality: recife")
	require.Contains(t, out, "***")
	require.NotContains(t, out, "123:secret")
}

func TestConfigPathFromEnvironment(t *testing.T) {
	clearSecrets(t)
	t.Setenv("EDITAIS_CONFIG", writeConfig(t, "filter:\n  locality: olinda\n"))

	out, err := execute(t, "config", "show")
	require.NoError(t, err)
	require.Contains(t, out, "locality: olinda")
}

func TestRunFindsNoticesOnce(t *testing.T) {
	clearSecrets(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/editais/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(listingPage))
	}))
	defer server.Close()

	state := filepath.Join(t.TempDir(), "editais_cabo_ti.json")
	path := writeConfig(t, fmt.Sprintf("source:\n  listingUrl: %s/editais/\nstorage:\n  path: %s\n", server.URL, state))

	out, err := execute(t, "run", "--config", path, "--json")
	require.NoError(t, err)

	var notices []domain.Notice
	require.NoError(t, json.Unmarshal([]byte(out), &notices))
	require.Equal(t, []domain.Notice{{
		Title: "EDITAL Nº 01 - CABO - Técnico em Informática",
		Link:  server.URL + "/uploads/edital-01.pdf",
	}}, notices)

	out, err = execute(t, "run", "--config", path, "--json=false")
	require.NoError(t, err)
	require.Equal(t, "Nenhum edital novo encontrado.\n", out)

	raw, err := os.ReadFile(state)
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(string(raw), `"link"`))
}

func TestRunFailsOnBrokenListing(t *testing.T) {
	clearSecrets(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	state := filepath.Join(t.TempDir(), "state.json")
	path := writeConfig(t, fmt.Sprintf("source:\n  listingUrl: %s\nstorage:\n  path: %s\n", server.URL, state))

	_, err := execute(t, "run", "--config", path, "--json=false")
	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, http.StatusServiceUnavailable, fetchErr.StatusCode)

	_, statErr := os.Stat(state)
	require.True(t, os.IsNotExist(statErr), "nothing is persisted when the listing fails")
}

func TestPrintNotices(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printNotices(&buf, []domain.Notice{{Title: "EDITAL 01", Link: "https://x/1.pdf"}}, false))
	require.Equal(t, "📄 EDITAL 01\n🔗 https://x/1.pdf\n\n", buf.String())

	buf.Reset()
	require.NoError(t, printNotices(&buf, nil, true))
	require.Equal(t, "[]\n", buf.String())
}
