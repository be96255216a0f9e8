package nse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/qmomentum/internal/s1_universe"
	"github.com/wonny/qmomentum/pkg/config"
	"github.com/wonny/qmomentum/pkg/httputil"
	"github.com/wonny/qmomentum/pkg/logger"
)

const nifty50Page = `<html><body>
<table class="infobox"><tr><th>Operator</th><td>NSE Indices</td></tr></table>
<table class="wikitable sortable">
<tr><th>Company name</th><th>Symbol</th><th>Sector</th><th>Market cap (crore)</th></tr>
<tr><td>Reliance Industries</td><td>RELIANCE</td><td>Energy</td><td>1,950,000</td></tr>
<tr><td>Infosys</td><td>infy.ns</td><td>Information Technology</td><td>-</td></tr>
<tr><td>Reliance again</td><td>RELIANCE</td><td>Energy</td><td>1</td></tr>
<tr><td>Footnote row</td><td></td><td></td><td></td></tr>
</table>
</body></html>`

func TestParseConstituents(t *testing.T) {
	members, err := ParseConstituents([]byte(nifty50Page))
	require.NoError(t, err)
	require.Len(t, members, 2)

	assert.Equal(t, "RELIANCE", members[0].Symbol)
	assert.Equal(t, "Reliance Industries", members[0].Company)
	assert.Equal(t, "Energy", members[0].Sector)
	require.NotNil(t, members[0].MarketCap)
	assert.InDelta(t, 1_950_000*1e7, *members[0].MarketCap, 1)

	assert.Equal(t, "INFY", members[1].Symbol)
	assert.Nil(t, members[1].MarketCap)
}

func TestParseConstituents_NoTable(t *testing.T) {
	_, err := ParseConstituents([]byte(`<table><tr><th>Name</th></tr></table>`))
	assert.ErrorIs(t, err, ErrNoTable)
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1,234.5", 1234.5, true},
		{" 42 ", 42, true},
		{"-", 0, false},
		{"", 0, false},
		{"n/a", 0, false},
		{"0", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseNumber(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestClient_Constituents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(nifty50Page))
	}))
	defer server.Close()

	cfg := config.ConstituentsConfig{Nifty50URL: server.URL, Timeout: time.Second}
	httpClient := httputil.New(&config.Config{Constituents: cfg}, logger.NewNop()).DisableRetry()
	client := NewClient(httpClient, cfg, logger.NewNop())

	members, err := client.Constituents(context.Background(), s1_universe.SelectorNifty50)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	_, err = client.Constituents(context.Background(), s1_universe.SelectorNifty500)
	assert.Error(t, err)
}

func TestClient_FeedsUniverseBuilder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(nifty50Page))
	}))
	defer server.Close()

	cfg := config.ConstituentsConfig{Nifty50URL: server.URL}
	client := NewClient(httputil.New(nil, logger.NewNop()).DisableRetry(), cfg, logger.NewNop())

	b := s1_universe.NewBuilder(client, s1_universe.Config{Selector: s1_universe.SelectorNifty50}, logger.NewNop())
	u, err := b.Build(context.Background(), nil, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, []string{"INFY", "RELIANCE"}, u.Symbols())
	assert.Equal(t, "Information Technology", u.Sector("INFY"))
}
