package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	m "fincalendar/internal/model"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(t *testing.T, name string) *goquery.Document {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", name))
	require.NoError(t, err)
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	require.NoError(t, err)
	return doc
}

func newTestScraper(t *testing.T, opts ...Option) *Scraper {
	t.Helper()
	s, err := NewScraper(opts...)
	require.NoError(t, err)
	return s
}

var oct31 = time.Date(2024, 10, 31, 0, 0, 0, 0, time.UTC)

func TestParseEarnings(t *testing.T) {
	s := newTestScraper(t)

	rows, err := s.parseEarnings(fixture(t, "earnings.html"), m.Korea, oct31)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	samsung := rows[0]
	assert.Equal(t, "005930", samsung.Ticker)
	assert.Equal(t, "Samsung Electronics", samsung.Name)
	assert.Equal(t, m.Korea, samsung.Country)
	assert.Equal(t, m.UnixMilli(oct31), samsung.ReleaseDate)
	assert.Equal(t, "1300.5", samsung.ActualEPS.String())
	assert.Equal(t, "1234.10", samsung.ForecastEPS.String())
	assert.Equal(t, "1100", samsung.PreviousEPS.String())
	assert.Equal(t, "79100000000000", samsung.ActualRevenue.String())
	assert.Equal(t, "74070000000000", samsung.PreviousRevenue.String())

	hynix := rows[1]
	assert.Equal(t, "SK Hynix & Co", hynix.Name)
	assert.True(t, hynix.ActualEPS.IsZero())
	assert.True(t, hynix.ActualRevenue.IsZero())
	assert.Equal(t, "-1234", hynix.PreviousEPS.String())

	lg := rows[2]
	assert.Equal(t, "373220", lg.Ticker)
	assert.Equal(t, m.UnixMilli(oct31.AddDate(0, 0, 1)), lg.ReleaseDate)
	assert.True(t, lg.ForecastEPS.IsZero())
	assert.Equal(t, "0.10", lg.PreviousEPS.String())
}

func TestParseEarningsOtherCountry(t *testing.T) {
	s := newTestScraper(t)

	rows, err := s.parseEarnings(fixture(t, "earnings.html"), m.Japan, oct31)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "6758", rows[0].Ticker)
}

func TestParseDividends(t *testing.T) {
	s := newTestScraper(t)
	nov8 := time.Date(2024, 11, 8, 0, 0, 0, 0, time.UTC)

	rows, err := s.parseDividends(fixture(t, "dividends.html"), m.UnitedStates, nov8)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	apple := rows[0]
	assert.Equal(t, "AAPL", apple.Ticker)
	assert.Equal(t, "Apple Inc", apple.Name)
	assert.Equal(t, m.UnixMilli(nov8), apple.ExDividendDate)
	assert.Equal(t, m.UnixMilli(nov8.AddDate(0, 0, 6)), apple.PaymentDate)
	assert.Equal(t, "0.25", apple.Amount.String())

	att := rows[1]
	assert.Equal(t, "AT&T", att.Name)
	assert.Equal(t, m.UnixMilli(nov8), att.ExDividendDate)
	assert.Equal(t, int64(0), att.PaymentDate)
	assert.Equal(t, "0.2775", att.PreviousAmount.String())
}

func TestParseIndicators(t *testing.T) {
	s := newTestScraper(t)

	rows, err := s.parseIndicators(fixture(t, "economic.html"), m.UnitedStates, oct31)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	pce := rows[0]
	assert.Equal(t, "Core PCE Price Index (MoM) (Sep)", pce.Name)
	assert.Equal(t, m.HighImportance, pce.Importance)
	assert.Equal(t, m.UnixMilli(oct31.Add(12*time.Hour+30*time.Minute)), pce.ReleaseDate)
	assert.Equal(t, "0.3", pce.Actual.String())
	assert.Equal(t, "0.1", pce.Previous.String())

	claims := rows[1]
	assert.Equal(t, m.MediumImportance, claims.Importance)
	assert.Equal(t, "216000", claims.Actual.String())

	holiday := rows[2]
	assert.Equal(t, "Halloween", holiday.Name)
	assert.Equal(t, m.LowImportance, holiday.Importance)
	assert.Equal(t, m.UnixMilli(oct31), holiday.ReleaseDate)
	assert.True(t, holiday.Actual.IsZero())
}

const partialEconomicPage = `<html><body>
<table id="economicCalendarData"><tbody>
  <tr><td class="theDay" data-day="2024-10-31">Thursday, October 31, 2024</td></tr>
  <tr data-event-datetime="2024/10/31 12:30:00">
    <td class="flagCur"><span title="United States"></span></td>
    <td class="sentiment"><i class="grayFullBullishIcon"></i><i class="grayFullBullishIcon"></i><i class="grayFullBullishIcon"></i></td>
    <td class="event"><a>CPI (YoY)</a></td>
    <td class="act">2.4%</td><td class="fore">2.3%</td><td class="prev">2.5%</td>
  </tr>
  <tr data-event-datetime="2024/10/31 12:30:00">
    <td class="flagCur"><span title="United States"></span></td>
    <td class="sentiment"><i class="grayFullBullishIcon"></i></td>
    <td class="event"><a>GDP (QoQ)</a></td>
    <td class="act">2.8%</td><td class="fore">1.1%p</td><td class="prev">3.0%</td>
  </tr>
  <tr data-event-datetime="31/10/2024">
    <td class="flagCur"><span title="United States"></span></td>
    <td class="event"><a>Chicago PMI</a></td>
    <td class="act"></td><td class="fore">47.0</td><td class="prev">46.6</td>
  </tr>
</tbody></table>
</body></html>`

func TestParseMalformedRows(t *testing.T) {
	s := newTestScraper(t)

	t.Run("Indicators", func(t *testing.T) {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(partialEconomicPage))
		require.NoError(t, err)

		rows, err := s.parseIndicators(doc, m.UnitedStates, oct31)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "CPI (YoY)", rows[0].Name)
		assert.Equal(t, "2.4", rows[0].Actual.String())
	})

	t.Run("Earnings", func(t *testing.T) {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<table id="earningsCalendarData"><tbody>
			<tr><td class="earnCalCompany"><a>005930</a></td><td class="eps_actual">1,300.5</td></tr>
			<tr><td class="earnCalCompany"><a>000660</a></td><td class="eps_actual">12..3</td></tr>
		</tbody></table>`))
		require.NoError(t, err)

		rows, err := s.parseEarnings(doc, m.Korea, oct31)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "005930", rows[0].Ticker)
	})

	t.Run("Dividends", func(t *testing.T) {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<table id="dividendsCalendarData"><tbody>
			<tr><td class="dividendCompany"><a>AAPL</a></td><td class="amount">0.25</td></tr>
			<tr><td class="dividendCompany"><a>T</a></td><td class="exDate">Nov 31, 2024</td><td class="amount">0.2775</td></tr>
			<tr><td class="dividendCompany"><a>KO</a></td><td class="amount">abc</td></tr>
		</tbody></table>`))
		require.NoError(t, err)

		rows, err := s.parseDividends(doc, m.UnitedStates, oct31)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "AAPL", rows[0].Ticker)
		assert.Equal(t, m.UnixMilli(oct31), rows[0].ExDividendDate)
	})
}

func TestParseMissingTable(t *testing.T) {
	s := newTestScraper(t)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body>blocked</body></html>"))
	require.NoError(t, err)

	_, err = s.parseEarnings(doc, m.Korea, oct31)
	assert.Error(t, err)
	_, err = s.parseDividends(doc, m.Korea, oct31)
	assert.Error(t, err)
	_, err = s.parseIndicators(doc, m.Korea, oct31)
	assert.Error(t, err)
}

func TestCalendarOverHTTP(t *testing.T) {

	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		switch r.URL.Path {
		case "/economic-calendar/":
			if r.URL.Query().Get("date") == "2024-11-01" {
				w.Write([]byte(partialEconomicPage))
				return
			}
			b, _ := os.ReadFile(filepath.Join("testdata", "economic.html"))
			w.Write(b)
		case "/search/api/":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"quotes":[{"symbol":"AAPL","description":" Apple Inc ","exchange":"NASDAQ","flag":"USA"},{"symbol":"AAPL","description":"Apple Inc","exchange":"NASDAQ","flag":"United States"}]}`))
		default:
			http.Error(w, "blocked", http.StatusForbidden)
		}
	}))
	defer srv.Close()

	s := newTestScraper(t, WithBaseURL(srv.URL+"/"), WithHTTPClient(srv.Client()))

	t.Run("Economic", func(t *testing.T) {
		rows, err := s.EconomicCalendar(context.Background(), m.UnitedStates, oct31)
		require.NoError(t, err)
		assert.Len(t, rows, 3)
		assert.Contains(t, gotQuery, "country=5")
		assert.Contains(t, gotQuery, "date=2024-10-31")
	})

	t.Run("EconomicPartialPage", func(t *testing.T) {
		rows, err := s.EconomicCalendar(context.Background(), m.UnitedStates, oct31.AddDate(0, 0, 1))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "CPI (YoY)", rows[0].Name)
	})

	t.Run("StatusError", func(t *testing.T) {
		_, err := s.EarningsCalendar(context.Background(), m.Korea, oct31)
		assert.Error(t, err)
	})

	t.Run("UnknownCountry", func(t *testing.T) {
		_, err := s.DividendCalendar(context.Background(), m.Country("XX"), oct31)
		assert.Error(t, err)
	})

	t.Run("SearchCompany", func(t *testing.T) {
		p, err := s.SearchCompany(context.Background(), "aapl", m.UnitedStates)
		require.NoError(t, err)
		assert.Equal(t, "Apple Inc", p.Name)

		_, err = s.SearchCompany(context.Background(), "AAPL", m.Japan)
		assert.Error(t, err)
	})
}

func TestOptions(t *testing.T) {
	_, err := NewScraper(WithBaseURL("ftp://example.com"))
	assert.Error(t, err)

	_, err = NewScraper(WithHTTPClient(nil))
	assert.Error(t, err)

	s := newTestScraper(t, WithBrowser(2*time.Second))
	assert.True(t, s.browser)
	assert.Equal(t, defaultBaseURL, s.baseURL)
}
