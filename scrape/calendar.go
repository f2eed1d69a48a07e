package scrape

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	m "fincalendar/internal/model"

	"github.com/PuerkitoBio/goquery"
)

const (
	eventTimeLayout   = "2006/01/02 15:04:05"
	dividendDayLayout = "Jan 02, 2006"
)

func (s *Scraper) calendarURL(page string, country m.Country, day time.Time) string {
	q := url.Values{}
	q.Set("country", strconv.Itoa(country.SourceID()))
	q.Set("date", day.UTC().Format(m.DayLayout))
	return fmt.Sprintf("%s/%s/?%s", s.baseURL, page, q.Encode())
}

func (s *Scraper) EarningsCalendar(ctx context.Context, country m.Country, day time.Time) ([]m.EarningsRow, error) {
	s.lg.Info().Msgf("Starting EarningsCalendar with country: %s, day: %s", country, day.Format(m.DayLayout))

	if !country.Valid() {
		return nil, fmt.Errorf("unknown country %q", country)
	}
	doc, err := s.document(ctx, s.calendarURL("earnings-calendar", country, day))
	if err != nil {
		return nil, err
	}

	rows, err := s.parseEarnings(doc, country, day)
	if err != nil {
		return nil, err
	}
	s.lg.Info().Msgf("Crawled %d earnings of %s", len(rows), country)
	return rows, nil
}

func (s *Scraper) DividendCalendar(ctx context.Context, country m.Country, day time.Time) ([]m.DividendRow, error) {
	s.lg.Info().Msgf("Starting DividendCalendar with country: %s, day: %s", country, day.Format(m.DayLayout))

	if !country.Valid() {
		return nil, fmt.Errorf("unknown country %q", country)
	}
	doc, err := s.document(ctx, s.calendarURL("dividends-calendar", country, day))
	if err != nil {
		return nil, err
	}

	rows, err := s.parseDividends(doc, country, day)
	if err != nil {
		return nil, err
	}
	s.lg.Info().Msgf("Crawled %d dividends of %s", len(rows), country)
	return rows, nil
}

func (s *Scraper) EconomicCalendar(ctx context.Context, country m.Country, day time.Time) ([]m.IndicatorRow, error) {
	s.lg.Info().Msgf("Starting EconomicCalendar with country: %s, day: %s", country, day.Format(m.DayLayout))

	if !country.Valid() {
		return nil, fmt.Errorf("unknown country %q", country)
	}
	doc, err := s.document(ctx, s.calendarURL("economic-calendar", country, day))
	if err != nil {
		return nil, err
	}

	rows, err := s.parseIndicators(doc, country, day)
	if err != nil {
		return nil, err
	}
	s.lg.Info().Msgf("Crawled %d indicators of %s", len(rows), country)
	return rows, nil
}

/*
캘린더 테이블 구조
  - 날짜 구분 행: <td class="theDay" data-day="2024-10-31">
  - 데이터 행: 국가 flag(span title), 회사/지표, 수치 셀
다른 국가 행이 섞여 내려오는 경우가 있어 요청 국가만 남김
*/

// memo. 수치 셀 하나가 깨진 행은 로그만 남기고 건너뜀. 같은 페이지의 정상 행은 유지

func (s *Scraper) parseEarnings(doc *goquery.Document, country m.Country, day time.Time) ([]m.EarningsRow, error) {

	table := doc.Find("#earningsCalendarData")
	if table.Length() == 0 {
		return nil, fmt.Errorf("earnings calendar table not found")
	}

	rows := make([]m.EarningsRow, 0)
	current := startOfDay(day)

	table.Find("tbody tr").Each(func(i int, tr *goquery.Selection) {
		if d, ok := dayHeader(tr); ok {
			current = d
			return
		}
		if !s.sameCountry(tr, country) {
			return
		}

		ticker := s.text(tr.Find(".earnCalCompany a"))
		if ticker == "" {
			return
		}

		row, err := s.earningsRow(tr, ticker, country, current)
		if err != nil {
			s.lg.Warn().Err(err).Str("ticker", ticker).Str("country", string(country)).Msg("Skipped malformed earnings row")
			return
		}
		rows = append(rows, row)
	})
	return rows, nil
}

func (s *Scraper) earningsRow(tr *goquery.Selection, ticker string, country m.Country, day time.Time) (m.EarningsRow, error) {

	row := m.EarningsRow{
		Ticker:      ticker,
		Name:        s.text(tr.Find(".earnCalCompanyName")),
		Country:     country,
		ReleaseDate: m.UnixMilli(day),
	}
	figures := []struct {
		sel    string
		target *m.Figure
	}{
		{".eps_actual", &row.ActualEPS},
		{".eps_forecast", &row.ForecastEPS},
		{".eps_previous", &row.PreviousEPS},
		{".rev_actual", &row.ActualRevenue},
		{".rev_forecast", &row.ForecastRevenue},
		{".rev_previous", &row.PreviousRevenue},
	}
	for _, f := range figures {
		v, err := s.figure(tr.Find(f.sel))
		if err != nil {
			return m.EarningsRow{}, fmt.Errorf("earnings of %s. %w", ticker, err)
		}
		*f.target = v
	}
	return row, nil
}

func (s *Scraper) parseDividends(doc *goquery.Document, country m.Country, day time.Time) ([]m.DividendRow, error) {

	table := doc.Find("#dividendsCalendarData")
	if table.Length() == 0 {
		return nil, fmt.Errorf("dividends calendar table not found")
	}

	rows := make([]m.DividendRow, 0)
	current := startOfDay(day)

	table.Find("tbody tr").Each(func(i int, tr *goquery.Selection) {
		if d, ok := dayHeader(tr); ok {
			current = d
			return
		}
		if !s.sameCountry(tr, country) {
			return
		}

		ticker := s.text(tr.Find(".dividendCompany a"))
		if ticker == "" {
			return
		}

		row, err := s.dividendRow(tr, ticker, country, current)
		if err != nil {
			s.lg.Warn().Err(err).Str("ticker", ticker).Str("country", string(country)).Msg("Skipped malformed dividend row")
			return
		}
		rows = append(rows, row)
	})
	return rows, nil
}

func (s *Scraper) dividendRow(tr *goquery.Selection, ticker string, country m.Country, day time.Time) (m.DividendRow, error) {

	row := m.DividendRow{
		Ticker:  ticker,
		Name:    s.text(tr.Find(".dividendName")),
		Country: country,
	}

	exDate, err := s.date(tr.Find(".exDate"))
	if err != nil {
		return m.DividendRow{}, fmt.Errorf("ex dividend date of %s. %w", ticker, err)
	}
	if exDate.IsZero() {
		exDate = day
	}
	row.ExDividendDate = m.UnixMilli(exDate)

	payDate, err := s.date(tr.Find(".payDate"))
	if err != nil {
		return m.DividendRow{}, fmt.Errorf("payment date of %s. %w", ticker, err)
	}
	if !payDate.IsZero() {
		row.PaymentDate = m.UnixMilli(payDate)
	}

	if row.Amount, err = s.figure(tr.Find(".amount")); err != nil {
		return m.DividendRow{}, fmt.Errorf("dividend amount of %s. %w", ticker, err)
	}
	if row.PreviousAmount, err = s.figure(tr.Find(".previous")); err != nil {
		return m.DividendRow{}, fmt.Errorf("previous dividend amount of %s. %w", ticker, err)
	}
	return row, nil
}

func (s *Scraper) parseIndicators(doc *goquery.Document, country m.Country, day time.Time) ([]m.IndicatorRow, error) {

	table := doc.Find("#economicCalendarData")
	if table.Length() == 0 {
		return nil, fmt.Errorf("economic calendar table not found")
	}

	rows := make([]m.IndicatorRow, 0)
	current := startOfDay(day)

	table.Find("tbody tr").Each(func(i int, tr *goquery.Selection) {
		if d, ok := dayHeader(tr); ok {
			current = d
			return
		}
		if !s.sameCountry(tr, country) {
			return
		}

		name := s.text(tr.Find(".event"))
		if name == "" {
			return
		}

		row, err := s.indicatorRow(tr, name, country, current)
		if err != nil {
			s.lg.Warn().Err(err).Str("indicator", name).Str("country", string(country)).Msg("Skipped malformed indicator row")
			return
		}
		rows = append(rows, row)
	})
	return rows, nil
}

func (s *Scraper) indicatorRow(tr *goquery.Selection, name string, country m.Country, day time.Time) (m.IndicatorRow, error) {

	// All Day 일정은 시간 없이 날짜만 있음
	released := day
	if v, ok := tr.Attr("data-event-datetime"); ok && strings.TrimSpace(v) != "" {
		t, err := time.ParseInLocation(eventTimeLayout, strings.TrimSpace(v), time.UTC)
		if err != nil {
			return m.IndicatorRow{}, fmt.Errorf("release time of %s. %w", name, err)
		}
		released = t
	}

	row := m.IndicatorRow{
		Name:        name,
		Country:     country,
		ReleaseDate: m.UnixMilli(released),
		Importance:  importance(tr.Find(".sentiment")),
	}
	for sel, target := range map[string]*m.Figure{".act": &row.Actual, ".fore": &row.Forecast, ".prev": &row.Previous} {
		v, err := s.figure(tr.Find(sel))
		if err != nil {
			return m.IndicatorRow{}, fmt.Errorf("indicator %s. %w", name, err)
		}
		*target = v
	}
	return row, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dayHeader(tr *goquery.Selection) (time.Time, bool) {
	td := tr.Find("td.theDay")
	if td.Length() == 0 {
		return time.Time{}, false
	}
	v, _ := td.Attr("data-day")
	d, err := m.ParseDay(strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// sameCountry reports whether the row's flag names country. Rows without a flag belong to the request.
func (s *Scraper) sameCountry(tr *goquery.Selection, country m.Country) bool {
	title, ok := tr.Find(".flag span, .flagCur span").First().Attr("title")
	if !ok || strings.TrimSpace(title) == "" {
		return true
	}
	c, err := m.ToCountry(title)
	if err != nil {
		return false
	}
	return c == country
}

// figure parses a numeric cell. Leading "/" separators of forecast cells are ignored.
func (s *Scraper) figure(sel *goquery.Selection) (m.Figure, error) {
	txt := strings.TrimSpace(strings.TrimPrefix(s.text(sel), "/"))
	return m.ParseFigure(txt)
}

// date reads a cell carrying a unix seconds data-value, falling back to its "Jan 02, 2006" text.
func (s *Scraper) date(sel *goquery.Selection) (time.Time, error) {
	if v, ok := sel.Attr("data-value"); ok && strings.TrimSpace(v) != "" {
		sec, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return time.Time{}, err
		}
		return startOfDay(time.Unix(sec, 0)), nil
	}

	txt := s.text(sel)
	switch txt {
	case "", "-", "--":
		return time.Time{}, nil
	}
	return time.ParseInLocation(dividendDayLayout, txt, time.UTC)
}

// importance counts the filled bull icons, clamped into the valid range.
func importance(sel *goquery.Selection) m.Importance {
	n := m.Importance(sel.Find("i.grayFullBullishIcon").Length())
	if n < m.LowImportance {
		return m.LowImportance
	}
	if n > m.HighImportance {
		return m.HighImportance
	}
	return n
}
