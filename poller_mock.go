package fincal

import (
	"context"
	"errors"
	"time"

	md "fincalendar/internal/model"
)

type PollerMock struct {
	earnings   []md.EarningsRow
	dividends  []md.DividendRow
	indicators []md.IndicatorRow
	names      map[string]string
	searched   map[string]int
	failOn     md.Country
	err        error
}

func (m PollerMock) EarningsCalendar(ctx context.Context, country md.Country, day time.Time) ([]md.EarningsRow, error) {
	if err := m.fail(country); err != nil {
		return nil, err
	}
	rtn := make([]md.EarningsRow, 0)
	for _, r := range m.earnings {
		if r.Country == country && r.ReleaseDate == md.UnixMilli(day) {
			rtn = append(rtn, r)
		}
	}
	return rtn, nil
}

func (m PollerMock) DividendCalendar(ctx context.Context, country md.Country, day time.Time) ([]md.DividendRow, error) {
	if err := m.fail(country); err != nil {
		return nil, err
	}
	rtn := make([]md.DividendRow, 0)
	for _, r := range m.dividends {
		if r.Country == country && r.ExDividendDate == md.UnixMilli(day) {
			rtn = append(rtn, r)
		}
	}
	return rtn, nil
}

func (m PollerMock) EconomicCalendar(ctx context.Context, country md.Country, day time.Time) ([]md.IndicatorRow, error) {
	if err := m.fail(country); err != nil {
		return nil, err
	}
	rtn := make([]md.IndicatorRow, 0)
	for _, r := range m.indicators {
		if r.Country == country && startOfDay(md.FromUnixMilli(r.ReleaseDate)).Equal(day) {
			rtn = append(rtn, r)
		}
	}
	return rtn, nil
}

func (m PollerMock) SearchCompany(ctx context.Context, ticker string, country md.Country) (*md.CompanyProfile, error) {
	if m.searched != nil {
		m.searched[ticker]++
	}
	name, ok := m.names[ticker]
	if !ok {
		return nil, errors.New("no quote")
	}
	return &md.CompanyProfile{Ticker: ticker, Name: name, Country: string(country)}, nil
}

func (m PollerMock) fail(country md.Country) error {
	if m.err != nil && (m.failOn == "" || m.failOn == country) {
		return m.err
	}
	return nil
}
