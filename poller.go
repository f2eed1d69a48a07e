package fincal

import (
	"context"
	"time"

	m "fincalendar/internal/model"
)

type calendarPoller interface {
	EarningsCalendar(ctx context.Context, country m.Country, day time.Time) ([]m.EarningsRow, error)
	DividendCalendar(ctx context.Context, country m.Country, day time.Time) ([]m.DividendRow, error)
	EconomicCalendar(ctx context.Context, country m.Country, day time.Time) ([]m.IndicatorRow, error)
}

type companyPoller interface {
	SearchCompany(ctx context.Context, ticker string, country m.Country) (*m.CompanyProfile, error)
}

type Poller interface {
	calendarPoller
	companyPoller
}
