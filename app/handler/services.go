package handler

import (
	"context"

	fincal "fincalendar"
	"fincalendar/internal/db"
	m "fincalendar/internal/model"
)

type CalendarRetriever interface {
	Earnings(ctx context.Context, q fincal.CalendarQuery) ([]m.Earnings, error)
	Dividends(ctx context.Context, q fincal.CalendarQuery) ([]m.Dividend, error)
	Indicators(ctx context.Context, q fincal.CalendarQuery) ([]m.EconomicIndicator, error)
}

type IndicatorRetriever interface {
	RetrieveIndicator(ctx context.Context, id uint) (*m.EconomicIndicator, error)
	RetrieveIndicatorHistory(ctx context.Context, name string, country m.Country, take int) ([]m.EconomicIndicator, error)
}

type StatsRetriever interface {
	CountryCounts(ctx context.Context, kind m.FavoriteKind, q fincal.CalendarQuery) ([]fincal.CountryCount, error)
}

type CompanyRetriever interface {
	RetrieveCompany(ctx context.Context, id uint) (*m.Company, error)
	RetrieveCompanies(ctx context.Context, country m.Country, search string, skip, take int) ([]m.Company, int64, error)
	RetrieveCompanyEarnings(ctx context.Context, companyID uint) ([]m.Earnings, error)
	RetrieveCompanyDividends(ctx context.Context, companyID uint) ([]m.Dividend, error)
	RetrieveEpsSummary(ctx context.Context, companyID uint) (*db.Aggregate, error)
}

type FavoriteManager interface {
	AddFavorite(ctx context.Context, userID uint, kind m.FavoriteKind, targetID uint) error
	RemoveFavorite(ctx context.Context, userID uint, kind m.FavoriteKind, targetID uint) error
	Favorites(ctx context.Context, userID uint, kind m.FavoriteKind) (*fincal.FavoriteList, error)
}

type UserAuthenticator interface {
	SignUp(ctx context.Context, email, password, nickname string) (*m.User, error)
	Authenticate(ctx context.Context, email, password string) (*m.User, error)
	User(ctx context.Context, id uint) (*m.User, error)
	LinkOauth(ctx context.Context, p fincal.OauthProfile) (*m.User, error)
}

type EventRetriever interface {
	Events() []*fincal.EnrolledEvent
}

type EventLauncher interface {
	LaunchEvent(id uint) error
}

type EventStatusChanger interface {
	SetEventStatus(id uint, active bool) error
}
