package fincal

import (
	"context"
	"time"

	"fincalendar/internal/db"
	m "fincalendar/internal/model"
)

type Storage interface {
	SaveEarningsRow(ctx context.Context, row m.EarningsRow) (*m.Earnings, error)
	SaveDividendRow(ctx context.Context, row m.DividendRow) (*m.Dividend, error)
	SaveIndicator(ctx context.Context, indicator *m.EconomicIndicator) error
	RetrieveCompanyByTicker(ctx context.Context, ticker string, country m.Country) (*m.Company, error)

	RetrieveEarnings(ctx context.Context, filter db.CalendarFilter) ([]m.Earnings, error)
	RetrieveDividends(ctx context.Context, filter db.CalendarFilter) ([]m.Dividend, error)
	RetrieveIndicators(ctx context.Context, filter db.CalendarFilter) ([]m.EconomicIndicator, error)
	RetrieveCountryCounts(ctx context.Context, kind m.FavoriteKind, filter db.CalendarFilter) ([]db.Group, error)

	SaveFavorite(ctx context.Context, userID uint, kind m.FavoriteKind, targetID uint) error
	DeleteFavorite(ctx context.Context, userID uint, kind m.FavoriteKind, targetID uint) error
	RetrieveFavoriteEarnings(ctx context.Context, userID uint) ([]m.Earnings, error)
	RetrieveFavoriteDividends(ctx context.Context, userID uint) ([]m.Dividend, error)
	RetrieveFavoriteIndicators(ctx context.Context, userID uint) ([]m.EconomicIndicator, error)

	SaveUser(ctx context.Context, user *m.User) error
	RetrieveUser(ctx context.Context, id uint) (*m.User, error)
	RetrieveUserByEmail(ctx context.Context, email string) (*m.User, error)
	SaveOauthInfo(ctx context.Context, info *m.OauthInfo) error
	RetrieveOauthInfo(ctx context.Context, provider string, providerID string) (*m.OauthInfo, error)

	SaveCrawlHistory(ctx context.Context, kind m.FavoriteKind, country m.Country, day time.Time, rows, failed int) error
	DeleteCrawlHistoryBefore(ctx context.Context, before time.Time) (int64, error)

	RetrieveEventIsActive(eventId uint) bool
	UpdateEventIsActive(eventId uint, isActive bool) error

	GetCache(ctx context.Context, key string) ([]byte, error)
	SetCache(ctx context.Context, key string, value []byte, exp time.Duration) error
	CacheVersion(ctx context.Context) int64
	BumpCacheVersion(ctx context.Context) (int64, error)
}
