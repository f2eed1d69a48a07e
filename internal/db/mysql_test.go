package db

import (
	"context"
	"errors"
	"testing"
	"time"

	m "fincalendar/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserLifecycle(t *testing.T) {
	stg := integrationStorage(t)
	ctx := context.Background()

	user := m.User{Email: "kim@test.com", Password: "hash", Nickname: "kim"}
	require.NoError(t, stg.SaveUser(ctx, &user))
	assert.NotZero(t, user.ID)

	t.Run("DuplicateEmail", func(t *testing.T) {
		err := stg.SaveUser(ctx, &m.User{Email: "kim@test.com", Password: "x", Nickname: "other"})
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("UpdateNickname", func(t *testing.T) {
		updated, err := stg.UpdateUserNickname(ctx, user.ID, "lee")
		require.NoError(t, err)
		assert.Equal(t, "lee", updated.Nickname)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := stg.RetrieveUser(ctx, user.ID+1000)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = stg.UpdateUserNickname(ctx, user.ID+1000, "x")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("OauthUpsert", func(t *testing.T) {
		token := "a1"
		info := m.OauthInfo{Provider: "google", ProviderID: "g-1", AccessToken: &token, UserID: user.ID}
		require.NoError(t, stg.SaveOauthInfo(ctx, &info))

		token2 := "a2"
		again := m.OauthInfo{Provider: "google", ProviderID: "g-1", AccessToken: &token2, UserID: user.ID}
		require.NoError(t, stg.SaveOauthInfo(ctx, &again))
		assert.Equal(t, info.ID, again.ID)
		assert.Equal(t, "a2", *again.AccessToken)

		missing, err := stg.RetrieveOauthInfo(ctx, "github", "g-1")
		assert.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("OauthRequiresUser", func(t *testing.T) {
		err := stg.SaveOauthInfo(ctx, &m.OauthInfo{Provider: "github", ProviderID: "h-1", UserID: user.ID + 1000})
		assert.ErrorIs(t, err, ErrForeignKey)
	})
}

func TestCalendarRows(t *testing.T) {
	stg := integrationStorage(t)
	ctx := context.Background()

	samsung := m.Company{Ticker: "005930", Name: "Samsung Electronics", Country: m.Korea}
	require.NoError(t, stg.SaveCompany(ctx, &samsung))

	day := time.Date(2024, 10, 31, 0, 0, 0, 0, time.UTC)

	earnings := m.Earnings{
		Country:     m.Korea,
		ReleaseDate: m.UnixMilli(day),
		ForecastEPS: m.MustFigure("1,234.10"),
		PreviousEPS: m.MustFigure("0.10"),
		CompanyID:   samsung.ID,
	}
	require.NoError(t, stg.SaveEarnings(ctx, &earnings))

	t.Run("DecimalRoundTrip", func(t *testing.T) {
		got, err := stg.RetrieveEarningsByID(ctx, earnings.ID)
		require.NoError(t, err)
		assert.Equal(t, "1234.10", got.ForecastEPS.String())
		assert.Equal(t, "0.10", got.PreviousEPS.String())
		assert.True(t, got.ActualEPS.IsZero())
		require.NotNil(t, got.Company)
		assert.Equal(t, "005930", got.Company.Ticker)
	})

	t.Run("UpsertKeepsID", func(t *testing.T) {
		published := m.Earnings{
			Country:     m.Korea,
			ReleaseDate: m.UnixMilli(day),
			ActualEPS:   m.MustFigure("1300.5"),
			ForecastEPS: m.MustFigure("1234.10"),
			CompanyID:   samsung.ID,
		}
		require.NoError(t, stg.SaveEarnings(ctx, &published))
		assert.Equal(t, earnings.ID, published.ID)
		assert.Equal(t, "1300.5", published.ActualEPS.String())
	})

	t.Run("RequiresCompany", func(t *testing.T) {
		err := stg.SaveEarnings(ctx, &m.Earnings{Country: m.Korea, ReleaseDate: 1, CompanyID: samsung.ID + 1000})
		assert.ErrorIs(t, err, ErrForeignKey)
	})

	t.Run("DuplicateCreate", func(t *testing.T) {
		err := For[m.Earnings](stg).Create(ctx, &m.Earnings{Country: m.Korea, ReleaseDate: m.UnixMilli(day), CompanyID: samsung.ID})
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("RangeAndCountry", func(t *testing.T) {
		from, to, err := m.DayRange(day, day)
		require.NoError(t, err)

		rows, err := stg.RetrieveEarnings(ctx, CalendarFilter{From: from, To: to, Countries: []m.Country{m.Korea}})
		require.NoError(t, err)
		assert.Len(t, rows, 1)

		rows, err = stg.RetrieveEarnings(ctx, CalendarFilter{From: from, To: to, Countries: []m.Country{m.Japan}})
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("EpsSummary", func(t *testing.T) {
		next := m.Earnings{Country: m.Korea, ReleaseDate: m.UnixMilli(day.AddDate(0, 3, 0)), ActualEPS: m.MustFigure("0.1"), CompanyID: samsung.ID}
		require.NoError(t, stg.SaveEarnings(ctx, &next))

		agg, err := stg.RetrieveEpsSummary(ctx, samsung.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), agg.Count)
		assert.Equal(t, "1300.6", agg.Sum.String())
	})

	t.Run("CountryCounts", func(t *testing.T) {
		groups, err := stg.RetrieveCountryCounts(ctx, m.EarningsKind, CalendarFilter{From: 0, To: m.UnixMilli(day.AddDate(1, 0, 0))})
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.Equal(t, int64(2), groups[0].Count)
	})

	t.Run("Favorites", func(t *testing.T) {
		user := m.User{Email: "fav@test.com", Password: "hash", Nickname: "fav"}
		require.NoError(t, stg.SaveUser(ctx, &user))

		require.NoError(t, stg.SaveFavorite(ctx, user.ID, m.EarningsKind, earnings.ID))
		require.NoError(t, stg.SaveFavorite(ctx, user.ID, m.EarningsKind, earnings.ID))

		favs, err := stg.RetrieveFavoriteEarnings(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, favs, 1)
		assert.Equal(t, earnings.ID, favs[0].ID)
		require.NotNil(t, favs[0].Company)

		err = stg.SaveFavorite(ctx, user.ID, m.DividendKind, 999999)
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, stg.DeleteFavorite(ctx, user.ID, m.EarningsKind, earnings.ID))
		assert.ErrorIs(t, stg.DeleteFavorite(ctx, user.ID, m.EarningsKind, earnings.ID), ErrNotFound)
	})

	t.Run("TransactionRollback", func(t *testing.T) {
		sentinel := errors.New("abort")
		err := stg.Transaction(ctx, func(tx *Storage) error {
			c := m.Company{Ticker: "ROLLBACK", Name: "Rollback", Country: m.Korea}
			if err := tx.SaveCompany(ctx, &c); err != nil {
				return err
			}
			return sentinel
		})
		assert.ErrorIs(t, err, sentinel)

		_, err = stg.RetrieveCompanyByTicker(ctx, "ROLLBACK", m.Korea)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("CascadeOnCompanyDelete", func(t *testing.T) {
		require.NoError(t, For[m.Company](stg).Delete(ctx, &m.Company{ID: samsung.ID}))

		rows, err := stg.RetrieveCompanyEarnings(ctx, samsung.ID)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestIndicatorImportance(t *testing.T) {
	stg := integrationStorage(t)
	ctx := context.Background()

	err := stg.SaveIndicator(ctx, &m.EconomicIndicator{Country: m.UnitedStates, ReleaseDate: 1, Name: "CPI"})
	assert.ErrorIs(t, err, ErrInvalidField)

	for i, imp := range []m.Importance{m.LowImportance, m.HighImportance} {
		ind := m.EconomicIndicator{Country: m.UnitedStates, ReleaseDate: int64(i + 1), Name: "CPI", Importance: imp, Actual: m.MustFigure("2.5%")}
		require.NoError(t, stg.SaveIndicator(ctx, &ind))
	}

	rows, err := stg.RetrieveIndicators(ctx, CalendarFilter{From: 0, To: 10, MinImportance: m.HighImportance})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2.5", rows[0].Actual.String())
}

func TestEventToggle(t *testing.T) {
	stg := integrationStorage(t)

	assert.True(t, stg.RetrieveEventIsActive(99))
	require.NoError(t, stg.UpdateEventIsActive(99, false))
	assert.False(t, stg.RetrieveEventIsActive(99))
	require.NoError(t, stg.UpdateEventIsActive(99, true))
	assert.True(t, stg.RetrieveEventIsActive(99))
}

func TestSaveCrawledRows(t *testing.T) {
	stg := integrationStorage(t)
	ctx := context.Background()

	row := m.EarningsRow{Ticker: "AAPL", Name: "Apple Inc", Country: m.UnitedStates, ReleaseDate: 1000, ForecastEPS: m.MustFigure("1.60")}
	earnings, err := stg.SaveEarningsRow(ctx, row)
	require.NoError(t, err)
	assert.NotZero(t, earnings.CompanyID)

	// 이름 없이 다시 들어와도 기존 회사명 유지
	row.Name = ""
	row.ActualEPS = m.MustFigure("1.64")
	again, err := stg.SaveEarningsRow(ctx, row)
	require.NoError(t, err)
	assert.Equal(t, earnings.ID, again.ID)

	company, err := stg.RetrieveCompany(ctx, earnings.CompanyID)
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc", company.Name)

	dividend, err := stg.SaveDividendRow(ctx, m.DividendRow{Ticker: "AAPL", Country: m.UnitedStates, ExDividendDate: 2000, Amount: m.MustFigure("0.25")})
	require.NoError(t, err)
	assert.Equal(t, earnings.CompanyID, dividend.CompanyID)
	assert.Equal(t, "0.25", dividend.DividendAmount.String())
}
