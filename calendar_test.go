package fincal

import (
	"context"
	"errors"
	"testing"
	"time"

	"fincalendar/internal/db"
	md "fincalendar/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDay = time.Date(2024, 10, 31, 0, 0, 0, 0, time.UTC)

func newTestCalendar(stg *StorageMock, poller PollerMock, ch chan string) *Calendar {
	c := NewCalendar(CalendarConfig{
		Storage:   stg,
		Poller:    poller,
		Channel:   ch,
		Countries: []md.Country{md.Korea, md.UnitedStates},
		Horizon:   2,
		Registry:  prometheus.NewRegistry(),
	})
	c.now = func() time.Time { return testDay.Add(9 * time.Hour) }
	return c
}

func TestCalendarReads(t *testing.T) {
	ctx := context.Background()
	stg := NewStorageMock()
	c := newTestCalendar(stg, PollerMock{}, nil)

	stg.calendar = []md.Earnings{
		{ID: 1, Country: md.Korea, ReleaseDate: md.UnixMilli(testDay), ActualEPS: md.MustFigure("1.64"), CompanyID: 1},
	}

	t.Run("캐시 적중", func(t *testing.T) {
		rows, err := c.Earnings(ctx, CalendarQuery{From: testDay})
		require.NoError(t, err)
		require.Len(t, rows, 1)

		rows, err = c.Earnings(ctx, CalendarQuery{From: testDay})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "1.64", rows[0].ActualEPS.String())
		assert.True(t, rows[0].ForecastEPS.IsZero())

		assert.Equal(t, 1, stg.reads)
		assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.cacheLookups.WithLabelValues("earnings", "hit")))
	})

	t.Run("국가 순서는 같은 키", func(t *testing.T) {
		_, err := c.Earnings(ctx, CalendarQuery{From: testDay, Countries: []md.Country{md.UnitedStates, md.Korea}})
		require.NoError(t, err)
		_, err = c.Earnings(ctx, CalendarQuery{From: testDay, Countries: []md.Country{md.Korea, md.UnitedStates}})
		require.NoError(t, err)
		assert.Equal(t, 2, stg.reads)
	})

	t.Run("버전 증가 시 캐시 무효화", func(t *testing.T) {
		_, err := stg.BumpCacheVersion(ctx)
		require.NoError(t, err)

		_, err = c.Earnings(ctx, CalendarQuery{From: testDay})
		require.NoError(t, err)
		assert.Equal(t, 3, stg.reads)
	})

	t.Run("캐시 오류 시 DB 조회", func(t *testing.T) {
		stg.cacheErr = errors.New("connection refused")
		defer func() { stg.cacheErr = nil }()

		rows, err := c.Earnings(ctx, CalendarQuery{From: testDay})
		require.NoError(t, err)
		assert.Len(t, rows, 1)
		assert.Equal(t, 4, stg.reads)
	})

	t.Run("빈 결과는 빈 배열", func(t *testing.T) {
		rows, err := c.Dividends(ctx, CalendarQuery{From: testDay})
		require.NoError(t, err)
		assert.NotNil(t, rows)
		assert.Empty(t, rows)
	})

	t.Run("중요도 필터", func(t *testing.T) {
		stg.indicators = []md.EconomicIndicator{
			{Name: "CPI", Country: md.UnitedStates, Importance: md.HighImportance},
			{Name: "Jobless Claims", Country: md.UnitedStates, Importance: md.MediumImportance},
		}
		rows, err := c.Indicators(ctx, CalendarQuery{From: testDay, MinImportance: md.HighImportance})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "CPI", rows[0].Name)
	})

	t.Run("잘못된 조건", func(t *testing.T) {
		_, err := c.Earnings(ctx, CalendarQuery{From: testDay, To: testDay.AddDate(0, 0, -1)})
		assert.ErrorIs(t, err, db.ErrInvalidField)

		_, err = c.Earnings(ctx, CalendarQuery{From: testDay, Countries: []md.Country{"XX"}})
		assert.ErrorIs(t, err, db.ErrInvalidField)

		_, err = c.Indicators(ctx, CalendarQuery{From: testDay, MinImportance: 4})
		assert.ErrorIs(t, err, db.ErrInvalidField)
	})

	t.Run("DB 오류", func(t *testing.T) {
		stg.err = errors.New("db down")
		defer func() { stg.err = nil }()

		_, err := c.Earnings(ctx, CalendarQuery{From: testDay.AddDate(0, 0, 1)})
		assert.Error(t, err)
	})
}

func TestCalendarFilter(t *testing.T) {
	c := newTestCalendar(NewStorageMock(), PollerMock{}, nil)

	filter, err := c.filter(CalendarQuery{})
	require.NoError(t, err)
	assert.Equal(t, md.UnixMilli(testDay), filter.From)
	assert.Equal(t, md.UnixMilli(testDay.AddDate(0, 0, 1)), filter.To)

	filter, err = c.filter(CalendarQuery{From: testDay, To: testDay.AddDate(0, 0, 6)})
	require.NoError(t, err)
	assert.Equal(t, md.UnixMilli(testDay.AddDate(0, 0, 7)), filter.To)
}

func TestFavorites(t *testing.T) {
	ctx := context.Background()
	stg := NewStorageMock()
	c := newTestCalendar(stg, PollerMock{}, nil)

	require.NoError(t, c.AddFavorite(ctx, 1, md.EarningsKind, 7))
	require.NoError(t, c.AddFavorite(ctx, 1, md.EarningsKind, 7))

	list, err := c.Favorites(ctx, 1, md.EarningsKind)
	require.NoError(t, err)
	assert.Len(t, list.Earnings, 1)
	assert.Len(t, list.Items(), 1)

	assert.ErrorIs(t, c.AddFavorite(ctx, 1, md.DividendKind, 0), db.ErrNotFound)
	assert.ErrorIs(t, c.AddFavorite(ctx, 1, "stocks", 7), db.ErrInvalidField)

	_, err = c.Favorites(ctx, 1, "stocks")
	assert.ErrorIs(t, err, db.ErrInvalidField)

	list, err = c.Favorites(ctx, 1, md.DividendKind)
	require.NoError(t, err)
	assert.Equal(t, []md.Dividend{}, list.Items())

	require.NoError(t, c.RemoveFavorite(ctx, 1, md.EarningsKind, 7))
	assert.ErrorIs(t, c.RemoveFavorite(ctx, 1, md.EarningsKind, 7), db.ErrNotFound)
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	stg := NewStorageMock()
	c := newTestCalendar(stg, PollerMock{}, nil)

	user, err := c.SignUp(ctx, " Kim@Test.com", "password1", "kim")
	require.NoError(t, err)
	assert.Equal(t, "kim@test.com", user.Email)
	assert.NotEqual(t, "password1", user.Password)

	t.Run("중복 이메일", func(t *testing.T) {
		_, err := c.SignUp(ctx, "kim@test.com", "password2", "other")
		assert.ErrorIs(t, err, db.ErrDuplicate)
	})

	t.Run("로그인", func(t *testing.T) {
		got, err := c.Authenticate(ctx, "KIM@test.com", "password1")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		_, err = c.Authenticate(ctx, "kim@test.com", "wrong")
		assert.ErrorIs(t, err, ErrUnauthorized)

		_, err = c.Authenticate(ctx, "nobody@test.com", "password1")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("OAuth 신규 계정", func(t *testing.T) {
		p := OauthProfile{Provider: "github", ProviderID: "gh-1", Email: "lee@test.com", AccessToken: "t1"}
		created, err := c.LinkOauth(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, "lee", created.Nickname)
		assert.Empty(t, created.Password)

		p.AccessToken = "t2"
		p.Email = ""
		again, err := c.LinkOauth(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, created.ID, again.ID)
		require.Len(t, stg.oauths, 1)
		assert.Equal(t, "t2", *stg.oauths[0].AccessToken)

		_, err = c.Authenticate(ctx, "lee@test.com", "")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("OAuth 기존 이메일 연결", func(t *testing.T) {
		linked, err := c.LinkOauth(ctx, OauthProfile{Provider: "google", ProviderID: "g-1", Email: "kim@test.com"})
		require.NoError(t, err)
		assert.Equal(t, user.ID, linked.ID)
	})

	t.Run("OAuth 이메일 없음", func(t *testing.T) {
		_, err := c.LinkOauth(ctx, OauthProfile{Provider: "github", ProviderID: "gh-2"})
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestCountryCounts(t *testing.T) {
	c := newTestCalendar(NewStorageMock(), PollerMock{}, nil)

	counts, err := c.CountryCounts(context.Background(), md.EarningsKind, CalendarQuery{From: testDay})
	require.NoError(t, err)
	assert.Equal(t, []CountryCount{{Country: md.Korea, Count: 3}, {Country: md.UnitedStates, Count: 5}}, counts)

	_, err = c.CountryCounts(context.Background(), md.EarningsKind, CalendarQuery{Countries: []md.Country{"ZZ"}})
	assert.ErrorIs(t, err, db.ErrInvalidField)
}
