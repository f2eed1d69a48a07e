package fincal

import (
	"errors"
	"testing"
	"time"

	"fincalendar/internal/db"
	md "fincalendar/internal/model"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrawl(t *testing.T) {

	poller := PollerMock{
		earnings: []md.EarningsRow{
			{Ticker: "005930", Country: md.Korea, ReleaseDate: md.UnixMilli(testDay), ForecastEPS: md.MustFigure("1,234.1")},
			{Ticker: "AAPL", Name: "Apple Inc", Country: md.UnitedStates, ReleaseDate: md.UnixMilli(testDay.AddDate(0, 0, 1))},
			{Ticker: "MSFT", Name: "Microsoft", Country: md.UnitedStates, ReleaseDate: md.UnixMilli(testDay.AddDate(0, 0, 5))},
		},
		indicators: []md.IndicatorRow{
			{Name: "CPI", Country: md.UnitedStates, ReleaseDate: md.UnixMilli(testDay.Add(12*time.Hour + 30*time.Minute)), Importance: md.HighImportance},
			{Name: "Holiday", Country: md.UnitedStates, ReleaseDate: md.UnixMilli(testDay)},
		},
		names: map[string]string{"005930": "Samsung Electronics"},
	}

	t.Run("실적 수집", func(t *testing.T) {
		stg := NewStorageMock()
		ch := make(chan string, 10)
		c := newTestCalendar(stg, poller, ch)

		c.runEarningsEvent(Manual)

		require.Len(t, stg.earnings, 2)
		assert.Equal(t, "Samsung Electronics", stg.earnings[0].Name)
		assert.Equal(t, "Apple Inc", stg.earnings[1].Name)
		assert.Len(t, stg.histories, 4)
		assert.Equal(t, int64(1), stg.version)
		assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.savedRows.WithLabelValues("earnings", "KR")))

		msg := <-ch
		assert.Contains(t, msg, "[earnings] 2건 저장, 0건 실패, 페이지 오류 0회")
	})

	t.Run("저장된 회사명 우선", func(t *testing.T) {
		stg := NewStorageMock()
		stg.companies["KR:005930"] = md.Company{Ticker: "005930", Name: "삼성전자", Country: md.Korea}
		ch := make(chan string, 10)
		counting := poller
		counting.searched = make(map[string]int)
		c := newTestCalendar(stg, counting, ch)

		c.runEarningsEvent(Manual)

		require.Len(t, stg.earnings, 2)
		assert.Equal(t, "삼성전자", stg.earnings[0].Name)
		assert.Zero(t, counting.searched["005930"])
	})

	t.Run("처음 보는 종목만 조회", func(t *testing.T) {
		stg := NewStorageMock()
		ch := make(chan string, 10)
		counting := poller
		counting.searched = make(map[string]int)
		c := newTestCalendar(stg, counting, ch)

		c.runEarningsEvent(Manual)
		<-ch
		c.runEarningsEvent(Manual)

		require.Len(t, stg.earnings, 4)
		assert.Equal(t, "Samsung Electronics", stg.earnings[2].Name)
		assert.Equal(t, 1, counting.searched["005930"])
	})

	t.Run("페이지 오류는 건너뜀", func(t *testing.T) {
		stg := NewStorageMock()
		ch := make(chan string, 10)
		failing := poller
		failing.err = errors.New("503")
		failing.failOn = md.UnitedStates
		c := newTestCalendar(stg, failing, ch)

		c.runEarningsEvent(Auto)

		assert.Len(t, stg.earnings, 1)
		assert.Len(t, stg.histories, 2)
		assert.Contains(t, <-ch, "페이지 오류 2회")
		assert.Equal(t, 2.0, testutil.ToFloat64(c.metrics.crawlErrors.WithLabelValues("earnings")))
	})

	t.Run("저장 실패 시 캐시 유지", func(t *testing.T) {
		stg := NewStorageMock()
		stg.saveErr = db.ErrForeignKey
		ch := make(chan string, 10)
		c := newTestCalendar(stg, poller, ch)

		c.runEarningsEvent(Auto)

		assert.Equal(t, int64(0), stg.version)
		assert.Contains(t, <-ch, "0건 저장, 2건 실패")
	})

	t.Run("경제지표 수집", func(t *testing.T) {
		stg := NewStorageMock()
		ch := make(chan string, 10)
		c := newTestCalendar(stg, poller, ch)

		c.runIndicatorEvent(Auto)

		require.Len(t, stg.indicators, 1)
		assert.Equal(t, "CPI", stg.indicators[0].Name)
		assert.Contains(t, <-ch, "[indicators] 1건 저장, 1건 실패")
	})

	t.Run("중복 실행 방지", func(t *testing.T) {
		stg := NewStorageMock()
		ch := make(chan string, 10)
		c := newTestCalendar(stg, poller, ch)

		require.True(t, c.acquire(md.EarningsKind))
		c.runEarningsEvent(Manual)
		c.release(md.EarningsKind)

		assert.Empty(t, stg.earnings)
		assert.Contains(t, <-ch, "이미 수집 중")
	})
}

func TestEvents(t *testing.T) {
	stg := NewStorageMock()
	stg.events[2] = false
	ch := make(chan string, 10)
	c := newTestCalendar(stg, PollerMock{}, ch)

	events := c.Events()
	require.Len(t, events, 4)
	assert.True(t, events[0].IsActive)
	assert.False(t, events[1].IsActive)

	t.Run("상태 변경", func(t *testing.T) {
		require.NoError(t, c.SetEventStatus(3, false))
		assert.False(t, stg.events[3])
		assert.False(t, c.Events()[2].IsActive)

		assert.ErrorIs(t, c.SetEventStatus(9, true), db.ErrNotFound)
	})

	t.Run("비활성 이벤트 실행", func(t *testing.T) {
		assert.ErrorIs(t, c.LaunchEvent(3), ErrInactiveEvent)
		assert.ErrorIs(t, c.LaunchEvent(9), db.ErrNotFound)
	})

	t.Run("수동 실행", func(t *testing.T) {
		stg.histories = []md.CrawlHistory{{Kind: md.EarningsKind}}
		require.NoError(t, c.LaunchEvent(4))

		select {
		case msg := <-ch:
			assert.Contains(t, msg, "[CleanupEvent]")
			assert.Contains(t, msg, "1건 삭제")
		case <-time.After(2 * time.Second):
			t.Fatal("no report from launched event")
		}
	})

	t.Run("복사본 반환", func(t *testing.T) {
		c.Events()[0].IsActive = false
		assert.True(t, c.isActive(1))
	})
}
