package fincal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fincalendar/internal/db"
	m "fincalendar/internal/model"

	"github.com/robfig/cron"
)

const (
	EarningsSpec  = "0 0 */6 * * *"
	DividendSpec  = "0 30 */6 * * *"
	IndicatorSpec = "0 5 * * * 1-5"
	CleanupSpec   = "0 0 4 * * *"
)

const crawlTimeout = 30 * time.Minute

func (c *Calendar) Run() {
	c.lg.Info().Msg("Starting Calendar Run")
	cr := cron.New()

	for _, enrolled := range c.enrolledEvents {
		if enrolled.schedule == "" {
			continue
		}
		err := cr.AddFunc(enrolled.schedule, func() {
			if c.isActive(enrolled.Id) {
				enrolled.Event(Auto)
			}
		})
		if err != nil {
			c.lg.Error().Err(err).Uint("id", enrolled.Id).Msg("Failed to schedule event")
		}
	}

	cr.Start()
	c.lg.Info().Msg("Calendar Run completed")
}

type EnrolledEvent struct {
	Id          uint
	Title       string
	Description string
	IsActive    bool
	schedule    string
	Event       func(WayOfLaunch)
}

type WayOfLaunch bool

const (
	Manual WayOfLaunch = true
	Auto   WayOfLaunch = false
)

func (c *Calendar) registerEvents() {
	c.enrolledEvents = []*EnrolledEvent{
		{
			Id:          1,
			Title:       "실적 캘린더 수집",
			Description: "국가별 실적 발표 일정을 수집하여 저장.\n6시간 주기로 실행",
			schedule:    EarningsSpec,
			Event:       c.runEarningsEvent,
		},
		{
			Id:          2,
			Title:       "배당 캘린더 수집",
			Description: "국가별 배당락 일정을 수집하여 저장.\n6시간 주기로 실행 (30분)",
			schedule:    DividendSpec,
			Event:       c.runDividendEvent,
		},
		{
			Id:          3,
			Title:       "경제지표 캘린더 수집",
			Description: "국가별 경제지표 발표 일정과 실제값을 수집하여 저장.\n평일 매시 5분 실행",
			schedule:    IndicatorSpec,
			Event:       c.runIndicatorEvent,
		},
		{
			Id:          4,
			Title:       "수집 이력 정리",
			Description: "보관 기간이 지난 수집 이력 삭제.\n매일 오전 4시 실행",
			schedule:    CleanupSpec,
			Event:       c.runCleanupEvent,
		},
	}

	for _, event := range c.enrolledEvents {
		event.IsActive = c.stg.RetrieveEventIsActive(event.Id)
	}
}

// Events returns copies so callers can not flip a flag without going through SetEventStatus.
func (c *Calendar) Events() []*EnrolledEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	rtn := make([]*EnrolledEvent, 0, len(c.enrolledEvents))
	for _, ev := range c.enrolledEvents {
		cp := *ev
		rtn = append(rtn, &cp)
	}
	return rtn
}

func (c *Calendar) SetEventStatus(id uint, active bool) error {
	c.lg.Info().Uint("id", id).Bool("active", active).Msg("Changing event status")

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ev := range c.enrolledEvents {
		if ev.Id == id {
			if err := c.stg.UpdateEventIsActive(ev.Id, active); err != nil {
				return fmt.Errorf("UpdateEventIsActive 시 오류 발생. %w", err)
			}
			ev.IsActive = active
			c.lg.Info().Uint("id", id).Bool("active", active).Msg("Event status changed successfully")
			return nil
		}
	}

	return fmt.Errorf("미존재 Id : %d. %w", id, db.ErrNotFound)
}

// LaunchEvent starts the event in the background; its outcome arrives on the report channel.
func (c *Calendar) LaunchEvent(id uint) error {
	c.lg.Info().Uint("id", id).Msg("Launching event")

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ev := range c.enrolledEvents {
		if ev.Id == id {
			if !ev.IsActive {
				return fmt.Errorf("비활성화 이벤트 Id: %d. %w", id, ErrInactiveEvent)
			}
			go ev.Event(Manual)
			c.lg.Info().Uint("id", id).Msg("Event launched successfully")
			return nil
		}
	}

	return fmt.Errorf("미존재 Id : %d. %w", id, db.ErrNotFound)
}

func (c *Calendar) isActive(id uint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ev := range c.enrolledEvents {
		if ev.Id == id {
			return ev.IsActive
		}
	}
	return false
}

// acquire marks kind as running. Cron and manual launches of the same kind never overlap.
func (c *Calendar) acquire(kind m.FavoriteKind) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running[kind] {
		return false
	}
	c.running[kind] = true
	return true
}

func (c *Calendar) release(kind m.FavoriteKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.running, kind)
}

func (c *Calendar) report(msg string) {
	if c.ch == nil {
		return
	}
	c.ch <- msg
}

/**********************************************************************************************************************
********************************************* Cron Job Events *******************************************************
**********************************************************************************************************************/

func (c *Calendar) runEarningsEvent(way WayOfLaunch) {
	c.crawl(m.EarningsKind, way, c.crawlEarnings)
}

func (c *Calendar) runDividendEvent(way WayOfLaunch) {
	c.crawl(m.DividendKind, way, c.crawlDividends)
}

func (c *Calendar) runIndicatorEvent(way WayOfLaunch) {
	c.crawl(m.IndicatorKind, way, c.crawlIndicators)
}

func (c *Calendar) runCleanupEvent(way WayOfLaunch) {
	c.lg.Info().Msg("Starting CleanupEvent")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	before := startOfDay(c.now()).AddDate(0, 0, -c.retention)
	n, err := c.stg.DeleteCrawlHistoryBefore(ctx, before)
	if err != nil {
		c.lg.Error().Err(err).Msg("[CleanupEvent] DeleteCrawlHistoryBefore 시, 에러 발생")
		c.report(fmt.Sprintf("[CleanupEvent] DeleteCrawlHistoryBefore 시, 에러 발생. %s", err))
		return
	}

	if way == Manual || n > 0 {
		c.report(fmt.Sprintf("[CleanupEvent] %s 이전 수집 이력 %d건 삭제", before.Format(m.DayLayout), n))
	}
	c.lg.Info().Msg("CleanupEvent completed")
}

type crawlFunc func(ctx context.Context, country m.Country, day time.Time) (saved int, failed int, err error)

/*
memo. 크롤링 흐름
  - 오늘부터 horizon 일 동안, 설정된 국가별로 한 페이지씩 수집
  - 행 단위로 회사 upsert + 일정 upsert (하나의 트랜잭션). 실패한 행은 건너뛰고 개수만 집계
  - 국가/일자별 CrawlHistory 기록
  - 저장된 행이 있으면 캐시 버전을 올려 조회 캐시 무효화
*/
func (c *Calendar) crawl(kind m.FavoriteKind, way WayOfLaunch, fetch crawlFunc) {
	c.lg.Info().Str("kind", string(kind)).Bool("manual", bool(way)).Msg("Starting crawl")

	if !c.acquire(kind) {
		c.lg.Warn().Str("kind", string(kind)).Msg("Crawl already running, skipped")
		if way == Manual {
			c.report(fmt.Sprintf("[%s] 이미 수집 중", kind))
		}
		return
	}
	defer c.release(kind)

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), crawlTimeout)
	defer cancel()

	total, failedTotal, errCnt := 0, 0, 0
	for _, day := range c.days() {
		for _, country := range c.countries {
			saved, failed, err := fetch(ctx, country, day)
			if err != nil {
				errCnt++
				c.metrics.crawlErrors.WithLabelValues(string(kind)).Inc()
				c.lg.Error().Err(err).Str("kind", string(kind)).Str("country", string(country)).Msgf("Crawl of %s failed", day.Format(m.DayLayout))
				continue
			}

			c.metrics.savedRows.WithLabelValues(string(kind), string(country)).Add(float64(saved))
			c.metrics.failedRows.WithLabelValues(string(kind), string(country)).Add(float64(failed))
			total += saved
			failedTotal += failed

			if err := c.stg.SaveCrawlHistory(ctx, kind, country, day, saved, failed); err != nil {
				c.lg.Error().Err(err).Msg("SaveCrawlHistory 시, 에러 발생")
			}
		}
	}

	if total > 0 {
		if _, err := c.stg.BumpCacheVersion(ctx); err != nil {
			c.lg.Warn().Err(err).Msg("BumpCacheVersion 시, 에러 발생")
		}
	}

	elapsed := time.Since(start)
	c.metrics.crawlDuration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())

	c.report(fmt.Sprintf("[%s] %d건 저장, %d건 실패, 페이지 오류 %d회 (%s)", kind, total, failedTotal, errCnt, elapsed.Round(time.Second)))
	c.lg.Info().Str("kind", string(kind)).Int("saved", total).Int("failed", failedTotal).Int("errors", errCnt).Msg("Crawl completed")
}

func (c *Calendar) crawlEarnings(ctx context.Context, country m.Country, day time.Time) (int, int, error) {

	rows, err := c.poller.EarningsCalendar(ctx, country, day)
	if err != nil {
		return 0, 0, fmt.Errorf("EarningsCalendar 시 오류 발생. %w", err)
	}

	saved, failed := 0, 0
	for _, row := range rows {
		if row.Name == "" {
			row.Name = c.companyName(ctx, row.Ticker, country)
		}
		if _, err := c.stg.SaveEarningsRow(ctx, row); err != nil {
			failed++
			c.lg.Warn().Err(err).Str("ticker", row.Ticker).Msg("SaveEarningsRow 실패")
			continue
		}
		saved++
	}
	return saved, failed, nil
}

func (c *Calendar) crawlDividends(ctx context.Context, country m.Country, day time.Time) (int, int, error) {

	rows, err := c.poller.DividendCalendar(ctx, country, day)
	if err != nil {
		return 0, 0, fmt.Errorf("DividendCalendar 시 오류 발생. %w", err)
	}

	saved, failed := 0, 0
	for _, row := range rows {
		if row.Name == "" {
			row.Name = c.companyName(ctx, row.Ticker, country)
		}
		if _, err := c.stg.SaveDividendRow(ctx, row); err != nil {
			failed++
			c.lg.Warn().Err(err).Str("ticker", row.Ticker).Msg("SaveDividendRow 실패")
			continue
		}
		saved++
	}
	return saved, failed, nil
}

func (c *Calendar) crawlIndicators(ctx context.Context, country m.Country, day time.Time) (int, int, error) {

	rows, err := c.poller.EconomicCalendar(ctx, country, day)
	if err != nil {
		return 0, 0, fmt.Errorf("EconomicCalendar 시 오류 발생. %w", err)
	}

	saved, failed := 0, 0
	for _, row := range rows {
		ind := row.Indicator()
		if err := c.stg.SaveIndicator(ctx, &ind); err != nil {
			failed++
			c.lg.Warn().Err(err).Str("name", row.Name).Msg("SaveIndicator 실패")
			continue
		}
		saved++
	}
	return saved, failed, nil
}

// companyName fills a missing name from the stored company first and asks the
// quote service only for tickers seen without a name before.
// An empty result lets storage keep the stored name or fall back to the ticker.
func (c *Calendar) companyName(ctx context.Context, ticker string, country m.Country) string {
	stored, err := c.stg.RetrieveCompanyByTicker(ctx, ticker, country)
	if err == nil && stored.Name != "" && stored.Name != ticker {
		return stored.Name
	}
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		c.lg.Warn().Err(err).Str("ticker", ticker).Msg("RetrieveCompanyByTicker 실패")
	}

	profile, err := c.poller.SearchCompany(ctx, ticker, country)
	if err != nil || profile == nil {
		c.lg.Debug().Err(err).Str("ticker", ticker).Msg("SearchCompany found nothing")
		return ""
	}
	return profile.Name
}

func (c *Calendar) days() []time.Time {
	today := startOfDay(c.now())
	rtn := make([]time.Time, 0, c.horizon)
	for i := 0; i < c.horizon; i++ {
		rtn = append(rtn, today.AddDate(0, 0, i))
	}
	return rtn
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
