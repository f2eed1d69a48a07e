package fincal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"fincalendar/internal/db"
	m "fincalendar/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const cacheTTL = 10 * time.Minute

var (
	ErrUnauthorized  = errors.New("invalid credentials")
	ErrInactiveEvent = errors.New("event is not active")
)

type Calendar struct {
	stg       Storage
	poller    Poller
	ch        chan<- string
	countries []m.Country
	horizon   int
	retention int

	mu             sync.Mutex
	enrolledEvents []*EnrolledEvent
	running        map[m.FavoriteKind]bool

	registry *prometheus.Registry
	metrics  *metrics
	now      func() time.Time
	lg       zerolog.Logger
}

type CalendarConfig struct {
	Storage   Storage
	Poller    Poller
	Channel   chan<- string
	Countries []m.Country
	Horizon   int // days crawled ahead, today included
	Retention int // days of crawl history kept
	Registry  *prometheus.Registry
}

func NewCalendar(conf CalendarConfig) *Calendar {

	c := &Calendar{
		stg:       conf.Storage,
		poller:    conf.Poller,
		ch:        conf.Channel,
		countries: conf.Countries,
		horizon:   conf.Horizon,
		retention: conf.Retention,
		running:   make(map[m.FavoriteKind]bool),
		registry:  conf.Registry,
		now:       time.Now,
		lg:        zerolog.New(os.Stdout).With().Str("Module", "Calendar").Timestamp().Logger(),
	}
	if len(c.countries) == 0 {
		c.countries = m.CountryList()
	}
	if c.horizon <= 0 {
		c.horizon = 7
	}
	if c.retention <= 0 {
		c.retention = 90
	}
	if c.registry == nil {
		c.registry = newRegistry()
	}
	c.metrics = newMetrics(c.registry)

	c.registerEvents()
	return c
}

// Gatherer exposes the calendar's metrics for a /metrics endpoint.
func (c *Calendar) Gatherer() prometheus.Gatherer {
	return c.registry
}

/**********************************************************************************************************************
********************************************* Calendar Reads **********************************************************
**********************************************************************************************************************/

// CalendarQuery selects whole UTC days from From to To, both inclusive.
// A zero From means today and a zero To means the same day as From.
type CalendarQuery struct {
	From          time.Time
	To            time.Time
	Countries     []m.Country
	MinImportance m.Importance
}

func (c *Calendar) filter(q CalendarQuery) (db.CalendarFilter, error) {

	from, to := q.From, q.To
	if from.IsZero() {
		from = c.now().UTC()
	}
	if to.IsZero() {
		to = from
	}

	start, end, err := m.DayRange(from, to)
	if err != nil {
		return db.CalendarFilter{}, fmt.Errorf("%w: %s", db.ErrInvalidField, err)
	}

	for _, country := range q.Countries {
		if !country.Valid() {
			return db.CalendarFilter{}, fmt.Errorf("%w: unknown country %q", db.ErrInvalidField, country)
		}
	}
	if q.MinImportance != 0 && !q.MinImportance.Valid() {
		return db.CalendarFilter{}, fmt.Errorf("%w: importance %d", db.ErrInvalidField, q.MinImportance)
	}

	return db.CalendarFilter{
		From:          start,
		To:            end,
		Countries:     q.Countries,
		MinImportance: q.MinImportance,
	}, nil
}

func (c *Calendar) Earnings(ctx context.Context, q CalendarQuery) ([]m.Earnings, error) {
	filter, err := c.filter(q)
	if err != nil {
		return nil, err
	}
	return cached(ctx, c, m.EarningsKind, filter, c.stg.RetrieveEarnings)
}

func (c *Calendar) Dividends(ctx context.Context, q CalendarQuery) ([]m.Dividend, error) {
	filter, err := c.filter(q)
	if err != nil {
		return nil, err
	}
	return cached(ctx, c, m.DividendKind, filter, c.stg.RetrieveDividends)
}

func (c *Calendar) Indicators(ctx context.Context, q CalendarQuery) ([]m.EconomicIndicator, error) {
	filter, err := c.filter(q)
	if err != nil {
		return nil, err
	}
	return cached(ctx, c, m.IndicatorKind, filter, c.stg.RetrieveIndicators)
}

type CountryCount struct {
	Country m.Country `json:"country"`
	Count   int64     `json:"count"`
}

// CountryCounts counts the rows of one calendar kind per country inside the queried days.
func (c *Calendar) CountryCounts(ctx context.Context, kind m.FavoriteKind, q CalendarQuery) ([]CountryCount, error) {
	filter, err := c.filter(q)
	if err != nil {
		return nil, err
	}

	groups, err := c.stg.RetrieveCountryCounts(ctx, kind, filter)
	if err != nil {
		return nil, err
	}

	rtn := make([]CountryCount, 0, len(groups))
	for _, g := range groups {
		rtn = append(rtn, CountryCount{Country: m.Country(groupKey(g.Keys["country"])), Count: g.Count})
	}
	return rtn, nil
}

func groupKey(v any) string {
	switch k := v.(type) {
	case string:
		return k
	case []byte:
		return string(k)
	default:
		return fmt.Sprint(v)
	}
}

/*
memo. 캐시 키에 버전을 포함. 크롤링으로 데이터가 바뀌면 버전만 올려서 이전 키들을 한 번에 무효화 (TTL로 자연 소멸).
캐시 오류는 조회 실패로 취급하지 않고 DB에서 읽음.
*/
func cached[T any](ctx context.Context, c *Calendar, kind m.FavoriteKind, filter db.CalendarFilter, load func(context.Context, db.CalendarFilter) ([]T, error)) ([]T, error) {

	key := c.cacheKey(ctx, kind, filter)

	b, err := c.stg.GetCache(ctx, key)
	if err == nil {
		var rtn []T
		if err := json.Unmarshal(b, &rtn); err == nil {
			c.metrics.cacheLookups.WithLabelValues(string(kind), "hit").Inc()
			return rtn, nil
		}
		c.lg.Warn().Str("key", key).Msg("Broken cache entry, reading from storage")
	} else if !errors.Is(err, db.ErrCacheMiss) {
		c.lg.Warn().Err(err).Str("key", key).Msg("GetCache failed, reading from storage")
	}
	c.metrics.cacheLookups.WithLabelValues(string(kind), "miss").Inc()

	rows, err := load(ctx, filter)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = make([]T, 0)
	}

	if b, err := json.Marshal(rows); err == nil {
		if err := c.stg.SetCache(ctx, key, b, cacheTTL); err != nil {
			c.lg.Warn().Err(err).Str("key", key).Msg("SetCache failed")
		}
	}
	return rows, nil
}

func (c *Calendar) cacheKey(ctx context.Context, kind m.FavoriteKind, filter db.CalendarFilter) string {

	countries := make([]string, 0, len(filter.Countries))
	for _, country := range filter.Countries {
		countries = append(countries, string(country))
	}
	slices.Sort(countries)
	countries = slices.Compact(countries)

	return fmt.Sprintf("fincal:%s:v%d:%d:%d:%s:%d",
		kind, c.stg.CacheVersion(ctx), filter.From, filter.To, strings.Join(countries, ","), filter.MinImportance)
}

/**********************************************************************************************************************
*********************************************** Favorites *************************************************************
**********************************************************************************************************************/

// FavoriteList holds the favorites of a single kind; the other two slices stay nil.
type FavoriteList struct {
	Kind       m.FavoriteKind
	Earnings   []m.Earnings
	Dividends  []m.Dividend
	Indicators []m.EconomicIndicator
}

// Items returns the slice matching Kind, never nil.
func (f FavoriteList) Items() any {
	switch f.Kind {
	case m.EarningsKind:
		if f.Earnings == nil {
			return []m.Earnings{}
		}
		return f.Earnings
	case m.DividendKind:
		if f.Dividends == nil {
			return []m.Dividend{}
		}
		return f.Dividends
	default:
		if f.Indicators == nil {
			return []m.EconomicIndicator{}
		}
		return f.Indicators
	}
}

func (c *Calendar) AddFavorite(ctx context.Context, userID uint, kind m.FavoriteKind, targetID uint) error {
	if _, err := m.ToFavoriteKind(string(kind)); err != nil {
		return fmt.Errorf("%w: %s", db.ErrInvalidField, err)
	}
	return c.stg.SaveFavorite(ctx, userID, kind, targetID)
}

func (c *Calendar) RemoveFavorite(ctx context.Context, userID uint, kind m.FavoriteKind, targetID uint) error {
	if _, err := m.ToFavoriteKind(string(kind)); err != nil {
		return fmt.Errorf("%w: %s", db.ErrInvalidField, err)
	}
	return c.stg.DeleteFavorite(ctx, userID, kind, targetID)
}

func (c *Calendar) Favorites(ctx context.Context, userID uint, kind m.FavoriteKind) (*FavoriteList, error) {

	rtn := &FavoriteList{Kind: kind}
	var err error

	switch kind {
	case m.EarningsKind:
		rtn.Earnings, err = c.stg.RetrieveFavoriteEarnings(ctx, userID)
	case m.DividendKind:
		rtn.Dividends, err = c.stg.RetrieveFavoriteDividends(ctx, userID)
	case m.IndicatorKind:
		rtn.Indicators, err = c.stg.RetrieveFavoriteIndicators(ctx, userID)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", db.ErrInvalidField, kind)
	}
	if err != nil {
		return nil, err
	}
	return rtn, nil
}

/**********************************************************************************************************************
************************************************* Users ***************************************************************
**********************************************************************************************************************/

func (c *Calendar) SignUp(ctx context.Context, email, password, nickname string) (*m.User, error) {

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("비밀번호 해시 생성 시 오류 발생. %w", err)
	}

	user := m.User{
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Password: string(hash),
		Nickname: nickname,
	}
	if err := c.stg.SaveUser(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Authenticate returns ErrUnauthorized for an unknown email, a wrong password and OAuth-only accounts alike.
func (c *Calendar) Authenticate(ctx context.Context, email, password string) (*m.User, error) {

	user, err := c.stg.RetrieveUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrUnauthorized
	}
	return user, nil
}

func (c *Calendar) User(ctx context.Context, id uint) (*m.User, error) {
	return c.stg.RetrieveUser(ctx, id)
}

// OauthProfile is what a provider callback hands back about the signed in account.
type OauthProfile struct {
	Provider     string
	ProviderID   string
	Email        string
	Nickname     string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// LinkOauth finds the user owning the provider account, or the user with the same email,
// creating one when neither exists. The provider tokens are stored on every login.
func (c *Calendar) LinkOauth(ctx context.Context, p OauthProfile) (*m.User, error) {

	if p.Provider == "" || p.ProviderID == "" {
		return nil, fmt.Errorf("%w: empty oauth account", ErrUnauthorized)
	}

	info, err := c.stg.RetrieveOauthInfo(ctx, p.Provider, p.ProviderID)
	if err != nil {
		return nil, err
	}

	var user *m.User
	if info != nil {
		user, err = c.stg.RetrieveUser(ctx, info.UserID)
		if err != nil {
			return nil, err
		}
	} else {
		user, err = c.oauthUser(ctx, p)
		if err != nil {
			return nil, err
		}
	}

	linked := m.OauthInfo{
		Provider:   p.Provider,
		ProviderID: p.ProviderID,
		UserID:     user.ID,
	}
	if p.AccessToken != "" {
		linked.AccessToken = &p.AccessToken
	}
	if p.RefreshToken != "" {
		linked.RefreshToken = &p.RefreshToken
	}
	if !p.ExpiresAt.IsZero() {
		linked.TokenExpiry = &p.ExpiresAt
	}
	if err := c.stg.SaveOauthInfo(ctx, &linked); err != nil {
		return nil, err
	}

	c.lg.Info().Msgf("Linked %s account to user ID %d", p.Provider, user.ID)
	return user, nil
}

func (c *Calendar) oauthUser(ctx context.Context, p OauthProfile) (*m.User, error) {

	email := strings.ToLower(strings.TrimSpace(p.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: %s account has no email", ErrUnauthorized, p.Provider)
	}

	user, err := c.stg.RetrieveUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}

	nickname := p.Nickname
	if nickname == "" {
		nickname, _, _ = strings.Cut(email, "@")
	}
	// memo. OAuth 로 생성된 계정은 비밀번호가 없으므로 로그인은 OAuth 로만 가능
	user = &m.User{Email: email, Nickname: nickname}
	if err := c.stg.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
