package fincal

import (
	"context"
	"sync"
	"time"

	"fincalendar/internal/db"
	md "fincalendar/internal/model"
)

type StorageMock struct {
	mu sync.Mutex

	earnings   []md.EarningsRow
	dividends  []md.DividendRow
	indicators []md.EconomicIndicator
	histories  []md.CrawlHistory
	companies  map[string]md.Company

	calendar  []md.Earnings
	reads     int
	favorites map[md.FavoriteKind][]uint

	users  map[uint]*md.User
	oauths []md.OauthInfo

	events  map[uint]bool
	cache   map[string][]byte
	version int64
	cacheErr error

	saveErr error
	err     error
}

func NewStorageMock() *StorageMock {
	return &StorageMock{
		companies: make(map[string]md.Company),
		favorites: make(map[md.FavoriteKind][]uint),
		users:     make(map[uint]*md.User),
		events:    make(map[uint]bool),
		cache:     make(map[string][]byte),
	}
}

func (m *StorageMock) SaveEarningsRow(ctx context.Context, row md.EarningsRow) (*md.Earnings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	m.earnings = append(m.earnings, row)
	m.keepCompany(row.Ticker, row.Name, row.Country)
	e := row.Earnings(uint(len(m.earnings)))
	return &e, nil
}

func (m *StorageMock) SaveDividendRow(ctx context.Context, row md.DividendRow) (*md.Dividend, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	m.dividends = append(m.dividends, row)
	m.keepCompany(row.Ticker, row.Name, row.Country)
	d := row.Dividend(uint(len(m.dividends)))
	return &d, nil
}

func (m *StorageMock) keepCompany(ticker, name string, country md.Country) {
	if name == "" {
		return
	}
	m.companies[string(country)+":"+ticker] = md.Company{Ticker: ticker, Name: name, Country: country}
}

func (m *StorageMock) RetrieveCompanyByTicker(ctx context.Context, ticker string, country md.Country) (*md.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companies[string(country)+":"+ticker]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &c, nil
}

func (m *StorageMock) SaveIndicator(ctx context.Context, indicator *md.EconomicIndicator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !indicator.Importance.Valid() {
		return db.ErrInvalidField
	}
	m.indicators = append(m.indicators, *indicator)
	return nil
}

func (m *StorageMock) RetrieveEarnings(ctx context.Context, filter db.CalendarFilter) ([]md.Earnings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.reads++
	return m.calendar, nil
}

func (m *StorageMock) RetrieveDividends(ctx context.Context, filter db.CalendarFilter) ([]md.Dividend, error) {
	if m.err != nil {
		return nil, m.err
	}
	return nil, nil
}

func (m *StorageMock) RetrieveIndicators(ctx context.Context, filter db.CalendarFilter) ([]md.EconomicIndicator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	rtn := make([]md.EconomicIndicator, 0)
	for _, ind := range m.indicators {
		if ind.Importance >= filter.MinImportance {
			rtn = append(rtn, ind)
		}
	}
	return rtn, nil
}

func (m *StorageMock) RetrieveCountryCounts(ctx context.Context, kind md.FavoriteKind, filter db.CalendarFilter) ([]db.Group, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []db.Group{
		{Keys: map[string]any{"country": []byte("KR")}, Count: 3},
		{Keys: map[string]any{"country": "US"}, Count: 5},
	}, nil
}

func (m *StorageMock) SaveFavorite(ctx context.Context, userID uint, kind md.FavoriteKind, targetID uint) error {
	if m.err != nil {
		return m.err
	}
	if targetID == 0 {
		return db.ErrNotFound
	}
	for _, id := range m.favorites[kind] {
		if id == targetID {
			return nil
		}
	}
	m.favorites[kind] = append(m.favorites[kind], targetID)
	return nil
}

func (m *StorageMock) DeleteFavorite(ctx context.Context, userID uint, kind md.FavoriteKind, targetID uint) error {
	for i, id := range m.favorites[kind] {
		if id == targetID {
			m.favorites[kind] = append(m.favorites[kind][:i], m.favorites[kind][i+1:]...)
			return nil
		}
	}
	return db.ErrNotFound
}

func (m *StorageMock) RetrieveFavoriteEarnings(ctx context.Context, userID uint) ([]md.Earnings, error) {
	rtn := make([]md.Earnings, 0)
	for _, id := range m.favorites[md.EarningsKind] {
		rtn = append(rtn, md.Earnings{ID: id})
	}
	return rtn, nil
}

func (m *StorageMock) RetrieveFavoriteDividends(ctx context.Context, userID uint) ([]md.Dividend, error) {
	return nil, nil
}

func (m *StorageMock) RetrieveFavoriteIndicators(ctx context.Context, userID uint) ([]md.EconomicIndicator, error) {
	return nil, nil
}

func (m *StorageMock) SaveUser(ctx context.Context, user *md.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return db.ErrDuplicate
		}
	}
	user.ID = uint(len(m.users) + 1)
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *StorageMock) RetrieveUser(ctx context.Context, id uint) (*md.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return u, nil
}

func (m *StorageMock) RetrieveUserByEmail(ctx context.Context, email string) (*md.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *StorageMock) SaveOauthInfo(ctx context.Context, info *md.OauthInfo) error {
	if _, ok := m.users[info.UserID]; !ok {
		return db.ErrForeignKey
	}
	for i, o := range m.oauths {
		if o.Provider == info.Provider && o.ProviderID == info.ProviderID {
			info.ID = o.ID
			m.oauths[i] = *info
			return nil
		}
	}
	info.ID = uint(len(m.oauths) + 1)
	m.oauths = append(m.oauths, *info)
	return nil
}

func (m *StorageMock) RetrieveOauthInfo(ctx context.Context, provider string, providerID string) (*md.OauthInfo, error) {
	for _, o := range m.oauths {
		if o.Provider == provider && o.ProviderID == providerID {
			return &o, nil
		}
	}
	return nil, nil
}

func (m *StorageMock) SaveCrawlHistory(ctx context.Context, kind md.FavoriteKind, country md.Country, day time.Time, rows, failed int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histories = append(m.histories, md.CrawlHistory{Kind: kind, Country: country, Rows: rows, Failed: failed})
	return nil
}

func (m *StorageMock) DeleteCrawlHistoryBefore(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.histories))
	m.histories = nil
	return n, nil
}

func (m *StorageMock) RetrieveEventIsActive(eventId uint) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	active, ok := m.events[eventId]
	return !ok || active
}

func (m *StorageMock) UpdateEventIsActive(eventId uint, isActive bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events[eventId] = isActive
	return nil
}

func (m *StorageMock) GetCache(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cacheErr != nil {
		return nil, m.cacheErr
	}
	b, ok := m.cache[key]
	if !ok {
		return nil, db.ErrCacheMiss
	}
	return b, nil
}

func (m *StorageMock) SetCache(ctx context.Context, key string, value []byte, exp time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cacheErr != nil {
		return m.cacheErr
	}
	m.cache[key] = value
	return nil
}

func (m *StorageMock) CacheVersion(ctx context.Context) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.version
}

func (m *StorageMock) BumpCacheVersion(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.version++
	return m.version, nil
}
