package db

import (
	"context"
	"errors"
	"time"

	m "fincalendar/internal/model"

	"gorm.io/datatypes"
)

/******************************************************** User ********************************************************/

func (s Storage) SaveUser(ctx context.Context, user *m.User) error {

	err := For[m.User](&s).Create(ctx, user)
	if err != nil {
		return err
	}

	s.lg.Info().Msgf("Saved user with ID %d", user.ID)
	return nil
}

func (s Storage) RetrieveUser(ctx context.Context, id uint) (*m.User, error) {
	return For[m.User](&s).FindUniqueOrThrow(ctx, &m.User{ID: id})
}

func (s Storage) RetrieveUserByEmail(ctx context.Context, email string) (*m.User, error) {
	return For[m.User](&s).FindUniqueOrThrow(ctx, &m.User{Email: email})
}

func (s Storage) UpdateUserNickname(ctx context.Context, id uint, nickname string) (*m.User, error) {

	user, err := For[m.User](&s).Update(ctx, &m.User{ID: id}, map[string]any{"Nickname": nickname})
	if err != nil {
		return nil, err
	}

	s.lg.Info().Msgf("Updated nickname of user ID %d", id)
	return user, nil
}

func (s Storage) UpdateUserPassword(ctx context.Context, id uint, hash string) error {

	_, err := For[m.User](&s).Update(ctx, &m.User{ID: id}, map[string]any{"Password": hash})
	if err != nil {
		return err
	}

	s.lg.Info().Msgf("Updated password of user ID %d", id)
	return nil
}

// DeleteUser removes the user together with its oauth links and favorites (cascade).
func (s Storage) DeleteUser(ctx context.Context, id uint) error {

	err := For[m.User](&s).Delete(ctx, &m.User{ID: id})
	if err != nil {
		return err
	}

	s.lg.Info().Msgf("Deleted user with ID %d", id)
	return nil
}

/******************************************************** OAuth *******************************************************/

// SaveOauthInfo links a provider identity to a user, refreshing tokens when the link exists.
func (s Storage) SaveOauthInfo(ctx context.Context, info *m.OauthInfo) error {

	err := For[m.OauthInfo](&s).Upsert(ctx, info,
		[]string{"Provider", "ProviderID"},
		[]string{"AccessToken", "RefreshToken", "TokenExpiry", "UserID"},
	)
	if err != nil {
		return err
	}

	s.lg.Info().Msgf("Saved %s oauth info for user ID %d", info.Provider, info.UserID)
	return nil
}

func (s Storage) RetrieveOauthInfo(ctx context.Context, provider string, providerID string) (*m.OauthInfo, error) {
	return For[m.OauthInfo](&s).FindUnique(ctx, &m.OauthInfo{Provider: provider, ProviderID: providerID})
}

func (s Storage) RetrieveUserOauthInfos(ctx context.Context, userID uint) ([]m.OauthInfo, error) {
	return For[m.OauthInfo](&s).FindMany(ctx, Query{
		Where:   []Cond{Where("UserID", Eq, userID)},
		OrderBy: []Order{Asc("Provider")},
	})
}

/******************************************************* Company ******************************************************/

// SaveCompany upserts on (ticker, country); a changed name is written through.
func (s Storage) SaveCompany(ctx context.Context, company *m.Company) error {

	err := For[m.Company](&s).Upsert(ctx, company, []string{"Ticker", "Country"}, []string{"Name"})
	if err != nil {
		return err
	}

	s.lg.Debug().Msgf("Saved company %s(%s) with ID %d", company.Ticker, company.Country, company.ID)
	return nil
}

func (s Storage) RetrieveCompany(ctx context.Context, id uint) (*m.Company, error) {
	return For[m.Company](&s).FindUniqueOrThrow(ctx, &m.Company{ID: id})
}

func (s Storage) RetrieveCompanyByTicker(ctx context.Context, ticker string, country m.Country) (*m.Company, error) {
	return For[m.Company](&s).FindUniqueOrThrow(ctx, &m.Company{Ticker: ticker, Country: country})
}

// RetrieveCompanies pages through companies, optionally narrowed to a country and a ticker/name prefix.
func (s Storage) RetrieveCompanies(ctx context.Context, country m.Country, search string, skip, take int) ([]m.Company, int64, error) {

	q := Query{
		OrderBy: []Order{Asc("Ticker")},
		Skip:    skip,
		Take:    take,
	}
	if country != "" {
		q.Where = append(q.Where, Where("Country", Eq, country))
	}
	if search != "" {
		q.Where = append(q.Where, Where("Ticker", StartsWith, search))
	}

	table := For[m.Company](&s)
	total, err := table.Count(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	companies, err := table.FindMany(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	s.lg.Info().Msgf("Retrieved %d of %d companies", len(companies), total)
	return companies, total, nil
}

/******************************************************** Event *******************************************************/

// RetrieveEventIsActive defaults unknown events to active and records them.
func (s Storage) RetrieveEventIsActive(eventId uint) bool {
	ctx := context.Background()

	event, err := For[m.Event](&s).FindUniqueOrThrow(ctx, &m.Event{ID: eventId})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if err := s.enrollEvent(ctx, eventId); err != nil {
				s.lg.Error().Err(err).Msgf("Failed to create event with ID %d", eventId)
				return true
			}
			s.lg.Info().Msgf("Created new event with ID %d and set as active", eventId)
			return true
		}
		s.lg.Info().Msgf("Failed to retrieve event with ID %d", eventId)
		return false
	}

	s.lg.Info().Msgf("Retrieved event with ID %d, active status: %t", eventId, event.IsActive)
	return event.IsActive
}

func (s Storage) enrollEvent(ctx context.Context, eventId uint) error {
	return translate(s.db.WithContext(ctx).Create(&m.Event{ID: eventId, IsActive: true}).Error)
}

func (s Storage) UpdateEventIsActive(eventId uint, isActive bool) error {

	event := m.Event{ID: eventId, IsActive: isActive}
	err := For[m.Event](&s).Upsert(context.Background(), &event, []string{"ID"}, []string{"IsActive"})
	if err != nil {
		return err
	}

	s.lg.Info().Msgf("Updated event with ID %d to active status: %t", eventId, isActive)
	return nil
}

/**************************************************** Crawl History ***************************************************/

func (s Storage) SaveCrawlHistory(ctx context.Context, kind m.FavoriteKind, country m.Country, day time.Time, rows, failed int) error {

	hist := m.CrawlHistory{
		Kind:    kind,
		Country: country,
		Date:    datatypes.Date(day),
		Rows:    rows,
		Failed:  failed,
	}
	if err := For[m.CrawlHistory](&s).Create(ctx, &hist); err != nil {
		return err
	}

	s.lg.Info().Msgf("Saved crawl history %s/%s %s: %d rows, %d failed", kind, country, day.Format(m.DayLayout), rows, failed)
	return nil
}

func (s Storage) RetrieveCrawlHistory(ctx context.Context, kind m.FavoriteKind, since time.Time) ([]m.CrawlHistory, error) {
	return For[m.CrawlHistory](&s).FindMany(ctx, Query{
		Where: []Cond{
			Where("Kind", Eq, kind),
			Where("Date", Gte, datatypes.Date(since)),
		},
		OrderBy: []Order{Desc("Date"), Desc("ID")},
	})
}

func (s Storage) DeleteCrawlHistoryBefore(ctx context.Context, before time.Time) (int64, error) {

	n, err := For[m.CrawlHistory](&s).DeleteMany(ctx, Query{
		Where: []Cond{Where("Date", Lt, datatypes.Date(before))},
	})
	if err != nil {
		return 0, err
	}

	s.lg.Info().Msgf("Deleted %d crawl history rows before %s", n, before.Format(m.DayLayout))
	return n, nil
}
