package handler

import (
	"context"
	"fmt"

	fincal "fincalendar"
	"fincalendar/internal/db"
	m "fincalendar/internal/model"

	"github.com/kr/pretty"
)

/***************************** Calendar ***********************************/

type CalendarRetrieverMock struct {
	earnings   []m.Earnings
	dividends  []m.Dividend
	indicators []m.EconomicIndicator
	lastQuery  fincal.CalendarQuery
	err        error
}

func (mock *CalendarRetrieverMock) Earnings(ctx context.Context, q fincal.CalendarQuery) ([]m.Earnings, error) {
	fmt.Println("Earnings Called")

	mock.lastQuery = q
	if mock.err != nil {
		return nil, mock.err
	}
	return mock.earnings, nil
}

func (mock *CalendarRetrieverMock) Dividends(ctx context.Context, q fincal.CalendarQuery) ([]m.Dividend, error) {
	mock.lastQuery = q
	if mock.err != nil {
		return nil, mock.err
	}
	return mock.dividends, nil
}

func (mock *CalendarRetrieverMock) Indicators(ctx context.Context, q fincal.CalendarQuery) ([]m.EconomicIndicator, error) {
	mock.lastQuery = q
	if mock.err != nil {
		return nil, mock.err
	}
	return mock.indicators, nil
}

func (mock *CalendarRetrieverMock) CountryCounts(ctx context.Context, kind m.FavoriteKind, q fincal.CalendarQuery) ([]fincal.CountryCount, error) {
	mock.lastQuery = q
	if mock.err != nil {
		return nil, mock.err
	}
	return []fincal.CountryCount{{Country: m.Korea, Count: int64(len(mock.earnings))}}, nil
}

type IndicatorRetrieverMock struct {
	indicators []m.EconomicIndicator
	lastTake   int
}

func (mock *IndicatorRetrieverMock) RetrieveIndicator(ctx context.Context, id uint) (*m.EconomicIndicator, error) {
	for _, ind := range mock.indicators {
		if ind.ID == id {
			return &ind, nil
		}
	}
	return nil, db.ErrNotFound
}

func (mock *IndicatorRetrieverMock) RetrieveIndicatorHistory(ctx context.Context, name string, country m.Country, take int) ([]m.EconomicIndicator, error) {
	mock.lastTake = take
	rtn := make([]m.EconomicIndicator, 0)
	for _, ind := range mock.indicators {
		if ind.Name == name && ind.Country == country {
			rtn = append(rtn, ind)
		}
	}
	return rtn, nil
}

/***************************** Company ***********************************/

type CompanyRetrieverMock struct {
	companies []m.Company
	earnings  []m.Earnings
	summary   *db.Aggregate
	err       error
}

func (mock CompanyRetrieverMock) RetrieveCompany(ctx context.Context, id uint) (*m.Company, error) {
	for _, c := range mock.companies {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, db.ErrNotFound
}

func (mock CompanyRetrieverMock) RetrieveCompanies(ctx context.Context, country m.Country, search string, skip, take int) ([]m.Company, int64, error) {
	if mock.err != nil {
		return nil, 0, mock.err
	}
	rtn := make([]m.Company, 0)
	for _, c := range mock.companies {
		if country == "" || c.Country == country {
			rtn = append(rtn, c)
		}
	}
	total := int64(len(rtn))
	if skip > len(rtn) {
		skip = len(rtn)
	}
	rtn = rtn[skip:]
	if take < len(rtn) {
		rtn = rtn[:take]
	}
	return rtn, total, nil
}

func (mock CompanyRetrieverMock) RetrieveCompanyEarnings(ctx context.Context, companyID uint) ([]m.Earnings, error) {
	rtn := make([]m.Earnings, 0)
	for _, e := range mock.earnings {
		if e.CompanyID == companyID {
			rtn = append(rtn, e)
		}
	}
	return rtn, nil
}

func (mock CompanyRetrieverMock) RetrieveCompanyDividends(ctx context.Context, companyID uint) ([]m.Dividend, error) {
	return []m.Dividend{}, nil
}

func (mock CompanyRetrieverMock) RetrieveEpsSummary(ctx context.Context, companyID uint) (*db.Aggregate, error) {
	if mock.err != nil {
		return nil, mock.err
	}
	return mock.summary, nil
}

/***************************** Favorite ***********************************/

type FavoriteManagerMock struct {
	favorites map[uint]map[m.FavoriteKind][]uint
}

func NewFavoriteManagerMock() *FavoriteManagerMock {
	return &FavoriteManagerMock{favorites: make(map[uint]map[m.FavoriteKind][]uint)}
}

func (mock *FavoriteManagerMock) prettyPrint() {
	pretty.Println(mock.favorites)
}

func (mock *FavoriteManagerMock) AddFavorite(ctx context.Context, userID uint, kind m.FavoriteKind, targetID uint) error {
	if targetID > 100 {
		return db.ErrNotFound
	}
	if mock.favorites[userID] == nil {
		mock.favorites[userID] = make(map[m.FavoriteKind][]uint)
	}
	for _, id := range mock.favorites[userID][kind] {
		if id == targetID {
			return nil
		}
	}
	mock.favorites[userID][kind] = append(mock.favorites[userID][kind], targetID)
	return nil
}

func (mock *FavoriteManagerMock) RemoveFavorite(ctx context.Context, userID uint, kind m.FavoriteKind, targetID uint) error {
	ids := mock.favorites[userID][kind]
	for i, id := range ids {
		if id == targetID {
			mock.favorites[userID][kind] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return db.ErrNotFound
}

func (mock *FavoriteManagerMock) Favorites(ctx context.Context, userID uint, kind m.FavoriteKind) (*fincal.FavoriteList, error) {
	rtn := &fincal.FavoriteList{Kind: kind}
	for _, id := range mock.favorites[userID][kind] {
		switch kind {
		case m.EarningsKind:
			rtn.Earnings = append(rtn.Earnings, m.Earnings{ID: id})
		case m.DividendKind:
			rtn.Dividends = append(rtn.Dividends, m.Dividend{ID: id})
		case m.IndicatorKind:
			rtn.Indicators = append(rtn.Indicators, m.EconomicIndicator{ID: id})
		}
	}
	return rtn, nil
}

/***************************** User ***********************************/

type UserAuthenticatorMock struct {
	users     []m.User
	passwords map[string]string
	linked    []fincal.OauthProfile
}

func NewUserAuthenticatorMock() *UserAuthenticatorMock {
	return &UserAuthenticatorMock{passwords: make(map[string]string)}
}

func (mock *UserAuthenticatorMock) SignUp(ctx context.Context, email, password, nickname string) (*m.User, error) {
	if _, ok := mock.passwords[email]; ok {
		return nil, db.ErrDuplicate
	}
	user := m.User{ID: uint(len(mock.users) + 1), Email: email, Nickname: nickname, Password: "hashed"}
	mock.users = append(mock.users, user)
	mock.passwords[email] = password
	return &user, nil
}

func (mock *UserAuthenticatorMock) Authenticate(ctx context.Context, email, password string) (*m.User, error) {
	pw, ok := mock.passwords[email]
	if !ok || pw != password {
		return nil, fincal.ErrUnauthorized
	}
	for _, u := range mock.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fincal.ErrUnauthorized
}

func (mock *UserAuthenticatorMock) User(ctx context.Context, id uint) (*m.User, error) {
	for _, u := range mock.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, db.ErrNotFound
}

func (mock *UserAuthenticatorMock) LinkOauth(ctx context.Context, p fincal.OauthProfile) (*m.User, error) {
	mock.linked = append(mock.linked, p)
	for _, u := range mock.users {
		if u.Email == p.Email {
			return &u, nil
		}
	}
	user := m.User{ID: uint(len(mock.users) + 1), Email: p.Email, Nickname: p.Nickname}
	mock.users = append(mock.users, user)
	return &user, nil
}

/***************************** Event ***********************************/

type EventMock struct {
	events   []*fincal.EnrolledEvent
	launched []uint
}

func (mock *EventMock) Events() []*fincal.EnrolledEvent {
	return mock.events
}

func (mock *EventMock) LaunchEvent(id uint) error {
	for _, ev := range mock.events {
		if ev.Id == id {
			if !ev.IsActive {
				return fincal.ErrInactiveEvent
			}
			mock.launched = append(mock.launched, id)
			return nil
		}
	}
	return db.ErrNotFound
}

func (mock *EventMock) SetEventStatus(id uint, active bool) error {
	for _, ev := range mock.events {
		if ev.Id == id {
			ev.IsActive = active
			return nil
		}
	}
	return db.ErrNotFound
}
