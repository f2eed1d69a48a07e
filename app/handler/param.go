package handler

import (
	"strings"

	fincal "fincalendar"
	m "fincalendar/internal/model"
)

/***************************************************************** request ****************************************************************/

type CalendarParam struct {
	From       string   `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To         string   `query:"to" validate:"omitempty,datetime=2006-01-02"`
	Country    []string `query:"country" validate:"dive,country"`
	Importance int      `query:"importance" validate:"omitempty,min=1,max=3"`
}

// query assumes the param already passed validCheck.
func (p CalendarParam) query() fincal.CalendarQuery {
	var q fincal.CalendarQuery
	if p.From != "" {
		q.From, _ = m.ParseDay(p.From)
	}
	if p.To != "" {
		q.To, _ = m.ParseDay(p.To)
	}
	if !q.From.IsZero() && q.To.IsZero() {
		q.To = q.From
	}
	if q.From.IsZero() && !q.To.IsZero() {
		q.From = q.To
	}
	for _, c := range p.Country {
		country, _ := m.ToCountry(c)
		q.Countries = append(q.Countries, country)
	}
	q.MinImportance = m.Importance(p.Importance)
	return q
}

// memo. country=KR,US 와 country=KR&country=US 둘 다 허용
func splitCountries(values []string) []string {
	rtn := make([]string, 0, len(values))
	for _, v := range values {
		for _, c := range strings.Split(v, ",") {
			if c = strings.TrimSpace(c); c != "" {
				rtn = append(rtn, c)
			}
		}
	}
	return rtn
}

type CompanyListParam struct {
	Country string `query:"country" validate:"omitempty,country"`
	Search  string `query:"search" validate:"max=32"`
	Skip    int    `query:"skip" validate:"min=0"`
	Take    int    `query:"take" validate:"min=0,max=100"`
}

type HistoryParam struct {
	Take int `query:"take" validate:"min=0,max=100"`
}

type FavoriteParam struct {
	Kind string `validate:"required,kind"`
	ID   uint   `validate:"required"`
}

type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email,max=191"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Nickname string `json:"nickname" validate:"required,max=191"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type EventStatusChangeRequest struct {
	Id     uint `json:"id" validate:"required"`
	Active bool `json:"active"`
}

type EventLaunchRequest struct {
	Id uint `json:"id" validate:"required"`
}

/***************************************************************** resoponse ****************************************************************/

type EventResponse struct {
	Id          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
}

// JWTResponse is the response sent after successful authentication
type JWTResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"`
}

type CompanyListResponse struct {
	Total     int64       `json:"total"`
	Companies []m.Company `json:"companies"`
}

type CompanyResponse struct {
	Company    m.Company `json:"company"`
	EpsSummary any       `json:"epsSummary"`
}
