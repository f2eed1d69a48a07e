package model

import (
	"errors"
	"slices"
	"strings"
)

type Country string

const (
	Korea         Country = "KR"
	UnitedStates  Country = "US"
	Japan         Country = "JP"
	China         Country = "CN"
	EuroZone      Country = "EU"
	UnitedKingdom Country = "GB"
	Germany       Country = "DE"
)

var countryList = []Country{Korea, UnitedStates, Japan, China, EuroZone, UnitedKingdom, Germany}

var countryNames = map[Country]string{
	Korea:         "South Korea",
	UnitedStates:  "United States",
	Japan:         "Japan",
	China:         "China",
	EuroZone:      "Euro Zone",
	UnitedKingdom: "United Kingdom",
	Germany:       "Germany",
}

// 캘린더 소스 사이트의 국가 번호
var countrySourceIds = map[Country]int{
	Korea:         11,
	UnitedStates:  5,
	Japan:         35,
	China:         37,
	EuroZone:      72,
	UnitedKingdom: 4,
	Germany:       17,
}

func (c Country) String() string {
	return string(c)
}

func (c Country) Name() string {
	return countryNames[c]
}

func (c Country) SourceID() int {
	return countrySourceIds[c]
}

func (c Country) Valid() bool {
	return slices.Contains(countryList, c)
}

// ToCountry accepts a country code in any case or the full English name.
func ToCountry(s string) (Country, error) {
	s = strings.TrimSpace(s)
	for _, c := range countryList {
		if strings.EqualFold(s, string(c)) || strings.EqualFold(s, countryNames[c]) {
			return c, nil
		}
	}
	return "", errors.New("unknown country: " + s)
}

func IsValidCountry(s string) bool {
	_, err := ToCountry(s)
	return err == nil
}

func CountryList() []Country {
	return slices.Clone(countryList)
}

type Importance int

const (
	LowImportance Importance = iota + 1
	MediumImportance
	HighImportance
)

var importanceList = []string{"low", "medium", "high"}

func (i Importance) Valid() bool {
	return i >= LowImportance && i <= HighImportance
}

func (i Importance) String() string {
	if !i.Valid() {
		return ""
	}
	return importanceList[i-1]
}

// FavoriteKind names the three calendars a user can mark favorites on.
type FavoriteKind string

const (
	EarningsKind  FavoriteKind = "earnings"
	DividendKind  FavoriteKind = "dividends"
	IndicatorKind FavoriteKind = "indicators"
)

var kindList = []FavoriteKind{EarningsKind, DividendKind, IndicatorKind}

func ToFavoriteKind(s string) (FavoriteKind, error) {
	k := FavoriteKind(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(kindList, k) {
		return "", errors.New("unknown calendar kind: " + s)
	}
	return k, nil
}

func KindList() []FavoriteKind {
	return slices.Clone(kindList)
}
