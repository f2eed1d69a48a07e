package model

import (
	"time"

	"gorm.io/datatypes"
)

/*
memo. 테이블/컬럼 이름은 기존 Prisma 스키마와 동일하게 유지 (camelCase 컬럼, 단수형 테이블).
unique index 이름도 Prisma 규칙(<Table>_<cols>_key)을 그대로 따름.
releaseDate, exDividendDate, paymentDate 는 UTC 기준 Unix milliseconds.
*/

type User struct {
	ID        uint      `json:"id" gorm:"column:id;primaryKey"`
	Email     string    `json:"email" gorm:"column:email;size:191;not null;uniqueIndex:User_email_key"`
	Password  string    `json:"-" gorm:"column:password;size:191;not null"`
	Nickname  string    `json:"nickname" gorm:"column:nickname;size:191;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"column:createdAt"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"column:updatedAt"`
}

func (User) TableName() string { return "User" }

type OauthInfo struct {
	ID           uint       `json:"id" gorm:"column:id;primaryKey"`
	Provider     string     `json:"provider" gorm:"column:provider;size:32;not null;uniqueIndex:OauthInfo_provider_providerId_key"`
	ProviderID   string     `json:"providerId" gorm:"column:providerId;size:191;not null;uniqueIndex:OauthInfo_provider_providerId_key"`
	AccessToken  *string    `json:"-" gorm:"column:accessToken;type:text"`
	RefreshToken *string    `json:"-" gorm:"column:refreshToken;type:text"`
	TokenExpiry  *time.Time `json:"tokenExpiry,omitempty" gorm:"column:tokenExpiry"`
	UserID       uint       `json:"userId" gorm:"column:userId;not null;index"`
	User         *User      `json:"-" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (OauthInfo) TableName() string { return "OauthInfo" }

type Company struct {
	ID        uint      `json:"id" gorm:"column:id;primaryKey"`
	Ticker    string    `json:"ticker" gorm:"column:ticker;size:32;not null;uniqueIndex:Company_ticker_country_key"`
	Name      string    `json:"name" gorm:"column:name;size:191;not null"`
	Country   Country   `json:"country" gorm:"column:country;size:8;not null;uniqueIndex:Company_ticker_country_key"`
	CreatedAt time.Time `json:"createdAt" gorm:"column:createdAt"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"column:updatedAt"`
}

func (Company) TableName() string { return "Company" }

type Earnings struct {
	ID              uint      `json:"id" gorm:"column:id;primaryKey"`
	Country         Country   `json:"country" gorm:"column:country;size:8;not null;index"`
	ReleaseDate     int64     `json:"releaseDate" gorm:"column:releaseDate;not null;uniqueIndex:Earnings_releaseDate_companyId_key"`
	ActualEPS       Figure    `json:"actualEPS" gorm:"column:actualEPS;size:32;not null"`
	ForecastEPS     Figure    `json:"forecastEPS" gorm:"column:forecastEPS;size:32;not null"`
	PreviousEPS     Figure    `json:"previousEPS" gorm:"column:previousEPS;size:32;not null"`
	ActualRevenue   Figure    `json:"actualRevenue" gorm:"column:actualRevenue;size:32;not null"`
	ForecastRevenue Figure    `json:"forecastRevenue" gorm:"column:forecastRevenue;size:32;not null"`
	PreviousRevenue Figure    `json:"previousRevenue" gorm:"column:previousRevenue;size:32;not null"`
	CompanyID       uint      `json:"companyId" gorm:"column:companyId;not null;uniqueIndex:Earnings_releaseDate_companyId_key"`
	Company         *Company  `json:"company,omitempty" gorm:"foreignKey:CompanyID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CreatedAt       time.Time `json:"createdAt" gorm:"column:createdAt"`
	UpdatedAt       time.Time `json:"updatedAt" gorm:"column:updatedAt"`
}

func (Earnings) TableName() string { return "Earnings" }

type Dividend struct {
	ID                     uint      `json:"id" gorm:"column:id;primaryKey"`
	Country                Country   `json:"country" gorm:"column:country;size:8;not null;index"`
	ExDividendDate         int64     `json:"exDividendDate" gorm:"column:exDividendDate;not null;uniqueIndex:Dividend_exDividendDate_companyId_key"`
	DividendAmount         Figure    `json:"dividendAmount" gorm:"column:dividendAmount;size:32;not null"`
	PreviousDividendAmount Figure    `json:"previousDividendAmount" gorm:"column:previousDividendAmount;size:32;not null"`
	PaymentDate            int64     `json:"paymentDate" gorm:"column:paymentDate;not null;default:0"`
	CompanyID              uint      `json:"companyId" gorm:"column:companyId;not null;uniqueIndex:Dividend_exDividendDate_companyId_key"`
	Company                *Company  `json:"company,omitempty" gorm:"foreignKey:CompanyID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CreatedAt              time.Time `json:"createdAt" gorm:"column:createdAt"`
	UpdatedAt              time.Time `json:"updatedAt" gorm:"column:updatedAt"`
}

func (Dividend) TableName() string { return "Dividend" }

type EconomicIndicator struct {
	ID          uint       `json:"id" gorm:"column:id;primaryKey"`
	Country     Country    `json:"country" gorm:"column:country;size:8;not null;uniqueIndex:EconomicIndicator_releaseDate_name_country_key"`
	ReleaseDate int64      `json:"releaseDate" gorm:"column:releaseDate;not null;uniqueIndex:EconomicIndicator_releaseDate_name_country_key"`
	Name        string     `json:"name" gorm:"column:name;size:191;not null;uniqueIndex:EconomicIndicator_releaseDate_name_country_key"`
	Importance  Importance `json:"importance" gorm:"column:importance;not null"`
	Actual      Figure     `json:"actual" gorm:"column:actual;size:32;not null"`
	Forecast    Figure     `json:"forecast" gorm:"column:forecast;size:32;not null"`
	Previous    Figure     `json:"previous" gorm:"column:previous;size:32;not null"`
	CreatedAt   time.Time  `json:"createdAt" gorm:"column:createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" gorm:"column:updatedAt"`
}

func (EconomicIndicator) TableName() string { return "EconomicIndicator" }

type FavoriteEarnings struct {
	UserID     uint      `json:"userId" gorm:"column:userId;primaryKey;autoIncrement:false"`
	EarningsID uint      `json:"earningsId" gorm:"column:earningsId;primaryKey;autoIncrement:false"`
	User       *User     `json:"-" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Earnings   *Earnings `json:"earnings,omitempty" gorm:"foreignKey:EarningsID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (FavoriteEarnings) TableName() string { return "FavoriteEarnings" }

type FavoriteDividends struct {
	UserID     uint      `json:"userId" gorm:"column:userId;primaryKey;autoIncrement:false"`
	DividendID uint      `json:"dividendId" gorm:"column:dividendId;primaryKey;autoIncrement:false"`
	User       *User     `json:"-" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Dividend   *Dividend `json:"dividend,omitempty" gorm:"foreignKey:DividendID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (FavoriteDividends) TableName() string { return "FavoriteDividends" }

type FavoriteIndicator struct {
	UserID      uint               `json:"userId" gorm:"column:userId;primaryKey;autoIncrement:false"`
	IndicatorID uint               `json:"indicatorId" gorm:"column:indicatorId;primaryKey;autoIncrement:false"`
	User        *User              `json:"-" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Indicator   *EconomicIndicator `json:"indicator,omitempty" gorm:"foreignKey:IndicatorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (FavoriteIndicator) TableName() string { return "FavoriteIndicator" }

// Event persists whether an enrolled scheduled job is switched on.
type Event struct {
	ID       uint `gorm:"column:id;primaryKey;autoIncrement:false"`
	IsActive bool `gorm:"column:isActive"`
}

func (Event) TableName() string { return "Event" }

/*
memo. datatypes.Date 는 date 타입으로 저장됨. 같은 날 같은 kind/country 로 여러 번 돌면 여러 행이 쌓임.
*/
type CrawlHistory struct {
	ID        uint           `json:"id" gorm:"column:id;primaryKey"`
	Kind      FavoriteKind   `json:"kind" gorm:"column:kind;size:16;not null;index:CrawlHistory_kind_date_idx"`
	Country   Country        `json:"country" gorm:"column:country;size:8;not null"`
	Date      datatypes.Date `json:"date" gorm:"column:date;not null;index:CrawlHistory_kind_date_idx"`
	Rows      int            `json:"rows" gorm:"column:rows;not null"`
	Failed    int            `json:"failed" gorm:"column:failed;not null;default:0"`
	CreatedAt time.Time      `json:"createdAt" gorm:"column:createdAt"`
}

func (CrawlHistory) TableName() string { return "CrawlHistory" }

// Entities lists every table managed by the storage layer, parents before children.
func Entities() []any {
	return []any{
		&User{}, &OauthInfo{},
		&Company{}, &Earnings{}, &Dividend{}, &EconomicIndicator{},
		&FavoriteEarnings{}, &FavoriteDividends{}, &FavoriteIndicator{},
		&Event{}, &CrawlHistory{},
	}
}
