package model

// 크롤러가 돌려주는 행. company id 가 정해지기 전 단계

type EarningsRow struct {
	Ticker          string
	Name            string
	Country         Country
	ReleaseDate     int64
	ActualEPS       Figure
	ForecastEPS     Figure
	PreviousEPS     Figure
	ActualRevenue   Figure
	ForecastRevenue Figure
	PreviousRevenue Figure
}

func (r EarningsRow) Company() Company {
	return Company{Ticker: r.Ticker, Name: r.Name, Country: r.Country}
}

func (r EarningsRow) Earnings(companyID uint) Earnings {
	return Earnings{
		Country:         r.Country,
		ReleaseDate:     r.ReleaseDate,
		ActualEPS:       r.ActualEPS,
		ForecastEPS:     r.ForecastEPS,
		PreviousEPS:     r.PreviousEPS,
		ActualRevenue:   r.ActualRevenue,
		ForecastRevenue: r.ForecastRevenue,
		PreviousRevenue: r.PreviousRevenue,
		CompanyID:       companyID,
	}
}

type DividendRow struct {
	Ticker         string
	Name           string
	Country        Country
	ExDividendDate int64
	Amount         Figure
	PreviousAmount Figure
	PaymentDate    int64
}

func (r DividendRow) Company() Company {
	return Company{Ticker: r.Ticker, Name: r.Name, Country: r.Country}
}

func (r DividendRow) Dividend(companyID uint) Dividend {
	return Dividend{
		Country:                r.Country,
		ExDividendDate:         r.ExDividendDate,
		DividendAmount:         r.Amount,
		PreviousDividendAmount: r.PreviousAmount,
		PaymentDate:            r.PaymentDate,
		CompanyID:              companyID,
	}
}

type IndicatorRow struct {
	Name        string
	Country     Country
	ReleaseDate int64
	Importance  Importance
	Actual      Figure
	Forecast    Figure
	Previous    Figure
}

func (r IndicatorRow) Indicator() EconomicIndicator {
	return EconomicIndicator{
		Country:     r.Country,
		ReleaseDate: r.ReleaseDate,
		Name:        r.Name,
		Importance:  r.Importance,
		Actual:      r.Actual,
		Forecast:    r.Forecast,
		Previous:    r.Previous,
	}
}

// CompanyProfile is a search hit from the quote lookup API.
type CompanyProfile struct {
	Ticker   string `json:"symbol"`
	Name     string `json:"description"`
	Exchange string `json:"exchange"`
	Country  string `json:"flag"`
}
