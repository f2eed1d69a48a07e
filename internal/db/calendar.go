package db

import (
	"context"
	"fmt"

	m "fincalendar/internal/model"
)

// CalendarFilter narrows a calendar read to [From, To) in Unix ms.
// Empty Countries means every country; MinImportance only applies to indicators.
type CalendarFilter struct {
	From          int64
	To            int64
	Countries     []m.Country
	MinImportance m.Importance
}

func (f CalendarFilter) conds(dateField string) []Cond {
	conds := []Cond{
		Where(dateField, Gte, f.From),
		Where(dateField, Lt, f.To),
	}
	if len(f.Countries) > 0 {
		conds = append(conds, Where("Country", In, f.Countries))
	}
	return conds
}

/******************************************************* Earnings *****************************************************/

// SaveEarnings upserts on (releaseDate, companyId). Published figures overwrite the earlier ones.
func (s Storage) SaveEarnings(ctx context.Context, earnings *m.Earnings) error {

	err := For[m.Earnings](&s).Upsert(ctx, earnings,
		[]string{"ReleaseDate", "CompanyID"},
		[]string{"Country", "ActualEPS", "ForecastEPS", "PreviousEPS", "ActualRevenue", "ForecastRevenue", "PreviousRevenue"},
	)
	if err != nil {
		return err
	}

	s.lg.Debug().Msgf("Saved earnings of company ID %d at %d with ID %d", earnings.CompanyID, earnings.ReleaseDate, earnings.ID)
	return nil
}

func (s Storage) RetrieveEarnings(ctx context.Context, filter CalendarFilter) ([]m.Earnings, error) {

	earnings, err := For[m.Earnings](&s).FindMany(ctx, Query{
		Where:   filter.conds("ReleaseDate"),
		OrderBy: []Order{Asc("ReleaseDate"), Asc("ID")},
		Include: []string{"Company"},
	})
	if err != nil {
		return nil, err
	}

	s.lg.Info().Msgf("Retrieved %d earnings between %d and %d", len(earnings), filter.From, filter.To)
	return earnings, nil
}

func (s Storage) RetrieveEarningsByID(ctx context.Context, id uint) (*m.Earnings, error) {
	return For[m.Earnings](&s).FindFirstOrThrow(ctx, Query{
		Where:   []Cond{Where("ID", Eq, id)},
		Include: []string{"Company"},
	})
}

func (s Storage) RetrieveCompanyEarnings(ctx context.Context, companyID uint) ([]m.Earnings, error) {
	return For[m.Earnings](&s).FindMany(ctx, Query{
		Where:   []Cond{Where("CompanyID", Eq, companyID)},
		OrderBy: []Order{Desc("ReleaseDate")},
	})
}

// RetrieveEpsSummary folds the published EPS of a company across all its releases.
func (s Storage) RetrieveEpsSummary(ctx context.Context, companyID uint) (*Aggregate, error) {
	return For[m.Earnings](&s).Aggregate(ctx, Query{
		Where: []Cond{Where("CompanyID", Eq, companyID)},
	}, "ActualEPS")
}

/******************************************************* Dividend *****************************************************/

// SaveDividend upserts on (exDividendDate, companyId).
func (s Storage) SaveDividend(ctx context.Context, dividend *m.Dividend) error {

	err := For[m.Dividend](&s).Upsert(ctx, dividend,
		[]string{"ExDividendDate", "CompanyID"},
		[]string{"Country", "DividendAmount", "PreviousDividendAmount", "PaymentDate"},
	)
	if err != nil {
		return err
	}

	s.lg.Debug().Msgf("Saved dividend of company ID %d at %d with ID %d", dividend.CompanyID, dividend.ExDividendDate, dividend.ID)
	return nil
}

func (s Storage) RetrieveDividends(ctx context.Context, filter CalendarFilter) ([]m.Dividend, error) {

	dividends, err := For[m.Dividend](&s).FindMany(ctx, Query{
		Where:   filter.conds("ExDividendDate"),
		OrderBy: []Order{Asc("ExDividendDate"), Asc("ID")},
		Include: []string{"Company"},
	})
	if err != nil {
		return nil, err
	}

	s.lg.Info().Msgf("Retrieved %d dividends between %d and %d", len(dividends), filter.From, filter.To)
	return dividends, nil
}

func (s Storage) RetrieveDividendByID(ctx context.Context, id uint) (*m.Dividend, error) {
	return For[m.Dividend](&s).FindFirstOrThrow(ctx, Query{
		Where:   []Cond{Where("ID", Eq, id)},
		Include: []string{"Company"},
	})
}

func (s Storage) RetrieveCompanyDividends(ctx context.Context, companyID uint) ([]m.Dividend, error) {
	return For[m.Dividend](&s).FindMany(ctx, Query{
		Where:   []Cond{Where("CompanyID", Eq, companyID)},
		OrderBy: []Order{Desc("ExDividendDate")},
	})
}

/****************************************************** Indicator *****************************************************/

// SaveIndicator upserts on (releaseDate, name, country).
func (s Storage) SaveIndicator(ctx context.Context, indicator *m.EconomicIndicator) error {

	if !indicator.Importance.Valid() {
		return fmt.Errorf("%w. importance %d of %s", ErrInvalidField, indicator.Importance, indicator.Name)
	}

	err := For[m.EconomicIndicator](&s).Upsert(ctx, indicator,
		[]string{"ReleaseDate", "Name", "Country"},
		[]string{"Importance", "Actual", "Forecast", "Previous"},
	)
	if err != nil {
		return err
	}

	s.lg.Debug().Msgf("Saved indicator %s(%s) at %d with ID %d", indicator.Name, indicator.Country, indicator.ReleaseDate, indicator.ID)
	return nil
}

func (s Storage) RetrieveIndicators(ctx context.Context, filter CalendarFilter) ([]m.EconomicIndicator, error) {

	conds := filter.conds("ReleaseDate")
	if filter.MinImportance > 0 {
		conds = append(conds, Where("Importance", Gte, filter.MinImportance))
	}

	indicators, err := For[m.EconomicIndicator](&s).FindMany(ctx, Query{
		Where:   conds,
		OrderBy: []Order{Asc("ReleaseDate"), Desc("Importance"), Asc("ID")},
	})
	if err != nil {
		return nil, err
	}

	s.lg.Info().Msgf("Retrieved %d indicators between %d and %d", len(indicators), filter.From, filter.To)
	return indicators, nil
}

func (s Storage) RetrieveIndicator(ctx context.Context, id uint) (*m.EconomicIndicator, error) {
	return For[m.EconomicIndicator](&s).FindUniqueOrThrow(ctx, &m.EconomicIndicator{ID: id})
}

// RetrieveIndicatorHistory lists the latest releases of one indicator, newest first.
func (s Storage) RetrieveIndicatorHistory(ctx context.Context, name string, country m.Country, take int) ([]m.EconomicIndicator, error) {
	return For[m.EconomicIndicator](&s).FindMany(ctx, Query{
		Where: []Cond{
			Where("Name", Eq, name),
			Where("Country", Eq, country),
		},
		OrderBy: []Order{Desc("ReleaseDate")},
		Take:    take,
	})
}

/******************************************************** Stats *******************************************************/

// RetrieveCountryCounts groups the rows of one calendar kind inside filter by country.
func (s Storage) RetrieveCountryCounts(ctx context.Context, kind m.FavoriteKind, filter CalendarFilter) ([]Group, error) {
	switch kind {
	case m.EarningsKind:
		return For[m.Earnings](&s).GroupBy(ctx, Query{Where: filter.conds("ReleaseDate")}, "Country")
	case m.DividendKind:
		return For[m.Dividend](&s).GroupBy(ctx, Query{Where: filter.conds("ExDividendDate")}, "Country")
	case m.IndicatorKind:
		return For[m.EconomicIndicator](&s).GroupBy(ctx, Query{Where: filter.conds("ReleaseDate")}, "Country")
	}
	return nil, fmt.Errorf("%w. unknown kind %q", ErrInvalidField, kind)
}

/******************************************************* Crawled ******************************************************/

// SaveEarningsRow stores a crawled earnings row together with its company in one transaction.
func (s Storage) SaveEarningsRow(ctx context.Context, row m.EarningsRow) (*m.Earnings, error) {

	var earnings m.Earnings
	err := s.Transaction(ctx, func(tx *Storage) error {
		company, err := tx.companyOf(ctx, row.Company())
		if err != nil {
			return err
		}
		earnings = row.Earnings(company.ID)
		return tx.SaveEarnings(ctx, &earnings)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save earnings of %s(%s). %w", row.Ticker, row.Country, err)
	}
	return &earnings, nil
}

// SaveDividendRow stores a crawled dividend row together with its company in one transaction.
func (s Storage) SaveDividendRow(ctx context.Context, row m.DividendRow) (*m.Dividend, error) {

	var dividend m.Dividend
	err := s.Transaction(ctx, func(tx *Storage) error {
		company, err := tx.companyOf(ctx, row.Company())
		if err != nil {
			return err
		}
		dividend = row.Dividend(company.ID)
		return tx.SaveDividend(ctx, &dividend)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save dividend of %s(%s). %w", row.Ticker, row.Country, err)
	}
	return &dividend, nil
}

// companyOf upserts the company. A crawled row without a name never blanks a stored one.
func (s Storage) companyOf(ctx context.Context, company m.Company) (*m.Company, error) {
	if company.Name == "" {
		stored, err := For[m.Company](&s).FindUnique(ctx, &m.Company{Ticker: company.Ticker, Country: company.Country})
		if err != nil {
			return nil, err
		}
		if stored != nil {
			return stored, nil
		}
		company.Name = company.Ticker
	}
	if err := s.SaveCompany(ctx, &company); err != nil {
		return nil, err
	}
	return &company, nil
}
