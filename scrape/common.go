package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	m "fincalendar/internal/model"
)

/*
중요!
request body에 nil을 바로 넣는다면, 빈 json 데이터가 들어감.
하지만 nil을 json.Marshal해서 넣는다면, "null"이라는 json 데이터가 형성.
이는 request body에 nil값을 넣는 것과 다른 결과 초래 할 수 있음
*/
func (s *Scraper) sendRequest(ctx context.Context, url string, method string, header map[string]string, body map[string]string, response any) error {

	var rb io.Reader
	if body != nil {
		bodyByte, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error request body marshaling \n%w", err)
		}
		rb = bytes.NewBuffer(bodyByte)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, rb)
	if err != nil {
		return fmt.Errorf("error making request\n%w", err)
	}

	for k, v := range header {
		req.Header.Add(k, v)
	}

	res, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request\n%w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("status code error: %d %s", res.StatusCode, res.Status)
	}

	return json.NewDecoder(res.Body).Decode(response)
}

type searchResponse struct {
	Quotes []m.CompanyProfile `json:"quotes"`
}

// SearchCompany looks a ticker up in the quote search API. Used to fill company names
// the calendar pages leave out.
func (s *Scraper) SearchCompany(ctx context.Context, ticker string, country m.Country) (*m.CompanyProfile, error) {
	s.lg.Info().Msgf("Starting SearchCompany with ticker: %s, country: %s", ticker, country)

	q := url.Values{}
	q.Set("q", ticker)

	var resp searchResponse
	err := s.sendRequest(ctx, fmt.Sprintf("%s/search/api/?%s", s.baseURL, q.Encode()), http.MethodGet,
		map[string]string{"Accept": "application/json"}, nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to search company %s. %w", ticker, err)
	}

	for _, p := range resp.Quotes {
		if !strings.EqualFold(p.Ticker, ticker) {
			continue
		}
		if c, err := m.ToCountry(p.Country); err != nil || c != country {
			continue
		}
		p.Name = strings.TrimSpace(p.Name)
		return &p, nil
	}
	return nil, fmt.Errorf("company %s(%s) not found", ticker, country)
}
