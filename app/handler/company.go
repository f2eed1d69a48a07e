package handler

import (
	"errors"
	"fmt"

	"fincalendar/internal/db"
	m "fincalendar/internal/model"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type CompanyHandler struct {
	r CompanyRetriever
}

func NewCompanyHandler(r CompanyRetriever) *CompanyHandler {
	return &CompanyHandler{
		r: r,
	}
}

func (h *CompanyHandler) InitRoute(app *fiber.App) {

	router := app.Group("/companies")

	router.Get("", h.Companies)
	router.Get("/:id<\\d+>", h.Company)
	router.Get("/:id<\\d+>/earnings", h.CompanyEarnings)
	router.Get("/:id<\\d+>/dividends", h.CompanyDividends)
}

func (h *CompanyHandler) Companies(c *fiber.Ctx) error {

	param := CompanyListParam{}
	if err := c.QueryParser(&param); err != nil {
		return fmt.Errorf("파라미터 QueryParse 시 오류 발생. %w", paramError(err))
	}
	if err := validCheck(&param); err != nil {
		return fmt.Errorf("파라미터 유효성 검사 시 오류 발생. %w", err)
	}
	if param.Take == 0 {
		param.Take = 20
	}

	var country m.Country
	if param.Country != "" {
		country, _ = m.ToCountry(param.Country)
	}

	companies, total, err := h.r.RetrieveCompanies(c.UserContext(), country, param.Search, param.Skip, param.Take)
	if err != nil {
		return fmt.Errorf("RetrieveCompanies 시 오류 발생. %w", err)
	}

	return c.Status(fiber.StatusOK).JSON(CompanyListResponse{
		Total:     total,
		Companies: companies,
	})
}

func (h *CompanyHandler) Company(c *fiber.Ctx) error {

	id, err := c.ParamsInt("id")
	if err != nil {
		return fmt.Errorf("파라미터 id 조회 시 오류 발생. %w", paramError(err))
	}

	company, err := h.r.RetrieveCompany(c.UserContext(), uint(id))
	if err != nil {
		return fmt.Errorf("RetrieveCompany 시 오류 발생. %w", err)
	}

	rtn := CompanyResponse{Company: *company}

	// EPS 요약 실패는 회사 정보 응답을 막지 않음
	summary, err := h.r.RetrieveEpsSummary(c.UserContext(), company.ID)
	if err == nil {
		rtn.EpsSummary = summary
	} else if !errors.Is(err, db.ErrNotFound) {
		log.Warn().Err(err).Uint("company", company.ID).Msg("RetrieveEpsSummary failed")
	}

	return c.Status(fiber.StatusOK).JSON(rtn)
}

func (h *CompanyHandler) CompanyEarnings(c *fiber.Ctx) error {

	id, err := h.existing(c)
	if err != nil {
		return err
	}

	earnings, err := h.r.RetrieveCompanyEarnings(c.UserContext(), id)
	if err != nil {
		return fmt.Errorf("RetrieveCompanyEarnings 시 오류 발생. %w", err)
	}

	return c.Status(fiber.StatusOK).JSON(earnings)
}

func (h *CompanyHandler) CompanyDividends(c *fiber.Ctx) error {

	id, err := h.existing(c)
	if err != nil {
		return err
	}

	dividends, err := h.r.RetrieveCompanyDividends(c.UserContext(), id)
	if err != nil {
		return fmt.Errorf("RetrieveCompanyDividends 시 오류 발생. %w", err)
	}

	return c.Status(fiber.StatusOK).JSON(dividends)
}

// existing answers 404 for an unknown company instead of an empty list.
func (h *CompanyHandler) existing(c *fiber.Ctx) (uint, error) {

	id, err := c.ParamsInt("id")
	if err != nil {
		return 0, fmt.Errorf("파라미터 id 조회 시 오류 발생. %w", paramError(err))
	}

	if _, err := h.r.RetrieveCompany(c.UserContext(), uint(id)); err != nil {
		return 0, fmt.Errorf("RetrieveCompany 시 오류 발생. %w", err)
	}
	return uint(id), nil
}
