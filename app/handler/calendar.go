package handler

import (
	"fmt"

	fincal "fincalendar"
	m "fincalendar/internal/model"

	"github.com/gofiber/fiber/v2"
)

type CalendarHandler struct {
	r  CalendarRetriever
	ir IndicatorRetriever
	sr StatsRetriever
}

func NewCalendarHandler(r CalendarRetriever, ir IndicatorRetriever, sr StatsRetriever) *CalendarHandler {
	return &CalendarHandler{
		r:  r,
		ir: ir,
		sr: sr,
	}
}

func (h *CalendarHandler) InitRoute(app *fiber.App) {

	app.Get("/earnings", h.Earnings)
	app.Get("/dividends", h.Dividends)
	app.Get("/indicators", h.Indicators)
	app.Get("/indicators/:id<\\d+>", h.Indicator)
	app.Get("/indicators/:id<\\d+>/history", h.IndicatorHistory)
	app.Get("/stats/:kind", h.CountryCounts)
}

func calendarQuery(c *fiber.Ctx) (fincal.CalendarQuery, error) {

	var param CalendarParam
	if err := c.QueryParser(&param); err != nil {
		return fincal.CalendarQuery{}, fmt.Errorf("파라미터 QueryParse 시 오류 발생. %w", paramError(err))
	}
	param.Country = splitCountries(param.Country)

	if err := validCheck(&param); err != nil {
		return fincal.CalendarQuery{}, fmt.Errorf("파라미터 유효성 검사 시 오류 발생. %w", err)
	}
	return param.query(), nil
}

func (h *CalendarHandler) Earnings(c *fiber.Ctx) error {

	q, err := calendarQuery(c)
	if err != nil {
		return err
	}

	earnings, err := h.r.Earnings(c.UserContext(), q)
	if err != nil {
		return fmt.Errorf("Earnings 조회 시 오류 발생. %w", err)
	}

	return c.Status(fiber.StatusOK).JSON(earnings)
}

func (h *CalendarHandler) Dividends(c *fiber.Ctx) error {

	q, err := calendarQuery(c)
	if err != nil {
		return err
	}

	dividends, err := h.r.Dividends(c.UserContext(), q)
	if err != nil {
		return fmt.Errorf("Dividends 조회 시 오류 발생. %w", err)
	}

	return c.Status(fiber.StatusOK).JSON(dividends)
}

func (h *CalendarHandler) Indicators(c *fiber.Ctx) error {

	q, err := calendarQuery(c)
	if err != nil {
		return err
	}

	indicators, err := h.r.Indicators(c.UserContext(), q)
	if err != nil {
		return fmt.Errorf("Indicators 조회 시 오류 발생. %w", err)
	}

	return c.Status(fiber.StatusOK).JSON(indicators)
}

func (h *CalendarHandler) Indicator(c *fiber.Ctx) error {

	id, err := c.ParamsInt("id")
	if err != nil {
		return fmt.Errorf("파라미터 id 조회 시 오류 발생. %w", paramError(err))
	}

	indicator, err := h.ir.RetrieveIndicator(c.UserContext(), uint(id))
	if err != nil {
		return fmt.Errorf("RetrieveIndicator 시 오류 발생. %w", err)
	}

	return c.Status(fiber.StatusOK).JSON(indicator)
}

// IndicatorHistory lists past releases of the same indicator in the same country, newest first.
func (h *CalendarHandler) IndicatorHistory(c *fiber.Ctx) error {

	id, err := c.ParamsInt("id")
	if err != nil {
		return fmt.Errorf("파라미터 id 조회 시 오류 발생. %w", paramError(err))
	}

	param := HistoryParam{}
	if err := c.QueryParser(&param); err != nil {
		return fmt.Errorf("파라미터 QueryParse 시 오류 발생. %w", paramError(err))
	}
	if err := validCheck(&param); err != nil {
		return fmt.Errorf("파라미터 유효성 검사 시 오류 발생. %w", err)
	}
	if param.Take == 0 {
		param.Take = 12
	}

	indicator, err := h.ir.RetrieveIndicator(c.UserContext(), uint(id))
	if err != nil {
		return fmt.Errorf("RetrieveIndicator 시 오류 발생. %w", err)
	}

	hist, err := h.ir.RetrieveIndicatorHistory(c.UserContext(), indicator.Name, indicator.Country, param.Take)
	if err != nil {
		return fmt.Errorf("RetrieveIndicatorHistory 시 오류 발생. %w", err)
	}

	return c.Status(fiber.StatusOK).JSON(hist)
}

func (h *CalendarHandler) CountryCounts(c *fiber.Ctx) error {

	kind, err := m.ToFavoriteKind(c.Params("kind"))
	if err != nil {
		return fmt.Errorf("kind 변환 시 오류 발생. %w", paramError(err))
	}

	q, err := calendarQuery(c)
	if err != nil {
		return err
	}

	counts, err := h.sr.CountryCounts(c.UserContext(), kind, q)
	if err != nil {
		return fmt.Errorf("CountryCounts 조회 시 오류 발생. %w", err)
	}

	return c.Status(fiber.StatusOK).JSON(counts)
}
