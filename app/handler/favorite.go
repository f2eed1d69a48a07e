package handler

import (
	"fmt"

	m "fincalendar/internal/model"

	"github.com/gofiber/fiber/v2"
)

type FavoriteHandler struct {
	fm   FavoriteManager
	auth fiber.Handler
}

func NewFavoriteHandler(fm FavoriteManager, auth fiber.Handler) *FavoriteHandler {
	return &FavoriteHandler{
		fm:   fm,
		auth: auth,
	}
}

func (h *FavoriteHandler) InitRoute(app *fiber.App) {

	router := app.Group("/favorites", h.auth)

	router.Get("/:kind", h.Favorites)
	router.Post("/:kind/:id<\\d+>", h.AddFavorite)
	router.Delete("/:kind/:id<\\d+>", h.RemoveFavorite)
}

func (h *FavoriteHandler) Favorites(c *fiber.Ctx) error {

	user, err := userID(c)
	if err != nil {
		return err
	}

	kind, err := m.ToFavoriteKind(c.Params("kind"))
	if err != nil {
		return fmt.Errorf("kind 변환 시 오류 발생. %w", paramError(err))
	}

	list, err := h.fm.Favorites(c.UserContext(), user, kind)
	if err != nil {
		return fmt.Errorf("Favorites 조회 시 오류 발생. %w", err)
	}

	return c.Status(fiber.StatusOK).JSON(list.Items())
}

func (h *FavoriteHandler) AddFavorite(c *fiber.Ctx) error {

	user, param, err := favoriteParam(c)
	if err != nil {
		return err
	}

	err = h.fm.AddFavorite(c.UserContext(), user, m.FavoriteKind(param.Kind), param.ID)
	if err != nil {
		return fmt.Errorf("AddFavorite 시 오류 발생. %w", err)
	}

	return c.Status(fiber.StatusCreated).SendString("즐겨찾기 추가 성공")
}

func (h *FavoriteHandler) RemoveFavorite(c *fiber.Ctx) error {

	user, param, err := favoriteParam(c)
	if err != nil {
		return err
	}

	err = h.fm.RemoveFavorite(c.UserContext(), user, m.FavoriteKind(param.Kind), param.ID)
	if err != nil {
		return fmt.Errorf("RemoveFavorite 시 오류 발생. %w", err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func favoriteParam(c *fiber.Ctx) (uint, *FavoriteParam, error) {

	user, err := userID(c)
	if err != nil {
		return 0, nil, err
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return 0, nil, fmt.Errorf("파라미터 id 조회 시 오류 발생. %w", paramError(err))
	}

	param := &FavoriteParam{Kind: c.Params("kind"), ID: uint(id)}
	if err := validCheck(param); err != nil {
		return 0, nil, fmt.Errorf("파라미터 유효성 검사 시 오류 발생. %w", err)
	}
	kind, _ := m.ToFavoriteKind(param.Kind)
	param.Kind = string(kind)

	return user, param, nil
}
