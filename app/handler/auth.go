package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	fincal "fincalendar"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
)

const (
	tokenLifetime = 24 * time.Hour
	userIDKey     = "userID"
)

type AuthHandler struct {
	us      UserAuthenticator
	authKey string
	passKey string

	beginAuth    func(http.ResponseWriter, *http.Request)
	completeAuth func(http.ResponseWriter, *http.Request) (goth.User, error)
	now          func() time.Time
}

func NewAuthHandler(us UserAuthenticator, authKey string, passKey string) *AuthHandler {
	return &AuthHandler{
		us:           us,
		authKey:      authKey,
		passKey:      passKey,
		beginAuth:    gothic.BeginAuthHandler,
		completeAuth: gothic.CompleteUserAuth,
		now:          time.Now,
	}
}

func (h *AuthHandler) InitRoute(app *fiber.App) {

	router := app.Group("/auth")
	router.Post("/signup", h.SignUp)
	router.Post("/login", h.Login)
	router.Get("/:provider", h.OauthBegin)
	router.Get("/:provider/callback", h.OauthCallback)

	app.Get("/me", h.AuthMiddleware, h.Me)
}

// Claims represents the JWT claims
type Claims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

func (h *AuthHandler) SignUp(c *fiber.Ctx) error {

	var req SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return fmt.Errorf("파라미터 BodyParse 시 오류 발생. %w", paramError(err))
	}
	if err := validCheck(&req); err != nil {
		return fmt.Errorf("파라미터 유효성 검사 시 오류 발생. %w", err)
	}

	user, err := h.us.SignUp(c.UserContext(), req.Email, req.Password, req.Nickname)
	if err != nil {
		return fmt.Errorf("SignUp 시 오류 발생. %w", err)
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {

	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fmt.Errorf("파라미터 BodyParse 시 오류 발생. %w", paramError(err))
	}
	if err := validCheck(&req); err != nil {
		return fmt.Errorf("파라미터 유효성 검사 시 오류 발생. %w", err)
	}

	user, err := h.us.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return h.sendToken(c, user.ID, user.Email)
}

func (h *AuthHandler) sendToken(c *fiber.Ctx, userID uint, email string) error {

	// Create token expiration time (24 hours from now)
	now := h.now()
	expirationTime := now.Add(tokenLifetime)
	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(h.authKey))
	if err != nil {
		return fmt.Errorf("토큰 서명 시 오류 발생. %w", err)
	}

	return c.Status(fiber.StatusOK).JSON(JWTResponse{
		Token:  tokenString,
		Expiry: expirationTime.Unix(),
	})
}

/*
memo. gothic 은 net/http 기반. adaptor 로 감싸서 사용하고, provider 이름은 query 로 넘김 (gothic.GetProviderName 이 query 의 provider 를 먼저 확인).
세션 저장소(gothic.Store)는 app 에서 설정.
*/
func (h *AuthHandler) OauthBegin(c *fiber.Ctx) error {

	if err := withProvider(c); err != nil {
		return err
	}

	return adaptor.HTTPHandlerFunc(h.beginAuth)(c)
}

func (h *AuthHandler) OauthCallback(c *fiber.Ctx) error {

	if err := withProvider(c); err != nil {
		return err
	}

	var gothUser goth.User
	var authErr error
	err := adaptor.HTTPHandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gothUser, authErr = h.completeAuth(w, r)
	})(c)
	if err != nil {
		return err
	}
	if authErr != nil {
		return fmt.Errorf("oauth 인증 완료 시 오류 발생. %w: %s", fincal.ErrUnauthorized, authErr)
	}

	nickname := gothUser.NickName
	if nickname == "" {
		nickname = gothUser.Name
	}
	user, err := h.us.LinkOauth(c.UserContext(), fincal.OauthProfile{
		Provider:     gothUser.Provider,
		ProviderID:   gothUser.UserID,
		Email:        gothUser.Email,
		Nickname:     nickname,
		AccessToken:  gothUser.AccessToken,
		RefreshToken: gothUser.RefreshToken,
		ExpiresAt:    gothUser.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("LinkOauth 시 오류 발생. %w", err)
	}

	return h.sendToken(c, user.ID, user.Email)
}

// withProvider copies the path provider into the query string. The adaptor builds the net/http request
// from the raw request uri, so the uri itself is rewritten.
func withProvider(c *fiber.Ctx) error {

	name := strings.Clone(c.Params("provider"))
	if _, err := goth.GetProvider(name); err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	uri := c.Request().URI()
	uri.QueryArgs().Set("provider", name)
	c.Request().SetRequestURIBytes(uri.RequestURI())
	return nil
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {

	id, err := userID(c)
	if err != nil {
		return err
	}

	user, err := h.us.User(c.UserContext(), id)
	if err != nil {
		return fmt.Errorf("User 조회 시 오류 발생. %w", err)
	}

	return c.Status(fiber.StatusOK).JSON(user)
}

// AuthMiddleware accepts a bearer JWT or, for the telegram bot, the raw passkey.
// Passkey requests carry no user.
func (h *AuthHandler) AuthMiddleware(c *fiber.Ctx) error {

	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return fmt.Errorf("authorization header missing. %w", fincal.ErrUnauthorized)
	}

	if h.passKey != "" && authHeader == h.passKey {
		return c.Next()
	}

	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
		return fmt.Errorf("invalid authorization format. %w", fincal.ErrUnauthorized)
	}

	tokenString := tokenParts[1]

	// Parse and validate the token
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(h.authKey), nil
	}, jwt.WithTimeFunc(h.now))

	if err != nil {
		return fmt.Errorf("%w: %w", fincal.ErrUnauthorized, err)
	}

	if !token.Valid {
		return fmt.Errorf("invalid token. %w", fincal.ErrUnauthorized)
	}

	c.Locals(userIDKey, claims.UserID)
	return c.Next()
}

func userID(c *fiber.Ctx) (uint, error) {
	id, ok := c.Locals(userIDKey).(uint)
	if !ok || id == 0 {
		return 0, fmt.Errorf("user token required. %w", fincal.ErrUnauthorized)
	}
	return id, nil
}
