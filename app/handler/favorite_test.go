package handler

import (
	"net/http"
	"testing"

	fincal "fincalendar"
	m "fincalendar/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavoriteHandler(t *testing.T) {

	app := newTestApp()
	auth := NewAuthHandler(NewUserAuthenticatorMock(), testJwtKey, testPasskey)
	fm := NewFavoriteManagerMock()
	NewFavoriteHandler(fm, auth.AuthMiddleware).InitRoute(app)

	token := bearer(t, 1)

	t.Run("즐겨찾기 추가", func(t *testing.T) {
		status, err := sendReqeust(app, "/favorites/earnings/7", "POST", token, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, status)

		_, err = sendReqeust(app, "/favorites/EARNINGS/7", "POST", token, nil, nil)
		require.NoError(t, err)
		fm.prettyPrint()

		var resp []m.Earnings
		_, err = sendReqeust(app, "/favorites/earnings", "GET", token, nil, &resp)
		require.NoError(t, err)
		require.Len(t, resp, 1)
		assert.Equal(t, uint(7), resp[0].ID)
	})

	t.Run("다른 사용자", func(t *testing.T) {
		var resp []m.Earnings
		_, err := sendReqeust(app, "/favorites/earnings", "GET", bearer(t, 2), nil, &resp)
		require.NoError(t, err)
		assert.NotNil(t, resp)
		assert.Empty(t, resp)
	})

	t.Run("실패 케이스", func(t *testing.T) {
		status, _ := sendReqeust(app, "/favorites/stocks/7", "POST", token, nil, nil)
		assert.Equal(t, http.StatusBadRequest, status)

		status, _ = sendReqeust(app, "/favorites/dividends/200", "POST", token, nil, nil)
		assert.Equal(t, http.StatusNotFound, status)

		status, _ = sendReqeust(app, "/favorites/earnings/7", "POST", "", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, status)

		status, _ = sendReqeust(app, "/favorites/earnings", "GET", testPasskey, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("즐겨찾기 삭제", func(t *testing.T) {
		status, err := sendReqeust(app, "/favorites/earnings/7", "DELETE", token, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, status)

		status, _ = sendReqeust(app, "/favorites/earnings/7", "DELETE", token, nil, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestEventHandler(t *testing.T) {

	app := newTestApp()
	auth := NewAuthHandler(NewUserAuthenticatorMock(), testJwtKey, testPasskey)
	em := &EventMock{events: []*fincal.EnrolledEvent{
		{Id: 1, Title: "실적 캘린더 수집", IsActive: true},
		{Id: 2, Title: "배당 캘린더 수집", IsActive: true},
	}}
	NewEventHandler(em, em, em, auth.AuthMiddleware).InitRoute(app)

	t.Run("이벤트 목록", func(t *testing.T) {
		var resp []EventResponse
		_, err := sendReqeust(app, "/events", "GET", testPasskey, nil, &resp)
		require.NoError(t, err)
		require.Len(t, resp, 2)
		assert.True(t, resp[1].Active)

		status, _ := sendReqeust(app, "/events", "GET", "", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("상태 변경 후 실행", func(t *testing.T) {
		_, err := sendReqeust(app, "/events/status", "POST", bearer(t, 1), EventStatusChangeRequest{Id: 2, Active: false}, nil)
		require.NoError(t, err)
		assert.False(t, em.events[1].IsActive)

		status, _ := sendReqeust(app, "/events/launch", "POST", testPasskey, EventLaunchRequest{Id: 2}, nil)
		assert.Equal(t, http.StatusConflict, status)

		status, err = sendReqeust(app, "/events/launch", "POST", testPasskey, EventLaunchRequest{Id: 1}, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusAccepted, status)
		assert.Equal(t, []uint{1}, em.launched)
	})

	t.Run("실패 케이스", func(t *testing.T) {
		status, _ := sendReqeust(app, "/events/launch", "POST", testPasskey, EventLaunchRequest{Id: 9}, nil)
		assert.Equal(t, http.StatusNotFound, status)

		status, _ = sendReqeust(app, "/events/launch", "POST", testPasskey, EventLaunchRequest{}, nil)
		assert.Equal(t, http.StatusBadRequest, status)

		status, _ = sendReqeust(app, "/events/status", "POST", testPasskey, EventStatusChangeRequest{Id: 9, Active: true}, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})
}
