package cookie

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetSession(t *testing.T) {
	cfg := NewConfig("shop.example", true)
	rec := httptest.NewRecorder()

	cfg.SetSession(rec, SessionCookieName, "abc", time.Hour)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "abc", c.Value)
	assert.Equal(t, 3600, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, "shop.example", c.Domain)
}

func TestClearSession(t *testing.T) {
	cfg := NewConfig("", false)
	rec := httptest.NewRecorder()

	cfg.ClearSession(rec, SessionCookieName)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.True(t, cookies[0].MaxAge < 0)
}

func TestGet(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", Get(req, SessionCookieName))

	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "xyz"})
	assert.Equal(t, "xyz", Get(req, SessionCookieName))
}
