package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPulse/pkg/logger"
)

type routesFunc func(e *echo.Echo)

func (f routesFunc) RegisterRoutes(e *echo.Echo) { f(e) }

func newTestServer(routes ...RouteRegistrar) *Server {
	return NewServer(logger.Nop(), WithRoutes(routes...), WithMetricsPath(""))
}

func serve(s *Server, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestNewServer_MountsEveryRegistrar(t *testing.T) {
	s := newTestServer(
		routesFunc(func(e *echo.Echo) {
			e.GET("/a", func(c echo.Context) error { return SuccessResponse(c, "a") })
		}),
		nil,
		routesFunc(func(e *echo.Echo) {
			e.GET("/b", func(c echo.Context) error { return SuccessResponse(c, "b") })
		}),
	)

	for _, path := range []string{"/a", "/b"} {
		rec := serve(s, http.MethodGet, path)
		require.Equal(t, http.StatusOK, rec.Code, path)

		var env Envelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		assert.Equal(t, http.StatusOK, env.Status)
		assert.Equal(t, "OK", env.Message)
		assert.Equal(t, path[1:], env.Data)
	}
}

func TestAppErrorResponse_HidesCause(t *testing.T) {
	s := newTestServer(routesFunc(func(e *echo.Echo) {
		e.GET("/limited", func(c echo.Context) error {
			return AppErrorResponse(c, TooManyRequestsError("slow down"))
		})
		e.GET("/wrapped", func(c echo.Context) error {
			return AppErrorResponse(c, InternalErrorf("%s failed", "collect").WithError(errors.New("dial tcp: refused")))
		})
		e.GET("/plain", func(c echo.Context) error {
			return AppErrorResponse(c, errors.New("secret"))
		})
	}))

	rec := serve(s, http.MethodGet, "/limited")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_RATE_LIMITED")

	rec = serve(s, http.MethodGet, "/wrapped")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "collect failed")
	assert.NotContains(t, rec.Body.String(), "refused")

	rec = serve(s, http.MethodGet, "/plain")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := InternalError("predict failed").WithError(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "predict failed: boom", err.Error())
	assert.Equal(t, "unavailable", ServiceUnavailableError("unavailable").Error())
}
