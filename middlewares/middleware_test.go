package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/ledger_backend/utils"
	"github.com/stretchr/testify/assert"
)

func newTestEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	r.GET("/probe", func(c *gin.Context) {
		tenantId, _ := utils.GetTenantIdFromContext(c.Request.Context())
		userId, _ := utils.GetUserIdFromContext(c.Request.Context())
		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"tenant": tenantId, "user": userId, "cid": cid})
	})
	return r
}

func TestSessionMiddleware(t *testing.T) {
	r := newTestEngine(SessionMiddleware())

	cases := []struct {
		name   string
		tenant string
		user   string
		want   int
	}{
		{"tenant and user", "t1", "5", http.StatusOK},
		{"tenant only", "t1", "", http.StatusOK},
		{"missing tenant", "", "5", http.StatusUnauthorized},
		{"bad user", "t1", "abc", http.StatusUnauthorized},
		{"negative user", "t1", "-3", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/probe", nil)
			if tc.tenant != "" {
				req.Header.Set(HeaderTenantId, tc.tenant)
			}
			if tc.user != "" {
				req.Header.Set(HeaderUserId, tc.user)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestCorrelationMiddlewareEchoesHeader(t *testing.T) {
	r := newTestEngine(CorrelationMiddleware())

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set(HeaderCorrelationId, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderCorrelationId))
	assert.Contains(t, w.Body.String(), `"cid":"abc-123"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))
	assert.NotEmpty(t, w.Header().Get(HeaderCorrelationId))
}

func TestReadinessMiddleware(t *testing.T) {
	ready := false
	r := newTestEngine(ReadinessMiddleware(func() bool { return ready }))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	ready = true
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
