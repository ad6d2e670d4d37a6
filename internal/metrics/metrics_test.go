package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestMiddlewareRecordsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/api/coins", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/coins", nil))

	CacheHit()
	LiveMessage("sent")
	SignIn(false)
	AlertFired("logged")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()

	for _, want := range []string{
		`cryptopulse_http_requests_total{method="GET",route="/api/coins",status="200"}`,
		`cryptopulse_sentiment_cache_lookups_total{result="hit"}`,
		`cryptopulse_live_messages_total{outcome="sent"}`,
		`cryptopulse_auth_sign_ins_total{result="failure"}`,
		`cryptopulse_alerts_fired_total{delivery="logged"}`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %s", want)
		}
	}
}
