package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareCountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/items/:id", "204"))

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/items/42", nil))
	}

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/items/:id", "204"))
	if after-before != 2 {
		t.Fatalf("expected 2 counted requests, got %v", after-before)
	}
}

func TestRecordSentimentLookup(t *testing.T) {
	before := testutil.ToFloat64(SentimentLookupsTotal.WithLabelValues("test", "error"))
	RecordSentimentLookup("test", "error", 20*time.Millisecond)
	after := testutil.ToFloat64(SentimentLookupsTotal.WithLabelValues("test", "error"))
	if after-before != 1 {
		t.Fatalf("expected lookup counter to increase by 1, got %v", after-before)
	}
}
