package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestOptionalUser(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var uid string
	r := gin.New()
	r.Use(OptionalUser())
	r.GET("/", func(c *gin.Context) { uid = UserFirebaseUID(c) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-Id", " u1 ")
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "u1", uid)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, demoUser, uid)
}
