package bootstrap

import (
	"strings"

	"github.com/gin-gonic/gin"
)

func SetGinMode(env string) {
	switch strings.ToLower(env) {
	case "production", "prod":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}
}
