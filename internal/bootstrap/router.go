package bootstrap

import (
	"github.com/gin-gonic/gin"

	httpapi "github.com/popcodeorg/playground-backend/internal/api/http"
	"github.com/popcodeorg/playground-backend/internal/api/http/middleware"
	"github.com/popcodeorg/playground-backend/internal/auth"
	authmw "github.com/popcodeorg/playground-backend/internal/auth/middleware"
	"github.com/popcodeorg/playground-backend/internal/platform/logger"
	projectshttp "github.com/popcodeorg/playground-backend/internal/projects/http"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	AllowedOrigins []string
	DB             httpapi.Pinger
	Redis          httpapi.RedisPinger
	// Verifier authenticates requests with Firebase ID tokens. When nil the
	// X-User-Id development fallback is used.
	Verifier authmw.TokenVerifier
	Sessions projectshttp.Sessions
	Exports  projectshttp.Exports
	Log      *logger.Logger
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware(dep.Log))
	if len(dep.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(dep.AllowedOrigins))
	}

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")
	if dep.Verifier != nil {
		api.Use(authmw.FirebaseAuthMiddleware(dep.Verifier))
	} else {
		api.Use(auth.OptionalUser())
	}

	playground := api.Group("/playground")
	projectshttp.New(dep.Sessions, dep.Exports, dep.Log).Register(playground)

	return r
}
