package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"userdocs-backend/metrics"
)

// RouterConfig collects what NewRouter wires together
type RouterConfig struct {
	Accounts     *AccountHandler
	Documents    *DocumentHandler
	Logger       *zap.SugaredLogger
	MaxBodyBytes int64
}

// NewRouter builds the gin engine with all routes and middleware
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	r := gin.New()
	// match on the escaped path so an encoded slash stays inside :filename
	r.UseRawPath = true
	if cfg.MaxBodyBytes > 0 {
		r.MaxMultipartMemory = cfg.MaxBodyBytes
	}

	r.Use(
		RequestID(),
		RequestLogger(logger),
		Recovery(logger),
		SecurityHeaders(),
		metrics.Middleware(),
		BodyLimit(cfg.MaxBodyBytes),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	r.GET("/", cfg.Accounts.Index)
	r.POST("/register", cfg.Accounts.Register)
	r.GET("/login", cfg.Accounts.LoginForm)
	r.POST("/login", cfg.Accounts.Login)
	r.GET("/profile/:username", cfg.Accounts.Profile)

	r.GET("/download/:filename", cfg.Documents.Download)

	r.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, CodeNotFound, "Not found")
	})

	return r
}
