package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/workbridge/workbridge-server/internal/auth"
	"github.com/workbridge/workbridge-server/internal/chat"
	"github.com/workbridge/workbridge-server/internal/config"
)

// NewServer builds the HTTP server: REST API plus the WebSocket endpoint.
func NewServer(
	registry *chat.Registry,
	coordinator *chat.Coordinator,
	conversations *chat.Conversations,
	authService *auth.Service,
	cfg config.Config,
	logger *zerolog.Logger,
) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	authHandlers := NewAuthHandlers(authService, logger)
	chatHandlers := NewChatHandlers(coordinator, conversations, logger)

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/client/signup", authHandlers.ClientSignup)
			authGroup.POST("/client/login", authHandlers.ClientLogin)
			authGroup.POST("/freelancer/signup", authHandlers.FreelancerSignup)
			authGroup.POST("/freelancer/login", authHandlers.FreelancerLogin)
		}

		protected := api.Group("")
		protected.Use(AuthMiddleware(authService, logger))
		{
			protected.POST("/messages", chatHandlers.SubmitMessage)
			protected.GET("/messages/:user1/:user2", chatHandlers.History)
			protected.GET("/chats/:userId", chatHandlers.Chats)
			protected.GET("/requests/:userId", chatHandlers.Requests)
		}
	}

	// The WebSocket handler hijacks the connection, which gin's response
	// writer refuses, so /ws is mounted on a plain mux in front of the
	// router. The socket carries its own join handshake instead of a
	// bearer token.
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(registry, coordinator, cfg.WSMessageLimit, logger))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
