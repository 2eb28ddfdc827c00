package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/tanpawarit/Chative-Commerce-Relay/server/handler"
	"github.com/tanpawarit/Chative-Commerce-Relay/server/middleware"
)

func Setup(h *server.Hertz, api *handler.Handler, health *handler.HealthHandler) {
	h.Use(middleware.Recovery())
	h.Use(middleware.Logger())
	h.Use(middleware.CORS())

	h.GET("/health/live", health.Liveness)
	h.GET("/health/ready", health.Readiness)

	g := h.Group("/api")
	{
		g.POST("/intent", api.Intent)
		g.POST("/dispatch", api.Dispatch)
		g.POST("/chat", api.Chat)
		g.POST("/customer-login", api.CustomerLogin)
		g.POST("/active-cart", api.ActiveCart)
		g.GET("/mcp/manifest", api.Manifest)

		b := g.Group("/bridge/:widget")
		{
			b.GET("/next", api.BridgeNext)
			b.POST("/reply", api.BridgeReply)
		}
	}
}
