package router

import (
	"github.com/wb-go/wbf/ginext"

	"github.com/storelane/notification-service/internal/api/handlers/callback"
	"github.com/storelane/notification-service/internal/api/handlers/notification"
	"github.com/storelane/notification-service/internal/api/handlers/preference"
	"github.com/storelane/notification-service/internal/middlewares"
)

func New(
	notifHandler *notification.Handler,
	prefHandler *preference.Handler,
	callbackHandler *callback.Handler,
) *ginext.Engine {
	e := ginext.New()
	e.Use(middlewares.CORSMiddleware())
	e.Use(ginext.Logger())
	e.Use(ginext.Recovery())

	api := e.Group("/api")

	notifications := api.Group("/notifications")
	{
		notifications.POST("", notifHandler.Submit)
		notifications.GET("", notifHandler.List)
		notifications.GET("/unread/count", notifHandler.UnreadCount)
		notifications.GET("/:id", notifHandler.Get)
		notifications.GET("/:id/status", notifHandler.GetStatus)
		notifications.POST("/:id/read", notifHandler.MarkRead)
		notifications.DELETE("/:id", notifHandler.Cancel)
	}

	preferences := api.Group("/preferences")
	{
		preferences.GET("/:user_id", prefHandler.Get)
		preferences.PUT("/:user_id", prefHandler.Update)
		preferences.DELETE("/:user_id", prefHandler.Reset)
	}

	api.POST("/callbacks/:channel", callbackHandler.Receive)
	api.GET("/queue/stats", notifHandler.Stats)

	return e
}
