package server

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/thereayou/chatserver/internal/handlers"
	"github.com/thereayou/chatserver/internal/middleware"
	"github.com/thereayou/chatserver/pkg/auth"
)

func APIEndpoints(
	r *gin.Engine,
	jwtMgr *auth.JWTManager,
	rdb *redis.Client,
	memberH *handlers.MemberHandler,
	roomH *handlers.RoomHandler,
	msgH *handlers.HTTPMessageHandler,
	wsH *handlers.WebSocketHandler,
) {
	// Member endpoints
	member := r.Group("/member")
	{
		member.POST("/create", memberH.Create)
		member.POST("/doLogin", memberH.Login)
	}

	memberAuthed := r.Group("/member")
	memberAuthed.Use(middleware.AuthMiddleware(jwtMgr, rdb))
	{
		memberAuthed.GET("/list", memberH.List)
		memberAuthed.POST("/logout", memberH.Logout)
	}

	// Chat endpoints
	chat := r.Group("/chat")
	chat.Use(middleware.AuthMiddleware(jwtMgr, rdb))
	{
		chat.POST("/room/group/create", roomH.CreateGroupRoom)
		chat.GET("/room/group/list", roomH.ListGroupRooms)
		chat.POST("/room/join/:roomId", roomH.JoinGroupRoom)
		chat.DELETE("/room/leave/:roomId", roomH.LeaveGroupRoom)
		chat.POST("/room/private/create", roomH.CreatePrivateRoom)
		chat.GET("/my/rooms", roomH.MyRooms)
		chat.GET("/history/:roomId", msgH.GetHistory)
		chat.POST("/room/read/:roomId", msgH.MarkRead)
	}

	// WebSocket endpoint: токен проверяется до апгрейда
	r.GET("/connect", middleware.WSAuthMiddleware(jwtMgr, rdb), wsH.HandleWebSocket)
}
