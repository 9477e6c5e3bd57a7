package server

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/thereayou/chatserver/internal/chat"
	"github.com/thereayou/chatserver/internal/database"
	"github.com/thereayou/chatserver/internal/handlers"
	"github.com/thereayou/chatserver/internal/relay"
	ws "github.com/thereayou/chatserver/internal/websocket"
	"github.com/thereayou/chatserver/pkg/auth"
)

type Server struct {
	Router     *gin.Engine
	DB         *database.Database
	Redis      *redis.Client
	JWTManager *auth.JWTManager
	Hub        *ws.Hub
	Relay      *relay.Relay
}

func NewServer() *Server {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Println(".env not found, using environment variables")
		}
	}

	dbConn := &database.Database{}
	if err := dbConn.Connect(); err != nil {
		log.Fatalf("Postgres connect failed: %v", err)
	}

	redisOpts, err := redis.ParseURL(os.Getenv("REDIS_URL"))
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Redis connect failed: %v", err)
	}

	jwtMgr := auth.NewJWTManager(
		os.Getenv("JWT_SECRET"),
		24*time.Hour,
	)

	broadcaster := relay.NewRedisBroadcaster(rdb)

	// Relay публикует через broadcaster; сам relay отдаётся сервису
	// как publisher, а hub получает через него входящие конверты
	service := chat.NewService(dbConn, nil)
	hub := ws.NewHub(handlers.NewSubscribeAuthorizer(jwtMgr, service))
	rel := relay.NewRelay(broadcaster, hub)
	service.SetPublisher(rel)

	memberH := handlers.NewMemberHandler(dbConn, jwtMgr, rdb)
	roomH := handlers.NewRoomHandler(service)
	msgH := handlers.NewHTTPMessageHandler(service)
	wsH := handlers.NewWebSocketHandler(hub, handlers.NewMessageHandler(service))

	router := gin.Default()
	APIEndpoints(router, jwtMgr, rdb, memberH, roomH, msgH, wsH)

	return &Server{
		Router:     router,
		DB:         dbConn,
		Redis:      rdb,
		JWTManager: jwtMgr,
		Hub:        hub,
		Relay:      rel,
	}
}

func (s *Server) Run() {
	go s.Hub.Run()

	// Listener общего канала живёт независимо от клиентских соединений
	go func() {
		if err := s.Relay.Run(context.Background()); err != nil {
			log.Fatalf("Relay listener stopped: %v", err)
		}
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server starting on port %s", port)
	if err := s.Router.Run(":" + port); err != nil {
		log.Fatalf("Server run error: %v", err)
	}
}
