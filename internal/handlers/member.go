package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/thereayou/chatserver/internal/database"
	"github.com/thereayou/chatserver/internal/handlers/dto"
	"github.com/thereayou/chatserver/internal/models"
	"github.com/thereayou/chatserver/pkg/auth"
)

type MemberHandler struct {
	db         *database.Database
	jwtManager *auth.JWTManager
	redis      *redis.Client
}

func NewMemberHandler(db *database.Database, jwtMgr *auth.JWTManager, rdb *redis.Client) *MemberHandler {
	return &MemberHandler{db: db, jwtManager: jwtMgr, redis: rdb}
}

func (h *MemberHandler) Create(c *gin.Context) {
	var req dto.CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot hash password"})
		return
	}

	member := &models.Member{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         "USER",
		CreatedAt:    time.Now(),
	}

	if err := h.db.SaveMember(member); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to create member"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": member.ID})
}

// Login выдаёт JWT с email в subject и ролью в claims
func (h *MemberHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	member, err := h.db.FindMemberByEmail(req.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := h.jwtManager.Generate(member.Email, member.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": member.ID, "token": token})
}

func (h *MemberHandler) List(c *gin.Context) {
	members, err := h.db.ListMembers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list members"})
		return
	}

	result := make([]dto.MemberInfo, len(members))
	for i, m := range members {
		result[i] = dto.MemberInfo{ID: m.ID, Name: m.Name, Email: m.Email}
	}

	c.JSON(http.StatusOK, result)
}

// Logout ставит токен в черный список в Redis до истечения
func (h *MemberHandler) Logout(c *gin.Context) {
	rawToken, err := auth.ExtractTokenFromHeader(c.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	exp, err := h.jwtManager.Expiry(rawToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	ttl := time.Until(exp)
	h.redis.Set(context.Background(), "blacklist:"+rawToken, 1, ttl)

	c.Status(http.StatusOK)
}
