package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adukenov/uslugi-backend/internal/service"
)

type SeedHandler struct {
	seed   *service.SeedService
	tokens *service.TokenManager
}

func NewSeedHandler(seed *service.SeedService, tokens *service.TokenManager) *SeedHandler {
	return &SeedHandler{seed: seed, tokens: tokens}
}

// Seed POST /seed
// Доступен только в окружении разработки, в production маршрут не
// регистрируется. Возвращает access токены демо-пользователей, чтобы можно
// было сразу ходить по API.
func (h *SeedHandler) Seed(c *gin.Context) {
	users, err := h.seed.Run(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	tokens := make(map[string]string, len(users))
	for _, user := range users {
		token, _, err := h.tokens.Issue(user)
		if err != nil {
			c.Error(err)
			return
		}
		tokens[user.Email] = token
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "демонстрационные данные загружены",
		"tokens":  tokens,
	})
}
