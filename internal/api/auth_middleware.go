package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/annel0/mudmap/internal/auth"
	"github.com/gin-gonic/gin"
)

const claimsKey = "auth_claims"

// loginRequest это тело POST /api/auth/login
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// bearerToken извлекает токен из "Authorization: Bearer <token>".
// Для websocket токен можно передать в ?token=.
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		token := c.Query("token")
		return token, token != ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// authMiddleware пропускает чтение без токена, а изменяющие запросы
// требуют действительный токен с ролью editor.
func (rs *RestServer) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		readOnly := c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead

		token, present := bearerToken(c)
		if !present {
			if readOnly {
				c.Next()
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, GenericResponse{
				Success: false,
				Message: "Отсутствует токен авторизации",
			})
			return
		}

		claims, err := rs.tokens.Validate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, GenericResponse{
				Success: false,
				Message: "Недействительный токен",
			})
			return
		}
		c.Set(claimsKey, claims)

		if !readOnly && !claims.Role.CanEdit() {
			c.AbortWithStatusJSON(http.StatusForbidden, GenericResponse{
				Success: false,
				Message: "Недостаточно прав доступа",
			})
			return
		}
		c.Next()
	}
}

func (rs *RestServer) handleLogin(c *gin.Context) {
	if rs.users == nil || rs.tokens == nil {
		c.JSON(http.StatusServiceUnavailable, GenericResponse{Success: false, Message: "authentication disabled"})
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" {
		badRequest(c, "username and password required")
		return
	}

	user, err := rs.users.Authenticate(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			rs.logInfo("🔒 Неудачный вход пользователя %s", req.Username)
			c.JSON(http.StatusUnauthorized, GenericResponse{Success: false, Message: err.Error()})
			return
		}
		rs.fail(c, err)
		return
	}

	token, err := rs.tokens.Generate(user)
	if err != nil {
		rs.fail(c, err)
		return
	}
	rs.logInfo("🔑 Пользователь %s вошёл (%s)", user.Username, user.Role)
	ok(c, "logged in", gin.H{
		"token":    token,
		"username": user.Username,
		"role":     user.Role,
	})
}
