// README: Registration, login, and own-profile handlers.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Web-dev-ENT-302/transport-backend/internal/identity"
	"github.com/Web-dev-ENT-302/transport-backend/internal/modules/account"
	"github.com/Web-dev-ENT-302/transport-backend/internal/types"
)

type AccountHandler struct {
	accounts *account.Service
}

func NewAccountHandler(svc *account.Service) *AccountHandler {
	return &AccountHandler{accounts: svc}
}

type registerReq struct {
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Password    string     `json:"password"`
	Role        types.Role `json:"role"`
	PlateNumber string     `json:"plateNumber"`
}

func (h *AccountHandler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	u, err := h.accounts.Register(c.Request.Context(), account.RegisterCommand{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Role:        req.Role,
		PlateNumber: req.PlateNumber,
	})
	if err != nil {
		writeAccountError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": string(u.Role) + " registered successfully", "user": u})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AccountHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	token, u, err := h.accounts.Login(c.Request.Context(), account.LoginCommand{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeAccountError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "token": token, "user": u})
}

func (h *AccountHandler) Me(c *gin.Context) {
	p, _ := identity.FromContext(c)
	u, err := h.accounts.Me(c.Request.Context(), p)
	if err != nil {
		writeAccountError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

type updateMeReq struct {
	Name string `json:"name"`
}

func (h *AccountHandler) UpdateMe(c *gin.Context) {
	var req updateMeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	p, _ := identity.FromContext(c)
	u, err := h.accounts.UpdateName(c.Request.Context(), p, req.Name)
	if err != nil {
		writeAccountError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
