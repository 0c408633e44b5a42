package handler

import (
	"Hydro/internal/api/config"
	"Hydro/internal/api/dto"
	"Hydro/internal/api/middleware"
	"Hydro/internal/pkg/response"
	"Hydro/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userSvc     service.UserService
	settingsSvc service.SettingsService
	securityCfg config.SecurityConfig
}

func NewUserHandler(userSvc service.UserService, settingsSvc service.SettingsService, securityCfg config.SecurityConfig) *UserHandler {
	return &UserHandler{
		userSvc:     userSvc,
		settingsSvc: settingsSvc,
		securityCfg: securityCfg,
	}
}

func (s *UserHandler) SignUp(c *gin.Context) {
	var req dto.SignUpDTO
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	token, err := s.userSvc.SignUp(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	s.setCookie(c, token.Token, int(time.Until(token.ExpiresAt).Seconds()))
	response.Created(c, token)
}

func (s *UserHandler) SignIn(c *gin.Context) {
	var req dto.CredentialDTO
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	token, err := s.userSvc.SignIn(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	s.setCookie(c, token.Token, int(time.Until(token.ExpiresAt).Seconds()))
	response.Success(c, token)
}

func (s *UserHandler) SignOut(c *gin.Context) {
	if err := s.userSvc.SignOut(c.Request.Context(), c.GetString(middleware.CtxToken)); err != nil {
		response.Error(c, err)
		return
	}
	s.setCookie(c, "", -1)
	response.Success(c, dto.MessageResponse{Message: "signed out"})
}

func (s *UserHandler) GetSettings(c *gin.Context) {
	settings, err := s.settingsSvc.GetSettings(c.Request.Context(), userID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, settings)
}

func (s *UserHandler) UpdateSettings(c *gin.Context) {
	var req dto.UpdateSettingsDTO
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	settings, err := s.settingsSvc.UpdateSettings(c.Request.Context(), userID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, settings)
}

func (s *UserHandler) setCookie(c *gin.Context, value string, maxAge int) {
	if s.securityCfg.CookieName == "" {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.securityCfg.CookieName, value, maxAge, "/", "", s.securityCfg.CookieSecure, true)
}
