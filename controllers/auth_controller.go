package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"momentum/config"
	"momentum/services"
	"momentum/utils"
)

type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

type SendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (ac *AuthController) Signup(c *fiber.Ctx) error {
	var req services.SignupInput
	if err := parseBody(c, &req); err != nil {
		return utils.Fail(c, err)
	}
	result, err := ac.auth.Signup(c.UserContext(), req)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusCreated, result)
}

func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req services.LoginInput
	if err := parseBody(c, &req); err != nil {
		return utils.Fail(c, err)
	}
	session, err := ac.auth.Login(c.UserContext(), req)
	if err != nil {
		return utils.Fail(c, err)
	}
	setAuthCookies(c, session.TokenPair)
	return utils.Success(c, fiber.StatusOK, session)
}

func (ac *AuthController) SendOTP(c *fiber.Ctx) error {
	var req SendOTPRequest
	if err := parseBody(c, &req); err != nil {
		return utils.Fail(c, err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.Fail(c, err)
	}
	if err := ac.auth.SendOTP(c.UserContext(), req.Email); err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "OTP sent successfully"})
}

func (ac *AuthController) VerifyEmail(c *fiber.Ctx) error {
	var req services.VerifyEmailInput
	if err := parseBody(c, &req); err != nil {
		return utils.Fail(c, err)
	}
	session, err := ac.auth.VerifyEmail(c.UserContext(), req)
	if err != nil {
		return utils.Fail(c, err)
	}
	setAuthCookies(c, session.TokenPair)
	return utils.Success(c, fiber.StatusOK, session)
}

func (ac *AuthController) ResetPassword(c *fiber.Ctx) error {
	var req services.ResetPasswordInput
	if err := parseBody(c, &req); err != nil {
		return utils.Fail(c, err)
	}
	if err := ac.auth.ResetPassword(c.UserContext(), req); err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "Password updated successfully"})
}

func (ac *AuthController) Refresh(c *fiber.Ctx) error {
	var req RefreshTokenRequest
	if err := parseBody(c, &req); err != nil {
		return utils.Fail(c, err)
	}
	if req.RefreshToken == "" {
		req.RefreshToken = c.Cookies("refresh_token")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.Fail(c, err)
	}
	session, err := ac.auth.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return utils.Fail(c, err)
	}
	setAuthCookies(c, session.TokenPair)
	return utils.Success(c, fiber.StatusOK, session)
}

func (ac *AuthController) Me(c *fiber.Ctx) error {
	profile, err := ac.auth.Me(c.UserContext(), principal(c))
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, profile)
}

func setAuthCookies(c *fiber.Ctx, tokens *utils.TokenPair) {
	if tokens == nil {
		return
	}
	secure := config.AppConfig.IsProduction()
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    tokens.AccessToken,
		Expires:  time.Now().Add(config.AppConfig.AccessTTL),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: "Lax",
	})
	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    tokens.RefreshToken,
		Expires:  time.Now().Add(config.AppConfig.RefreshTTL),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: "Lax",
		Path:     "/auth",
	})
}
