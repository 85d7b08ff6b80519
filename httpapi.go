package authkit

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// HTTPController exposes the auth operations as a JSON API.
//
// Every authentication failure renders the same 401 body; the taxonomy code
// behind it is only logged.
type HTTPController struct {
	auther *Authenticator
	guard  *SessionGuard
	resets *PasswordResetFlow
	linker *IdentityLinker
	logger Logger
}

// NewHTTPController creates a controller over the given core services.
// The linker is optional; without it the federated login route responds 401.
func NewHTTPController(auther *Authenticator, guard *SessionGuard, resets *PasswordResetFlow) *HTTPController {
	return &HTTPController{
		auther: auther,
		guard:  guard,
		resets: resets,
		logger: defLogger{},
	}
}

func (c *HTTPController) WithLinker(linker *IdentityLinker) *HTTPController {
	c.linker = linker
	return c
}

func (c *HTTPController) WithLogger(logger Logger) *HTTPController {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// RegisterRoutes registers the auth routes on the given group. Mount the
// group at /auth.
func (c *HTTPController) RegisterRoutes(group RouteRegistrar) {
	group.Post("/register", c.Register)
	group.Post("/login", c.Login)
	group.Post("/google", c.GoogleLogin)
	group.Post("/refresh", c.Refresh)
	group.Post("/forgot-password", c.ForgotPassword)
	group.Post("/reset-password", c.ResetPassword)
	group.Post("/verify-email", c.RequestVerification, c.Protected())
	group.Post("/logout", c.Logout, c.Protected())
	group.Get("/me", c.Me, c.Protected())
	group.Delete("/delete-account", c.DeleteAccount, c.Protected())
	group.Get("/health", c.Health)
}

// Protected authenticates the bearer token and places the session and
// credential on the request context before running the handler.
func (c *HTTPController) Protected() router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			header := ctx.GetString(router.HeaderAuthorization, "")

			user, err := c.guard.AuthenticateHeader(ctx.Context(), header)
			if err != nil {
				return c.handleError(ctx, err)
			}

			stdCtx := WithSession(ctx.Context(), user.Session)
			stdCtx = WithCredential(stdCtx, user.Credential)
			ctx.SetContext(stdCtx)

			return next(ctx)
		}
	}
}

// RegisterRequest is the signup payload.
type RegisterRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
	)
}

func (c *HTTPController) Register(ctx router.Context) error {
	payload := new(RegisterRequest)

	if err := ctx.Bind(payload); err != nil {
		return c.badRequest(ctx, "invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return c.validationError(ctx, err)
	}

	cred, err := c.auther.Register(ctx.Context(), RegisterPayload{
		FullName: payload.FullName,
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, credentialResponse(cred))
}

// LoginRequest is the password login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (c *HTTPController) Login(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return c.badRequest(ctx, "invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return c.validationError(ctx, err)
	}

	pair, err := c.auther.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, pair)
}

// AssertionRequest carries a federated provider's signed identity assertion.
type AssertionRequest struct {
	IDToken string `json:"id_token"`
}

// Validate will run validation rules
func (r AssertionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.IDToken, validation.Required),
	)
}

func (c *HTTPController) GoogleLogin(ctx router.Context) error {
	if c.linker == nil {
		return c.handleError(ctx, ErrAssertionInvalid)
	}

	payload := new(AssertionRequest)

	if err := ctx.Bind(payload); err != nil {
		return c.badRequest(ctx, "invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return c.validationError(ctx, err)
	}

	cred, err := c.linker.Login(ctx.Context(), payload.IDToken)
	if err != nil {
		return c.handleError(ctx, err)
	}

	pair, err := c.auther.MintPair(cred.UID, cred.Email)
	if err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, pair)
}

// RefreshRequest carries the refresh token being exchanged.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Validate will run validation rules
func (r RefreshRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

func (c *HTTPController) Refresh(ctx router.Context) error {
	payload := new(RefreshRequest)

	if err := ctx.Bind(payload); err != nil {
		return c.badRequest(ctx, "invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return c.validationError(ctx, err)
	}

	session, err := c.guard.VerifyRefresh(ctx.Context(), payload.RefreshToken)
	if err != nil {
		return c.handleError(ctx, err)
	}

	pair, err := c.auther.Refresh(ctx.Context(), session)
	if err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, pair)
}

// ForgotPasswordRequest starts a password reset.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// Validate will run validation rules
func (r ForgotPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (c *HTTPController) ForgotPassword(ctx router.Context) error {
	payload := new(ForgotPasswordRequest)

	if err := ctx.Bind(payload); err != nil {
		return c.badRequest(ctx, "invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return c.validationError(ctx, err)
	}

	if err := c.resets.Request(ctx.Context(), payload.Email); err != nil {
		return c.handleError(ctx, err)
	}

	// same body whether or not the email is registered
	return ctx.JSON(router.StatusOK, map[string]string{
		"message": "if the email is registered, a reset link has been sent",
	})
}

// ResetPasswordRequest finalizes a password reset.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// Validate will run validation rules
func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 100)),
	)
}

func (c *HTTPController) ResetPassword(ctx router.Context) error {
	payload := new(ResetPasswordRequest)

	if err := ctx.Bind(payload); err != nil {
		return c.badRequest(ctx, "invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return c.validationError(ctx, err)
	}

	if err := c.resets.Consume(ctx.Context(), payload.Token, payload.NewPassword); err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"message": "password updated",
	})
}

func (c *HTTPController) RequestVerification(ctx router.Context) error {
	cred, ok := CredentialFromContext(ctx.Context())
	if !ok {
		return c.handleError(ctx, ErrNoCredentials)
	}

	if err := c.auther.RequestEmailVerification(ctx.Context(), cred.Email); err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"message": "verification email sent",
	})
}

func (c *HTTPController) Logout(ctx router.Context) error {
	header := ctx.GetString(router.HeaderAuthorization, "")
	token, err := BearerToken(header)
	if err != nil {
		return c.handleError(ctx, err)
	}

	// an accompanying refresh token may be revoked in the same call
	payload := new(RefreshRequest)
	var extra []string
	if err := ctx.Bind(payload); err == nil && payload.RefreshToken != "" {
		extra = append(extra, payload.RefreshToken)
	}

	if err := c.auther.Logout(ctx.Context(), token, extra...); err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"message": "logged out",
	})
}

func (c *HTTPController) Me(ctx router.Context) error {
	cred, ok := CredentialFromContext(ctx.Context())
	if !ok {
		return c.handleError(ctx, ErrNoCredentials)
	}
	return ctx.JSON(router.StatusOK, credentialResponse(cred))
}

func (c *HTTPController) DeleteAccount(ctx router.Context) error {
	session, ok := SessionFromContext(ctx.Context())
	if !ok {
		return c.handleError(ctx, ErrNoCredentials)
	}

	if err := c.auther.DeleteAccount(ctx.Context(), session.UserID); err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"message": "account deleted",
	})
}

func (c *HTTPController) Health(ctx router.Context) error {
	return ctx.JSON(router.StatusOK, map[string]string{
		"status": "ok",
	})
}

func credentialResponse(cred *Credential) map[string]any {
	return map[string]any{
		"uid":            cred.UID,
		"email":          cred.Email,
		"full_name":      cred.FullName,
		"email_verified": cred.EmailVerified,
		"auth_provider":  cred.AuthProvider,
		"photo_url":      cred.PhotoURL,
		"created_at":     cred.CreatedAt,
	}
}

func (c *HTTPController) badRequest(ctx router.Context, msg string) error {
	return ctx.JSON(router.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func (c *HTTPController) validationError(ctx router.Context, err error) error {
	return ctx.JSON(router.StatusBadRequest, map[string]any{
		"error":      "validation failed",
		"validation": err.Error(),
	})
}

func (c *HTTPController) handleError(ctx router.Context, err error) error {
	if IsAuthFailure(err) {
		c.logger.Info("auth failure: %s", FailureCode(err))
		return ctx.JSON(router.StatusUnauthorized, map[string]string{
			"error": "unauthorized",
		})
	}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		switch rich.Category {
		case goerrors.CategoryConflict:
			return ctx.JSON(http.StatusConflict, map[string]string{
				"error": rich.Message,
			})
		case goerrors.CategoryValidation, goerrors.CategoryBadInput:
			return ctx.JSON(router.StatusBadRequest, map[string]string{
				"error": rich.Message,
			})
		case goerrors.CategoryAuth:
			// provider mismatch and friends that are not uniform-401 kinds
			return ctx.JSON(router.StatusBadRequest, map[string]string{
				"error": rich.Message,
			})
		case goerrors.CategoryNotFound:
			return ctx.JSON(http.StatusNotFound, map[string]string{
				"error": rich.Message,
			})
		}
	}

	c.logger.Error("request failed: %v", err)
	return ctx.JSON(http.StatusInternalServerError, map[string]string{
		"error": "internal error",
	})
}
