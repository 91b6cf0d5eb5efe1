package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/auction-marketplace/internal/logging"
    "github.com/iliyamo/auction-marketplace/internal/service"
)

// AuthHandler serves the signup, login and logout endpoints.
type AuthHandler struct {
    Sessions *service.SessionManager
    Log      logging.Logger
}

func NewAuthHandler(sm *service.SessionManager, log logging.Logger) *AuthHandler {
    return &AuthHandler{Sessions: sm, Log: log}
}

type credentialsReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}

type userPart struct {
    ID    string `json:"id"`
    Email string `json:"email"`
}

// Signup creates an account and signs it in.  201 on success.
func (h *AuthHandler) Signup(c echo.Context) error {
    return h.authenticate(c, http.StatusCreated, h.Sessions.Signup)
}

// Login opens a new session for existing credentials.  200 on success.
func (h *AuthHandler) Login(c echo.Context) error {
    return h.authenticate(c, http.StatusOK, h.Sessions.Login)
}

func (h *AuthHandler) authenticate(c echo.Context, status int,
    op func(ctx context.Context, email, password string) (*service.AuthResult, error)) error {
    var req credentialsReq
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "Invalid JSON body")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    res, err := op(ctx, req.Email, req.Password)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    c.Response().Header().Add(echo.HeaderSetCookie, res.Cookie)
    return c.JSON(status, echo.Map{
        "ok":   true,
        "user": userPart{ID: res.User.ID, Email: res.User.Email},
    })
}

// Logout deletes the presented session, if any, and always answers with
// a tombstone cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    tombstone, err := h.Sessions.Logout(ctx, c.Request().Header.Get(echo.HeaderCookie))
    if err != nil {
        return writeError(c, h.Log, err)
    }
    c.Response().Header().Add(echo.HeaderSetCookie, tombstone)
    return c.JSON(http.StatusOK, echo.Map{"ok": true})
}
