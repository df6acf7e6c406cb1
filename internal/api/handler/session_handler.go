package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/craftlink/session-agent/internal/core/domain"
	"github.com/craftlink/session-agent/internal/core/ports"
)

// SessionHandler exposes the session manager to the local UI process.
// It holds no state of its own: every endpoint is a thin translation
// onto one of the four session operations or a snapshot read.
type SessionHandler struct {
	sessions ports.SessionService
}

func NewSessionHandler(sessions ports.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type loginRequest struct {
	Role       string `json:"role" validate:"required,oneof=user craftsman company"`
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type loginResponse struct {
	OK         bool   `json:"ok"`
	Message    string `json:"message,omitempty"`
	NavigateTo string `json:"navigate_to,omitempty"`
}

type logoutResponse struct {
	NavigateTo string `json:"navigate_to"`
}

// Current returns the session snapshot.
//
// @Summary      Current session
// @Tags         session
// @Produce      json
// @Success      200  {object}  domain.Session
// @Router       /session [get]
func (h *SessionHandler) Current(c echo.Context) error {
	return c.JSON(http.StatusOK, h.sessions.Snapshot())
}

// Login submits credentials to the marketplace backend. A rejected login
// is a normal outcome: the response is 200 with ok=false and the
// server's message.
//
// @Summary      Log in
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]string
// @Router       /session/login [post]
func (h *SessionHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	out := h.sessions.Login(c.Request().Context(), ports.LoginInput{
		Role:       domain.ParseRole(req.Role),
		Identifier: req.Identifier,
		Password:   req.Password,
	})

	return c.JSON(http.StatusOK, loginResponse{
		OK:         out.OK,
		Message:    out.Message,
		NavigateTo: string(out.NavigateTo),
	})
}

// Logout clears the session and returns the navigation intent.
//
// @Summary      Log out
// @Tags         session
// @Produce      json
// @Success      200  {object}  logoutResponse
// @Router       /session/logout [post]
func (h *SessionHandler) Logout(c echo.Context) error {
	nav := h.sessions.Logout(c.Request().Context())
	return c.JSON(http.StatusOK, logoutResponse{NavigateTo: string(nav)})
}

// Refresh re-fetches the profile and returns the updated snapshot.
//
// @Summary      Refresh profile
// @Tags         session
// @Produce      json
// @Success      200  {object}  domain.Session
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /session/refresh [post]
func (h *SessionHandler) Refresh(c echo.Context) error {
	snap, err := h.sessions.RefreshProfile(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snap)
}

// Events streams session snapshots as server-sent events so the UI can
// re-render on change without polling.
//
// @Summary      Session change stream
// @Tags         session
// @Produce      text/event-stream
// @Success      200
// @Router       /session/events [get]
func (h *SessionHandler) Events(c echo.Context) error {
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	ch, cancel := h.sessions.Subscribe()
	defer cancel()

	// Emit the current snapshot first so a late subscriber renders
	// immediately instead of waiting for the next change.
	if err := writeEvent(w, h.sessions.Snapshot()); err != nil {
		return nil
	}

	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case snap, ok := <-ch:
			if !ok {
				return nil
			}
			if err := writeEvent(w, snap); err != nil {
				return nil
			}
		}
	}
}

func writeEvent(w *echo.Response, snap domain.Session) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	w.Flush()
	return nil
}
