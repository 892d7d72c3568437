package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/careflow/hospital-chatbot/internal/chatbot"
	"github.com/careflow/hospital-chatbot/internal/session"
)

// ChatRequest is the POST /chat body.
type ChatRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
	Reset     bool   `json:"reset"`
}

// ChatResponse is the POST /chat reply.
type ChatResponse struct {
	Response  string   `json:"response"`
	Context   []string `json:"context"`
	SessionID string   `json:"session_id"`
}

// HealthResponse is the GET /chat reply.
type HealthResponse struct {
	Status string `json:"status"`
	Ready  bool   `json:"ready"`
}

type ChatHandler struct {
	Bot      *chatbot.Service
	Sessions session.Store
}

func (h *ChatHandler) Register(e *echo.Echo) {
	e.POST("/chat", h.chat)
	e.GET("/chat", h.health)
	e.GET("/chat/search", h.search)
}

func (h *ChatHandler) chat(c echo.Context) error {
	start := time.Now()
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		chatRequests.WithLabelValues("invalid").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, "Field 'query' is required.")
	}
	if req.Query == "" {
		chatRequests.WithLabelValues("invalid").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, "Field 'query' is required.")
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	ctx := c.Request().Context()
	history, err := h.Sessions.GetOrCreate(ctx, sessionID, req.Reset)
	if err != nil {
		chatRequests.WithLabelValues("error").Inc()
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var resp ChatResponse
	if !h.Bot.Ready() {
		chatRequests.WithLabelValues("degraded").Inc()
		resp = ChatResponse{Response: chatbot.MsgNotReady, Context: []string{}, SessionID: sessionID}
	} else {
		ans := h.Bot.Respond(ctx, req.Query, history)
		chatRequests.WithLabelValues("ok").Inc()
		resp = ChatResponse{Response: ans.Response, Context: ans.Context, SessionID: sessionID}
	}

	if err := h.Sessions.Append(ctx, sessionID,
		session.Message{Role: session.RoleUser, Content: req.Query},
		session.Message{Role: session.RoleAssistant, Content: resp.Response},
	); err != nil {
		chatRequests.WithLabelValues("error").Inc()
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	chatLatency.Observe(time.Since(start).Seconds())
	return c.JSON(http.StatusOK, resp)
}

func (h *ChatHandler) health(c echo.Context) error {
	ready := h.Bot.Ready()
	code := http.StatusOK
	if !ready {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, HealthResponse{Status: "ok", Ready: ready})
}

// search exposes BM25 keyword lookup over the knowledge chunks, useful for
// inspecting what the index holds without spending an LLM call.
func (h *ChatHandler) search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter 'q' is required")
	}
	k := 0
	if raw := c.QueryParam("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "query parameter 'k' must be an integer")
		}
		k = n
	}
	hits, err := h.Bot.Retriever.Keyword(q, k)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"hits": hits})
}
