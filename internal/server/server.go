package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appconfig "github.com/careflow/hospital-chatbot/config"
	"github.com/careflow/hospital-chatbot/internal/chatbot"
	"github.com/careflow/hospital-chatbot/internal/session"
	"github.com/careflow/hospital-chatbot/internal/session/inmemory"
	"github.com/careflow/hospital-chatbot/internal/session/redisstore"
)

// Run wires the full service and serves HTTP on addr until the process
// stops.
func Run(addr string, cfgPath string) error {
	cfg, err := appconfig.LoadConfig(cfgPath)
	if err != nil {
		return err
	}

	ctx := context.Background()
	sessions, err := newSessionStore(ctx, cfg)
	if err != nil {
		return err
	}

	bot := chatbot.NewService(ctx, cfg, sessions, nil)

	e := newEcho()
	h := &ChatHandler{Bot: bot, Sessions: sessions}
	h.Register(e)

	sched := &Scheduler{Bot: bot, Knowledge: cfg.Knowledge, Stop: make(chan struct{})}
	sched.Start()
	defer sched.Shutdown()

	if addr == "" {
		addr = cfg.General.Listen
		if addr != "" && addr[0] != ':' {
			addr = ":" + addr
		}
		if addr == "" {
			addr = ":8080"
		}
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}

// newEcho builds the echo instance with the shared middleware stack and a
// unified JSON error handler.
func newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	return e
}

func newSessionStore(ctx context.Context, cfg *appconfig.Config) (session.Store, error) {
	switch cfg.Sessions.Store {
	case "redis":
		rdb, err := redisstore.Conn(ctx, cfg.Sessions.Redis)
		if err != nil {
			return nil, err
		}
		return redisstore.NewStore(rdb, cfg.Sessions.HistoryLimit), nil
	default:
		return inmemory.NewStore(cfg.Sessions.HistoryLimit), nil
	}
}
