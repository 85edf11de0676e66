package application

import (
	"time"

	"github.com/fasthttp/router"
	"github.com/knadh/koanf/v2"
	"github.com/valyala/fasthttp"

	"github.com/pipe199x/crypto-analytics/utils/config"
)

type Application struct {
	AppName     string
	Hostname    string
	Port        string
	IdleTimeout time.Duration
	Router      *router.Router
	s           *fasthttp.Server
}

func NewApplication(cfg *koanf.Koanf) *Application {
	hostname, port := config.ParseAddress(cfg.String("app.host"))
	if hostname == "" {
		hostname = "0.0.0.0"
	}

	application := &Application{
		Hostname:    hostname,
		Port:        port,
		AppName:     cfg.String("app.name"),
		IdleTimeout: cfg.Duration("app.idle-timeout"),
		Router:      router.New(),
	}

	return application
}

func (a *Application) Run() error {
	a.s = &fasthttp.Server{
		Handler:     a.Router.Handler,
		IdleTimeout: a.IdleTimeout,
	}
	return a.s.ListenAndServe(a.Hostname + ":" + a.Port)
}

func (a *Application) Shutdown() error {
	if a.s == nil {
		return nil
	}
	return a.s.Shutdown()
}
