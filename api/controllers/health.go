package controllers

import (
	"context"
	"net/http"

	"github.com/wovenlane/wovenlane-backend/api/responses"
	"github.com/wovenlane/wovenlane-backend/pkg/config"
	pkgerrors "github.com/wovenlane/wovenlane-backend/pkg/errors"
	"github.com/wovenlane/wovenlane-backend/pkg/logger"
)

const envHeader = "X-Wovenlane-Env"

type pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when the core dependencies answer a ping.
func HealthReady(cfg *config.Config, logg *logger.Logger, db, cache, storage pinger) http.HandlerFunc {
	checks := []struct {
		name string
		dep  pinger
	}{
		{name: "database", dep: db},
		{name: "redis", dep: cache},
		{name: "gcs", dep: storage},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		for _, check := range checks {
			if check.dep == nil {
				continue
			}
			if err := check.dep.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ping "+check.name))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
