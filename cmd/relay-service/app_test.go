package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"nasrelay/internal/config"
	"nasrelay/internal/logger"
	"nasrelay/pkg/bootstrap"
)

func TestInitRouter_SwaggerFollowsIngress(t *testing.T) {
	tests := []struct {
		name       string
		ingress    bool
		wantStatus int
	}{
		{name: "ingress enabled", ingress: true, wantStatus: http.StatusOK},
		{name: "ingress disabled", ingress: false, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Ingress: config.IngressConfig{Enabled: tt.ingress}}
			app := &App{Base: bootstrap.NewBase(cfg, logger.NopLogger())}
			app.initRouter(context.Background())

			w := httptest.NewRecorder()
			app.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Contains(t, w.Body.String(), `"/events"`)
			}
		})
	}
}
