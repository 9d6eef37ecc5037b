// Package httpsub exposes a small HTTP sub-server alongside the TCP
// service, for health checks and Prometheus scraping — a concern the
// original never had (it is a bare TCP daemon) but that every production
// netcore deployment needs. Built on valyala/fasthttp, already present in
// the dependency pack, rather than net/http.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package httpsub

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/chwellgo/netcore/cmn/nlog"
)

// Server is a minimal fasthttp-backed HTTP endpoint for /healthz and
// /metrics, run alongside the main TCP Service.
type Server struct {
	port    int
	reg     *prometheus.Registry
	healthy func() bool

	srv *fasthttp.Server
}

// New constructs a Server bound to port, scraping metrics from reg.
// healthy reports liveness for /healthz; pass nil to always report healthy.
func New(port int, reg *prometheus.Registry, healthy func() bool) *Server {
	if healthy == nil {
		healthy = func() bool { return true }
	}
	return &Server{port: port, reg: reg, healthy: healthy}
}

// Start begins serving in a background goroutine. Errors are logged, not
// returned, since an HTTP sub-server failing to bind should not prevent
// the main TCP Service from running.
func (s *Server) Start() {
	metricsHandler := promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{})
	fastMetrics := fasthttpadaptor.NewFastHTTPHandler(metricsHandler)

	s.srv = &fasthttp.Server{
		Handler: func(ctx *fasthttp.RequestCtx) {
			switch string(ctx.Path()) {
			case "/healthz":
				s.handleHealthz(ctx)
			case "/metrics":
				fastMetrics(ctx)
			default:
				ctx.SetStatusCode(fasthttp.StatusNotFound)
			}
		},
	}

	addr := fmt.Sprintf(":%d", s.port)
	go func() {
		nlog.Infof("httpsub: listening on %s", addr)
		if err := s.srv.ListenAndServe(addr); err != nil {
			nlog.Errorf("httpsub: server error: %v", err)
		}
	}()
}

func (s *Server) handleHealthz(ctx *fasthttp.RequestCtx) {
	if s.healthy() {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("ok")
		return
	}
	ctx.SetStatusCode(http.StatusServiceUnavailable)
	ctx.SetBodyString("unhealthy")
}

// Stop shuts the HTTP sub-server down.
func (s *Server) Stop() error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown()
}
