// Command gateway runs the gateway daemon: Protocol Router, Session
// (local LOGIN/LOGOUT handling), and the Gateway Forwarder relaying
// ECHO/CHAT to a backend logic server. Grounded on
// original_source/examples/gateway_server.cpp.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chwellgo/netcore/app"
	"github.com/chwellgo/netcore/cluster"
	"github.com/chwellgo/netcore/cmn/cos"
	"github.com/chwellgo/netcore/cmn/nlog"
	"github.com/chwellgo/netcore/component"
	"github.com/chwellgo/netcore/config"
	"github.com/chwellgo/netcore/gateway"
	"github.com/chwellgo/netcore/httpsub"
	"github.com/chwellgo/netcore/netconn"
	"github.com/chwellgo/netcore/reliability"
	"github.com/chwellgo/netcore/router"
	"github.com/chwellgo/netcore/session"
	"github.com/chwellgo/netcore/wire"
)

var configPath string

func init() {
	flag.StringVar(&configPath, "config", "", "path to gateway configuration file")
}

func main() {
	flag.Parse()

	// config.Load applies GATEWAY_PORT/BACKEND_HOST/BACKEND_PORT overrides
	// even with an empty path (defaults stand in for a missing file),
	// matching gateway_server.cpp's env-override behavior.
	cfg, err := config.Load(configPath)
	if err != nil {
		nlog.Errorf("gateway: failed to load config %q: %v", configPath, err)
		os.Exit(1)
	}

	cos.InitIDGen(uint64(os.Getpid()))

	if cfg.NodeID != "" && !cos.IsAlphaNice(cfg.NodeID) {
		nlog.Errorf("gateway: invalid node_id %q: must be alphanumeric (with interior -/_), up to 32 chars", cfg.NodeID)
		os.Exit(1)
	}

	svc := component.New(cfg.ListenPort, cfg.WorkerThreads)

	nodes := cluster.NewRegistry()
	nodeID := nodes.RegisterNode(cfg.NodeID, "127.0.0.1", cfg.ListenPort, "gateway")

	reg := prometheus.NewRegistry()
	metrics := reliability.NewMetrics(reg, "gateway")

	component.AddComponent[*reliability.MetricsComponent](svc, reliability.NewMetricsComponent(metrics))
	r := component.AddComponent[*router.Router](svc, router.New())
	sess := component.AddComponent[*session.Session](svc, session.New())
	hb := component.AddComponent[*reliability.HeartbeatManager](svc, reliability.NewHeartbeatManager(cfg.HeartbeatIntervalSeconds))
	fwd := component.AddComponent[*gateway.Forwarder](svc, gateway.New(cfg.BackendHost, cfg.BackendPort))

	// spec.md §5: the rate limiter is wired into the router as an optional
	// pre-dispatch gate, ahead of every handler alike (not just ECHO/CHAT).
	r.SetLimiter(reliability.NewConnectionLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst))

	// LOGIN/LOGOUT/HEARTBEAT are handled locally by the gateway, matching
	// gateway_server.cpp; ECHO/CHAT are forwarded to the backend.
	app.RegisterLogin(r, sess)
	app.RegisterLogout(r, sess)
	app.RegisterHeartbeat(r)

	r.RegisterHandler(app.Cmd.Echo, fwd.Forward)
	r.RegisterHandler(app.Cmd.Chat, func(conn *netconn.Connection, f wire.Frame) {
		if !sess.IsLoggedIn(conn) {
			router.SendMessage(conn, wire.Frame{Cmd: app.Cmd.Chat, Body: []byte("[Gateway] please login first")})
			return
		}
		fwd.Forward(conn, f)
	})

	httpSrv := httpsub.New(cfg.HTTPSubPort, reg, nil)
	httpSrv.Start()
	defer httpSrv.Stop()

	if err := svc.Start(); err != nil {
		nlog.Errorf("gateway: failed to start: %v", err)
		os.Exit(1)
	}
	defer svc.Stop()
	defer hb.Stop()

	nlog.Infof("gateway: running on port %d, backend %s:%d, node_id=%s", cfg.ListenPort, cfg.BackendHost, cfg.BackendPort, nodeID)
	nlog.Infof("gateway: local LOGIN(10) LOGOUT(11) HEARTBEAT(3), forwarded ECHO(1) CHAT(2)")

	waitForShutdown()
}

func waitForShutdown() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-c
	nlog.Infof("gateway: shutdown signal received")
}
