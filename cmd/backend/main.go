// Command backend runs the logic-server daemon: Protocol Router, Session,
// and the example ECHO/CHAT/HEARTBEAT/LOGIN/LOGOUT/room handlers, with the
// reliability and observability ambient stack wired in. Grounded on
// original_source/examples/protocol_server.cpp.
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
	"github.com/chwellgo/netcore/httpsub"
	"github.com/chwellgo/netcore/reliability"
	"github.com/chwellgo/netcore/router"
	"github.com/chwellgo/netcore/session"
)

var configPath string

func init() {
	flag.StringVar(&configPath, "config", "", "path to backend configuration file")
}

func main() {
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		nlog.Errorf("backend: failed to load config %q: %v", configPath, err)
		os.Exit(1)
	}

	cos.InitIDGen(uint64(os.Getpid()))

	if cfg.NodeID != "" && !cos.IsAlphaNice(cfg.NodeID) {
		nlog.Errorf("backend: invalid node_id %q: must be alphanumeric (with interior -/_), up to 32 chars", cfg.NodeID)
		os.Exit(1)
	}

	svc := component.New(cfg.ListenPort, cfg.WorkerThreads)

	nodes := cluster.NewRegistry()
	nodeID := nodes.RegisterNode(cfg.NodeID, "127.0.0.1", cfg.ListenPort, "logic")

	reg := prometheus.NewRegistry()
	metrics := reliability.NewMetrics(reg, "backend")

	component.AddComponent[*reliability.MetricsComponent](svc, reliability.NewMetricsComponent(metrics))
	r := component.AddComponent[*router.Router](svc, router.New())
	sess := component.AddComponent[*session.Session](svc, session.New())
	hb := component.AddComponent[*reliability.HeartbeatManager](svc, reliability.NewHeartbeatManager(cfg.HeartbeatIntervalSeconds))

	// spec.md §5: the rate limiter is wired into the router as an optional
	// pre-dispatch gate, same as the gateway daemon.
	r.SetLimiter(reliability.NewConnectionLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst))

	app.RegisterEcho(r)
	app.RegisterChat(r, sess)
	app.RegisterHeartbeat(r)
	app.RegisterLogin(r, sess)
	app.RegisterLogout(r, sess)
	app.RegisterJoinRoom(r, sess)
	app.RegisterLeaveRoom(r, sess)
	app.RegisterRoomRoster(r, sess)

	httpSrv := httpsub.New(cfg.HTTPSubPort, reg, nil)
	httpSrv.Start()
	defer httpSrv.Stop()

	if err := svc.Start(); err != nil {
		nlog.Errorf("backend: failed to start: %v", err)
		os.Exit(1)
	}
	defer svc.Stop()
	defer hb.Stop()

	nlog.Infof("backend: running on port %d, node_id=%s", cfg.ListenPort, nodeID)
	nlog.Infof("backend: supported commands ECHO(1) CHAT(2) HEARTBEAT(3) LOGIN(10) LOGOUT(11) JOIN_ROOM(20) LEAVE_ROOM(21) ROOM_ROSTER(22)")

	waitForShutdown()
}

// waitForShutdown blocks until SIGTERM/SIGINT, matching
// protocol_server.cpp's signal-driven main loop.
func waitForShutdown() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-c
	nlog.Infof("backend: shutdown signal received")
}
