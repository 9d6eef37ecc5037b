// Package cluster implements the node registry used for multi-node
// deployments (gateway, logic, room nodes): a simple in-memory directory
// of who is online and where. Grounded on
// original_source/include/chwell/cluster/node_registry.h.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cluster

import (
	"fmt"
	"sync"

	"github.com/chwellgo/netcore/cmn/cos"
)

// NodeInfo describes one registered cluster member.
type NodeInfo struct {
	NodeID     string
	ListenAddr string
	ListenPort int
	NodeType   string
	Online     bool
	Tag        string // cos.HashTag(addr:port), a short stable id for log lines
}

// Registry tracks node registration and discovery across the cluster.
type Registry struct {
	mu    sync.RWMutex
	nodes map[string]NodeInfo
}

func NewRegistry() *Registry {
	return &Registry{nodes: make(map[string]NodeInfo)}
}

// RegisterNode upserts node_id as online at the given address. An empty
// nodeID is assigned a freshly minted one (cos.GenUUID()), for deployments
// that don't configure a stable operator-supplied node_id. Returns the ID
// actually registered under.
func (r *Registry) RegisterNode(nodeID, listenAddr string, listenPort int, nodeType string) string {
	if nodeID == "" {
		nodeID = cos.GenUUID()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes[nodeID] = NodeInfo{
		NodeID:     nodeID,
		ListenAddr: listenAddr,
		ListenPort: listenPort,
		NodeType:   nodeType,
		Online:     true,
		Tag:        cos.HashTag(fmt.Sprintf("%s:%d", listenAddr, listenPort)),
	}
	return nodeID
}

// UnregisterNode marks node_id offline without erasing its last-known
// address — mirrors node_registry.h, which flips `online` rather than
// erasing the map entry.
func (r *Registry) UnregisterNode(nodeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if info, ok := r.nodes[nodeID]; ok {
		info.Online = false
		r.nodes[nodeID] = info
	}
}

// FindNode returns the registered info for nodeID if it is currently online.
func (r *Registry) FindNode(nodeID string) (NodeInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.nodes[nodeID]
	if !ok || !info.Online {
		return NodeInfo{}, false
	}
	return info, true
}

// NodesByType returns every online node of the given type, or every online
// node if nodeType is empty.
func (r *Registry) NodesByType(nodeType string) []NodeInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []NodeInfo
	for _, info := range r.nodes {
		if !info.Online {
			continue
		}
		if nodeType == "" || info.NodeType == nodeType {
			result = append(result, info)
		}
	}
	return result
}

// AllNodes returns every online node, regardless of type.
func (r *Registry) AllNodes() []NodeInfo {
	return r.NodesByType("")
}
