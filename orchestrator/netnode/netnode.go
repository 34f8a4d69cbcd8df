/*
 * VSP core - TCP network node for the orchestrator's Network stage.
 *
 * Copyright 2026, VSP core contributors.
 */

// Package netnode implements a TCP-listener orchestrator.Component for
// the Network stage, built on the standard library's net package: one
// goroutine accepts connections, one per-connection goroutine reads.
// Peers exchange length-prefixed JSIL "state" records rather than any
// line-oriented text framing.
package netnode

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/vsp-core/vsp/jsil"
	"github.com/vsp-core/vsp/orchestrator"
	"github.com/vsp-core/vsp/silstate"
)

// Node is a TCP orchestrator.Component: it broadcasts the current
// SilState to every connected peer each Network stage and merges any
// state records peers have sent back since the last stage.
type Node struct {
	orchestrator.BaseComponent

	listener net.Listener
	shutdown chan struct{}
	wg       sync.WaitGroup

	mu    sync.Mutex
	peers map[net.Conn]*bufio.Writer
	inbox chan silstate.State
}

// Listen opens a TCP listener on addr and starts accepting connections.
// name/readMask/writeMask are this component's orchestrator.Component
// registration identity.
func Listen(name, addr string, readMask, writeMask uint16) (*Node, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("netnode: listen %s: %w", addr, err)
	}
	n := &Node{
		BaseComponent: orchestrator.NewBaseComponent(name, orchestrator.Network, readMask, writeMask),
		listener:      l,
		shutdown:      make(chan struct{}),
		peers:         make(map[net.Conn]*bufio.Writer),
		inbox:         make(chan silstate.State, 64),
	}
	n.wg.Add(1)
	go n.acceptLoop()
	return n, nil
}

// Addr returns the listener's bound address.
func (n *Node) Addr() net.Addr { return n.listener.Addr() }

// Close stops accepting connections and closes all active peers.
func (n *Node) Close() {
	close(n.shutdown)
	n.listener.Close()

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		slog.Warn("netnode: timed out waiting for connections to finish")
	}

	n.mu.Lock()
	for c := range n.peers {
		c.Close()
	}
	n.mu.Unlock()
}

func (n *Node) acceptLoop() {
	defer n.wg.Done()
	for {
		select {
		case <-n.shutdown:
			return
		default:
		}
		conn, err := n.listener.Accept()
		if err != nil {
			select {
			case <-n.shutdown:
				return
			default:
				continue
			}
		}
		n.mu.Lock()
		n.peers[conn] = bufio.NewWriter(conn)
		n.mu.Unlock()

		n.wg.Add(1)
		go n.handleClient(conn)
	}
}

// handleClient reads length-prefixed JSIL payloads off conn and, for
// each "state" record found, forwards the decoded layer values to inbox.
func (n *Node) handleClient(conn net.Conn) {
	defer n.wg.Done()
	defer func() {
		n.mu.Lock()
		delete(n.peers, conn)
		n.mu.Unlock()
		conn.Close()
	}()

	for {
		var lenBuf [4]byte
		if _, err := readFull(conn, lenBuf[:]); err != nil {
			return
		}
		size := binary.BigEndian.Uint32(lenBuf[:])
		payload := make([]byte, size)
		if _, err := readFull(conn, payload); err != nil {
			return
		}
		rec, err := jsil.UnmarshalLine(payload)
		if err != nil {
			slog.Warn("netnode: malformed record from peer", "err", err)
			continue
		}
		if rec.Kind != jsil.KindState {
			continue
		}
		select {
		case n.inbox <- silstate.FromBytes(rec.Layers):
		default:
			// inbox full: drop rather than block the read loop.
		}
	}
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// broadcastState frames s as a length-prefixed JSON state record and
// sends it to every connected peer, closing any peer whose write fails.
func (n *Node) broadcastState(s silstate.State) {
	rec := &jsil.Record{Kind: jsil.KindState, Layers: s.Bytes()}
	line, err := jsil.MarshalLine(rec)
	if err != nil {
		slog.Warn("netnode: marshal state record", "err", err)
		return
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(line)))

	n.mu.Lock()
	defer n.mu.Unlock()
	for conn, w := range n.peers {
		if _, err := w.Write(lenBuf[:]); err != nil {
			conn.Close()
			continue
		}
		if _, err := w.Write(line); err != nil {
			conn.Close()
			continue
		}
		if err := w.Flush(); err != nil {
			conn.Close()
		}
	}
}

// Network implements the one orchestrator.Component method this
// component actually uses: broadcast the outgoing state, then merge any
// inbound peer states received since the last call.
func (n *Node) Network(ctx context.Context, s silstate.State) (silstate.State, error) {
	n.broadcastState(s)

	writeMask := n.Writes()
	merged := s
	for {
		select {
		case in := <-n.inbox:
			for i := 0; i < silstate.NumLayers; i++ {
				if writeMask&(1<<uint(i)) != 0 {
					merged[i] = in[i]
				}
			}
		default:
			return merged, nil
		}
	}
}
