// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"folio/internal/docstore"
	"folio/internal/live"
)

const (
	// writeWait bounds a single frame or control write.
	writeWait = 10 * time.Second
	// pongWait is how long a client may stay silent before it is dropped.
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait.
	pingPeriod = pongWait * 9 / 10
	// maxClientMessage caps what a subscriber may send; frames only flow out.
	maxClientMessage = 512
)

// Watcher is the document subscription the live endpoints need.
// *docstore.Watcher satisfies it.
type Watcher interface {
	live.DocumentWatcher
	live.CollectionWatcher
}

// Live streams theme and section frames to websocket subscribers.
type Live struct {
	watcher  Watcher
	theme    docstore.Path
	sections docstore.Path
	observer live.Observer
	upgrader websocket.Upgrader

	// base outlives requests; Close cancels it to end every stream.
	base   context.Context
	cancel context.CancelFunc
}

// NewLive creates the Live handler group. An empty allowedOrigins list
// accepts same-origin connections only; "*" accepts any origin.
// observer may be nil.
func NewLive(w Watcher, theme, sections docstore.Path, allowedOrigins []string, observer live.Observer) *Live {
	l := &Live{watcher: w, theme: theme, sections: sections, observer: observer}
	l.base, l.cancel = context.WithCancel(context.Background())
	l.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return l
}

// Close ends every open stream with a normal close frame. Register it
// with http.Server.RegisterOnShutdown; hijacked connections are not
// tracked by Shutdown.
func (l *Live) Close() {
	l.cancel()
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if slices.Contains(allowed, "*") || slices.Contains(allowed, origin) {
			return true
		}
		if len(allowed) > 0 {
			return false
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

// Theme streams a frame for every active theme snapshot.
func (l *Live) Theme(w http.ResponseWriter, r *http.Request) {
	l.serve(w, r, live.KindTheme, func(ctx context.Context, p live.Presenter, run func() error) error {
		return live.WithTheme(ctx, l.watcher, l.theme, p, func(*live.ThemePropagator) error { return run() }, l.options()...)
	})
}

// Sections streams a frame for every change to the visible sections.
func (l *Live) Sections(w http.ResponseWriter, r *http.Request) {
	l.serve(w, r, live.KindSections, func(ctx context.Context, p live.Presenter, run func() error) error {
		return live.WithSections(ctx, l.watcher, l.sections, p, func(*live.SectionsPropagator) error { return run() }, l.options()...)
	})
}

func (l *Live) options() []live.Option {
	if l.observer == nil {
		return nil
	}
	return []live.Option{live.WithObserver(l.observer)}
}

type scope func(ctx context.Context, p live.Presenter, run func() error) error

func (l *Live) serve(w http.ResponseWriter, r *http.Request, kind live.Kind, within scope) {
	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err, "kind", kind)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(l.base)
	defer cancel()

	conn.SetReadLimit(maxClientMessage)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// The read loop only detects disconnects.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pres := newFramePresenter()
	slog.Debug("live subscriber connected", "kind", kind, "remote", r.RemoteAddr)

	err = within(ctx, pres, func() error { return writePump(ctx, conn, pres) })
	if err != nil {
		slog.Debug("live subscriber write failed", "kind", kind, "error", err)
	}
	slog.Debug("live subscriber disconnected", "kind", kind, "remote", r.RemoteAddr)
}

// writePump sends frames and keepalive pings until ctx ends or a write
// fails.
func writePump(ctx context.Context, conn *websocket.Conn, pres *framePresenter) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return nil
		case f := <-pres.frames:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(f); err != nil {
				return err
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

// framePresenter hands frames to the write pump without blocking the
// propagator. Every frame is a full replacement, so a slow subscriber
// only ever receives the latest one.
type framePresenter struct {
	frames chan live.Frame
}

func newFramePresenter() *framePresenter {
	return &framePresenter{frames: make(chan live.Frame, 1)}
}

func (p *framePresenter) Present(f live.Frame) {
	for {
		select {
		case p.frames <- f:
			return
		default:
		}
		select {
		case <-p.frames:
		default:
		}
	}
}
