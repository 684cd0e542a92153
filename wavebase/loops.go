package wavebase

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"

	"github.com/wavebase/client-go/compression"
	"github.com/wavebase/client-go/protocol"
)

// receiveLoop reads frames in arrival order, decompresses and decodes
// each one, and dispatches the result before reading the next frame
// (spec.md §5's ordering guarantee). The first frame MUST be
// IdentityToken; handshakeDone receives at most one value: that frame's
// outcome, or the error that ended the loop before it. A loop that stops
// on ctx cancellation before the handshake sends nothing.
func (s *Session) receiveLoop(ctx context.Context, ws *websocket.Conn, handshakeDone chan error) error {
	handshaked := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		messageType, frame, err := ws.ReadMessage()
		if err != nil {
			if !handshaked {
				handshakeDone <- err
			}
			return err
		}
		if messageType != websocket.BinaryMessage {
			glog.V(2).Infof("wavebase: ignoring non-binary frame type %d", messageType)
			continue
		}

		if s.metrics != nil {
			s.metrics.FramesReceived.Inc()
		}

		payload, err := compression.DecodeFrame(frame)
		if err != nil {
			if s.metrics != nil {
				s.metrics.FramesDropped.Inc()
			}
			if !handshaked {
				handshakeDone <- err
			}
			glog.Warningf("wavebase: frame decompression failed: %v", err)
			return err
		}

		msg, err := protocol.DecodeServerMessage(payload)
		if err != nil {
			if s.metrics != nil {
				s.metrics.FramesDropped.Inc()
			}
			if !handshaked {
				handshakeDone <- err
			}
			glog.Warningf("wavebase: server message decode failed: %v", err)
			return err
		}

		if !handshaked {
			identity, ok := msg.(protocol.IdentityToken)
			if !ok {
				err := fmt.Errorf("wavebase: expected IdentityToken as first frame, got %T", msg)
				handshakeDone <- err
				return err
			}
			s.applyIdentityToken(identity)
			handshaked = true
			handshakeDone <- nil
			continue
		}

		s.dispatch(msg)
	}
}

// pingLoop sends a WebSocket ping control frame every PingInterval. A
// failed ping is treated like a receive-side error: it returns, which
// cancels ctx for the whole connection group and triggers reconnect.
func (s *Session) pingLoop(ctx context.Context, ws *websocket.Conn) error {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			deadline := time.Now().Add(s.cfg.ConnectionTimeout)
			if err := ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				glog.Infof("wavebase: ping failed: %v", err)
				return err
			}
		}
	}
}

// writeLoop is the single serialized writer for ws, draining writeCh
// until the connection's context is cancelled.
func (s *Session) writeLoop(ctx context.Context, ws *websocket.Conn, writeCh chan []byte) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-writeCh:
			if !ok {
				return nil
			}
			_ = ws.SetWriteDeadline(time.Now().Add(s.cfg.ConnectionTimeout))
			if err := ws.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return err
			}
		}
	}
}
