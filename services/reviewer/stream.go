package reviewer

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/watxaut/FontsReviewerApp/internal/domain"
	svcerrors "github.com/watxaut/FontsReviewerApp/internal/errors"
	"github.com/watxaut/FontsReviewerApp/internal/httputil"
	"github.com/watxaut/FontsReviewerApp/supabase/client"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10
)

// ProfileWatcher subscribes to changes of one profile row.
type ProfileWatcher interface {
	WatchProfile(ctx context.Context, userID, accessToken string, onChange func()) (Subscription, error)
}

// Subscription is a live profile watch. Done closes when the upstream feed
// ends on its own.
type Subscription interface {
	Done() <-chan struct{}
	Close() error
}

// RealtimeWatcher watches profiles through Supabase Realtime, one websocket
// per subscription.
type RealtimeWatcher struct {
	client *client.Client
}

// NewRealtimeWatcher creates a watcher on top of the REST client's project.
func NewRealtimeWatcher(c *client.Client) *RealtimeWatcher {
	return &RealtimeWatcher{client: c}
}

// WatchProfile subscribes to UPDATE events on public.profiles for userID.
func (w *RealtimeWatcher) WatchProfile(ctx context.Context, userID, accessToken string, onChange func()) (Subscription, error) {
	rt, err := w.client.NewRealtimeClient()
	if err != nil {
		return nil, err
	}
	if err := rt.Connect(ctx); err != nil {
		return nil, svcerrors.NoInternet(err)
	}

	ch, err := rt.SubscribeToPostgresChanges(ctx, "profile-stats-"+userID, client.PostgresChangesConfig{
		Event:  client.ChangeUpdate,
		Schema: "public",
		Table:  "profiles",
		Filter: "id=eq." + userID,
	}, accessToken, func(client.ChangeEvent) { onChange() })
	if err != nil {
		_ = rt.Disconnect()
		return nil, fmt.Errorf("subscribe to profile changes: %w", err)
	}
	return &realtimeSubscription{rt: rt, ch: ch}, nil
}

type realtimeSubscription struct {
	rt *client.RealtimeClient
	ch *client.Channel
}

func (s *realtimeSubscription) Done() <-chan struct{} {
	return s.rt.Done()
}

func (s *realtimeSubscription) Close() error {
	_ = s.ch.Unsubscribe()
	return s.rt.Disconnect()
}

// StreamMessage is one frame sent to a stats stream client.
type StreamMessage struct {
	Type  string                `json:"type"` // "stats" or "error"
	Stats *domain.UserStats     `json:"stats,omitempty"`
	Error *httputil.ErrorDetail `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by the CORS middleware; the stream is token
	// authenticated.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleStatsStream pushes the caller's UserStats now and after every change
// to their profile row, until either side disconnects.
func (s *Service) handleStatsStream(w http.ResponseWriter, r *http.Request) {
	sess, err := s.requireSession(r.Context())
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	if s.watcher == nil {
		httputil.WriteServiceError(w, r, svcerrors.New(svcerrors.ErrCodeInternal, "Live stats are not available", http.StatusServiceUnavailable))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}
	defer conn.Close()

	s.metrics.StreamOpened()
	defer s.metrics.StreamClosed()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	log := s.logger.WithContext(ctx)

	updates := make(chan struct{}, 1)
	notify := func() {
		select {
		case updates <- struct{}{}:
		default:
		}
	}

	sub, err := s.watcher.WatchProfile(ctx, sess.UserID, sess.AccessToken, notify)
	if err != nil {
		log.WithError(err).Warn("profile watch failed")
		_ = s.writeStreamError(conn, err)
		return
	}
	defer sub.Close()

	go s.readStream(conn, cancel)

	if err := s.pushStats(ctx, conn, sess.UserID); err != nil {
		return
	}

	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done():
			log.Info("realtime feed closed, ending stats stream")
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "upstream closed"),
				time.Now().Add(streamWriteWait))
			return
		case <-updates:
			if err := s.pushStats(ctx, conn, sess.UserID); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		}
	}
}

// readStream drains client frames so control messages are processed and
// cancels the stream when the client goes away.
func (s *Service) readStream(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Service) pushStats(ctx context.Context, conn *websocket.Conn, userID string) error {
	stats, err := s.UserStats(ctx, userID)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Debug("stats refresh failed")
		return s.writeStreamError(conn, err)
	}
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	return conn.WriteJSON(StreamMessage{Type: "stats", Stats: stats})
}

func (s *Service) writeStreamError(conn *websocket.Conn, err error) error {
	se := svcerrors.GetServiceError(err)
	if se == nil {
		se = svcerrors.Internal("Internal server error", err)
	}
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	return conn.WriteJSON(StreamMessage{
		Type:  "error",
		Error: &httputil.ErrorDetail{Code: string(se.Code), Message: se.Message, Details: se.Details},
	})
}
