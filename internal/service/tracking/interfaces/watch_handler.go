// internal/service/tracking/interfaces/watch_handler.go
package interfaces

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"minimall/internal/pkg/httpx"
	"minimall/internal/pkg/logger"
	"minimall/internal/service/tracking/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 演示环境放开跨域
	CheckOrigin: func(r *http.Request) bool { return true },
}

type statusPush struct {
	TrackerID string `json:"trackerId"`
	Status    string `json:"status"`
}

type watcher struct {
	send chan statusPush
}

// WatchHub 维护所有在线的状态订阅连接，按 trackerID 分发状态变更。
// 实现 application.StatusNotifier。
type WatchHub struct {
	mu       sync.RWMutex
	watchers map[string]map[*watcher]struct{}
}

func NewWatchHub() *WatchHub {
	return &WatchHub{watchers: make(map[string]map[*watcher]struct{})}
}

// NotifyStatusChange 把一次状态变更推送给该 tracker 的所有订阅者。
// 发不进去的慢连接直接跳过，推送绝不能阻塞投影。
func (h *WatchHub) NotifyStatusChange(trackerID string, status domain.Status) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for w := range h.watchers[trackerID] {
		select {
		case w.send <- statusPush{TrackerID: trackerID, Status: string(status)}:
		default:
		}
	}
}

func (h *WatchHub) register(trackerID string, w *watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.watchers[trackerID] == nil {
		h.watchers[trackerID] = make(map[*watcher]struct{})
	}
	h.watchers[trackerID][w] = struct{}{}
}

func (h *WatchHub) unregister(trackerID string, w *watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.watchers[trackerID], w)
	if len(h.watchers[trackerID]) == 0 {
		delete(h.watchers, trackerID)
	}
}

// watchTracker 把连接升级为 websocket：先推当前状态，
// 之后每次状态变更推送一条，到达终态后关闭连接。
func (t *TrackingHandler) watchTracker(w http.ResponseWriter, r *http.Request) {
	trackerID := r.PathValue("trackerId")

	if _, err := t.service.GetTracker(r.Context(), trackerID); err != nil {
		if errors.Is(err, domain.ErrTrackerNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "tracker not found")
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, "could not load tracker")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Ctx(r.Context()).Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	wch := &watcher{send: make(chan statusPush, 8)}
	t.hub.register(trackerID, wch)
	defer func() {
		t.hub.unregister(trackerID, wch)
		conn.Close()
	}()

	// 先注册再取快照，落在注册之前的变更体现在快照里，
	// 落在之后的从通道推过来，没有丢失窗口
	track, err := t.service.GetTracker(r.Context(), trackerID)
	if err != nil {
		return
	}

	// 读协程只为感知客户端断开
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	current := statusPush{TrackerID: track.ID, Status: string(track.Status)}
	if err := conn.WriteJSON(current); err != nil {
		return
	}
	if track.Status.IsTerminal() {
		return
	}

	for {
		select {
		case push := <-wch.send:
			if err := conn.WriteJSON(push); err != nil {
				return
			}
			if domain.Status(push.Status).IsTerminal() {
				return
			}
		case <-done:
			return
		}
	}
}
