package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

type Notice struct {
	ID      uuid.UUID
	Level   NoticeLevel
	Message string
}

// Notifier holds the transient toast-style notices. Each notice dismisses
// itself after the ttl; the timer is stopped when the notice is dismissed
// early or the notifier shuts down, so a discarded notice cannot reappear.
type Notifier struct {
	ttl    time.Duration
	logger *logrus.Logger

	mu      sync.Mutex
	notices []Notice
	timers  map[uuid.UUID]*time.Timer
}

func NewNotifier(ttl time.Duration, logger *logrus.Logger) *Notifier {
	return &Notifier{
		ttl:    ttl,
		logger: logger,
		timers: make(map[uuid.UUID]*time.Timer),
	}
}

func (n *Notifier) Success(message string) {
	n.push(NoticeSuccess, message)
}

func (n *Notifier) Error(message string) {
	n.push(NoticeError, message)
}

func (n *Notifier) push(level NoticeLevel, message string) {
	notice := Notice{
		ID:      uuid.New(),
		Level:   level,
		Message: message,
	}

	n.mu.Lock()
	n.notices = append(n.notices, notice)
	n.timers[notice.ID] = time.AfterFunc(n.ttl, func() {
		n.Dismiss(notice.ID)
	})
	n.mu.Unlock()

	if level == NoticeError {
		n.logger.Warn(message)
	} else {
		n.logger.Info(message)
	}
}

func (n *Notifier) Active() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]Notice(nil), n.notices...)
}

func (n *Notifier) Dismiss(id uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if timer, ok := n.timers[id]; ok {
		timer.Stop()
		delete(n.timers, id)
	}
	for i, notice := range n.notices {
		if notice.ID == id {
			n.notices = append(n.notices[:i], n.notices[i+1:]...)
			break
		}
	}
}

func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for id, timer := range n.timers {
		timer.Stop()
		delete(n.timers, id)
	}
	n.notices = nil
}
