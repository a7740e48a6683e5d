// Package notify replaces blocking alerts with a queue of dismissible notices.
package notify

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

type Notice struct {
	ID        int64
	Kind      Kind
	Text      string
	CreatedAt time.Time
}

// Center never blocks a publisher. Subscribers that fall behind miss notices
// but can always read the active set with Active.
type Center struct {
	mu     sync.Mutex
	seq    int64
	active []Notice
	subs   map[int]chan Notice
	nextID int
	now    func() time.Time
	log    *logrus.Logger
}

func NewCenter(logger *logrus.Logger) *Center {
	return &Center{
		subs: make(map[int]chan Notice),
		now:  time.Now,
		log:  logger,
	}
}

func (c *Center) Push(kind Kind, text string) Notice {
	c.mu.Lock()
	c.seq++
	n := Notice{ID: c.seq, Kind: kind, Text: text, CreatedAt: c.now()}
	c.active = append(c.active, n)
	dropped := 0
	// cancel deletes a channel under mu before closing it, so a send made
	// under mu never reaches a closed channel.
	for _, ch := range c.subs {
		select {
		case ch <- n:
		default:
			dropped++
		}
	}
	c.mu.Unlock()

	c.log.Debugf("Notify: %s notice #%d: %s", kind, n.ID, text)
	if dropped > 0 {
		c.log.Warnf("Notify: %d subscriber(s) full, dropped notice #%d", dropped, n.ID)
	}
	return n
}

func (c *Center) Info(text string) Notice    { return c.Push(KindInfo, text) }
func (c *Center) Success(text string) Notice { return c.Push(KindSuccess, text) }
func (c *Center) Warning(text string) Notice { return c.Push(KindWarning, text) }
func (c *Center) Error(text string) Notice   { return c.Push(KindError, text) }

// Active returns undismissed notices, oldest first.
func (c *Center) Active() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notice, len(c.active))
	copy(out, c.active)
	return out
}

func (c *Center) Dismiss(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, n := range c.active {
		if n.ID == id {
			c.active = append(c.active[:i], c.active[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Center) DismissAll() {
	c.mu.Lock()
	c.active = nil
	c.mu.Unlock()
}

// Subscribe returns a channel receiving new notices and a cancel func that
// closes it.
func (c *Center) Subscribe(buffer int) (<-chan Notice, func()) {
	ch := make(chan Notice, buffer)
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
			close(ch)
		})
	}
}
