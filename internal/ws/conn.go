package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// sender adapts a gorilla connection to the registry's Sender. Writes are
// serialized: fan-out pushes and read-loop replies come from different
// goroutines.
type sender struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func newSender(conn *websocket.Conn) *sender {
	return &sender{conn: conn}
}

func (s *sender) Push(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

func (s *sender) Close() error {
	return s.conn.Close()
}
