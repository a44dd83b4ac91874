package main

import (
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

type recordingSender struct {
	mutex    sync.Mutex
	messages []tea.Msg
}

func (s *recordingSender) Send(msg tea.Msg) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.messages = append(s.messages, msg)
}

func (s *recordingSender) run() {
	s.mutex.Lock()
	messages := s.messages
	s.messages = nil
	s.mutex.Unlock()
	for _, msg := range messages {
		msg.(postMsg).fn()
	}
}

func TestProgramPosterHoldsPostsUntilAttached(t *testing.T) {
	poster := &programPoster{}
	var order []int
	poster.Post(func() { order = append(order, 1) })
	poster.Post(func() { order = append(order, 2) })
	poster.Post(nil)

	sender := &recordingSender{}
	poster.Attach(sender)
	poster.Post(func() { order = append(order, 3) })
	sender.run()

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("expected posts in order, got %v", order)
	}
}
