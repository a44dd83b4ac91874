package main

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// postMsg carries a loop callback into the bubbletea program, whose Update
// is the presentation loop in terminal mode.
type postMsg struct {
	fn func()
}

// programSender is the part of *tea.Program the poster uses.
type programSender interface {
	Send(msg tea.Msg)
}

// programPoster forwards posts to a program. Posts made before Attach are
// held and delivered in order when the program is attached.
type programPoster struct {
	mutex   sync.Mutex
	program programSender
	pending []func()
}

func (poster *programPoster) Post(fn func()) {
	if fn == nil {
		return
	}
	poster.mutex.Lock()
	program := poster.program
	if program == nil {
		poster.pending = append(poster.pending, fn)
		poster.mutex.Unlock()
		return
	}
	poster.mutex.Unlock()
	program.Send(postMsg{fn: fn})
}

// Attach delivers held posts to program and forwards later ones directly.
// Send blocks until the program runs, so Attach is usually called on its
// own goroutine.
func (poster *programPoster) Attach(program programSender) {
	poster.mutex.Lock()
	pending := poster.pending
	poster.pending = nil
	poster.program = program
	poster.mutex.Unlock()
	for _, fn := range pending {
		program.Send(postMsg{fn: fn})
	}
}
