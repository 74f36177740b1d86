// Package dialpad holds the code entry state of the private-room join screen.
package dialpad

import (
	"errors"
	"strings"
	"sync"
)

const (
	MaxLength = 8
	MinSubmit = 4
	Keys      = "0123456789*#"

	// RejectedMessage is shown after a code that matched no room.
	RejectedMessage = "Invalid or expired room code"
)

var (
	ErrInvalidKey = errors.New("invalid dial pad key")
	ErrTooShort   = errors.New("room code too short")
)

// State is the dial pad as rendered.
type State struct {
	Code      string `json:"code"`
	Error     string `json:"error,omitempty"`
	CanSubmit bool   `json:"canSubmit"`
}

// Pad accumulates pressed keys.
type Pad struct {
	mu   sync.Mutex
	code string
	err  string
}

// New returns an empty pad.
func New() *Pad {
	return &Pad{}
}

// Press appends key. Keys beyond MaxLength are ignored. Pressing clears any
// previous rejection message.
func (p *Pad) Press(key string) (State, error) {
	if len(key) != 1 || !strings.Contains(Keys, key) {
		return p.State(), ErrInvalidKey
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.code) < MaxLength {
		p.code += key
		p.err = ""
	}
	return p.stateLocked(), nil
}

// Delete removes the last key.
func (p *Pad) Delete() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n := len(p.code); n > 0 {
		p.code = p.code[:n-1]
	}
	return p.stateLocked()
}

// Clear resets the code and the rejection message.
func (p *Pad) Clear() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.code = ""
	p.err = ""
	return p.stateLocked()
}

// Submit hands the code to join. The code is cleared either way; a rejected
// code also sets RejectedMessage.
func (p *Pad) Submit(join func(code string) error) (State, error) {
	p.mu.Lock()
	code := p.code
	if len(code) < MinSubmit {
		state := p.stateLocked()
		p.mu.Unlock()
		return state, ErrTooShort
	}
	p.mu.Unlock()

	err := join(code)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.code = ""
	if err != nil {
		p.err = RejectedMessage
	} else {
		p.err = ""
	}
	return p.stateLocked(), err
}

// State returns the current pad state.
func (p *Pad) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

func (p *Pad) stateLocked() State {
	return State{Code: p.code, Error: p.err, CanSubmit: len(p.code) >= MinSubmit}
}
