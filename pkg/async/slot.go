package async

// Slot is the single-slot handoff between a completion callback and the
// stage waiting for it. A slot is bound to one token at a time.
type Slot struct {
	token     Token
	result    Result
	filled    bool
	abandoned bool
}

func (s *Slot) arm(token Token) {
	*s = Slot{token: token}
}

func (s *Slot) fill(r Result) error {
	if s.token != r.Token || s.filled {
		return ErrStale
	}
	if s.abandoned {
		return ErrAbandoned
	}
	s.result, s.filled = r, true
	return nil
}

// Token returns the token of the command the slot waits for.
func (s *Slot) Token() Token {
	return s.token
}

// Peek returns the result without consuming it.
// ok is false while the result is still pending.
func (s *Slot) Peek() (r Result, ok bool) {
	if !s.filled || s.abandoned {
		return
	}
	return s.result, true
}

// Take consumes the result. A result can be taken only once.
func (s *Slot) Take() (r Result, ok bool) {
	if r, ok = s.Peek(); ok {
		s.abandoned = true
	}
	return
}

// Abandon releases the slot. A result arriving afterwards is discarded.
func (s *Slot) Abandon() {
	s.abandoned = true
}

// Waiting indicates the slot is armed and its result has not arrived.
func (s *Slot) Waiting() bool {
	return s.token.IsValid() && !s.filled && !s.abandoned
}
