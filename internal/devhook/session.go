package devhook

import "sync"

type hook struct {
	name string
	fn   func()
}

// Session is a minimal build pipeline: it has a mode, a target name and an
// initialize hook that fires at most once.
type Session struct {
	mode string
	name string

	mu    sync.Mutex
	hooks []hook
	once  sync.Once
}

// NewSession returns a pipeline for the given mode and target.
func NewSession(mode, name string) *Session {
	return &Session{mode: mode, name: name}
}

func (s *Session) Mode() string { return s.mode }
func (s *Session) Name() string { return s.name }

// OnInitialize implements Compiler.
func (s *Session) OnInitialize(name string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook{name: name, fn: fn})
}

// Initialize runs the registered hooks in registration order. Later calls
// do nothing.
func (s *Session) Initialize() {
	s.once.Do(func() {
		s.mu.Lock()
		hooks := append([]hook(nil), s.hooks...)
		s.mu.Unlock()
		for _, h := range hooks {
			h.fn()
		}
	})
}
