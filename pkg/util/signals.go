package util

import "sync"

// SignalHandler 信号回调
type SignalHandler func(sender any, params ...any)

// Signals is a tiny in-process pub/sub hub used to decouple side effects
// (notifications, stream fan-out) from the code that raises them.
type Signals struct {
	mu       sync.RWMutex
	handlers map[string][]SignalHandler
}

var sig = &Signals{handlers: make(map[string][]SignalHandler)}

// Sig returns the process-wide signal hub.
func Sig() *Signals { return sig }

func (s *Signals) Connect(name string, h SignalHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[name] = append(s.handlers[name], h)
}

func (s *Signals) Emit(name string, sender any, params ...any) {
	s.mu.RLock()
	hs := make([]SignalHandler, len(s.handlers[name]))
	copy(hs, s.handlers[name])
	s.mu.RUnlock()
	for _, h := range hs {
		h(sender, params...)
	}
}
