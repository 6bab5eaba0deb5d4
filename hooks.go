package bloom

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type Stage int

const (
	Default Stage = iota
	InitFilter
	AddElement
	ExistsElement
	MergeFilters
	InfoFilter
	DeleteFilter
)

func (s Stage) String() string {
	return [...]string{
		"Default",
		"InitFilter",
		"AddElement",
		"ExistsElement",
		"MergeFilters",
		"InfoFilter",
		"DeleteFilter",
	}[s]
}

// Event describes one command. Err and Elapsed are only set after the command.
type Event struct {
	Stage   Stage
	Keys    []string
	Err     error
	Elapsed time.Duration
}

// Hook is notified around the commands of its stage.
type Hook interface {
	GetStage() Stage
	Before(event Event)
	After(event Event)
}

// HookFuncs adapts plain functions to Hook. Nil functions are skipped.
type HookFuncs struct {
	Stage     Stage
	OnBefore  func(event Event)
	OnSuccess func(event Event)
	OnFailure func(event Event)
}

func (h *HookFuncs) GetStage() Stage {
	return h.Stage
}

func (h *HookFuncs) Before(event Event) {
	if h.OnBefore != nil {
		h.OnBefore(event)
	}
}

func (h *HookFuncs) After(event Event) {
	fn := h.OnSuccess
	if event.Err != nil {
		fn = h.OnFailure
	}
	if fn != nil {
		fn(event)
	}
}

// Hooks keeps the hooks registered per stage. Hooks of one stage run in registration order.
type Hooks struct {
	hooks map[Stage][]Hook
	mu    *sync.RWMutex
}

func NewHooks(hooks ...Hook) *Hooks {
	hs := &Hooks{
		hooks: make(map[Stage][]Hook, len(hooks)),
		mu:    &sync.RWMutex{},
	}
	hs.Register(hooks...)
	return hs
}

func (hs *Hooks) Register(hooks ...Hook) {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	for _, h := range hooks {
		hs.hooks[h.GetStage()] = append(hs.hooks[h.GetStage()], h)
	}
}

func (hs *Hooks) Before(event Event) {
	for _, h := range hs.stageHooks(event.Stage) {
		h.Before(event)
	}
}

func (hs *Hooks) After(event Event) {
	for _, h := range hs.stageHooks(event.Stage) {
		h.After(event)
	}
}

func (hs *Hooks) stageHooks(stage Stage) []Hook {
	hs.mu.RLock()
	defer hs.mu.RUnlock()
	return hs.hooks[stage]
}

// TraceHooks returns a hook per command stage logging every finished command at the debug level.
func TraceHooks(logger logrus.FieldLogger) []Hook {
	trace := func(event Event) {
		entry := logger.WithFields(logrus.Fields{
			"stage":   event.Stage.String(),
			"keys":    event.Keys,
			"elapsed": event.Elapsed,
		})
		if event.Err != nil {
			entry = entry.WithError(event.Err)
		}
		entry.Debug("filter command finished")
	}
	hooks := make([]Hook, 0, DeleteFilter)
	for stage := InitFilter; stage <= DeleteFilter; stage++ {
		hooks = append(hooks, &HookFuncs{Stage: stage, OnSuccess: trace, OnFailure: trace})
	}
	return hooks
}

var _ Hook = &HookFuncs{}
