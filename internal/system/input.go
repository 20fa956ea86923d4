package system

import (
	"time"

	coresys "github.com/scenekit/outliner/internal/core/system"
	"go.uber.org/zap"
)

// Command is an editor operation run on the editor goroutine.
type Command struct {
	Name string
	Run  func() error
}

// CommandQueue hands commands from any goroutine to the editor loop.
type CommandQueue struct {
	ch chan Command
}

func NewCommandQueue(size int) *CommandQueue {
	return &CommandQueue{ch: make(chan Command, size)}
}

// Submit queues cmd. It reports false when the queue is full.
func (q *CommandQueue) Submit(cmd Command) bool {
	select {
	case q.ch <- cmd:
		return true
	default:
		return false
	}
}

// InputSystem runs up to maxPerTick queued commands. Phase 0 (Input).
type InputSystem struct {
	queue      *CommandQueue
	maxPerTick int
	log        *zap.Logger
}

func NewInputSystem(queue *CommandQueue, maxPerTick int, log *zap.Logger) *InputSystem {
	if maxPerTick <= 0 {
		maxPerTick = 16
	}
	return &InputSystem{queue: queue, maxPerTick: maxPerTick, log: log}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	for i := 0; i < s.maxPerTick; i++ {
		select {
		case cmd := <-s.queue.ch:
			if err := cmd.Run(); err != nil {
				s.log.Warn("command failed", zap.String("command", cmd.Name), zap.Error(err))
			}
		default:
			return
		}
	}
}
