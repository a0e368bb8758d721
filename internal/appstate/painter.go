package appstate

import (
	"context"
	"sync"
)

// painter renders frames on its own goroutine. Only the newest pending frame
// is kept, and a frame still drawing is cancelled when a newer one arrives
// unless frameDropThreshold frames in a row have already been dropped.
type painter struct {
	frames chan paintState
	done   chan struct{}

	mu      sync.Mutex
	cancel  context.CancelFunc
	dropped int
}

func startPainter(draw func(context.Context, paintState)) *painter {
	p := &painter{
		frames: make(chan paintState, 1),
		done:   make(chan struct{}),
	}
	go func() {
		defer close(p.done)
		for st := range p.frames {
			ctx, cancel := context.WithCancel(context.Background())
			p.mu.Lock()
			p.cancel = cancel
			p.mu.Unlock()
			draw(ctx, st)
			p.mu.Lock()
			p.cancel = nil
			if ctx.Err() == nil {
				p.dropped = 0
			}
			p.mu.Unlock()
			cancel()
		}
	}()
	return p
}

// queue replaces any pending frame with st. It must not be called after stop.
func (p *painter) queue(st paintState) {
	p.mu.Lock()
	if p.cancel != nil && p.dropped < frameDropThreshold {
		p.cancel()
		p.dropped++
	}
	p.mu.Unlock()
	select {
	case p.frames <- st:
	default:
		select {
		case <-p.frames:
		default:
		}
		p.frames <- st
	}
}

// interrupt cancels the frame being drawn, if any.
func (p *painter) interrupt() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.mu.Unlock()
}

// stop cancels the current frame, discards pending ones and returns once the
// paint goroutine has exited. The window can be released after it returns.
func (p *painter) stop() {
	p.interrupt()
	select {
	case <-p.frames:
	default:
	}
	close(p.frames)
	<-p.done
}
