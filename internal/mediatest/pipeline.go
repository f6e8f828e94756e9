package mediatest

import (
	"sync"
	"time"

	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/media"
)

// Pipeline is an in-memory media.Pipeline with its own Bus.
type Pipeline struct {
	*Element
	bus *Bus

	stateMu sync.Mutex
	state   media.State
	// StateErr makes SetState fail.
	StateErr error
}

// NewPipeline builds a detached pipeline (factory "playbin").
func NewPipeline(name string) *Pipeline {
	return &Pipeline{Element: newElement(nil, "playbin", name), bus: NewBus()}
}

func (p *Pipeline) Bus() (media.Bus, error) { return p.bus, nil }

// FakeBus returns the concrete bus.
func (p *Pipeline) FakeBus() *Bus { return p.bus }

func (p *Pipeline) SetState(s media.State) error {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	if p.StateErr != nil {
		return p.StateErr
	}
	p.state = s
	return nil
}

// State returns the last state set.
func (p *Pipeline) State() media.State {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	return p.state
}

// Posted is a message posted on a Bus and the sync handler's verdict.
type Posted struct {
	Message media.Message
	Reply   media.BusSyncReply
}

// Bus runs the sync handler on Post (the posting thread) and queues passed
// messages for TimedPop.
type Bus struct {
	mu       sync.Mutex
	handler  media.SyncHandler
	handlers int
	posted   []Posted
	queue    chan media.Message
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{queue: make(chan media.Message, 256)}
}

func (b *Bus) SetSyncHandler(h media.SyncHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = h
	b.handlers++
}

// HandlerInstalls counts SetSyncHandler calls.
func (b *Bus) HandlerInstalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handlers
}

// HasSyncHandler reports whether a sync handler is installed.
func (b *Bus) HasSyncHandler() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handler != nil
}

// Post delivers msg to the sync handler and queues it unless dropped.
func (b *Bus) Post(msg media.Message) media.BusSyncReply {
	b.mu.Lock()
	h := b.handler
	b.mu.Unlock()

	reply := media.BusPass
	if h != nil {
		reply = h(msg)
	}

	b.mu.Lock()
	b.posted = append(b.posted, Posted{Message: msg, Reply: reply})
	b.mu.Unlock()

	if reply == media.BusPass {
		select {
		case b.queue <- msg:
		default:
		}
	}
	return reply
}

// Posted returns every message posted so far, in order.
func (b *Bus) Posted() []Posted {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Posted(nil), b.posted...)
}

func (b *Bus) TimedPop(timeout time.Duration) (media.Message, bool) {
	select {
	case msg := <-b.queue:
		return msg, true
	default:
	}
	select {
	case msg := <-b.queue:
		return msg, true
	case <-time.After(timeout):
		return nil, false
	}
}

// Message is an in-memory media.Message.
type Message struct {
	MsgKind media.MessageKind
	Src     media.Element
	SrcName string
	CtxType string
	Text    string
	Debug   string
}

// NeedContext builds a need-context message posted by src.
func NeedContext(src media.Element, contextType string) *Message {
	return &Message{MsgKind: media.MessageNeedContext, Src: src, CtxType: contextType}
}

// ErrorMessage builds an error message posted by an element named src.
func ErrorMessage(src, text, debug string) *Message {
	return &Message{MsgKind: media.MessageError, SrcName: src, Text: text, Debug: debug}
}

// EOS builds an end-of-stream message.
func EOS() *Message { return &Message{MsgKind: media.MessageEOS, SrcName: "pipeline"} }

func (m *Message) Kind() media.MessageKind { return m.MsgKind }

func (m *Message) SourceName() string {
	if m.Src != nil {
		return m.Src.Name()
	}
	return m.SrcName
}

func (m *Message) Source() (media.Element, bool) { return m.Src, m.Src != nil }

func (m *Message) ContextType() (string, bool) {
	if m.MsgKind != media.MessageNeedContext {
		return "", false
	}
	return m.CtxType, true
}

func (m *Message) ErrorText() (string, string, bool) {
	if m.MsgKind != media.MessageError && m.MsgKind != media.MessageWarning {
		return "", "", false
	}
	return m.Text, m.Debug, true
}
