package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/five82/archiver/internal/logging"
	"github.com/five82/archiver/internal/telemetry"
)

// Invoke channels (request/response, UI to main).
const (
	ChannelGetMessages = "get-messages"
	ChannelGetChats    = "get-chats"
	ChannelArchiveChat = "archive-chat"
)

// Event channels.
const (
	ChannelToMain         = "toMain"          // UI to main
	ChannelFromMain       = "fromMain"        // main to UI
	ChannelSplashProgress = "splash-progress" // main to UI
)

var (
	invokeChannels = map[string]bool{
		ChannelGetMessages: true,
		ChannelGetChats:    true,
		ChannelArchiveChat: true,
	}
	sendChannels = map[string]bool{
		ChannelToMain: true,
	}
	eventChannels = map[string]bool{
		ChannelFromMain:       true,
		ChannelSplashProgress: true,
	}
)

var (
	// ErrChannelNotAllowed is returned for any channel outside the allow-lists.
	ErrChannelNotAllowed = errors.New("channel not allowed")
	// ErrNoHandler is returned when invoking an allowed channel nobody registered.
	ErrNoHandler = errors.New("no handler registered")
	// ErrInvalidArgs is returned when invocation arguments do not fit the channel.
	ErrInvalidArgs = errors.New("invalid arguments")
)

// ProxyError wraps a failure of the backend call behind an invoke channel.
type ProxyError struct {
	Channel string
	Err     error
}

func (e *ProxyError) Error() string {
	return fmt.Sprintf("ipc %s: %v", e.Channel, e.Err)
}

func (e *ProxyError) Unwrap() error { return e.Err }

// Handler serves one invoke channel.
type Handler func(ctx context.Context, args Args) (json.RawMessage, error)

// Event is one message delivered to a subscriber.
type Event struct {
	Channel string          `json:"channel"`
	Payload json.RawMessage `json:"payload"`
}

const subscriberBuffer = 32

// Bridge routes invocations and events between the UI and the launcher. The zero value is
// not usable; call New.
type Bridge struct {
	mu        sync.Mutex
	handlers  map[string]Handler
	listeners map[string][]func(json.RawMessage)
	subs      map[string]map[int]chan Event
	nextSub   int
}

// New returns an empty bridge.
func New() *Bridge {
	return &Bridge{
		handlers:  make(map[string]Handler),
		listeners: make(map[string][]func(json.RawMessage)),
		subs:      make(map[string]map[int]chan Event),
	}
}

// InvokeChannels lists the allowed invoke channels in sorted order.
func InvokeChannels() []string { return sortedKeys(invokeChannels) }

// EventChannels lists the allowed main-to-UI event channels in sorted order.
func EventChannels() []string { return sortedKeys(eventChannels) }

// IsInvokeChannel reports whether channel may be invoked.
func IsInvokeChannel(channel string) bool { return invokeChannels[channel] }

// Handle registers h for an invoke channel. Unknown channels, nil handlers and duplicate
// registrations are rejected.
func (b *Bridge) Handle(channel string, h Handler) error {
	if !invokeChannels[channel] {
		return fmt.Errorf("handle %q: %w", channel, ErrChannelNotAllowed)
	}
	if h == nil {
		return fmt.Errorf("handle %q: nil handler", channel)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.handlers[channel]; exists {
		return fmt.Errorf("handle %q: already registered", channel)
	}
	b.handlers[channel] = h
	return nil
}

// Invoke calls the handler for channel. Each arg is JSON-encoded unless it already is a
// json.RawMessage.
func (b *Bridge) Invoke(ctx context.Context, channel string, args ...any) (json.RawMessage, error) {
	encoded := make(Args, 0, len(args))
	for i, arg := range args {
		if raw, ok := arg.(json.RawMessage); ok {
			encoded = append(encoded, raw)
			continue
		}
		data, err := json.Marshal(arg)
		if err != nil {
			return nil, fmt.Errorf("encode argument %d: %w", i, err)
		}
		encoded = append(encoded, data)
	}
	return b.InvokeRaw(ctx, channel, encoded)
}

// InvokeRaw calls the handler for channel with pre-encoded arguments.
func (b *Bridge) InvokeRaw(ctx context.Context, channel string, args Args) (result json.RawMessage, err error) {
	if !invokeChannels[channel] {
		return nil, fmt.Errorf("invoke %q: %w", channel, ErrChannelNotAllowed)
	}
	b.mu.Lock()
	h := b.handlers[channel]
	b.mu.Unlock()
	if h == nil {
		return nil, fmt.Errorf("invoke %q: %w", channel, ErrNoHandler)
	}

	ctx, span := telemetry.StartSpan(ctx, "ipc.invoke",
		attribute.String("ipc.channel", channel),
		attribute.Int("ipc.args", len(args)),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	result, err = h(ctx, args)
	if err != nil {
		logging.Error("[IPC] %s failed: %v", channel, err)
		return nil, err
	}
	return result, nil
}

// Emit publishes payload on a main-to-UI event channel. Subscribers with full buffers miss
// the event.
func (b *Bridge) Emit(channel string, payload any) error {
	if !eventChannels[channel] {
		return fmt.Errorf("emit %q: %w", channel, ErrChannelNotAllowed)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("emit %q: encode payload: %w", channel, err)
	}
	ev := Event{Channel: channel, Payload: data}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[channel] {
		select {
		case ch <- ev:
		default:
			logging.Debug("[IPC] dropped %s event for slow subscriber", channel)
		}
	}
	return nil
}

// Subscribe returns a buffered stream of events on channel and a function that cancels the
// subscription and closes the stream.
func (b *Bridge) Subscribe(channel string) (<-chan Event, func(), error) {
	if !eventChannels[channel] {
		return nil, nil, fmt.Errorf("subscribe %q: %w", channel, ErrChannelNotAllowed)
	}
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[int]chan Event)
	}
	b.subs[channel][id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[channel], id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel, nil
}

// Send delivers payload from the UI on a UI-to-main channel. Payloads on channels outside
// the allow-list are rejected without reaching any listener.
func (b *Bridge) Send(channel string, payload any) error {
	if !sendChannels[channel] {
		return fmt.Errorf("send %q: %w", channel, ErrChannelNotAllowed)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("send %q: encode payload: %w", channel, err)
	}

	b.mu.Lock()
	listeners := append([]func(json.RawMessage){}, b.listeners[channel]...)
	b.mu.Unlock()

	for _, fn := range listeners {
		fn(data)
	}
	return nil
}

// OnMessage registers fn for payloads sent on a UI-to-main channel.
func (b *Bridge) OnMessage(channel string, fn func(json.RawMessage)) error {
	if !sendChannels[channel] {
		return fmt.Errorf("listen %q: %w", channel, ErrChannelNotAllowed)
	}
	if fn == nil {
		return fmt.Errorf("listen %q: nil listener", channel)
	}
	b.mu.Lock()
	b.listeners[channel] = append(b.listeners[channel], fn)
	b.mu.Unlock()
	return nil
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
