package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/five82/archiver/internal/logging"
)

// Backend is the subset of the archive client the invoke channels proxy to.
type Backend interface {
	RecentChats(ctx context.Context, search string) (json.RawMessage, error)
	Messages(ctx context.Context, chatGUID string) (json.RawMessage, error)
	ArchiveChat(ctx context.Context, chatGUID, format string) (json.RawMessage, error)
}

// DefaultArchiveFormat is used when archive-chat is invoked without a format.
const DefaultArchiveFormat = "html"

// RegisterBackend wires the three invoke channels to backend. Each invocation makes exactly
// one backend call; failures are returned as *ProxyError.
func RegisterBackend(b *Bridge, backend Backend) error {
	if backend == nil {
		return fmt.Errorf("register backend: nil backend")
	}

	handlers := map[string]Handler{
		ChannelGetMessages: func(ctx context.Context, args Args) (json.RawMessage, error) {
			guid, err := args.String(0)
			if err != nil {
				return nil, err
			}
			return proxy(ChannelGetMessages)(backend.Messages(ctx, guid))
		},
		ChannelGetChats: func(ctx context.Context, args Args) (json.RawMessage, error) {
			search, err := args.OptionalString(0)
			if err != nil {
				return nil, err
			}
			return proxy(ChannelGetChats)(backend.RecentChats(ctx, search))
		},
		ChannelArchiveChat: func(ctx context.Context, args Args) (json.RawMessage, error) {
			guid, err := args.String(0)
			if err != nil {
				return nil, err
			}
			format, err := args.OptionalString(1)
			if err != nil {
				return nil, err
			}
			if format == "" {
				format = DefaultArchiveFormat
			}
			return proxy(ChannelArchiveChat)(backend.ArchiveChat(ctx, guid, format))
		},
	}

	for _, channel := range InvokeChannels() {
		if err := b.Handle(channel, handlers[channel]); err != nil {
			return err
		}
	}
	logging.Info("[IPC] Handlers registered")
	return nil
}

func proxy(channel string) func(json.RawMessage, error) (json.RawMessage, error) {
	return func(raw json.RawMessage, err error) (json.RawMessage, error) {
		if err != nil {
			return nil, &ProxyError{Channel: channel, Err: err}
		}
		return raw, nil
	}
}
