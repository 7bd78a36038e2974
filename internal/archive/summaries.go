package archive

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// The backend payloads are passed through untouched. These helpers pull out the handful of
// fields the terminal UI displays and tolerate any of them being absent.

// ChatSummary is the display subset of one chat.
type ChatSummary struct {
	GUID         string
	Name         string
	LastMessage  string
	LastActivity time.Time
	MessageCount int64
}

// MessageLine is the display subset of one message.
type MessageLine struct {
	Sender string
	Text   string
	FromMe bool
	Sent   time.Time
}

// OnboardingState is the display subset of GET /onboarding/status.
type OnboardingState struct {
	Complete       bool
	FullDiskAccess bool
	Known          bool
}

// ChatSummaries extracts chats from a list payload, accepting a bare array or an object
// holding the array under "chats", "items" or "data".
func ChatSummaries(raw json.RawMessage) []ChatSummary {
	list := listOf(raw, "chats", "items", "data")
	out := make([]ChatSummary, 0, len(list))
	for _, item := range list {
		guid := first(item, "guid", "chat_guid", "id").String()
		if guid == "" {
			continue
		}
		name := first(item, "display_name", "name", "chat_identifier", "title").String()
		if name == "" {
			name = guid
		}
		out = append(out, ChatSummary{
			GUID:         guid,
			Name:         name,
			LastMessage:  first(item, "last_message", "last_message_text", "snippet").String(),
			LastActivity: parseWhen(first(item, "last_message_date", "last_activity", "updated_at")),
			MessageCount: first(item, "message_count", "count").Int(),
		})
	}
	return out
}

// MessageLines extracts messages from a messages payload.
func MessageLines(raw json.RawMessage) []MessageLine {
	list := listOf(raw, "messages", "items", "data")
	out := make([]MessageLine, 0, len(list))
	for _, item := range list {
		fromMe := first(item, "is_from_me", "from_me").Bool()
		sender := first(item, "sender", "handle", "from").String()
		if fromMe && sender == "" {
			sender = "Me"
		}
		out = append(out, MessageLine{
			Sender: sender,
			Text:   first(item, "text", "body", "content").String(),
			FromMe: fromMe,
			Sent:   parseWhen(first(item, "date", "timestamp", "sent_at")),
		})
	}
	return out
}

// OnboardingSummary extracts onboarding progress. Known is false when the payload carries none
// of the recognised fields.
func OnboardingSummary(raw json.RawMessage) OnboardingState {
	if !gjson.ValidBytes(raw) {
		return OnboardingState{}
	}
	doc := gjson.ParseBytes(raw)
	complete := first(doc, "completed", "complete", "onboarding_complete", "is_complete")
	access := first(doc, "full_disk_access", "has_full_disk_access", "permissions.full_disk_access")
	return OnboardingState{
		Complete:       complete.Bool(),
		FullDiskAccess: access.Bool(),
		Known:          complete.Exists() || access.Exists(),
	}
}

// StatusFields flattens the top-level scalar fields of a status payload for display, in
// document order.
func StatusFields(raw json.RawMessage) [][2]string {
	if !gjson.ValidBytes(raw) {
		return nil
	}
	var out [][2]string
	gjson.ParseBytes(raw).ForEach(func(key, value gjson.Result) bool {
		if value.IsObject() || value.IsArray() {
			return true
		}
		out = append(out, [2]string{key.String(), value.String()})
		return true
	})
	return out
}

// Describe returns a short human summary of an archive response.
func Describe(raw json.RawMessage) string {
	if !gjson.ValidBytes(raw) {
		return ""
	}
	doc := gjson.ParseBytes(raw)
	for _, path := range []string{"message", "status", "detail", "output_path", "path"} {
		if v := doc.Get(path); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return strings.TrimSpace(doc.Raw)
}

func listOf(raw json.RawMessage, keys ...string) []gjson.Result {
	if !gjson.ValidBytes(raw) {
		return nil
	}
	doc := gjson.ParseBytes(raw)
	if doc.IsArray() {
		return doc.Array()
	}
	for _, key := range keys {
		if v := doc.Get(key); v.IsArray() {
			return v.Array()
		}
	}
	return nil
}

func first(doc gjson.Result, paths ...string) gjson.Result {
	for _, path := range paths {
		if v := doc.Get(path); v.Exists() && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}

func parseWhen(v gjson.Result) time.Time {
	switch v.Type {
	case gjson.Number:
		secs := v.Int()
		if secs <= 0 {
			return time.Time{}
		}
		// Some backends report milliseconds.
		if secs > 1e12 {
			return time.UnixMilli(secs)
		}
		return time.Unix(secs, 0)
	case gjson.String:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
			if t, err := time.ParseInLocation(layout, v.String(), time.Local); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
