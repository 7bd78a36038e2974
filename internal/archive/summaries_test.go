package archive

import (
	"encoding/json"
	"testing"
	"time"
)

func TestChatSummaries_AcceptsWrappedAndBareArrays(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{"bare array", `[{"guid":"a","display_name":"Alice"},{"guid":"b"}]`, []string{"Alice", "b"}},
		{"chats key", `{"chats":[{"chat_guid":"c","chat_identifier":"+1555"}]}`, []string{"+1555"}},
		{"items key", `{"items":[{"id":"d","name":"Dad"}],"total":1}`, []string{"Dad"}},
		{"skips missing guid", `[{"display_name":"ghost"},{"guid":"e","title":"Eve"}]`, []string{"Eve"}},
		{"invalid json", `{nope`, nil},
		{"object without list", `{"chats":{"guid":"x"}}`, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ChatSummaries(json.RawMessage(tc.raw))
			if len(got) != len(tc.want) {
				t.Fatalf("got %d chats, want %d", len(got), len(tc.want))
			}
			for i, name := range tc.want {
				if got[i].Name != name {
					t.Fatalf("chat %d name = %q, want %q", i, got[i].Name, name)
				}
			}
		})
	}
}

func TestChatSummaries_ParsesActivityAndCount(t *testing.T) {
	raw := json.RawMessage(`[
		{"guid":"a","last_message_date":1714550000,"message_count":12,"last_message":"hi"},
		{"guid":"b","last_message_date":1714550000123},
		{"guid":"c","last_message_date":"2024-05-01T09:30:00Z"},
		{"guid":"d","last_message_date":null}
	]`)
	got := ChatSummaries(raw)
	if len(got) != 4 {
		t.Fatalf("got %d chats, want 4", len(got))
	}
	if !got[0].LastActivity.Equal(time.Unix(1714550000, 0)) {
		t.Fatalf("seconds timestamp = %v", got[0].LastActivity)
	}
	if got[0].MessageCount != 12 || got[0].LastMessage != "hi" {
		t.Fatalf("unexpected summary %#v", got[0])
	}
	if !got[1].LastActivity.Equal(time.UnixMilli(1714550000123)) {
		t.Fatalf("millisecond timestamp = %v", got[1].LastActivity)
	}
	want := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	if !got[2].LastActivity.Equal(want) {
		t.Fatalf("RFC3339 timestamp = %v, want %v", got[2].LastActivity, want)
	}
	if !got[3].LastActivity.IsZero() {
		t.Fatalf("null timestamp = %v, want zero", got[3].LastActivity)
	}
}

func TestMessageLines(t *testing.T) {
	raw := json.RawMessage(`{"messages":[
		{"text":"hello","sender":"+1555","is_from_me":false},
		{"body":"yo","is_from_me":true},
		{"text":"attachment only"}
	]}`)
	got := MessageLines(raw)
	if len(got) != 3 {
		t.Fatalf("got %d lines, want 3", len(got))
	}
	if got[0].Sender != "+1555" || got[0].Text != "hello" || got[0].FromMe {
		t.Fatalf("line 0 = %#v", got[0])
	}
	if got[1].Sender != "Me" || got[1].Text != "yo" || !got[1].FromMe {
		t.Fatalf("line 1 = %#v", got[1])
	}
	if got[2].Sender != "" {
		t.Fatalf("line 2 sender = %q, want empty", got[2].Sender)
	}
}

func TestOnboardingSummary(t *testing.T) {
	cases := []struct {
		raw  string
		want OnboardingState
	}{
		{`{"completed":true,"full_disk_access":true}`, OnboardingState{Complete: true, FullDiskAccess: true, Known: true}},
		{`{"complete":false}`, OnboardingState{Known: true}},
		{`{"permissions":{"full_disk_access":true}}`, OnboardingState{FullDiskAccess: true, Known: true}},
		{`{"step":2}`, OnboardingState{}},
		{`garbage`, OnboardingState{}},
	}
	for _, tc := range cases {
		if got := OnboardingSummary(json.RawMessage(tc.raw)); got != tc.want {
			t.Fatalf("OnboardingSummary(%s) = %#v, want %#v", tc.raw, got, tc.want)
		}
	}
}

func TestStatusFieldsKeepsScalarsInOrder(t *testing.T) {
	raw := json.RawMessage(`{"status":"ok","db":{"path":"x"},"chats":42,"ready":true,"tags":[1]}`)
	got := StatusFields(raw)
	want := [][2]string{{"status", "ok"}, {"chats", "42"}, {"ready", "true"}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("field %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDescribe(t *testing.T) {
	cases := map[string]string{
		`{"message":"archived 12 messages"}`: "archived 12 messages",
		`{"status":"queued","path":"/x"}`:    "queued",
		`{"output_path":"/tmp/a.html"}`:      "/tmp/a.html",
		`{"count":3}`:                        `{"count":3}`,
		`oops`:                               "",
	}
	for raw, want := range cases {
		if got := Describe(json.RawMessage(raw)); got != want {
			t.Fatalf("Describe(%s) = %q, want %q", raw, got, want)
		}
	}
}
