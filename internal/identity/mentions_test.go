package identity

import (
	"context"
	"testing"
)

func TestIsMentioned(t *testing.T) {
	dir := &stubDirectory{mapping: map[string]string{"99887": "15551234567"}}
	filter := NewMentionFilter(NewResolver(dir))
	ctx := context.Background()
	bot := "15551234567@s.whatsapp.net"

	t.Run("empty mention list short-circuits", func(t *testing.T) {
		before := dir.lookups
		if filter.IsMentioned(ctx, nil, bot) {
			t.Error("mentioned with empty list")
		}
		if dir.lookups != before {
			t.Error("resolution performed for empty mention list")
		}
	})

	t.Run("direct mention", func(t *testing.T) {
		mentions := []string{"15550000001@s.whatsapp.net", bot}
		if !filter.IsMentioned(ctx, mentions, bot) {
			t.Error("direct mention not detected")
		}
	})

	t.Run("device-suffixed mention", func(t *testing.T) {
		mentions := []string{"15551234567:31@s.whatsapp.net"}
		if !filter.IsMentioned(ctx, mentions, bot) {
			t.Error("device-suffixed mention not detected")
		}
	})

	t.Run("linked-identity mention", func(t *testing.T) {
		mentions := []string{"99887@lid"}
		if !filter.IsMentioned(ctx, mentions, bot) {
			t.Error("linked-identity mention not detected")
		}
	})

	t.Run("unresolvable linked identity is a false negative", func(t *testing.T) {
		mentions := []string{"55555@lid"}
		if filter.IsMentioned(ctx, mentions, bot) {
			t.Error("unknown linked identity matched the bot")
		}
	})

	t.Run("unknown bot address never matches", func(t *testing.T) {
		if filter.IsMentioned(ctx, []string{"@lid"}, "") {
			t.Error("empty bot address matched a mention")
		}
	})

	t.Run("no match", func(t *testing.T) {
		mentions := []string{"15550000001@s.whatsapp.net", "15550000002@s.whatsapp.net"}
		if filter.IsMentioned(ctx, mentions, bot) {
			t.Error("unrelated mentions matched the bot")
		}
	})
}
