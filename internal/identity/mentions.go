package identity

import "context"

// MentionFilter decides whether the bot appears in a group message's
// mention list.
type MentionFilter struct {
	resolver *Resolver
}

// NewMentionFilter creates a MentionFilter on top of a Resolver.
func NewMentionFilter(resolver *Resolver) *MentionFilter {
	return &MentionFilter{resolver: resolver}
}

// IsMentioned resolves botAddr once, then walks the mention list in
// order, returning true on the first canonical match. An empty mention
// list returns false without any resolution.
func (f *MentionFilter) IsMentioned(ctx context.Context, mentions []string, botAddr string) bool {
	if len(mentions) == 0 {
		return false
	}

	bot := Canonical(f.resolver.Resolve(ctx, botAddr))
	if bot == "" {
		return false
	}
	for _, m := range mentions {
		if Canonical(f.resolver.Resolve(ctx, m)) == bot {
			return true
		}
	}
	return false
}
