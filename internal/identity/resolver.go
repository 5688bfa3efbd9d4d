// Package identity normalizes platform addressing. WhatsApp-style
// addresses come in three forms:
//
//	<digits>[:device]@s.whatsapp.net   canonical user (phone number)
//	<digits>@lid                       linked identity, resolvable via directory
//	<digits>@g.us                      group chat
//
// Mention equality compares canonical phone digits, so a device-suffixed
// address and its plain form are equal, and a linked identity is equal to
// the phone it maps to (when the directory knows the mapping).
package identity

import (
	"context"
	"log/slog"
	"strings"

	"github.com/namvu/quizbridge/internal/store"
)

// Address suffix constants.
const (
	SuffixUser  = "@s.whatsapp.net"
	SuffixLID   = "@lid"
	SuffixGroup = "@g.us"
)

// IsGroup reports whether an address names a group chat.
func IsGroup(addr string) bool { return strings.HasSuffix(addr, SuffixGroup) }

// IsLinked reports whether an address is in linked-identity form.
func IsLinked(addr string) bool { return strings.HasSuffix(addr, SuffixLID) }

// Resolver resolves addresses to their canonical phone form.
type Resolver struct {
	dir store.Directory
}

// NewResolver creates a Resolver. dir may be nil, in which case linked
// identities are never resolved and pass through unchanged.
func NewResolver(dir store.Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve maps a linked-identity address to its canonical phone address.
// A missing mapping (or a lookup error) is a silent degradation: the
// original address is returned unmodified, never an error.
func (r *Resolver) Resolve(ctx context.Context, addr string) string {
	if !IsLinked(addr) || r.dir == nil {
		return addr
	}

	lid := user(addr)
	phone, err := r.dir.LookupPhone(ctx, lid)
	if err != nil || phone == "" {
		if err != nil && err != store.ErrNotFound {
			slog.Debug("lid lookup failed, using raw address", "lid", lid, "error", err)
		}
		return addr
	}
	return phone + SuffixUser
}

// Canonical reduces an address to its comparison form: the part before
// "@", minus any ":device" segment, digits only.
func Canonical(addr string) string {
	u := user(addr)

	var b strings.Builder
	for _, r := range u {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Equals resolves both addresses and compares their canonical forms.
func (r *Resolver) Equals(ctx context.Context, a, b string) bool {
	return Canonical(r.Resolve(ctx, a)) == Canonical(r.Resolve(ctx, b))
}

// user returns the address part before "@" with any ":device" suffix removed.
func user(addr string) string {
	u := addr
	if idx := strings.IndexByte(u, '@'); idx >= 0 {
		u = u[:idx]
	}
	if idx := strings.IndexByte(u, ':'); idx >= 0 {
		u = u[:idx]
	}
	return u
}
