package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/namvu/quizbridge/internal/store"
)

type stubDirectory struct {
	mapping map[string]string
	err     error
	lookups int
}

func (d *stubDirectory) LookupPhone(_ context.Context, lid string) (string, error) {
	d.lookups++
	if d.err != nil {
		return "", d.err
	}
	phone, ok := d.mapping[lid]
	if !ok {
		return "", store.ErrNotFound
	}
	return phone, nil
}

func (d *stubDirectory) Upsert(_ context.Context, _, _ string) error { return nil }

func TestCanonical(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"15551234567@s.whatsapp.net", "15551234567"},
		{"15551234567:12@s.whatsapp.net", "15551234567"},
		{"15551234567", "15551234567"},
		{"12345@lid", "12345"},
		{"abc123def@s.whatsapp.net", "123"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Canonical(tt.addr); got != tt.want {
			t.Errorf("Canonical(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}

func TestResolve(t *testing.T) {
	t.Run("linked identity resolves through directory", func(t *testing.T) {
		dir := &stubDirectory{mapping: map[string]string{"99887": "15551234567"}}
		r := NewResolver(dir)

		got := r.Resolve(context.Background(), "99887@lid")
		if got != "15551234567@s.whatsapp.net" {
			t.Errorf("Resolve = %q", got)
		}
	})

	t.Run("unknown mapping falls back silently", func(t *testing.T) {
		r := NewResolver(&stubDirectory{mapping: map[string]string{}})

		got := r.Resolve(context.Background(), "99887@lid")
		if got != "99887@lid" {
			t.Errorf("Resolve = %q, want original address", got)
		}
	})

	t.Run("lookup error falls back silently", func(t *testing.T) {
		r := NewResolver(&stubDirectory{err: errors.New("db locked")})

		got := r.Resolve(context.Background(), "99887@lid")
		if got != "99887@lid" {
			t.Errorf("Resolve = %q, want original address", got)
		}
	})

	t.Run("non-linked addresses skip the directory", func(t *testing.T) {
		dir := &stubDirectory{mapping: map[string]string{}}
		r := NewResolver(dir)

		r.Resolve(context.Background(), "15551234567@s.whatsapp.net")
		if dir.lookups != 0 {
			t.Errorf("directory consulted %d times for a canonical address", dir.lookups)
		}
	})

	t.Run("nil directory passes through", func(t *testing.T) {
		r := NewResolver(nil)
		if got := r.Resolve(context.Background(), "99887@lid"); got != "99887@lid" {
			t.Errorf("Resolve = %q", got)
		}
	})
}

func TestEquals(t *testing.T) {
	dir := &stubDirectory{mapping: map[string]string{"99887": "15551234567"}}
	r := NewResolver(dir)
	ctx := context.Background()

	t.Run("device suffix equals plain form", func(t *testing.T) {
		if !r.Equals(ctx, "15551234567:12@s.whatsapp.net", "15551234567@s.whatsapp.net") {
			t.Error("device-suffixed address not equal to plain form")
		}
	})

	t.Run("linked identity equals mapped phone", func(t *testing.T) {
		if !r.Equals(ctx, "99887@lid", "15551234567@s.whatsapp.net") {
			t.Error("linked identity not equal to mapped phone")
		}
	})

	t.Run("different numbers are not equal", func(t *testing.T) {
		if r.Equals(ctx, "15551234567@s.whatsapp.net", "15559999999@s.whatsapp.net") {
			t.Error("distinct numbers compared equal")
		}
	})
}

func TestIsGroup(t *testing.T) {
	if !IsGroup("1234-5678@g.us") {
		t.Error("group address not detected")
	}
	if IsGroup("15551234567@s.whatsapp.net") {
		t.Error("user address detected as group")
	}
}
