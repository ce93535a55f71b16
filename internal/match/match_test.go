package match

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Alexsuad/WeddingRSVP-sub000/internal/store"
)

func seedMatchStore(t *testing.T) *store.BBoltStore {
	t.Helper()
	s, err := store.NewBBoltStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	err = s.Seed(map[string]store.GuestRecord{
		"GC-1": {
			FullName: "José Pérez García",
			Email:    "jose@example.com",
			Phone:    "+34 600 111 222",
		},
		"GC-2": {
			FullName: "Maria Popescu",
			Email:    "maria@example.ro",
			Phone:    "+40 721 999 222",
		},
	})
	if err != nil {
		t.Fatalf("failed to seed: %v", err)
	}
	return s
}

func TestFindGuestForMagic_Match(t *testing.T) {
	s := seedMatchStore(t)

	g, err := FindGuestForMagic(context.Background(), s, "José Pérez García", "1222", "jose@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g == nil || g.GuestCode != "GC-1" {
		t.Fatalf("expected GC-1, got %+v", g)
	}
}

func TestFindGuestForMagic_EmailDisambiguatesSameSuffix(t *testing.T) {
	s := seedMatchStore(t)

	// Both guests' phones end in 9222 vs 1222; craft the shared-suffix case
	// via GC-2's digits.
	g, err := FindGuestForMagic(context.Background(), s, "Maria Popescu", "9222", "MARIA@example.ro")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g == nil || g.GuestCode != "GC-2" {
		t.Fatalf("expected GC-2, got %+v", g)
	}
}

func TestFindGuestForMagic_NameDivergenceStillMatches(t *testing.T) {
	s := seedMatchStore(t)

	// Phone suffix and email are authoritative; a typo'd name is logged but
	// does not reject.
	g, err := FindGuestForMagic(context.Background(), s, "Joseph Peres", "1222", "jose@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g == nil || g.GuestCode != "GC-1" {
		t.Fatalf("expected GC-1 despite name typo, got %+v", g)
	}
}

func TestFindGuestForMagic_AccentInsensitiveName(t *testing.T) {
	s := seedMatchStore(t)

	g, err := FindGuestForMagic(context.Background(), s, "jose perez garcia", "1222", "jose@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g == nil || g.GuestCode != "GC-1" {
		t.Fatalf("expected accent-insensitive match, got %+v", g)
	}
}

func TestFindGuestForMagic_WrongEmail(t *testing.T) {
	s := seedMatchStore(t)

	g, err := FindGuestForMagic(context.Background(), s, "José Pérez García", "1222", "other@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g != nil {
		t.Fatal("email mismatch must not match")
	}
}

func TestFindGuestForMagic_WrongSuffix(t *testing.T) {
	s := seedMatchStore(t)

	g, err := FindGuestForMagic(context.Background(), s, "José Pérez García", "0000", "jose@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g != nil {
		t.Fatal("phone suffix mismatch must not match")
	}
}

func TestFindGuestForMagic_InvalidSuffix(t *testing.T) {
	s := seedMatchStore(t)

	for _, last4 := range []string{"", "12", "abcd"} {
		g, err := FindGuestForMagic(context.Background(), s, "José Pérez García", last4, "jose@example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if g != nil {
			t.Fatalf("suffix %q must not match", last4)
		}
	}
}

func TestFindGuestForMagic_FormattedSuffix(t *testing.T) {
	s := seedMatchStore(t)

	// Formatting characters in the supplied suffix are ignored.
	g, err := FindGuestForMagic(context.Background(), s, "José Pérez García", "1-2.2 2", "jose@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g == nil || g.GuestCode != "GC-1" {
		t.Fatalf("expected GC-1, got %+v", g)
	}
}

func TestMaskEmail(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", "<empty>"},
		{"ana@example.com", "an***@example.com"},
		{"a@example.com", "a***@example.com"},
		{"noatsign", "no***"},
	}
	for _, tc := range cases {
		if got := MaskEmail(tc.in); got != tc.want {
			t.Fatalf("MaskEmail(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeName(t *testing.T) {
	if got := normalizeName("  José   PÉREZ  "); got != "jose perez" {
		t.Fatalf("normalizeName = %q", got)
	}
}
