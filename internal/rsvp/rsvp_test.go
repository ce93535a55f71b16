package rsvp

import (
	"errors"
	"testing"
	"time"

	"github.com/Alexsuad/WeddingRSVP-sub000/internal/store"
)

var testDeadline = time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)

func testMachine() Machine {
	return Machine{Deadline: testDeadline}
}

func fullInviteGuest() *store.GuestRecord {
	return &store.GuestRecord{
		GuestCode:  "GC-1",
		FullName:   "Ana María Suárez",
		Email:      "ana@example.com",
		Language:   store.LangES,
		InviteType: store.InviteFull,
		MaxAccomp:  2,
	}
}

func boolPtr(b bool) *bool { return &b }

func TestApply_DeadlinePassed(t *testing.T) {
	g := fullInviteGuest()

	err := testMachine().Apply(g, Request{Attending: boolPtr(true)}, testDeadline.Add(time.Hour))
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Key != "rsvp.deadline" {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if g.Confirmed != nil || g.ConfirmedAt != nil {
		t.Fatal("rejected submission must not mutate the guest")
	}
}

func TestApply_Decline_ClearsEverything(t *testing.T) {
	g := fullInviteGuest()
	// Prior confirmed state to prove the decline resets it.
	g.Confirmed = boolPtr(true)
	g.MenuChoice = "fish"
	g.Allergies = "nuts"
	g.Companions = []store.Companion{{Name: "Luis"}}
	g.NumAdults = 2
	g.NumChildren = 1

	now := testDeadline.Add(-24 * time.Hour)
	req := Request{
		Attending:      boolPtr(false),
		Notes:          "sorry, we can't make it",
		NeedsTransport: true,
	}
	if err := testMachine().Apply(g, req, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.Confirmed == nil || *g.Confirmed {
		t.Fatal("expected confirmed=false")
	}
	if g.ConfirmedAt == nil || !g.ConfirmedAt.Equal(now) {
		t.Fatalf("expected confirmed_at=%v, got %v", now, g.ConfirmedAt)
	}
	if g.MenuChoice != "" || g.Allergies != "" {
		t.Fatal("decline must clear menu and allergies")
	}
	if len(g.Companions) != 0 {
		t.Fatal("decline must clear companions")
	}
	if g.NumAdults != 0 || g.NumChildren != 0 {
		t.Fatal("decline must zero counters")
	}
	if g.Notes != "sorry, we can't make it" || !g.NeedsTransport {
		t.Fatal("decline must retain notes and flags from the payload")
	}
}

func TestApply_Confirm_ComputesCounters(t *testing.T) {
	g := fullInviteGuest()

	req := Request{
		Attending:  boolPtr(true),
		MenuChoice: "fish",
		Companions: []CompanionInput{
			{Name: "Luis", IsChild: false, MenuChoice: "meat"},
			{Name: "Sofía", IsChild: true, MenuChoice: "kids"},
		},
	}
	if err := testMachine().Apply(g, req, testDeadline.Add(-time.Hour)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.Confirmed == nil || !*g.Confirmed {
		t.Fatal("expected confirmed=true")
	}
	if g.NumAdults != 2 {
		t.Fatalf("expected num_adults=2 (titular + 1), got %d", g.NumAdults)
	}
	if g.NumChildren != 1 {
		t.Fatalf("expected num_children=1, got %d", g.NumChildren)
	}
	if g.NumAdults+g.NumChildren != len(g.Companions)+1 {
		t.Fatal("counter invariant violated")
	}
	if g.Companions[0].MenuChoice != "meat" {
		t.Fatal("full invite keeps companion menu choices")
	}
}

func TestApply_Confirm_TooManyCompanions(t *testing.T) {
	g := fullInviteGuest() // MaxAccomp=2
	before := *g

	req := Request{
		Attending:  boolPtr(true),
		MenuChoice: "fish",
		Companions: []CompanionInput{{Name: "a"}, {Name: "b"}, {Name: "c"}},
	}
	err := testMachine().Apply(g, req, testDeadline.Add(-time.Hour))
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Key != "rsvp.too_many_companions" {
		t.Fatalf("expected companion cap error, got %v", err)
	}
	if g.Confirmed != before.Confirmed || g.NumAdults != before.NumAdults {
		t.Fatal("rejected submission must not mutate the guest")
	}
}

func TestApply_Confirm_MenuRequiredForFullInvite(t *testing.T) {
	g := fullInviteGuest()

	err := testMachine().Apply(g, Request{Attending: boolPtr(true), MenuChoice: "  "}, testDeadline.Add(-time.Hour))
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Key != "rsvp.menu_required" {
		t.Fatalf("expected menu error, got %v", err)
	}
}

func TestApply_Confirm_CeremonyInviteNeedsNoMenu(t *testing.T) {
	g := fullInviteGuest()
	g.InviteType = store.InviteCeremony

	req := Request{
		Attending:  boolPtr(true),
		MenuChoice: "",
		Companions: []CompanionInput{{Name: "Luis", MenuChoice: "meat"}},
	}
	if err := testMachine().Apply(g, req, testDeadline.Add(-time.Hour)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.MenuChoice != "" {
		t.Fatal("ceremony invite must not store a titular menu")
	}
	if g.Companions[0].MenuChoice != "" {
		t.Fatal("companion menu must be forced empty unless invite is full")
	}
}

func TestApply_Resubmission_ReplacesCompanions(t *testing.T) {
	g := fullInviteGuest()
	m := testMachine()
	now := testDeadline.Add(-time.Hour)

	first := Request{
		Attending:  boolPtr(true),
		MenuChoice: "fish",
		Companions: []CompanionInput{{Name: "Luis"}, {Name: "Sofía", IsChild: true}},
	}
	if err := m.Apply(g, first, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := Request{
		Attending:  boolPtr(true),
		MenuChoice: "meat",
		Companions: []CompanionInput{{Name: "Carmen"}},
	}
	if err := m.Apply(g, second, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(g.Companions) != 1 || g.Companions[0].Name != "Carmen" {
		t.Fatalf("expected companion set replaced, got %+v", g.Companions)
	}
	if g.NumAdults != 2 || g.NumChildren != 0 {
		t.Fatalf("counters not recomputed: adults=%d children=%d", g.NumAdults, g.NumChildren)
	}
}

func TestInviteScope(t *testing.T) {
	if got := InviteScope(store.InviteFull); got != "ceremony+reception" {
		t.Fatalf("unexpected scope %q", got)
	}
	if got := InviteScope(store.InviteCeremony); got != "reception-only" {
		t.Fatalf("unexpected scope %q", got)
	}
}

func TestConfirmationSummary_Declined(t *testing.T) {
	g := fullInviteGuest()
	if err := testMachine().Apply(g, Request{Attending: boolPtr(false)}, testDeadline.Add(-time.Hour)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := ConfirmationSummary(g)
	if s.Attending {
		t.Fatal("expected attending=false")
	}
	if len(s.Companions) != 0 {
		t.Fatal("declined summary must carry no companions")
	}
}
