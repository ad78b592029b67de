package draft

import (
	"reflect"
	"testing"

	"github.com/fieldquote/estimate-gateway/internal/extract"
)

func fp(v float64) *float64 { return &v }

func TestMerge_ReplacesDescriptionAndItems(t *testing.T) {
	s := NewStore()
	s.SetDescription("typed by hand")
	s.SetItems([]LineItem{{Name: "old item"}})

	s.Merge(extract.Result{
		Description: "spoken text",
		Items:       []extract.Item{{Name: "$45", Price: fp(45)}},
	})

	d := s.Snapshot()
	if d.Description != "spoken text" {
		t.Errorf("Expected description replaced, got %q", d.Description)
	}
	if len(d.Items) != 1 || d.Items[0].Name != "$45" {
		t.Errorf("Expected items replaced, got %+v", d.Items)
	}
}

func TestMerge_Idempotent(t *testing.T) {
	s := NewStore()
	r := extract.Result{
		Description: "two items",
		Items: []extract.Item{
			{Name: "$45", Price: fp(45)},
			{Name: "10 pieces of lumber", Quantity: fp(10)},
		},
	}

	s.Merge(r)
	first := s.Snapshot()
	s.Merge(r)
	second := s.Snapshot()

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Merging the same result twice changed the draft:\nfirst:  %+v\nsecond: %+v", first, second)
	}
	if len(second.Items) != 2 {
		t.Errorf("Expected 2 items after repeated merge, got %d", len(second.Items))
	}
}

func TestMerge_ClientFieldsPreserved(t *testing.T) {
	s := NewStore()
	s.SetClient(ClientInfo{Name: "Ann"})

	s.Merge(extract.Result{Client: extract.ClientInfo{Phone: "555-1234"}})

	d := s.Snapshot()
	if d.Client.Name != "Ann" {
		t.Errorf("Expected existing client name kept, got %q", d.Client.Name)
	}
	if d.Client.Phone != "555-1234" {
		t.Errorf("Expected incoming phone merged, got %q", d.Client.Phone)
	}
}

func TestMerge_NotesReplacedOnlyWhenNonEmpty(t *testing.T) {
	s := NewStore()
	s.SetNotes("call before arriving")

	s.Merge(extract.Result{Description: "x"})
	if got := s.Snapshot().Notes; got != "call before arriving" {
		t.Errorf("Empty incoming notes should not erase existing notes, got %q", got)
	}

	s.Merge(extract.Result{Description: "x", Notes: "gate code 4411"})
	if got := s.Snapshot().Notes; got != "gate code 4411" {
		t.Errorf("Non-empty incoming notes should replace, got %q", got)
	}
}

func TestMerge_EmptyResultKeepsClient(t *testing.T) {
	s := NewStore()
	s.SetClient(ClientInfo{Name: "Ann", Email: "ann@example.com"})

	s.Merge(extract.Result{Description: "nothing priced"})

	d := s.Snapshot()
	if d.Client.Name != "Ann" || d.Client.Email != "ann@example.com" {
		t.Errorf("Client fields lost on merge with empty client: %+v", d.Client)
	}
}

func TestFinalize_DefaultsMissingNumbersToZero(t *testing.T) {
	s := NewStore()
	s.SetItems([]LineItem{
		{Name: "$45", Price: fp(45)},
		{Name: "10 pieces of lumber", Quantity: fp(10)},
		{Name: "bare mention"},
	})

	fin := s.Finalize()
	if len(fin.Items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(fin.Items))
	}

	want := []FinalItem{
		{Name: "$45", Quantity: 0, Price: 45},
		{Name: "10 pieces of lumber", Quantity: 10, Price: 0},
		{Name: "bare mention", Quantity: 0, Price: 0},
	}
	if !reflect.DeepEqual(fin.Items, want) {
		t.Errorf("Finalized items = %+v, want %+v", fin.Items, want)
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	s := NewStore()
	s.SetItems([]LineItem{{Name: "original"}})

	d := s.Snapshot()
	d.Items[0].Name = "mutated"

	if got := s.Snapshot().Items[0].Name; got != "original" {
		t.Errorf("Snapshot mutation leaked into the store: %q", got)
	}
}

func TestSetters_LastWriterWins(t *testing.T) {
	s := NewStore()

	s.Merge(extract.Result{Description: "from extraction"})
	s.SetDescription("user edit after merge")

	if got := s.Snapshot().Description; got != "user edit after merge" {
		t.Errorf("Expected later user edit to win, got %q", got)
	}

	// A merge after the edit wins again; no conflict detection exists.
	s.Merge(extract.Result{Description: "second extraction"})
	if got := s.Snapshot().Description; got != "second extraction" {
		t.Errorf("Expected later merge to win, got %q", got)
	}
}
