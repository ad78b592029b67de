// Package draft holds the in-memory estimate being authored: the mutable
// working copy that voice extraction merges into and the user edits, before
// it is persisted or discarded.
package draft

import (
	"sync"

	"github.com/fieldquote/estimate-gateway/internal/extract"
)

// LineItem is one row of the draft. Quantity and Price stay nil until the
// user or the extractor sets them; Finalize defaults them to zero at the
// persist boundary, never earlier.
type LineItem struct {
	Name     string   `json:"name"`
	Quantity *float64 `json:"quantity"`
	Price    *float64 `json:"price"`
}

// ClientInfo is the client contact block. All fields optional.
type ClientInfo struct {
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

// Draft is the full working estimate.
type Draft struct {
	Description string
	Items       []LineItem
	Client      ClientInfo
	Notes       string
}

// FinalItem is a line item normalized for persistence: numeric fields are
// always set.
type FinalItem struct {
	Name     string
	Quantity float64
	Price    float64
}

// Finalized is a draft ready to hand to the persistence layer.
type Finalized struct {
	Description string
	Items       []FinalItem
	Client      ClientInfo
	Notes       string
}

// Store owns one draft for one editing session. Last writer wins across
// merges and direct edits; there is no dirty tracking and no undo.
type Store struct {
	mu sync.Mutex
	d  Draft
}

// NewStore returns an empty draft store.
func NewStore() *Store {
	return &Store{}
}

// Merge applies an extraction result onto the draft. Description and items
// are replaced wholesale, so merging the same result twice is a no-op.
// Client contact fields merge one by one, keeping anything already set when
// the incoming value is empty. Notes are replaced only when non-empty.
func (s *Store) Merge(r extract.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.d.Description = r.Description

	items := make([]LineItem, len(r.Items))
	for i, it := range r.Items {
		items[i] = LineItem{Name: it.Name, Quantity: it.Quantity, Price: it.Price}
	}
	s.d.Items = items

	if r.Client.Name != "" {
		s.d.Client.Name = r.Client.Name
	}
	if r.Client.Phone != "" {
		s.d.Client.Phone = r.Client.Phone
	}
	if r.Client.Email != "" {
		s.d.Client.Email = r.Client.Email
	}
	if r.Client.Address != "" {
		s.d.Client.Address = r.Client.Address
	}

	if r.Notes != "" {
		s.d.Notes = r.Notes
	}
}

// SetDescription overwrites the description.
func (s *Store) SetDescription(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.Description = text
}

// SetNotes overwrites the notes.
func (s *Store) SetNotes(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.Notes = text
}

// SetClient replaces the whole client block, as submitted by the edit form.
func (s *Store) SetClient(c ClientInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.Client = c
}

// SetItems replaces the item list.
func (s *Store) SetItems(items []LineItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.Items = append([]LineItem(nil), items...)
}

// Snapshot returns a copy of the current draft. The item slice is copied so
// callers cannot mutate the store through it.
func (s *Store) Snapshot() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.d
	out.Items = append([]LineItem(nil), s.d.Items...)
	return out
}

// Finalize copies the draft with unset quantities and prices defaulted to
// zero, the shape persisted estimates require.
func (s *Store) Finalize() Finalized {
	s.mu.Lock()
	defer s.mu.Unlock()

	fin := Finalized{
		Description: s.d.Description,
		Client:      s.d.Client,
		Notes:       s.d.Notes,
		Items:       make([]FinalItem, len(s.d.Items)),
	}
	for i, it := range s.d.Items {
		fi := FinalItem{Name: it.Name}
		if it.Quantity != nil {
			fi.Quantity = *it.Quantity
		}
		if it.Price != nil {
			fi.Price = *it.Price
		}
		fin.Items[i] = fi
	}
	return fin
}

// Reset clears the draft back to empty.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d = Draft{}
}
