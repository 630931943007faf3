package storage

import (
	"sync"
	"testing"

	"github.com/fieldops/pdvstamp/internal/models"
)

func TestEvidenceStore(t *testing.T) {
	store := New()

	if _, ok := store.Get("missing"); ok {
		t.Error("Expected missing record")
	}

	store.Set("a", &models.Evidence{ID: "a", SiteName: "Loja 1"})
	record, ok := store.Get("a")
	if !ok || record.SiteName != "Loja 1" {
		t.Errorf("Expected stored record, got %+v", record)
	}

	all := store.GetAll()
	delete(all, "a")
	if _, ok := store.Get("a"); !ok {
		t.Error("Expected GetAll to return a copy")
	}

	removed, ok := store.Delete("a")
	if !ok || removed.ID != "a" {
		t.Errorf("Expected deleted record, got %+v", removed)
	}
	if _, ok := store.Delete("a"); ok {
		t.Error("Expected second delete to report missing")
	}
}

func TestEvidenceStoreConcurrentAccess(t *testing.T) {
	store := New()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n%26))
			store.Set(id, &models.Evidence{ID: id})
			store.Get(id)
			store.GetAll()
		}(i)
	}
	wg.Wait()

	if got := len(store.GetAll()); got != 26 {
		t.Errorf("Expected 26 records, got %d", got)
	}
}
