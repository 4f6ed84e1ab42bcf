package usecase

import (
	"testing"

	"github.com/proposalagent/backend/internal/domain"
)

func TestSuggestComplementaryProducts(t *testing.T) {
	catalog := []domain.Product{
		{ID: "office", Name: "20ft Office Container"},
		{ID: "elec", Name: "Electrical Upgrade"},
		{ID: "hvac", Name: "HVAC Unit"},
		{ID: "interior", Name: "Interior Upgrade Package"},
		{ID: "climate", Name: "Climate Control Kit"},
	}

	t.Run("caps at three and skips selected products", func(t *testing.T) {
		got := SuggestComplementaryProducts([]string{"office"}, catalog)
		if len(got) != 3 {
			t.Fatalf("len = %d, want 3", len(got))
		}

		want := []struct{ id, reason string }{
			{"elec", "Most container units need electrical upgrades"},
			{"interior", "Most container units need electrical upgrades"},
			{"hvac", "Office containers typically need climate control"},
		}
		for i, w := range want {
			if got[i].ProductID != w.id {
				t.Errorf("suggestion %d = %s, want %s", i, got[i].ProductID, w.id)
			}
			if got[i].Reason != w.reason {
				t.Errorf("suggestion %d reason = %q, want %q", i, got[i].Reason, w.reason)
			}
			if got[i].Confidence != 0.75 {
				t.Errorf("suggestion %d confidence = %v, want 0.75", i, got[i].Confidence)
			}
		}
	})

	t.Run("never suggests a selected product", func(t *testing.T) {
		got := SuggestComplementaryProducts([]string{"office", "elec", "hvac"}, catalog)
		for _, s := range got {
			if s.ProductID == "office" || s.ProductID == "elec" || s.ProductID == "hvac" {
				t.Errorf("selected product %s suggested", s.ProductID)
			}
		}
	})

	t.Run("nothing selected", func(t *testing.T) {
		got := SuggestComplementaryProducts(nil, catalog)
		if got == nil || len(got) != 0 {
			t.Errorf("got %#v, want empty non-nil slice", got)
		}
	})

	t.Run("unknown selected ids ignored", func(t *testing.T) {
		if got := SuggestComplementaryProducts([]string{"missing"}, catalog); len(got) != 0 {
			t.Errorf("got %+v, want none", got)
		}
	})
}
