package api

import (
	"encoding/json"
	"testing"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Tarren Mill", "tarren%20mill"},
		{"Kael'thas", "kael'thas"},
		{"Aria", "aria"},
	}
	for _, tt := range tests {
		if got := slug(tt.in); got != tt.want {
			t.Errorf("slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCharacterURL(t *testing.T) {
	c := &BlizzardClient{region: "eu"}
	got := c.characterURL("Tarren Mill", "Aria", "/equipment")
	want := "https://eu.api.blizzard.com/profile/wow/character/tarren%20mill/aria/equipment?namespace=profile-eu&locale=en_US"
	if got != want {
		t.Errorf("characterURL = %q, want %q", got, want)
	}
}

func TestEquippedItemRetainsRawPayload(t *testing.T) {
	payload := `{
		"slot": {"type": "CHEST", "name": "Chest"},
		"name": "Breastplate",
		"level": {"value": 700},
		"transmog": {"item": {"name": "Fancy Look"}}
	}`

	var item EquippedItem
	if err := json.Unmarshal([]byte(payload), &item); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if item.Slot.Type != "CHEST" || item.Level.Value != 700 {
		t.Errorf("decoded fields = %s/%d", item.Slot.Type, item.Level.Value)
	}

	raw := item.Raw()
	if raw == nil {
		t.Fatal("Raw() = nil, want the source document")
	}
	// Fields the typed struct does not model survive in the raw document.
	if _, ok := raw["transmog"]; !ok {
		t.Error("unmodeled field dropped from raw payload")
	}
}
