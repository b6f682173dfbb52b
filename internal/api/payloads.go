package api

import (
	"encoding/json"

	"github.com/mckriel/omg-backend/internal/domain"
)

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type RosterResponse struct {
	Members []RosterMember `json:"members"`
}

type RosterMember struct {
	Character RosterCharacter `json:"character"`
	Rank      int             `json:"rank"`
}

type RosterCharacter struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
	Realm struct {
		Slug string `json:"slug"`
	} `json:"realm"`
}

type ProfileResponse struct {
	Name               string `json:"name"`
	EquippedItemLevel  int    `json:"equipped_item_level"`
	AverageItemLevel   int    `json:"average_item_level"`
	LastLoginTimestamp int64  `json:"last_login_timestamp"`
	CharacterClass     struct {
		Name string `json:"name"`
	} `json:"character_class"`
	ActiveSpec struct {
		Name string `json:"name"`
	} `json:"active_spec"`
}

type EquipmentResponse struct {
	EquippedItems []EquippedItem `json:"equipped_items"`
}

// EquippedItem keeps the raw payload bytes alongside the decoded fields so
// the stored record can retain the source document verbatim.
type EquippedItem struct {
	Slot struct {
		Type string `json:"type"`
		Name string `json:"name"`
	} `json:"slot"`
	Name  string `json:"name"`
	Level struct {
		Value int `json:"value"`
	} `json:"level"`
	Enchantments []Enchantment `json:"enchantments"`
	Sockets      []ItemSocket  `json:"sockets"`
	Set          *ItemSet      `json:"set"`

	raw json.RawMessage
}

func (e *EquippedItem) UnmarshalJSON(data []byte) error {
	type alias EquippedItem
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*e = EquippedItem(a)
	e.raw = append(json.RawMessage(nil), data...)
	return nil
}

// Raw returns the source payload as a generic document, or nil when it
// cannot be decoded.
func (e EquippedItem) Raw() map[string]any {
	if len(e.raw) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(e.raw, &m); err != nil {
		return nil
	}
	return m
}

type Enchantment struct {
	DisplayString   string `json:"display_string"`
	EnchantmentSlot struct {
		Type string `json:"type"`
	} `json:"enchantment_slot"`
}

type ItemSocket struct {
	SocketType struct {
		Type string `json:"type"`
		Name string `json:"name"`
	} `json:"socket_type"`
	Item *struct {
		Name string `json:"name"`
	} `json:"item"`
}

type ItemSet struct {
	ItemSet struct {
		Name string `json:"name"`
	} `json:"item_set"`
}

// RaidsResponse mirrors the encounter payload straight into the domain types
// so raid history is stored verbatim.
type RaidsResponse struct {
	Expansions []domain.RaidExpansion `json:"expansions"`
}

type MythicKeystoneResponse struct {
	CurrentMythicRating struct {
		Rating float64 `json:"rating"`
	} `json:"current_mythic_rating"`
}

type PvPSummaryResponse struct {
	HonorLevel int `json:"honor_level"`
	Brackets   []struct {
		Href string `json:"href"`
	} `json:"brackets"`
}

type PvPBracketResponse struct {
	Rating  int `json:"rating"`
	Bracket struct {
		Type string `json:"type"`
	} `json:"bracket"`
}

type MediaResponse struct {
	Assets []MediaAsset `json:"assets"`
}

type MediaAsset struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
