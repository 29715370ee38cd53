package entities

import (
	"strings"
	"time"

	"github.com/cardwallet/backend/pkg/geo"
)

// sharedIDSeparator joins owner and card ids for cards seen through a share.
const sharedIDSeparator = "_"

// Card represents a loyalty card in a user's wallet
type Card struct {
	ID            string           `json:"id" db:"id"`
	OwnerID       string           `json:"owner_id" db:"owner_id"`
	StoreName     string           `json:"store_name" db:"store_name"`
	Code          string           `json:"code" db:"code"`
	BarcodeType   BarcodeType      `json:"barcode_type" db:"barcode_type"`
	ShopLocations []geo.Coordinate `json:"shop_locations"`
	OwnerEmail    string           `json:"owner_email,omitempty"`
	Shared        bool             `json:"shared"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at" db:"updated_at"`
}

// ValidLocations returns the shop locations that are not the unset (0, 0) pair
func (c *Card) ValidLocations() []geo.Coordinate {
	out := make([]geo.Coordinate, 0, len(c.ShopLocations))
	for _, loc := range c.ShopLocations {
		if geo.IsValidLocation(loc) {
			out = append(out, loc)
		}
	}
	return out
}

// Located adapts the card for nearest-location selection
func (c *Card) Located() geo.LocatedEntity[*Card] {
	return geo.LocatedEntity[*Card]{Owner: c, Locations: c.ShopLocations}
}

// AsSharedWith returns a copy of the card as seen by someone it is shared with
func (c *Card) AsSharedWith(ownerEmail string) *Card {
	cp := *c
	cp.ID = SharedCardID(c.OwnerID, c.ID)
	cp.OwnerEmail = ownerEmail
	cp.Shared = true
	cp.ShopLocations = append([]geo.Coordinate(nil), c.ShopLocations...)
	return &cp
}

// SharedCardID builds the composite id under which a shared card is listed
func SharedCardID(ownerID, cardID string) string {
	return ownerID + sharedIDSeparator + cardID
}

// ParseCardID splits a composite shared id. For a plain id, ownerID is empty.
func ParseCardID(id string) (ownerID, cardID string) {
	if i := strings.LastIndex(id, sharedIDSeparator); i > 0 && i < len(id)-1 {
		return id[:i], id[i+1:]
	}
	return "", id
}

// LocatedCards adapts a card list for nearest-location selection
func LocatedCards(cards []*Card) []geo.LocatedEntity[*Card] {
	out := make([]geo.LocatedEntity[*Card], 0, len(cards))
	for _, c := range cards {
		out = append(out, c.Located())
	}
	return out
}
