package spread

// Card is a deck entry. The engine only reads ID; Payload travels untouched
// to the host.
type Card struct {
	ID      string `json:"id"`
	Payload any    `json:"payload,omitempty"`
}

// NormalizeDeck returns a copy of cards with an even count where the quota
// allows it. For an odd count the middle card is dropped so the fan stays
// symmetric around its center, unless that would leave fewer cards than
// maxSelected. A single card is therefore always kept.
func NormalizeDeck(cards []Card, maxSelected int) []Card {
	n := len(cards)
	if n%2 == 0 || maxSelected >= n {
		return append([]Card(nil), cards...)
	}
	mid := n / 2
	out := make([]Card, 0, n-1)
	out = append(out, cards[:mid]...)
	return append(out, cards[mid+1:]...)
}
