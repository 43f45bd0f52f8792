package domain

// ShuffleDeck returns a copy of deck with its cards in random order.
func ShuffleDeck(deck Deck, rng RNG) Deck {
	cards := make([]Card, len(deck.Cards))
	copy(cards, deck.Cards)

	// Fisher-Yates.
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}

	deck.Cards = cards
	return deck
}

// SpreadTypeFor maps a selection quota to its spread type.
func SpreadTypeFor(maxSelected int) SpreadType {
	switch maxSelected {
	case 1:
		return SpreadSingle
	case 3:
		return SpreadThreeCard
	case 5:
		return SpreadFiveCard
	default:
		return SpreadPair
	}
}

var positionLabels = map[SpreadType][]string{
	SpreadSingle:    {"focus"},
	SpreadPair:      {"situation", "advice"},
	SpreadThreeCard: {"past", "present", "future"},
	SpreadFiveCard:  {"present", "challenge", "past", "future", "outcome"},
}

// PositionLabel names the meaning of the order-th revealed card (0-based).
func PositionLabel(st SpreadType, order int) string {
	labels := positionLabels[st]
	if order < 0 || order >= len(labels) {
		return ""
	}
	return labels[order]
}

// DrawCard turns a revealed card into a DrawnCard. Position is 1-based
// reveal order. Orientation is 50/50 upright/reversed.
func DrawCard(card Card, st SpreadType, order int, rng RNG) DrawnCard {
	orientation := Upright
	if rng.Intn(2) == 1 {
		orientation = Reversed
	}
	return DrawnCard{
		Card:        card,
		Position:    order + 1,
		Label:       PositionLabel(st, order),
		Orientation: orientation,
	}
}
