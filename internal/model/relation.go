package model

// RelationKind names a per-user recipe collection. Favorites and the buy
// list share one storage table and one service implementation.
type RelationKind string

const (
	RelationFavorite RelationKind = "favorite"
	RelationBuyList  RelationKind = "buylist"
)

// Valid reports whether k is a known relation kind.
func (k RelationKind) Valid() bool {
	return k == RelationFavorite || k == RelationBuyList
}

// Label is the human name used in messages.
func (k RelationKind) Label() string {
	switch k {
	case RelationFavorite:
		return "favorites"
	case RelationBuyList:
		return "shopping cart"
	default:
		return string(k)
	}
}

// ShoppingItem is one aggregated line of a shopping list.
type ShoppingItem struct {
	Name            string
	MeasurementUnit string
	Amount          int
}

// ShoppingRow is one junction row of a recipe in a user's buy list.
type ShoppingRow struct {
	IngredientID    string
	Name            string
	MeasurementUnit string
	Amount          int
}
