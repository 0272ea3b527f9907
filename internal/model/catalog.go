package model

// Ingredient is immutable reference data. The (Name, MeasurementUnit) pair
// is unique.
type Ingredient struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// Tag labels recipes. Color is a #RGB or #RRGGBB hex string.
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}
