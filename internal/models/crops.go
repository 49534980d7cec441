package models

// DefaultCropID is used for report field info when a scan's crop is unknown.
const DefaultCropID = 1

var cropCatalog = []Crop{
	{ID: 1, Name: "Wheat", NameHi: "गेहूँ", Season: "Rabi (Oct-Mar)", Icon: "🌾"},
	{ID: 2, Name: "Rice", NameHi: "चावल", Season: "Kharif (Jun-Sep)", Icon: "🌾"},
	{ID: 5, Name: "Maize", NameHi: "मक्का", Season: "Kharif/Rabi", Icon: "🌽"},
	{ID: 6, Name: "Banana", NameHi: "केला", Season: "Year-round", Icon: "🍌"},
	{ID: 7, Name: "Coffee", NameHi: "कॉफी", Season: "Year-round", Icon: "☕"},
	{ID: 9, Name: "Eggplant", NameHi: "बैंगन", Season: "Year-round", Icon: "🍆"},
	{ID: 10, Name: "Ash Gourd", NameHi: "पेठा", Season: "Kharif", Icon: "🎃"},
	{ID: 11, Name: "Bitter Gourd", NameHi: "करेला", Season: "Summer", Icon: "🥬"},
	{ID: 13, Name: "Snake Gourd", NameHi: "चिचिंडा", Season: "Summer", Icon: "🥬"},
}

// Crops returns a copy of the built-in crop catalog.
func Crops() []Crop {
	out := make([]Crop, len(cropCatalog))
	copy(out, cropCatalog)
	return out
}

// LookupCrop finds a crop in the built-in catalog.
func LookupCrop(id int) (Crop, bool) {
	for _, c := range cropCatalog {
		if c.ID == id {
			return c, true
		}
	}
	return Crop{}, false
}

// CropOrDefault returns the catalog crop, or the default crop carrying the
// requested id when the id is unknown.
func CropOrDefault(id int) Crop {
	if c, ok := LookupCrop(id); ok {
		return c
	}
	c, _ := LookupCrop(DefaultCropID)
	c.ID = id
	return c
}
