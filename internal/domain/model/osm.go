package model

// Amenity is a point of interest returned by the POI feed.
type Amenity struct {
	ID  int64   `json:"id"`
	Tag string  `json:"amenity"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// AmenityTags is the fixed, sorted amenity enumeration used as density features.
// See https://wiki.openstreetmap.org/wiki/Key:amenity
var AmenityTags = []string{
	"atm", "bar", "bench", "bus_station", "childcare", "cinema", "clinic",
	"dog_toilet", "fast_food", "fountain", "fuel", "hospital", "ice_cream",
	"kindergarten", "marketplace", "nightclub", "parking", "recycling", "school",
	"taxi", "toilets", "vending_machine", "waste_basket", "waste_disposal",
}
