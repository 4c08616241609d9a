package models

// ItineraryLeg is one ride of the winning trip plan: board Line at From and
// leave it at To. Times are schedule times rendered as "HH:MM" by the API
// layer.
type ItineraryLeg struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Line    string `json:"line"`
	Departs Clock  `json:"departs"`
	Arrives Clock  `json:"arrives"`
}

// Itinerary is the scored best trip between two stations.
type Itinerary struct {
	Legs []ItineraryLeg `json:"legs"`
}

// Duration returns total minutes from first departure to last arrival.
func (it Itinerary) Duration() int {
	if len(it.Legs) == 0 {
		return 0
	}
	return int(it.Legs[len(it.Legs)-1].Arrives - it.Legs[0].Departs)
}

// Transfers returns the number of line changes on the itinerary.
func (it Itinerary) Transfers() int {
	if len(it.Legs) == 0 {
		return 0
	}
	return len(it.Legs) - 1
}

// DelayListing is one row of the tabular delay report.
type DelayListing struct {
	Line      string    `json:"line"`
	Direction Direction `json:"direction"`
	Earliest  Clock     `json:"earliest"`
	Start     string    `json:"start"`
	Minutes   int       `json:"minutes"`
}
