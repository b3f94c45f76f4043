package models

// BeltRank is a cosmetic tier derived purely from cumulative cultural capital.
type BeltRank struct {
	Name      string `json:"name"`
	MinPoints int    `json:"min_points"`
}

// Belts is the ordered rank table, lowest first.
var Belts = []BeltRank{
	{Name: "white", MinPoints: 0},
	{Name: "yellow", MinPoints: 300},
	{Name: "orange", MinPoints: 800},
	{Name: "green", MinPoints: 1500},
	{Name: "blue", MinPoints: 3000},
	{Name: "purple", MinPoints: 6000},
	{Name: "brown", MinPoints: 10000},
	{Name: "black", MinPoints: 20000},
}

// BeltFor returns the highest belt whose threshold the capital reaches.
func BeltFor(culturalCapital int) BeltRank {
	belt := Belts[0]
	for _, b := range Belts {
		if culturalCapital >= b.MinPoints {
			belt = b
		}
	}
	return belt
}
