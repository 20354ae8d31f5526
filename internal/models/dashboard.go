package models

// GridCell is one flat on the occupancy grid.
type GridCell struct {
	Unit   string     `json:"unit"`
	Floor  int        `json:"floor"`
	Status FlatStatus `json:"status"`
}

type GridLevel struct {
	Floor int        `json:"floor"`
	Cells []GridCell `json:"cells"`
}

// Dashboard summarizes occupancy; levels run from the top floor down.
type Dashboard struct {
	FlatCount     int         `json:"flat_count"`
	OwnerOccupied int         `json:"cnt_owner"`
	Rented        int         `json:"cnt_rented"`
	Vacant        int         `json:"cnt_vacant"`
	Levels        []GridLevel `json:"levels"`
}
