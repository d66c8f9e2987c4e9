package dto

type BranchResponse struct {
	Branch    string  `json:"branch"`
	Name      string  `json:"name"`
	ZonalHead string  `json:"zonal_head"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
}
