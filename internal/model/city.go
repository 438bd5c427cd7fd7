package model

// City is a gazetteer row imported from GeoNames
type City struct {
	ID          int     `db:"id"`
	CountryCode string  `db:"country_code"`
	Name        string  `db:"name"`
	ASCIIName   string  `db:"ascii_name"`
	Population  int     `db:"population"`
	Lat         float64 `db:"lat"`
	Lon         float64 `db:"lon"`
	Timezone    *string `db:"timezone"`
}

// Country is a gazetteer country row
type Country struct {
	Code string `db:"code"`
	Name string `db:"name"`
}
