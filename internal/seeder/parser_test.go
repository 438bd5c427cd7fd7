package seeder

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexivanou/placematch-api/internal/config"
	"github.com/alexivanou/placematch-api/internal/model"
	"github.com/alexivanou/placematch-api/internal/repository"
)

const countryInfo = `#ISO	ISO3	ISO-Numeric	fips	Country	Capital	Area(in sq km)	Population	Continent	tld	CurrencyCode	CurrencyName	Phone	Postal Code Format	Postal Code Regex	Languages	geonameid	neighbours	EquivalentFipsCode
GB	GBR	826	UK	United Kingdom	London	244820	66488991	EU	.uk	GBP	Pound	44			en-GB,cy-GB,gd	2635167	IE	
PT	PRT	620	PO	Portugal	Lisbon	92391	10281762	EU	.pt	EUR	Euro	351	####-###	^(\d{7})$	pt-PT,mwl	2264397	ES	
`

func cityLine(id, name, ascii, lat, lon, country, population, tz string) string {
	cols := make([]string, 19)
	cols[0], cols[1], cols[2] = id, name, ascii
	cols[4], cols[5], cols[8] = lat, lon, country
	cols[14], cols[17] = population, tz
	return strings.Join(cols, "\t")
}

var citiesDump = strings.Join([]string{
	cityLine("2643743", "London", "London", "51.50853", "-0.12574", "GB", "8961989", "Europe/London"),
	cityLine("2267057", "Lisboa", "Lisboa", "38.71667", "-9.13333", "PT", "517802", "Europe/Lisbon"),
	cityLine("2646003", "Hythe", "Hythe", "51.07", "1.08", "GB", "14000", "Europe/London"),
	cityLine("3117735", "Madrid", "Madrid", "40.4165", "-3.70256", "ES", "3255944", "Europe/Madrid"),
	cityLine("x", "Broken", "Broken", "1", "1", "GB", "100000", ""),
	"too\tshort",
}, "\n")

func TestParser_ParseCountries(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "countryInfo.txt"), []byte(countryInfo), 0o644))

	countries, err := NewParser(config.SeederConfig{DataDir: dir}).ParseCountries()
	require.NoError(t, err)

	assert.Equal(t, []model.Country{
		{Code: "GB", Name: "United Kingdom"},
		{Code: "PT", Name: "Portugal"},
	}, countries)
}

func TestParser_ParseCountries_Missing(t *testing.T) {
	_, err := NewParser(config.SeederConfig{DataDir: t.TempDir()}).ParseCountries()
	assert.Error(t, err)
}

func TestParser_ParseCities(t *testing.T) {
	known := map[string]bool{"GB": true, "PT": true}

	t.Run("Plain text filtered by population and country", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "cities15000.txt"), []byte(citiesDump), 0o644))

		cities, err := NewParser(config.SeederConfig{DataDir: dir, MinPopulation: 15000}).ParseCities(known)
		require.NoError(t, err)
		require.Len(t, cities, 2)

		assert.Equal(t, "London", cities[0].Name)
		assert.Equal(t, "GB", cities[0].CountryCode)
		assert.Equal(t, 8961989, cities[0].Population)
		assert.InDelta(t, 51.50853, cities[0].Lat, 1e-9)
		require.NotNil(t, cities[0].Timezone)
		assert.Equal(t, "Europe/London", *cities[0].Timezone)
		assert.Equal(t, "Lisboa", cities[1].ASCIIName)
	})

	t.Run("Nil known set keeps every country", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "cities1000.txt"), []byte(citiesDump), 0o644))

		cities, err := NewParser(config.SeederConfig{DataDir: dir}).ParseCities(nil)
		require.NoError(t, err)
		assert.Len(t, cities, 4)
	})

	t.Run("Zip archive", func(t *testing.T) {
		dir := t.TempDir()
		f, err := os.Create(filepath.Join(dir, "cities15000.zip"))
		require.NoError(t, err)
		zw := zip.NewWriter(f)
		w, err := zw.Create("cities15000.txt")
		require.NoError(t, err)
		_, err = w.Write([]byte(citiesDump))
		require.NoError(t, err)
		require.NoError(t, zw.Close())
		require.NoError(t, f.Close())

		cities, err := NewParser(config.SeederConfig{DataDir: dir, MinPopulation: 15000}).ParseCities(known)
		require.NoError(t, err)
		assert.Len(t, cities, 2)
	})

	t.Run("No dump", func(t *testing.T) {
		_, err := NewParser(config.SeederConfig{DataDir: t.TempDir()}).ParseCities(known)
		assert.ErrorIs(t, err, ErrNoCityDump)
	})
}

func TestCountryCodeSet(t *testing.T) {
	codes := CountryCodeSet([]model.Country{{Code: "GB"}, {Code: "US"}})

	assert.True(t, codes["GB"])
	assert.True(t, codes["US"])
	assert.False(t, codes["FR"])
}

type memCities struct {
	batches [][]model.City
}

func (m *memCities) SearchCities(context.Context, string, string, int) ([]model.City, error) {
	return nil, nil
}

func (m *memCities) BulkInsertCities(_ context.Context, cities []model.City) error {
	m.batches = append(m.batches, append([]model.City(nil), cities...))
	return nil
}

type memCountries struct {
	countries []model.Country
}

func (m *memCountries) FindCountry(context.Context, string) (*model.Country, error) {
	return nil, nil
}

func (m *memCountries) BulkInsertCountries(_ context.Context, countries []model.Country) error {
	m.countries = append(m.countries, countries...)
	return nil
}

func TestSeed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "countryInfo.txt"), []byte(countryInfo), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cities15000.txt"), []byte(citiesDump), 0o644))

	cities := &memCities{}
	countries := &memCountries{}
	repos := &repository.Container{City: cities, Country: countries}

	res, err := Seed(context.Background(), repos, config.SeederConfig{DataDir: dir, BatchSize: 2}, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Countries)
	assert.Equal(t, 3, res.Cities) // Madrid dropped: ES not in countryInfo
	assert.Len(t, countries.countries, 2)
	require.Len(t, cities.batches, 2)
	assert.Len(t, cities.batches[0], 2)
	assert.Len(t, cities.batches[1], 1)
}
