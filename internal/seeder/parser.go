package seeder

import (
	"archive/zip"
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alexivanou/placematch-api/internal/config"
	"github.com/alexivanou/placematch-api/internal/model"
)

// cityDumps are tried in order; the first present wins.
var cityDumps = []string{"cities15000", "cities5000", "cities1000"}

// GeoNames "geoname" table columns used by the gazetteer
const (
	colID         = 0
	colName       = 1
	colASCIIName  = 2
	colLat        = 4
	colLon        = 5
	colCountry    = 8
	colPopulation = 14
	colTimezone   = 17
	cityColumns   = 19
)

// ErrNoCityDump is returned when the data directory holds no cities file.
var ErrNoCityDump = errors.New("no GeoNames cities dump found")

// Parser parses GeoNames data files
type Parser struct {
	dataDir       string
	minPopulation int
}

// NewParser creates a new parser instance with config
func NewParser(seederCfg config.SeederConfig) *Parser {
	return &Parser{
		dataDir:       seederCfg.DataDir,
		minPopulation: seederCfg.MinPopulation,
	}
}

// ParseCountries parses countryInfo.txt
func (p *Parser) ParseCountries() ([]model.Country, error) {
	file, err := os.Open(filepath.Join(p.dataDir, "countryInfo.txt"))
	if err != nil {
		return nil, fmt.Errorf("failed to open countryInfo.txt: %w", err)
	}
	defer file.Close()

	return parseCountries(file)
}

func parseCountries(r io.Reader) ([]model.Country, error) {
	var countries []model.Country
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 5 {
			continue
		}
		code := strings.TrimSpace(parts[0])
		name := strings.TrimSpace(parts[4])
		if len(code) != 2 || name == "" {
			continue
		}
		countries = append(countries, model.Country{Code: code, Name: name})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan countryInfo.txt: %w", err)
	}
	return countries, nil
}

// ParseCities reads the first available cities dump, plain or zipped, and
// keeps rows at or above the configured population whose country is known.
// A nil known set keeps every country.
func (p *Parser) ParseCities(known map[string]bool) ([]model.City, error) {
	for _, base := range cityDumps {
		zipPath := filepath.Join(p.dataDir, base+".zip")
		if _, err := os.Stat(zipPath); err == nil {
			return p.parseCitiesFromZip(zipPath, known)
		}
		txtPath := filepath.Join(p.dataDir, base+".txt")
		if _, err := os.Stat(txtPath); err == nil {
			file, err := os.Open(txtPath)
			if err != nil {
				return nil, fmt.Errorf("failed to open %s: %w", txtPath, err)
			}
			defer file.Close()
			return p.parseCities(file, known)
		}
	}
	return nil, fmt.Errorf("%w in %s", ErrNoCityDump, p.dataDir)
}

func (p *Parser) parseCitiesFromZip(zipPath string, known map[string]bool) ([]model.City, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if !strings.HasSuffix(f.Name, ".txt") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open file in zip: %w", err)
		}
		defer rc.Close()
		return p.parseCities(rc, known)
	}
	return nil, fmt.Errorf("no txt file found in %s", zipPath)
}

func (p *Parser) parseCities(r io.Reader, known map[string]bool) ([]model.City, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var cities []model.City
	for scanner.Scan() {
		city, ok := p.parseCityLine(scanner.Text())
		if !ok {
			continue
		}
		if known != nil && !known[city.CountryCode] {
			continue
		}
		cities = append(cities, city)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan cities: %w", err)
	}
	return cities, nil
}

func (p *Parser) parseCityLine(line string) (model.City, bool) {
	parts := strings.Split(line, "\t")
	if len(parts) < cityColumns {
		return model.City{}, false
	}

	id, err := strconv.Atoi(parts[colID])
	if err != nil {
		return model.City{}, false
	}
	population, err := strconv.Atoi(parts[colPopulation])
	if err != nil || population < p.minPopulation {
		return model.City{}, false
	}
	lat, err := strconv.ParseFloat(parts[colLat], 64)
	if err != nil {
		return model.City{}, false
	}
	lon, err := strconv.ParseFloat(parts[colLon], 64)
	if err != nil {
		return model.City{}, false
	}
	name := strings.TrimSpace(parts[colName])
	if name == "" {
		return model.City{}, false
	}

	city := model.City{
		ID:          id,
		CountryCode: parts[colCountry],
		Name:        name,
		ASCIIName:   strings.TrimSpace(parts[colASCIIName]),
		Population:  population,
		Lat:         lat,
		Lon:         lon,
	}
	if tz := parts[colTimezone]; tz != "" {
		city.Timezone = &tz
	}
	return city, true
}

// CountryCodeSet returns the codes of countries as a lookup set
func CountryCodeSet(countries []model.Country) map[string]bool {
	m := make(map[string]bool, len(countries))
	for _, country := range countries {
		m[country.Code] = true
	}
	return m
}
