package zoneimport

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/paulmach/orb/geojson"
)

var (
	districtDirRe = regexp.MustCompile(`(?i)^district[ _-]?(\d+)$`)
	sectionFileRe = regexp.MustCompile(`(?i)^section[ _-]?(\d+)(?:[ _-]district[ _-]?(\d+))?\.(?:geo)?json$`)
)

// parseDistrictDir extracts the district number from a directory name like
// "district_04", "District 4" or "district-04". Returns "" when the name is
// not a district directory.
func parseDistrictDir(name string) string {
	m := districtDirRe.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	return pad2(m[1])
}

// parseSectionFile extracts the section number and the optional embedded
// district number from a file name like "section_012_district_04.geojson"
// or "section 12.json". ok is false when the name is not a section file.
func parseSectionFile(name string) (sectionCode, districtCode string, ok bool) {
	m := sectionFileRe.FindStringSubmatch(name)
	if m == nil {
		return "", "", false
	}
	sectionCode = pad3(m[1])
	if m[2] != "" {
		districtCode = pad2(m[2])
	}
	return sectionCode, districtCode, true
}

// pad2 normalizes a numeric code to the two-digit district form ("4" -> "04").
func pad2(s string) string {
	n, err := strconv.Atoi(s)
	if err != nil {
		return s
	}
	return fmt.Sprintf("%02d", n)
}

// pad3 normalizes a numeric code to the three-digit section form ("12" -> "012").
func pad3(s string) string {
	n, err := strconv.Atoi(s)
	if err != nil {
		return s
	}
	return fmt.Sprintf("%03d", n)
}

// readFeatures loads a GeoJSON file and returns its features. Both a bare
// Feature and a FeatureCollection are accepted.
func readFeatures(path string) ([]*geojson.Feature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	switch head.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return fc.Features, nil
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return []*geojson.Feature{f}, nil
	}
	return nil, fmt.Errorf("parse %s: unexpected GeoJSON type %q", path, head.Type)
}

// propCode reads a numeric-or-string property like "cdis"/"csec" and
// normalizes it to a string of digits. Returns "" when absent.
func propCode(f *geojson.Feature, key string) string {
	v, ok := f.Properties[key]
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.Itoa(int(t))
	case int:
		return strconv.Itoa(t)
	default:
		return ""
	}
}

// propString reads a plain string property. Returns "" when absent or not a
// string.
func propString(f *geojson.Feature, key string) string {
	v, ok := f.Properties[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
