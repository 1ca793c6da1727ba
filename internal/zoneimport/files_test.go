package zoneimport

import "testing"

func TestParseDistrictDir(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"district_04", "04"},
		{"district-4", "04"},
		{"District 12", "12"},
		{"DISTRICT04", "04"},
		{"district_xx", ""},
		{"shapefiles", ""},
		{"section_001", ""},
	}
	for _, tc := range cases {
		if got := parseDistrictDir(tc.in); got != tc.want {
			t.Errorf("parseDistrictDir(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseSectionFile(t *testing.T) {
	cases := []struct {
		in           string
		wantSection  string
		wantDistrict string
		wantOK       bool
	}{
		{"section_001.geojson", "001", "", true},
		{"section 12.json", "012", "", true},
		{"Section-7.GeoJSON", "007", "", true},
		{"section_012_district_03.geojson", "012", "03", true},
		{"section_1-district-4.json", "001", "04", true},
		{"boundary.geojson", "", "", false},
		{"section_001.shp", "", "", false},
		{"readme.txt", "", "", false},
	}
	for _, tc := range cases {
		sec, dis, ok := parseSectionFile(tc.in)
		if ok != tc.wantOK || sec != tc.wantSection || dis != tc.wantDistrict {
			t.Errorf("parseSectionFile(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tc.in, sec, dis, ok, tc.wantSection, tc.wantDistrict, tc.wantOK)
		}
	}
}

func TestPadCodes(t *testing.T) {
	if got := pad2("4"); got != "04" {
		t.Errorf("pad2(4) = %q", got)
	}
	if got := pad2("12"); got != "12" {
		t.Errorf("pad2(12) = %q", got)
	}
	if got := pad3("7"); got != "007" {
		t.Errorf("pad3(7) = %q", got)
	}
	if got := pad3("123"); got != "123" {
		t.Errorf("pad3(123) = %q", got)
	}
}
