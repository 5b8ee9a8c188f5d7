package nmea

import "strconv"

// Field enumerates the scalars the field-parser table can produce.
// Heading is listed in the sentence vocabulary but has no RMC/
// GGA/DPT column of its own — true heading arrives on a separate HDT
// sentence that the Navigation Model parses directly, not through this
// table (see internal/navigation).
type Field int

const (
	FieldTime Field = iota
	FieldDate
	FieldLat
	FieldLon
	FieldSpeed
	FieldCourse
	FieldHeading
	FieldMagVar
	FieldFixQuality
	FieldSatelliteCount
	FieldHDOP
	FieldAltitude
	FieldGeoidHeight
	FieldDepth
)

type parseKind int

const (
	kindScalar parseKind = iota
	kindTime
	kindDate
	kindLatLon
	kindMeters
	kindMagVar
)

// fieldSpec names, for one Field, the value-column index within each
// recognized sentence type's comma-split body (index 0 is the talker
// sentence ID itself, e.g. "GPRMC"). -1 means the sentence type does
// not carry that field.
type fieldSpec struct {
	rmc, gga, dpt int
	kind          parseKind
}

// Column layout per NMEA 0183: RMC is
// time/status/lat/NS/lon/EW/speed/course/date/magvar/EW and GGA is
// time/lat/NS/lon/EW/quality/nsat/hdop/alt/M/geoid/M.
var fieldTable = map[Field]fieldSpec{
	FieldTime:           {rmc: 1, gga: 1, dpt: -1, kind: kindTime},
	FieldDate:           {rmc: 9, gga: -1, dpt: -1, kind: kindDate},
	FieldLat:            {rmc: 3, gga: 2, dpt: -1, kind: kindLatLon},
	FieldLon:            {rmc: 5, gga: 4, dpt: -1, kind: kindLatLon},
	FieldSpeed:          {rmc: 7, gga: -1, dpt: -1, kind: kindScalar},
	FieldCourse:         {rmc: 8, gga: -1, dpt: -1, kind: kindScalar},
	FieldHeading:        {rmc: -1, gga: -1, dpt: -1, kind: kindScalar},
	FieldMagVar:         {rmc: 10, gga: -1, dpt: -1, kind: kindMagVar},
	FieldFixQuality:     {rmc: -1, gga: 6, dpt: -1, kind: kindScalar},
	FieldSatelliteCount: {rmc: -1, gga: 7, dpt: -1, kind: kindScalar},
	FieldHDOP:           {rmc: -1, gga: 8, dpt: -1, kind: kindScalar},
	FieldAltitude:       {rmc: -1, gga: 9, dpt: -1, kind: kindMeters},
	FieldGeoidHeight:    {rmc: -1, gga: 11, dpt: -1, kind: kindMeters},
	FieldDepth:          {rmc: -1, gga: -1, dpt: 1, kind: kindMeters},
}

func columnFor(spec fieldSpec, t Type) int {
	switch t {
	case RMC:
		return spec.rmc
	case GGA:
		return spec.gga
	case DPT:
		return spec.dpt
	default:
		return -1
	}
}

// Parse dispatches (sentence type, field) to the right parser and
// returns the scalar, or false if the field isn't carried by this
// sentence type or the value column is empty/malformed.
func Parse(sentence string, t Type, field Field) (float64, bool) {
	spec, ok := fieldTable[field]
	if !ok {
		return 0, false
	}
	col := columnFor(spec, t)
	if col < 0 {
		return 0, false
	}
	f := fields(sentence)
	if col >= len(f) {
		return 0, false
	}
	switch spec.kind {
	case kindTime:
		return parseTime(f[col])
	case kindDate:
		return parseDate(f[col])
	case kindLatLon:
		if col+1 >= len(f) {
			return 0, false
		}
		return parseLatLon(f[col], f[col+1])
	case kindMagVar:
		if col+1 >= len(f) {
			return 0, false
		}
		return parseMagVar(f[col], f[col+1])
	case kindMeters:
		unit := ""
		if col+1 < len(f) {
			unit = f[col+1]
		}
		return parseMeters(f[col], unit)
	default:
		return parseScalar(f[col])
	}
}

func parseScalar(v string) (float64, bool) {
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parseTime converts an hhmmss(.ss) field to seconds since midnight.
func parseTime(v string) (float64, bool) {
	if len(v) < 6 {
		return 0, false
	}
	hh, err1 := strconv.Atoi(v[0:2])
	mm, err2 := strconv.Atoi(v[2:4])
	ss, err3 := strconv.ParseFloat(v[4:], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, false
	}
	return float64(hh)*3600 + float64(mm)*60 + ss, true
}

// parseDate converts a ddmmyy field to Unix seconds at UTC midnight.
// Two-digit years 80-99 map to 1980-1999 and 00-79 to 2000-2079.
func parseDate(v string) (float64, bool) {
	if len(v) != 6 {
		return 0, false
	}
	dd, err1 := strconv.Atoi(v[0:2])
	mon, err2 := strconv.Atoi(v[2:4])
	yy, err3 := strconv.Atoi(v[4:6])
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, false
	}
	year := 2000 + yy
	if yy >= 80 {
		year = 1900 + yy
	}
	return float64(daysFromCivil(year, mon, dd)) * 86400, true
}

// daysFromCivil computes days since the Unix epoch for a UTC calendar
// date, using Howard Hinnant's civil_from_days algorithm in reverse.
func daysFromCivil(y, m, d int) int64 {
	yy := int64(y)
	if m <= 2 {
		yy--
	}
	era := yy
	if yy < 0 {
		era -= 399
	}
	era /= 400
	yoe := yy - era*400
	var mp int64
	if int64(m) > 2 {
		mp = int64(m) - 3
	} else {
		mp = int64(m) + 9
	}
	doy := (153*mp+2)/5 + int64(d) - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return era*146097 + doe - 719468
}

// parseLatLon converts ddmm.mmm (lon has an extra leading digit) plus
// a hemisphere letter to signed decimal degrees.
func parseLatLon(value, hemi string) (float64, bool) {
	if value == "" || hemi == "" {
		return 0, false
	}
	dotIdx := -1
	for i, c := range value {
		if c == '.' {
			dotIdx = i
			break
		}
	}
	if dotIdx < 2 {
		return 0, false
	}
	degDigits := dotIdx - 2
	deg, err1 := strconv.Atoi(value[:degDigits])
	min, err2 := strconv.ParseFloat(value[degDigits:], 64)
	if err1 != nil || err2 != nil {
		return 0, false
	}
	decimal := float64(deg) + min/60.0
	switch hemi {
	case "S", "W":
		decimal = -decimal
	}
	return decimal, true
}

// parseMagVar applies the magnetic-variation hemisphere sign: E leaves
// the value unsigned (already positive), W negates it.
func parseMagVar(value, sign string) (float64, bool) {
	v, ok := parseScalar(value)
	if !ok {
		return 0, false
	}
	if sign == "W" {
		v = -v
	}
	return v, true
}

// parseMeters converts a numeric value, applying a feet→meters factor
// when the following unit field is "f"/"F" (altitude/HOG/depth are
// otherwise already in meters, unit "M").
func parseMeters(value, unit string) (float64, bool) {
	v, ok := parseScalar(value)
	if !ok {
		return 0, false
	}
	if unit == "f" || unit == "F" {
		v *= 0.3048
	}
	return v, true
}
