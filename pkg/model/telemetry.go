package model

// Compound is the tire compound label as reported by the upstream API.
type Compound string

const (
	CompoundSoft         Compound = "SOFT"
	CompoundMedium       Compound = "MEDIUM"
	CompoundHard         Compound = "HARD"
	CompoundIntermediate Compound = "INTERMEDIATE"
	CompoundWet          Compound = "WET"
)

// Compounds lists all known compounds in class-index order. The order is part
// of the model contract (classifier labels are indices into this slice).
var Compounds = []Compound{
	CompoundSoft,
	CompoundMedium,
	CompoundHard,
	CompoundIntermediate,
	CompoundWet,
}

// CompoundIndex returns the class index for c, defaulting to MEDIUM for
// unknown labels.
func CompoundIndex(c Compound) int {
	for i, known := range Compounds {
		if known == c {
			return i
		}
	}
	return 1
}

// Session identifies one event session as listed by the upstream API.
type Session struct {
	SessionKey       int    `json:"session_key"`
	SessionName      string `json:"session_name"`
	SessionType      string `json:"session_type"`
	CountryName      string `json:"country_name"`
	CircuitShortName string `json:"circuit_short_name"`
	Year             int    `json:"year"`
}

// Lap is a single lap record. LapDuration 0 marks an incomplete or
// inaccurate lap and excludes the record from all derived tables.
type Lap struct {
	DriverNumber int      `json:"driver_number"`
	LapNumber    int      `json:"lap_number"`
	LapDuration  float64  `json:"lap_duration"` // seconds, 0 if absent
	Sector1      float64  `json:"duration_sector_1"`
	Sector2      float64  `json:"duration_sector_2"`
	Sector3      float64  `json:"duration_sector_3"`
	TyreLife     int      `json:"tyre_life"`
	Compound     Compound `json:"compound"`
	IsPitOutLap  bool     `json:"is_pit_out_lap"`
}

// Stint covers a contiguous run of laps on one tire set.
type Stint struct {
	DriverNumber int      `json:"driver_number"`
	Compound     Compound `json:"compound"`
	LapStart     int      `json:"lap_start"`
	LapEnd       int      `json:"lap_end"`
}

// Length is the number of laps covered by the stint.
func (s Stint) Length() int {
	return s.LapEnd - s.LapStart + 1
}

// Contains reports whether lapNum falls inside the stint.
func (s Stint) Contains(lapNum int) bool {
	return lapNum >= s.LapStart && lapNum <= s.LapEnd
}

// Weather is one weather sample for a session.
type Weather struct {
	TrackTemperature float64 `json:"track_temperature"`
	AirTemperature   float64 `json:"air_temperature"`
	Humidity         float64 `json:"humidity"`
	Rainfall         float64 `json:"rainfall"`
	WindSpeed        float64 `json:"wind_speed"`
}

// RaceControlMessage is a free-text race control entry (flags, SC, penalties).
type RaceControlMessage struct {
	Category string `json:"category"`
	Flag     string `json:"flag"`
	Message  string `json:"message"`
}

// Interval is the gap of a driver to the leader and the car ahead.
type Interval struct {
	DriverNumber int     `json:"driver_number"`
	GapToLeader  float64 `json:"gap_to_leader"`
	Interval     float64 `json:"interval"`
}

// PitStop is one pit event.
type PitStop struct {
	DriverNumber int     `json:"driver_number"`
	LapNumber    int     `json:"lap_number"`
	PitDuration  float64 `json:"pit_duration"`
}

// SessionBundle holds all telemetry fetched for one session. It is immutable
// once assembled; the strategy core never mutates it.
type SessionBundle struct {
	SessionKey  int
	Laps        []Lap
	Stints      []Stint
	Weather     []Weather
	RaceControl []RaceControlMessage
	Intervals   []Interval
	PitStops    []PitStop
}
