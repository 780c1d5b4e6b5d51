package astro

import (
	"time"

	"github.com/yanqian/astro-api/internal/domain/anglematch"
	"github.com/yanqian/astro-api/internal/domain/aspects"
	"github.com/yanqian/astro-api/internal/domain/curation"
	"github.com/yanqian/astro-api/internal/domain/ephemeris"
	"github.com/yanqian/astro-api/internal/domain/impact"
	"github.com/yanqian/astro-api/internal/domain/localtime"
	"github.com/yanqian/astro-api/internal/domain/lunar"
)

// Config tunes the chart service.
type Config struct {
	SolarReturn         SearchConfig
	LongitudeMatch      SearchConfig
	CacheTTL            time.Duration
	TimelineParallelism int
	PersistEvents       bool
}

// SearchConfig is the search setup of one call site.
type SearchConfig struct {
	Engine        string
	WindowDays    float64
	SweepStep     time.Duration
	BracketStep   time.Duration
	ToleranceDeg  float64
	MaxIterations int
	TimeTolerance time.Duration
}

// BirthData is a civil date and time plus how to interpret it.
type BirthData struct {
	Date          string `json:"date"`
	Time          string `json:"time,omitempty"`
	Timezone      string `json:"timezone,omitempty"`
	OffsetMinutes *int   `json:"offsetMinutes,omitempty"`
	Fold          *int   `json:"fold,omitempty"`
	Strict        bool   `json:"strict,omitempty"`
}

// ZodiacOptions selects tropical or sidereal output.
type ZodiacOptions struct {
	Zodiac   string `json:"zodiac,omitempty"`
	Ayanamsa string `json:"ayanamsa,omitempty"`
}

// AspectOptions picks an orb profile and narrows it.
type AspectOptions struct {
	Profile string             `json:"profile,omitempty"`
	Enabled []string           `json:"enabled,omitempty"`
	Orbs    map[string]float64 `json:"orbs,omitempty"`
}

// Angles are chart angles computed by the caller.
type Angles struct {
	AscendantDeg *float64 `json:"ascendantDeg,omitempty"`
	MidheavenDeg *float64 `json:"midheavenDeg,omitempty"`
}

// TimeRequest resolves a civil time.
type TimeRequest struct {
	BirthData
	SnapForward bool `json:"snapForward,omitempty"`
}

// TimeResponse carries the resolution and its UT Julian day.
type TimeResponse struct {
	Resolution  localtime.Resolution `json:"resolution"`
	JulianDayUT float64              `json:"julianDayUt"`
}

// ChartRequest asks for a position snapshot.
type ChartRequest struct {
	Birth  BirthData     `json:"birth"`
	Zodiac ZodiacOptions `json:"zodiac"`
	Bodies []string      `json:"bodies,omitempty"`
}

// ChartResponse lists body positions at the resolved instant.
type ChartResponse struct {
	Time      TimeResponse         `json:"time"`
	Zodiac    ephemeris.Zodiac     `json:"zodiac"`
	Positions []ephemeris.Position `json:"positions"`
	Cached    bool                 `json:"cached"`
}

// SolarReturnRequest locates the Sun's return to its natal longitude in Year.
type SolarReturnRequest struct {
	Natal    BirthData     `json:"natal"`
	Year     int           `json:"year"`
	Timezone string        `json:"timezone,omitempty"`
	Engine   string        `json:"engine,omitempty"`
	Zodiac   ZodiacOptions `json:"zodiac"`
	Aspects  AspectOptions `json:"aspects"`
	Angles   Angles        `json:"angles"`
}

// SolarReturnResponse describes the return instant and its chart.
type SolarReturnResponse struct {
	NatalSunDeg float64              `json:"natalSunDeg"`
	Match       anglematch.Result    `json:"match"`
	Local       string               `json:"local"`
	Timezone    string               `json:"timezone,omitempty"`
	Positions   []ephemeris.Position `json:"positions"`
	Aspects     []aspects.Match      `json:"aspects"`
	Profile     string               `json:"profile"`
	Warnings    []string             `json:"warnings"`
	Cached      bool                 `json:"cached"`
}

// LongitudeMatchRequest finds when Body reaches a longitude inside a local date window.
type LongitudeMatchRequest struct {
	Body               string        `json:"body"`
	TargetLongitudeDeg *float64      `json:"targetLongitudeDeg,omitempty"`
	Natal              *BirthData    `json:"natal,omitempty"`
	StartDate          string        `json:"startDate"`
	EndDate            string        `json:"endDate,omitempty"`
	Timezone           string        `json:"timezone,omitempty"`
	Engine             string        `json:"engine,omitempty"`
	ToleranceDeg       float64       `json:"toleranceDeg,omitempty"`
	Zodiac             ZodiacOptions `json:"zodiac"`
}

// LongitudeMatchResponse carries the match and the resolved target.
type LongitudeMatchResponse struct {
	Body               string            `json:"body"`
	TargetLongitudeDeg float64           `json:"targetLongitudeDeg"`
	Match              anglematch.Result `json:"match"`
	Local              string            `json:"local"`
	Warnings           []string          `json:"warnings"`
	Cached             bool              `json:"cached"`
}

// TransitsRequest asks for the scored transits of a day against a natal chart.
type TransitsRequest struct {
	Natal         BirthData     `json:"natal"`
	Date          string        `json:"date"`
	Timezone      string        `json:"timezone,omitempty"`
	Zodiac        ZodiacOptions `json:"zodiac"`
	Aspects       AspectOptions `json:"aspects"`
	Angles        Angles        `json:"angles"`
	TransitBodies []string      `json:"transitBodies,omitempty"`
	NatalBodies   []string      `json:"natalBodies,omitempty"`
}

// TransitsResponse is the day's events and their curation.
type TransitsResponse struct {
	Date     string         `json:"date"`
	Profile  string         `json:"profile"`
	Events   []impact.Event `json:"events"`
	Curation curation.Daily `json:"curation"`
	Warnings []string       `json:"warnings"`
	Cached   bool           `json:"cached"`
}

// TimelineRequest asks for a year of solar aspects to natal points.
type TimelineRequest struct {
	Natal   BirthData     `json:"natal"`
	Year    int           `json:"year"`
	Zodiac  ZodiacOptions `json:"zodiac"`
	Aspects AspectOptions `json:"aspects"`
	Angles  Angles        `json:"angles"`
}

// TimelineItem is one solar aspect on one day.
type TimelineItem struct {
	Start    string          `json:"start"`
	Peak     string          `json:"peak"`
	End      string          `json:"end"`
	Method   string          `json:"method"`
	Trigger  string          `json:"trigger"`
	Match    aspects.Match   `json:"match"`
	Score    float64         `json:"score"`
	Severity impact.Severity `json:"severity"`
	Tags     []string        `json:"tags"`
}

// TimelineResponse lists a year of items in peak order.
type TimelineResponse struct {
	Year     int            `json:"year"`
	Profile  string         `json:"profile"`
	Items    []TimelineItem `json:"items"`
	Warnings []string       `json:"warnings"`
}

// ProgressionsRequest asks for the secondary progressed chart on TargetDate.
type ProgressionsRequest struct {
	Natal      BirthData     `json:"natal"`
	TargetDate string        `json:"targetDate"`
	Zodiac     ZodiacOptions `json:"zodiac"`
	Bodies     []string      `json:"bodies,omitempty"`
}

// ProgressionsResponse is the chart of the progressed instant.
type ProgressionsResponse struct {
	NatalLocal      string               `json:"natalLocal"`
	TargetDate      string               `json:"targetDate"`
	ProgressedLocal string               `json:"progressedLocal"`
	ProgressedUTC   time.Time            `json:"progressedUtc"`
	AgeYears        float64              `json:"ageYears"`
	OffsetMinutes   int                  `json:"offsetMinutes"`
	JulianDayUT     float64              `json:"julianDayUt"`
	Zodiac          ephemeris.Zodiac     `json:"zodiac"`
	Positions       []ephemeris.Position `json:"positions"`
	Warnings        []string             `json:"warnings"`
	Cached          bool                 `json:"cached"`
}

// LunationRequest asks for the Moon's phase at local noon of Date.
type LunationRequest struct {
	Date          string        `json:"date"`
	Timezone      string        `json:"timezone,omitempty"`
	OffsetMinutes *int          `json:"offsetMinutes,omitempty"`
	Strict        bool          `json:"strict,omitempty"`
	Zodiac        ZodiacOptions `json:"zodiac"`
}

// LunationResponse describes one day's Moon.
type LunationResponse struct {
	Date          string      `json:"date"`
	Timezone      string      `json:"timezone,omitempty"`
	OffsetMinutes int         `json:"offsetMinutes"`
	PhaseAngleDeg float64     `json:"phaseAngleDeg"`
	Phase         lunar.Phase `json:"phase"`
	Waxing        bool        `json:"waxing"`
	MoonSign      string      `json:"moonSign"`
	MoonDegInSign float64     `json:"moonDegInSign"`
	SunSign       string      `json:"sunSign"`
	Warnings      []string    `json:"warnings"`
	Cached        bool        `json:"cached,omitempty"`
}

// MoonTimelineRequest asks for one lunation per day from From to To inclusive.
// An empty To covers a week.
type MoonTimelineRequest struct {
	From          string        `json:"from"`
	To            string        `json:"to,omitempty"`
	Timezone      string        `json:"timezone,omitempty"`
	OffsetMinutes *int          `json:"offsetMinutes,omitempty"`
	Zodiac        ZodiacOptions `json:"zodiac"`
}

// MoonTimelineResponse lists the days in date order.
type MoonTimelineResponse struct {
	From   string             `json:"from"`
	To     string             `json:"to"`
	Days   []LunationResponse `json:"days"`
	Cached bool               `json:"cached"`
}
