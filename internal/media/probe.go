package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// maxFutureSkew is how far in the future a creation timestamp may sit before
// it is rejected as implausible (bogus camera clocks, corrupt tags).
const maxFutureSkew = 24 * time.Hour

// ReverseGeocoder resolves coordinates to a human-readable place, best effort.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (city, state, country string, err error)
}

// Extractor probes uploaded media files with ffprobe and assembles Metadata.
type Extractor struct {
	geocoder ReverseGeocoder // may be nil
	now      func() time.Time
}

// NewExtractor creates a metadata extractor. geocoder may be nil, in which
// case the location name fields are never populated.
func NewExtractor(geocoder ReverseGeocoder) *Extractor {
	return &Extractor{geocoder: geocoder, now: time.Now}
}

// ffprobe JSON output shapes (only the fields we read).
type probeOutput struct {
	Format  probeFormat   `json:"format"`
	Streams []probeStream `json:"streams"`
}

type probeFormat struct {
	Duration string            `json:"duration"`
	Tags     map[string]string `json:"tags"`
}

type probeStream struct {
	CodecType string            `json:"codec_type"`
	Width     int               `json:"width"`
	Height    int               `json:"height"`
	Tags      map[string]string `json:"tags"`
}

// Extract probes the file at path and returns whatever metadata could be
// read. Probing errors never propagate: metadata is enrichment, not a
// requirement, so a broken container yields an empty Metadata.
func (e *Extractor) Extract(ctx context.Context, path string) Metadata {
	var meta Metadata

	out, err := e.probe(ctx, path)
	if err != nil {
		log.Printf("WARN: ffprobe failed for %s: %v", path, err)
		return meta
	}

	tags := mergedTags(out)

	if secs, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil && secs > 0 {
		meta.DurationSeconds = int(math.Round(secs))
	}
	for _, s := range out.Streams {
		if s.CodecType == "video" {
			meta.Width = s.Width
			meta.Height = s.Height
			break
		}
	}

	meta.RecordedAt = resolveRecordedAt(tags, e.now())

	if lat, lon, ok := resolveLocation(tags); ok {
		meta.Latitude = &lat
		meta.Longitude = &lon
		if e.geocoder != nil {
			// Best effort: a geocoding failure must not fail extraction.
			city, state, country, err := e.geocoder.Reverse(ctx, lat, lon)
			if err != nil {
				log.Printf("WARN: reverse geocode failed for (%f, %f): %v", lat, lon, err)
			} else {
				meta.LocationCity = city
				meta.LocationState = state
				meta.LocationCountry = country
			}
		}
	}

	meta.DeviceMake = firstTag(tags, "com.apple.quicktime.make", "make")
	meta.DeviceModel = firstTag(tags, "com.apple.quicktime.model", "model")

	return meta
}

// probe runs ffprobe and decodes its JSON output.
func (e *Extractor) probe(ctx context.Context, path string) (*probeOutput, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	raw, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe: %w", err)
	}

	var out probeOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode ffprobe output: %w", err)
	}
	return &out, nil
}

// mergedTags flattens format-level and stream-level tags into one lowercase
// map. Format tags win over stream tags for the same key.
func mergedTags(out *probeOutput) map[string]string {
	tags := make(map[string]string)
	for _, s := range out.Streams {
		for k, v := range s.Tags {
			tags[strings.ToLower(k)] = v
		}
	}
	for k, v := range out.Format.Tags {
		tags[strings.ToLower(k)] = v
	}
	return tags
}

func firstTag(tags map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(tags[k]); v != "" {
			return v
		}
	}
	return ""
}

// timestampCandidate is one prioritized source for the recording timestamp.
type timestampCandidate struct {
	key   string
	parse func(string) (time.Time, error)
}

// creationTimeCandidates is the resolution order for the recording timestamp:
// the QuickTime vendor tag carries an explicit UTC offset and wins over the
// generic creation_time, which wins over a bare date tag.
var creationTimeCandidates = []timestampCandidate{
	{key: "com.apple.quicktime.creationdate", parse: ParseOffsetTimestamp},
	{key: "creation_time", parse: parseGenericTimestamp},
	{key: "date", parse: parseGenericTimestamp},
}

// resolveRecordedAt walks the candidate list in priority order and keeps the
// first value that parses and is plausible. A timestamp more than 24h in the
// future is implausible; when the preferred tag fails that check the next
// candidate still gets a chance.
func resolveRecordedAt(tags map[string]string, now time.Time) *time.Time {
	for _, cand := range creationTimeCandidates {
		raw := strings.TrimSpace(tags[cand.key])
		if raw == "" {
			continue
		}
		t, err := cand.parse(raw)
		if err != nil {
			continue
		}
		if t.After(now.Add(maxFutureSkew)) {
			continue
		}
		utc := t.UTC()
		return &utc
	}
	return nil
}

var offsetTimestampRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})T(\d{2}):(\d{2}):(\d{2})([+-])(\d{2})(\d{2})$`)

// ParseOffsetTimestamp parses the QuickTime creationdate format
// YYYY-MM-DDTHH:MM:SS±HHMM and converts it to UTC by explicit offset
// arithmetic. Naive layout-based parsing of this format is unreliable across
// runtimes, so the offset is applied by hand.
func ParseOffsetTimestamp(s string) (time.Time, error) {
	m := offsetTimestampRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return time.Time{}, errors.New("not a timestamp-with-offset value")
	}

	num := func(v string) int {
		n, _ := strconv.Atoi(v)
		return n
	}

	local := time.Date(num(m[1]), time.Month(num(m[2])), num(m[3]),
		num(m[4]), num(m[5]), num(m[6]), 0, time.UTC)

	offset := time.Duration(num(m[8]))*time.Hour + time.Duration(num(m[9]))*time.Minute
	if m[7] == "-" {
		// Local time is behind UTC: add the offset back.
		return local.Add(offset), nil
	}
	return local.Add(-offset), nil
}

// parseGenericTimestamp accepts the common forms of creation_time/date tags.
func parseGenericTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.000000Z",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// resolveLocation finds an ISO-6709 position among the known location tags.
func resolveLocation(tags map[string]string) (lat, lon float64, ok bool) {
	raw := firstTag(tags, "com.apple.quicktime.location.iso6709", "location", "location-eng")
	if raw == "" {
		return 0, 0, false
	}
	lat, lon, err := ParseISO6709(raw)
	if err != nil {
		log.Printf("WARN: unparseable location tag %q: %v", raw, err)
		return 0, 0, false
	}
	return lat, lon, true
}

var iso6709Re = regexp.MustCompile(`^([+-]\d+(?:\.\d+)?)([+-]\d+(?:\.\d+)?)(?:([+-]\d+(?:\.\d+)?)m?)?/?$`)

// ParseISO6709 parses a combined position string of the form
// ±DD.DDDD±DDD.DDDD[±AAA.AAA][/], e.g. "+43.6407-079.3547+000.000/".
// The altitude component is ignored.
func ParseISO6709(s string) (lat, lon float64, err error) {
	m := iso6709Re.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, fmt.Errorf("not an ISO 6709 position: %q", s)
	}

	lat, err = strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, 0, err
	}
	lon, err = strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, 0, err
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("position out of range: %q", s)
	}
	return lat, lon, nil
}
