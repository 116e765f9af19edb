package emotes

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
)

var ErrMalformedRange = errors.New("malformed emote range")

// SegmentKind distinguishes the two variants of Segment
type SegmentKind string

const (
	SegmentKindText  SegmentKind = "text"
	SegmentKindEmote SegmentKind = "emote"
)

// Segment is a piece of a chat message: either a run of plain text or a single emote
type Segment struct {
	Kind    SegmentKind `json:"kind"`
	Text    string      `json:"text,omitempty"`
	EmoteID string      `json:"emoteId,omitempty"`
	URL     string      `json:"url,omitempty"`
}

// Text returns a plain-text segment
func Text(s string) Segment {
	return Segment{Kind: SegmentKindText, Text: s}
}

// Emote returns an emote segment for the given ID, with its CDN image URL populated
func Emote(id string) Segment {
	return Segment{Kind: SegmentKindEmote, EmoteID: id, URL: URL(id)}
}

// URL returns the 1x dark-theme image URL for the emote with the given ID
func URL(id string) string {
	return fmt.Sprintf("https://static-cdn.jtvnw.net/emoticons/v2/%s/default/dark/1.0", id)
}

// span is a single occurrence of an emote, as a half-open rune range [start, end)
type span struct {
	emoteID string
	start   int
	end     int
}

// ParseTag parses the value of the IRC 'emotes' tag, e.g. "25:0-4,12-16/1902:6-10",
// into a map of emote ID to its list of raw "start-end" ranges. Groups with no ID or
// no ranges are dropped; the ranges themselves are validated later by RenderSpans.
func ParseTag(raw string) map[string][]string {
	result := make(map[string][]string)
	if raw == "" {
		return result
	}
	for _, group := range strings.Split(raw, "/") {
		emoteID, ranges, ok := strings.Cut(group, ":")
		if !ok || emoteID == "" || ranges == "" {
			continue
		}
		for _, r := range strings.Split(ranges, ",") {
			if r != "" {
				result[emoteID] = append(result[emoteID], r)
			}
		}
	}
	return result
}

// RenderSpans splits text into an ordered list of text and emote segments. Each range
// is an inclusive "start-end" pair of code-point offsets, as Twitch reports them.
// Ranges that can't be parsed or that fall outside the text are skipped, and a
// diagnostic error is returned for each one; the rest of the message still renders.
// Overlapping ranges never move the cursor backwards: an emote that starts inside the
// previous one is emitted with no preceding text.
func RenderSpans(text string, emoteRanges map[string][]string) ([]Segment, []error) {
	runes := []rune(text)
	spans, errs := collectSpans(emoteRanges, len(runes))

	segments := make([]Segment, 0, 2*len(spans)+1)
	cursor := 0
	for _, s := range spans {
		if s.start > cursor {
			segments = append(segments, Text(string(runes[cursor:s.start])))
		}
		segments = append(segments, Emote(s.emoteID))
		if s.end > cursor {
			cursor = s.end
		}
	}
	if cursor < len(runes) {
		segments = append(segments, Text(string(runes[cursor:])))
	}
	return segments, errs
}

// collectSpans flattens all ranges into a single list sorted by start offset. Emote IDs
// are visited in sorted order and sorting is stable, so ties are resolved the same way
// on every call.
func collectSpans(emoteRanges map[string][]string, textLen int) ([]span, []error) {
	ids := make([]string, 0, len(emoteRanges))
	for id := range emoteRanges {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	spans := make([]span, 0)
	var errs []error
	for _, id := range ids {
		for _, r := range emoteRanges[id] {
			start, end, err := parseRange(r)
			if err == nil && end > textLen {
				err = fmt.Errorf("%w: %q exceeds message length %d", ErrMalformedRange, r, textLen)
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("emote %s: %w", id, err))
				continue
			}
			spans = append(spans, span{emoteID: id, start: start, end: end})
		}
	}
	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].start < spans[j].start
	})
	return spans, errs
}

// parseRange converts an inclusive "start-end" range into a half-open [start, end+1)
func parseRange(r string) (int, int, error) {
	a, b, ok := strings.Cut(r, "-")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedRange, r)
	}
	start, err := strconv.Atoi(a)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedRange, r)
	}
	last, err := strconv.Atoi(b)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedRange, r)
	}
	if start < 0 || last < start {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedRange, r)
	}
	return start, last + 1, nil
}
