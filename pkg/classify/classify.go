// Package classify sorts raw roster text into response sections and derives session
// metadata from it.
package classify

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/AccelByte/extend-roster-reconciliation/pkg/roster"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/segment"
)

// Bucket is the response section a line was found in.
type Bucket int

const (
	Unclassified Bucket = iota
	Accepted
	Rejected
)

func (b Bucket) String() string {
	switch b {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	default:
		return "unclassified"
	}
}

// MarshalText encodes the bucket by name.
func (b Bucket) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// Headers holds the section header labels. A header line is the label followed by a
// parenthesized count, e.g. "Akzeptiert (12)".
type Headers struct {
	Accepted string `yaml:"accepted"`
	Tank     string `yaml:"tank"`
	Rejected string `yaml:"rejected"`
}

// DefaultHeaders are the labels of the sign-up screen.
func DefaultHeaders() Headers {
	return Headers{Accepted: "Akzeptiert", Tank: "Tank", Rejected: "Abgelehnt"}
}

// Config parameterizes a Classifier.
type Config struct {
	Headers          Headers
	TrainingKeywords []string
	EventKeywords    []string
	KnownMaps        []string
}

// Block is a piece of text to segment, tagged with the section it came from.
type Block struct {
	Text   string `json:"text"`
	Bucket Bucket `json:"bucket"`
}

// Sections is the result of header classification.
type Sections struct {
	// HeadersFound is false when no section header was present and Blocks come from the
	// line and comma fallback.
	HeadersFound bool    `json:"headersFound"`
	Blocks       []Block `json:"blocks"`
}

// Classifier locates section headers and keywords in roster text.
type Classifier struct {
	cfg        Config
	acceptedRx *regexp.Regexp
	tankRx     *regexp.Regexp
	rejectedRx *regexp.Regexp
}

var lineSplitRx = regexp.MustCompile(`[\r\n]+`)

// New creates a Classifier. Header labels must not be empty.
func New(cfg Config) (*Classifier, error) {
	c := &Classifier{cfg: cfg}
	var err error
	if c.acceptedRx, err = headerRx(cfg.Headers.Accepted); err != nil {
		return nil, err
	}
	if c.tankRx, err = headerRx(cfg.Headers.Tank); err != nil {
		return nil, err
	}
	if c.rejectedRx, err = headerRx(cfg.Headers.Rejected); err != nil {
		return nil, err
	}
	return c, nil
}

func headerRx(label string) (*regexp.Regexp, error) {
	if strings.TrimSpace(label) == "" {
		return nil, fmt.Errorf("section header label must not be empty")
	}
	return regexp.Compile(`(?i)` + regexp.QuoteMeta(label) + `\s*\((\d+)\)`)
}

// Lines splits text into its non-empty lines.
func Lines(text string) []string {
	var out []string
	for _, ln := range lineSplitRx.Split(text, -1) {
		if ln != "" {
			out = append(out, ln)
		}
	}
	return out
}

// Sections assigns lines to the Accepted and Rejected buckets. When a header occurs more
// than once its last occurrence counts. Each line belongs to the nearest counted header
// above it, whatever order the headers appear in; Tank lines are folded into Accepted.
// Header lines themselves never become blocks. Only lines with a trimmed length in
// [3, 48] are kept, each once per bucket.
//
// Without any header every line becomes an Unclassified block; a line with more than one
// comma-separated field contributes each field instead.
func (c *Classifier) Sections(text string) Sections {
	lines := Lines(text)
	headers := []struct {
		rx     *regexp.Regexp
		bucket Bucket
		idx    int
	}{
		{c.acceptedRx, Accepted, -1},
		{c.tankRx, Accepted, -1},
		{c.rejectedRx, Rejected, -1},
	}

	isHeader := make([]bool, len(lines))
	for i, ln := range lines {
		for h := range headers {
			if headers[h].rx.MatchString(ln) {
				headers[h].idx = i
				isHeader[i] = true
			}
		}
	}

	// owner[i] is the bucket of the counted header at line i.
	owner := make(map[int]Bucket, len(headers))
	for _, h := range headers {
		if h.idx >= 0 {
			owner[h.idx] = h.bucket
		}
	}
	if len(owner) == 0 {
		return Sections{Blocks: fallbackBlocks(lines)}
	}

	var blocks []Block
	seen := map[Bucket]map[string]bool{Accepted: {}, Rejected: {}}
	current := Unclassified
	for i, raw := range lines {
		if b, ok := owner[i]; ok {
			current = b
			continue
		}
		if current == Unclassified || isHeader[i] {
			continue
		}
		ln := strings.TrimSpace(raw)
		if !lineInBounds(ln) || seen[current][ln] {
			continue
		}
		seen[current][ln] = true
		blocks = append(blocks, Block{Text: ln, Bucket: current})
	}

	return Sections{HeadersFound: true, Blocks: blocks}
}

func fallbackBlocks(lines []string) []Block {
	var blocks []Block
	for _, ln := range lines {
		var fields []string
		for _, f := range strings.Split(ln, ",") {
			if f != "" {
				fields = append(fields, f)
			}
		}
		if len(fields) > 1 {
			for _, f := range fields {
				blocks = append(blocks, Block{Text: f, Bucket: Unclassified})
			}
			continue
		}
		blocks = append(blocks, Block{Text: ln, Bucket: Unclassified})
	}
	return blocks
}

func lineInBounds(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= segment.MinCandidateLength && n <= segment.MaxCandidateLength
}

// SessionType scans the lines for training keywords first, then event keywords.
// Matching is a case-insensitive substring test. The default is Event.
func (c *Classifier) SessionType(text string) roster.SessionType {
	lines := Lines(text)
	if containsAny(lines, c.cfg.TrainingKeywords) {
		return roster.Training
	}
	return roster.Event
}

// MatchesEventKeyword reports whether any event keyword occurs in the text.
func (c *Classifier) MatchesEventKeyword(text string) bool {
	return containsAny(Lines(text), c.cfg.EventKeywords)
}

func containsAny(lines, keywords []string) bool {
	for _, ln := range lines {
		lower := strings.ToLower(ln)
		for _, kw := range keywords {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				return true
			}
		}
	}
	return false
}

// DefaultConfig returns the built-in headers, keyword sets and map names.
func DefaultConfig() Config {
	return Config{
		Headers:          DefaultHeaders(),
		TrainingKeywords: []string{"training", "clantraining", "freitagstraining", "montagstraining", "übung", "practice", "drill"},
		EventKeywords:    []string{"event", "vs", "versus", "match", "scrim", "scrimmage", "gegen"},
		KnownMaps: []string{"SME", "Carentan", "Foy", "Kursk", "Stalingrad", "Omaha", "Utah",
			"Purple Heart Lane", "Hill 400", "Hurtgen", "Sainte", "SMDM"},
	}
}
