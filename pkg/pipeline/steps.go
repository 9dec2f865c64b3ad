package pipeline

import (
	"time"

	"github.com/AccelByte/extend-roster-reconciliation/pkg/classify"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/resolve"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/roster"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/segment"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/session"
)

// The reconciliation pipeline runs these steps in order:
//
//	ClassifyText -> SegmentBlocks -> ResolveCandidates -> AssembleState
//
// followed by manual edits on the state and ledger.Commit. Each step is a plain function
// over its inputs so it can be tested and reused by the CLI without a Manager.

// Classification is the output of ClassifyText.
type Classification struct {
	Sections    classify.Sections  `json:"sections"`
	SessionType roster.SessionType `json:"sessionType"`
	Metadata    classify.Metadata  `json:"metadata"`
}

// ClassifyText locates the section headers, detects the session type and reads the
// session metadata.
func ClassifyText(c *classify.Classifier, text string) Classification {
	return Classification{
		Sections:    c.Sections(text),
		SessionType: c.SessionType(text),
		Metadata:    c.Metadata(text),
	}
}

// SegmentBlocks splits every block into normalized candidates that keep the block's
// bucket. Candidates outside the length bounds are returned as dropped.
func SegmentBlocks(s *segment.Segmenter, blocks []classify.Block) (cands []resolve.Candidate, dropped []string) {
	for _, b := range blocks {
		kept, out := s.Candidates(b.Text)
		for _, k := range kept {
			cands = append(cands, resolve.Candidate{Text: k, Bucket: b.Bucket})
		}
		dropped = append(dropped, out...)
	}
	return cands, dropped
}

// ResolveCandidates maps candidates to members of reg, registering created members in reg.
func ResolveCandidates(reg *roster.Roster, cfg resolve.Config, cands []resolve.Candidate, now time.Time) (resolve.Result, error) {
	return resolve.New(reg, cfg).Resolve(cands, now)
}

// AssembleState builds the session state from the resolutions.
func AssembleState(reg *roster.Roster, res resolve.Result) *session.State {
	return session.Assemble(reg, res.Resolutions)
}
