// Package prefilter runs cheap deterministic scans over an inbound
// message before any LLM call: duplicate replay, billing signals,
// structural prompt-attack markers and language hints. The scanner
// never mutates state; it only reports what it saw.
package prefilter

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
)

// Result is the outcome of one pre-detection scan.
type Result struct {
	// Duplicate means the msg_id was already processed on the event
	Duplicate bool
	// BillingSignal means the body carries invoice-address material
	BillingSignal bool
	// StructuralAttack means the body carries prompt-injection markers
	StructuralAttack bool
	// LanguageHint is the ISO code of the strongest language group, or ""
	LanguageHint string
	// MatchedPatterns lists the names of all patterns that fired
	MatchedPatterns []string
}

// CompiledPattern is one scan expression ready to run.
type CompiledPattern struct {
	Spec  PatternSpec
	Regex *regexp.Regexp
}

// Scanner applies the built-in pattern groups to inbound messages.
// Compile once at startup; Scan is safe for concurrent use.
type Scanner struct {
	patterns []*CompiledPattern
	logger   *slog.Logger
}

// NewScanner compiles the built-in pattern set. Built-in patterns are
// maintained with the code, so a compile failure is a programming error.
func NewScanner(logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	specs := builtinPatterns()
	patterns := make([]*CompiledPattern, 0, len(specs))
	for _, spec := range specs {
		patterns = append(patterns, &CompiledPattern{
			Spec:  spec,
			Regex: regexp.MustCompile(spec.Pattern),
		})
	}
	return &Scanner{
		patterns: patterns,
		logger:   logger.With("component", "prefilter"),
	}
}

// Scan runs the configured pattern phases over the message. Legacy mode
// checks duplicates and billing only; enhanced mode adds attack and
// language groups. The event may be nil when no event is linked yet.
func (s *Scanner) Scan(msg *models.InboundMessage, event *models.Event, mode models.PreFilterMode) Result {
	var res Result

	if event != nil && msg.MsgID != "" && event.HasMsg(msg.MsgID) {
		res.Duplicate = true
	}

	body := StripQuoted(msg.Body)
	langHits := make(map[string]int)

	for _, cp := range s.patterns {
		switch cp.Spec.Group {
		case GroupBilling:
			if cp.Regex.MatchString(body) {
				res.BillingSignal = true
				res.MatchedPatterns = append(res.MatchedPatterns, cp.Spec.Name)
			}
		case GroupAttack:
			if mode != models.PreFilterEnhanced {
				continue
			}
			// Attack markers count even inside quoted text: quoting an
			// injection does not make it safe to process.
			if cp.Regex.MatchString(msg.Body) {
				res.StructuralAttack = true
				res.MatchedPatterns = append(res.MatchedPatterns, cp.Spec.Name)
			}
		case GroupLanguage:
			if mode != models.PreFilterEnhanced {
				continue
			}
			hits := len(cp.Regex.FindAllStringIndex(body, -1))
			if hits > 0 {
				langHits[cp.Spec.Language] += hits
			}
		}
	}

	best := 0
	for lang, hits := range langHits {
		if hits > best || (hits == best && res.LanguageHint > lang) {
			best = hits
			res.LanguageHint = lang
		}
	}

	if res.StructuralAttack || res.BillingSignal {
		s.logger.Debug("prefilter matched",
			"msg_id", msg.MsgID,
			"attack", res.StructuralAttack,
			"billing", res.BillingSignal,
			"patterns", res.MatchedPatterns)
	}

	return res
}

var (
	attributionLine = regexp.MustCompile(`(?i)^\s*(?:on .+ wrote:|am .+ schrieb .+:|le .+ a écrit\s*:)\s*$`)
	originalMarker  = regexp.MustCompile(`(?i)^-{2,}\s*(?:original|forwarded) message\s*-{2,}$`)
)

// StripQuoted removes quoted-reply material from a message body: lines
// prefixed with ">", the attribution line above them, and everything
// below an "Original Message" divider. Scans and extraction must only
// see the client's new text.
func StripQuoted(body string) string {
	lines := strings.Split(body, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if originalMarker.MatchString(trimmed) {
			break
		}
		if strings.HasPrefix(trimmed, ">") {
			continue
		}
		if attributionLine.MatchString(trimmed) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
