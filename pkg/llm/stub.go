package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/prefilter"
)

// StubProvider answers every operation deterministically with rule-based
// parsing. It needs no network and no key, which keeps development and
// the test suite fully offline. Routing all operations to the stub gives
// byte-stable runs for the same inputs.
type StubProvider struct{}

// NewStubProvider returns the deterministic offline provider.
func NewStubProvider() *StubProvider { return &StubProvider{} }

// Name implements Provider.
func (s *StubProvider) Name() string { return "stub" }

// Complete implements Provider. Detection operations parse the raw
// message carried in req.User; verbalization renders a plain summary
// from the facts JSON.
func (s *StubProvider) Complete(_ context.Context, req Request) (Response, error) {
	switch req.Op {
	case OpDetect:
		det := s.Detect(req.User)
		b, err := json.Marshal(det)
		if err != nil {
			return Response{}, fmt.Errorf("marshal detection: %w", err)
		}
		return Response{Text: string(b), Model: "stub"}, nil

	case OpIntent:
		det := s.Detect(req.User)
		det.Entities = models.Entities{}
		b, err := json.Marshal(det)
		if err != nil {
			return Response{}, fmt.Errorf("marshal intent: %w", err)
		}
		return Response{Text: string(b), Model: "stub"}, nil

	case OpEntity:
		det := models.UnifiedDetection{Entities: s.ExtractEntities(prefilter.StripQuoted(req.User))}
		b, err := json.Marshal(det)
		if err != nil {
			return Response{}, fmt.Errorf("marshal entities: %w", err)
		}
		return Response{Text: string(b), Model: "stub"}, nil

	case OpVerbalize:
		return Response{Text: s.verbalize(req.User), Model: "stub"}, nil

	default:
		return Response{}, fmt.Errorf("stub: unknown operation %q", req.Op)
	}
}

var (
	reDateDots  = regexp.MustCompile(`\b(\d{1,2})\.(\d{1,2})\.(\d{4})\b`)
	reDateISO   = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	reDateSlash = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	reDateVague = regexp.MustCompile(`(?i)\b(?:next|coming|nächsten?|sometime in|irgendwann im)\s+(spring|summer|autumn|fall|winter|january|february|march|april|may|june|july|august|september|october|november|december|frühling|sommer|herbst|winter|januar|februar|märz|april|mai|juni|juli|august|september|oktober|november|dezember)\b`)

	reTime         = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)
	reParticipants = regexp.MustCompile(`(?i)\b(\d{1,4})\s*(?:guests?|people|persons?|participants?|attendees?|pax|personen|gäste|gaeste|personnes|persone)\b`)
	rePartyOf      = regexp.MustCompile(`(?i)\b(?:party|group) of (\d{1,4})\b`)
	reDuration     = regexp.MustCompile(`(?i)\b(\d{1,2}(?:\.\d)?)\s*(?:hours?|hrs?|stunden)\b`)
	reRoom         = regexp.MustCompile(`(?i)\b((?:room|salon|saal|raum)\s+[\p{L}\d][\p{L}\d-]*)\b`)
	reMenu         = regexp.MustCompile(`(?i)\bmenu\s+([A-Za-z][\w-]*)\b`)

	reAddVerb    = regexp.MustCompile(`(?i)\b(?:add|include|book|order|need|want|like|plus|dazu|hinzufügen)\b`)
	reRemoveVerb = regexp.MustCompile(`(?i)\b(?:remove|drop|cancel|without|skip|scratch|no longer|don't need|do not need|streichen|ohne)\b`)

	reStreet     = regexp.MustCompile(`(?i)\b([\p{L} .'-]+(?:strasse|straße|str\.|street|st\.|road|rd\.|avenue|ave\.?|gasse|weg|platz|allee)\s+\d+[a-z]?)\b`)
	reStreetUS   = regexp.MustCompile(`(?i)\b(\d{1,4}\s+[\p{L} .'-]+(?:street|st\.|road|rd\.|avenue|ave\.?|boulevard|blvd\.?|lane|ln\.?|drive|dr\.?))\b`)
	rePostalCity = regexp.MustCompile(`(?m)^\s*(?:[A-Z]{1,3}[- ])?(\d{4,5})\s+(\p{Lu}[\p{L} .'-]+?)\s*$`)
	// The company name is one or more capitalized tokens before the legal
	// form; lowercase prose before it ("Please invoice ...") is not part
	// of the name.
	reCompany = regexp.MustCompile(`\b((?:[\p{Lu}\d&][\p{L}\d&.'-]*\s+)+(?:GmbH|AG|Ltd\.?|Inc\.?|LLC|SA|S[àa]rl|SARL|KG|e\.V\.))(?:\b|$)`)
	reCountry = regexp.MustCompile(`(?i)\b(switzerland|schweiz|suisse|germany|deutschland|austria|österreich|france|frankreich|italy|italia|italien|liechtenstein)\b`)

	reConfirm     = regexp.MustCompile(`(?i)\b(?:confirm(?:ed)?|that works|works for us|perfect|great, let's|go ahead|sounds good|einverstanden|passt|bestätigen?|wir bestätigen)\b|^\s*(?:yes|ja|oui)\b`)
	reAccept      = regexp.MustCompile(`(?i)\b(?:accept|we'll take it|we take it|we agree|agreed|nehmen wir|akzeptieren)\b`)
	reReject      = regexp.MustCompile(`(?i)\b(?:decline|reject|too expensive|we pass|not (?:accept|proceed)|won't work for us|ablehnen|leider absagen)\b`)
	reManager     = regexp.MustCompile(`(?i)\b(?:manager|supervisor|human|real person|someone in charge|speak to a person|mit einem menschen|mitarbeiter sprechen)\b`)
	reUrgent      = regexp.MustCompile(`(?i)\b(?:urgent(?:ly)?|asap|as soon as possible|immediately|right away|dringend|sofort)\b`)
	reQuestion    = regexp.MustCompile(`(?i)^\s*(?:what|when|where|how|why|can you|could you|do you|does|is there|are there|was|wann|wo|wie|können sie|gibt es|haben sie)\b`)
	reCancelEvent = regexp.MustCompile(`(?i)\b(?:cancel|call off|stornieren|absagen)\b.{0,60}\b(?:event|booking|reservation|everything|whole thing|veranstaltung|buchung|anfrage)\b|\bwe (?:have|need) to cancel\b`)

	reRevisionVerb = regexp.MustCompile(`(?i)\b(?:move|chang(?:e|ing)|resched(?:ule|uling)|switch|shift|postpone|push|instead|rather|actually|update|adjust|verschieben|ändern|lieber|stattdessen|anpassen)\b`)
	reBoundTarget  = regexp.MustCompile(`(?i)\b(?:date|day|datum|termin|time|uhrzeit|room|raum|saal|salon|offer|angebot|price|preis|participants?|people|guests?|personen|gäste|gaeste|products?|catering|menu|deposit|anzahlung|billing|address|adresse)\b`)

	reNonEvent = regexp.MustCompile(`(?i)\b(?:unsubscribe|newsletter|out of office|auto-?reply|automatic reply|abwesenheitsnotiz|win a prize|click here)\b`)
	reEventish = regexp.MustCompile(`(?i)\b(?:event|workshop|conference|meeting|party|celebration|wedding|seminar|offsite|team ?day|venue|book(?:ing)?|reserve|reservation|anlass|veranstaltung|feier|hochzeit|tagung|buchen)\b`)

	reSiteVisit = regexp.MustCompile(`(?i)\b(?:site visit|visit the venue|see the venue|view the (?:room|space|venue)|venue tour|besichtigung|besichtigen)\b`)
)

// qnaTopicPatterns map body cues to QnA topic tags.
var qnaTopicPatterns = []struct {
	topic string
	re    *regexp.Regexp
}{
	{"site_visit", reSiteVisit},
	{"parking", regexp.MustCompile(`(?i)\b(?:parking|parkplatz|parkplätze)\b`)},
	{"catering", regexp.MustCompile(`(?i)\b(?:catering|menu|food|drinks|vegetarian|vegan|essen|getränke)\b`)},
	{"pricing", regexp.MustCompile(`(?i)\b(?:price|cost|how much|rate|preis|kosten|tarif)\b`)},
	{"availability", regexp.MustCompile(`(?i)\b(?:available|availability|free on|frei am|verfügbar)\b`)},
	{"accessibility", regexp.MustCompile(`(?i)\b(?:wheelchair|accessible|accessibility|barrierefrei|rollstuhl)\b`)},
}

// Detect runs the rule engine over a raw message body and returns the
// structured read an LLM provider would produce.
func (s *StubProvider) Detect(body string) models.UnifiedDetection {
	text := prefilter.StripQuoted(body)
	det := models.UnifiedDetection{
		Language: detectLanguage(text),
		Entities: s.ExtractEntities(text),
	}

	det.Signals = models.Signals{
		IsConfirmation:   reConfirm.MatchString(text),
		IsAcceptance:     reAccept.MatchString(text),
		IsRejection:      reReject.MatchString(text),
		IsManagerRequest: reManager.MatchString(text),
		IsQuestion:       strings.Contains(text, "?") || reQuestion.MatchString(text),
		HasUrgency:       reUrgent.MatchString(text),
	}
	det.Signals.IsChangeRequest = reRevisionVerb.MatchString(text) && reBoundTarget.MatchString(text)

	for _, tp := range qnaTopicPatterns {
		if tp.re.MatchString(text) {
			det.QnATypes = append(det.QnATypes, tp.topic)
		}
	}
	sort.Strings(det.QnATypes)

	switch {
	case reCancelEvent.MatchString(text):
		det.Intent = models.IntentCancellation
		det.Confidence = 0.9
	case det.Signals.IsManagerRequest:
		det.Intent = models.IntentManagerRequest
		det.Confidence = 0.9
	case det.Signals.IsChangeRequest:
		det.Intent = models.IntentChangeRequest
		det.Confidence = 0.9
	case det.Signals.IsRejection:
		det.Intent = models.IntentDeclineOffer
		det.Confidence = 0.9
	case det.Signals.IsAcceptance:
		det.Intent = models.IntentAcceptOffer
		det.Confidence = 0.9
	case det.Signals.IsConfirmation && (det.Entities.DateISO != "" || reBoundTarget.MatchString(text)):
		det.Intent = models.IntentConfirmDate
		det.Confidence = 0.9
	case det.Signals.IsConfirmation:
		det.Intent = models.IntentConfirmDate
		det.Confidence = 0.8
	case reNonEvent.MatchString(text):
		det.Intent = models.IntentNonEvent
		det.Confidence = 0.8
	case reEventish.MatchString(text) || (det.Entities.DateISO != "" && det.Entities.Participants != nil):
		det.Intent = models.IntentEventRequest
		det.Confidence = 0.85
	case det.Signals.IsQuestion:
		det.Intent = models.IntentQnA
		det.Confidence = 0.8
	case !det.Entities.Empty():
		det.Intent = models.IntentQnA
		det.Confidence = 0.7
	default:
		det.Intent = models.IntentQnA
		det.Confidence = 0.55
	}

	return det
}

// ExtractEntities pulls structured values out of already-unquoted text.
func (s *StubProvider) ExtractEntities(text string) models.Entities {
	var ent models.Entities

	if m := reDateDots.FindStringSubmatch(text); m != nil {
		if iso, ok := isoDate(m[3], m[2], m[1]); ok {
			ent.DateISO = iso
			ent.DateText = m[0]
		}
	}
	if ent.DateISO == "" {
		if m := reDateISO.FindStringSubmatch(text); m != nil {
			if iso, ok := isoDate(m[1], m[2], m[3]); ok {
				ent.DateISO = iso
				ent.DateText = m[0]
			}
		}
	}
	if ent.DateISO == "" {
		if m := reDateSlash.FindStringSubmatch(text); m != nil {
			// European day-first reading.
			if iso, ok := isoDate(m[3], m[2], m[1]); ok {
				ent.DateISO = iso
				ent.DateText = m[0]
			}
		}
	}
	if ent.DateISO == "" {
		if m := reDateVague.FindString(text); m != "" {
			ent.DateText = m
		}
	}

	times := reTime.FindAllString(text, 2)
	if len(times) > 0 {
		ent.StartTime = times[0]
	}
	if len(times) > 1 {
		ent.EndTime = times[1]
	}

	if m := reParticipants.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			ent.Participants = &n
		}
	} else if m := rePartyOf.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			ent.Participants = &n
		}
	}

	if m := reDuration.FindStringSubmatch(text); m != nil {
		if h, err := strconv.ParseFloat(m[1], 64); err == nil && h > 0 {
			ent.DurationHours = &h
		}
	}

	if m := reRoom.FindStringSubmatch(text); m != nil {
		ent.RoomPreference = normalizeRoomMention(m[1])
	}

	if m := reMenu.FindStringSubmatch(text); m != nil {
		ent.MenuChoice = "Menu " + strings.ToUpper(m[1][:1]) + m[1][1:]
	}

	ent.ProductsAdd, ent.ProductsRemove = extractProducts(text)
	ent.BillingAddress = extractBilling(text)

	return ent
}

// productLexicon lists mentions the stub can bind to catalog products.
// The catalog resolves them case-insensitively against configured names.
var productLexicon = []string{
	"business lunch",
	"coffee break",
	"apero riche",
	"apero",
	"stage lighting",
	"lighting",
	"projector",
	"beamer",
	"event support",
	"microphone",
	"flipchart",
	"catering",
}

func extractProducts(text string) (add, remove []string) {
	for _, sentence := range splitSentences(text) {
		lower := strings.ToLower(sentence)
		removing := reRemoveVerb.MatchString(sentence)
		adding := reAddVerb.MatchString(sentence)
		if !removing && !adding {
			continue
		}
		for _, product := range productLexicon {
			if !strings.Contains(lower, product) {
				continue
			}
			if removing {
				remove = appendUnique(remove, product)
			} else {
				add = appendUnique(add, product)
			}
		}
	}
	return add, remove
}

func extractBilling(text string) *models.BillingDetails {
	var b models.BillingDetails
	fields := 0

	if m := reStreet.FindStringSubmatch(text); m != nil {
		b.Street = strings.TrimSpace(m[1])
		fields++
	} else if m := reStreetUS.FindStringSubmatch(text); m != nil {
		b.Street = strings.TrimSpace(m[1])
		fields++
	}
	if m := rePostalCity.FindStringSubmatch(text); m != nil {
		b.PostalCode = m[1]
		b.City = strings.TrimSpace(m[2])
		fields += 2
	}
	if m := reCompany.FindStringSubmatch(text); m != nil {
		b.NameOrCompany = strings.TrimSpace(m[1])
		fields++
	}
	if m := reCountry.FindString(text); m != "" {
		b.Country = canonicalCountry(m)
		fields++
	}

	// A street line with a city, or a company with an address, is billing
	// material. A lone country mention is not.
	if fields >= 2 && (b.Street != "" || b.PostalCode != "") {
		return &b
	}
	return nil
}

func (s *StubProvider) verbalize(factsJSON string) string {
	var facts map[string]any
	if err := json.Unmarshal([]byte(factsJSON), &facts); err != nil {
		return ""
	}
	keys := make([]string, 0, len(facts))
	for k := range facts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		switch v := facts[k].(type) {
		case string:
			if v != "" {
				parts = append(parts, fmt.Sprintf("%s: %s", k, v))
			}
		case float64:
			parts = append(parts, fmt.Sprintf("%s: %.2f", k, v))
		}
	}
	return strings.Join(parts, "; ")
}

func isoDate(year, month, day string) (string, bool) {
	y, err := strconv.Atoi(year)
	if err != nil || y < 2000 || y > 2200 {
		return "", false
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return "", false
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d), true
}

func normalizeRoomMention(mention string) string {
	fields := strings.Fields(mention)
	if len(fields) == 0 {
		return mention
	}
	keyword := strings.ToLower(fields[0])
	keyword = strings.ToUpper(keyword[:1]) + keyword[1:]
	rest := strings.Join(fields[1:], " ")
	if len(rest) == 1 {
		rest = strings.ToUpper(rest)
	}
	return keyword + " " + rest
}

func canonicalCountry(raw string) string {
	switch strings.ToLower(raw) {
	case "schweiz", "suisse", "switzerland":
		return "Switzerland"
	case "deutschland", "germany":
		return "Germany"
	case "österreich", "austria":
		return "Austria"
	case "frankreich", "france":
		return "France"
	case "italia", "italien", "italy":
		return "Italy"
	default:
		return strings.ToUpper(raw[:1]) + strings.ToLower(raw[1:])
	}
}

var langMarkers = []struct {
	code string
	re   *regexp.Regexp
}{
	{"de", regexp.MustCompile(`(?i)\b(?:wir|und|nicht|möchten|gerne|bitte|danke|für|termin|veranstaltung|personen|gäste|grüsse|grüße|bestätigen)\b`)},
	{"fr", regexp.MustCompile(`(?i)\b(?:nous|bonjour|merci|salle|réserver|personnes|veuillez|cordialement|pour le)\b`)},
	{"it", regexp.MustCompile(`(?i)\b(?:vorremmo|grazie|prenotare|persone|saluti|buongiorno|per il)\b`)},
}

func detectLanguage(text string) string {
	best, lang := 0, "en"
	for _, marker := range langMarkers {
		hits := len(marker.re.FindAllString(text, -1))
		if hits > best {
			best = hits
			lang = marker.code
		}
	}
	// A lone loanword is not a language switch.
	if best < 2 {
		return "en"
	}
	return lang
}

func splitSentences(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n' || r == ';'
	})
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}
