package prefilter

// PatternGroup names one scan concern. Groups are applied in phases:
// attack patterns first, then billing, then language hints.
type PatternGroup string

const (
	// GroupAttack flags structural prompt-injection attempts
	GroupAttack PatternGroup = "attack"
	// GroupBilling flags invoice-address material in the body
	GroupBilling PatternGroup = "billing"
	// GroupLanguage hints at the client's language
	GroupLanguage PatternGroup = "language"
)

// PatternSpec is one named scan expression before compilation.
type PatternSpec struct {
	// Name identifies the pattern in scan results and logs
	Name string
	// Group assigns the pattern to a scan phase
	Group PatternGroup
	// Pattern is the regular expression to match against the body
	Pattern string
	// Language tags language-hint patterns with their ISO code
	Language string
	// Description explains what the pattern catches
	Description string
}

// builtinPatterns returns the built-in scan set. Attack patterns match
// structural markers only; plain hostile prose is a detection concern,
// not a pre-filter concern.
func builtinPatterns() []PatternSpec {
	return []PatternSpec{
		// Structural prompt-attack markers.
		{
			Name:        "attack_role_tag",
			Group:       GroupAttack,
			Pattern:     `(?i)<\s*/?\s*(?:system|assistant|developer|im_start|im_end)\s*>`,
			Description: "Chat-template role tags embedded in the body",
		},
		{
			Name:        "attack_fence_role",
			Group:       GroupAttack,
			Pattern:     "(?i)```\\s*(?:system|assistant)\\b",
			Description: "Code fence opening a fake role block",
		},
		{
			Name:        "attack_instruction_override",
			Group:       GroupAttack,
			Pattern:     `(?i)\b(?:ignore|disregard|forget)\b.{0,40}\b(?:previous|prior|above|all)\b.{0,20}\b(?:instructions?|prompts?|rules?)\b`,
			Description: "Instruction-override phrasing",
		},
		{
			Name:        "attack_prompt_leak",
			Group:       GroupAttack,
			Pattern:     `(?i)\b(?:reveal|print|show|repeat)\b.{0,30}\b(?:system prompt|hidden instructions?)\b`,
			Description: "System-prompt exfiltration phrasing",
		},
		{
			Name:        "attack_role_reassignment",
			Group:       GroupAttack,
			Pattern:     `(?i)\byou are now\b.{0,40}\b(?:a|an|the)\b`,
			Description: "Role reassignment phrasing",
		},

		// Billing material.
		{
			Name:        "billing_keyword",
			Group:       GroupBilling,
			Pattern:     `(?i)\b(?:billing|invoice|rechnungs?)\s*-?\s*(?:address|details|information|adresse|anschrift)\b`,
			Description: "Explicit billing-address mention",
		},
		{
			Name:        "billing_bill_to",
			Group:       GroupBilling,
			Pattern:     `(?i)\b(?:bill|invoice)\s+(?:to|us at)\b`,
			Description: "Bill-to phrasing",
		},
		{
			Name:        "billing_street_line",
			Group:       GroupBilling,
			Pattern:     `(?i)\b[\p{L} .'-]+(?:strasse|straße|str\.|street|st\.|road|rd\.|avenue|ave\.?|gasse|weg|platz|allee)\s+\d+[a-z]?\b`,
			Description: "Street line with house number",
		},
		{
			Name:        "billing_postal_city",
			Group:       GroupBilling,
			Pattern:     `(?m)^\s*(?:[A-Z]{1,3}[- ])?\d{4,5}\s+\p{Lu}[\p{L} .'-]+\s*$`,
			Description: "Postal code followed by a city on its own line",
		},

		// Language hints. One match is enough for a hint; detection makes
		// the final call.
		{
			Name:     "lang_de",
			Group:    GroupLanguage,
			Language: "de",
			Pattern:  `(?i)\b(?:wir|möchten|gerne|bitte|danke|anfrage|veranstaltung|termin|verschieben|bestätigen|angebot|personen|gäste|grüsse|grüße)\b`,
		},
		{
			Name:     "lang_fr",
			Group:    GroupLanguage,
			Language: "fr",
			Pattern:  `(?i)\b(?:nous|bonjour|merci|salle|réserver|confirmer|personnes|offre|veuillez|cordialement)\b`,
		},
		{
			Name:     "lang_it",
			Group:    GroupLanguage,
			Language: "it",
			Pattern:  `(?i)\b(?:vorremmo|grazie|prenotare|confermare|persone|offerta|saluti|buongiorno)\b`,
		},
		{
			Name:     "lang_es",
			Group:    GroupLanguage,
			Language: "es",
			Pattern:  `(?i)\b(?:queremos|gracias|reservar|confirmar|personas|oferta|saludos|buenos días)\b`,
		},
	}
}
