package models

// DraftTopic tags what a draft is about; a subset of topics is HIL-gated.
type DraftTopic string

const (
	// TopicOfferSent carries a new offer to the client
	TopicOfferSent DraftTopic = "offer_sent"
	// TopicOfferConfirmation acknowledges an accepted offer
	TopicOfferConfirmation DraftTopic = "offer_confirmation"
	// TopicTransitionMessage is the accept-to-confirm handoff
	TopicTransitionMessage DraftTopic = "transition_message"
	// TopicFinalContractSent is the closing confirmation
	TopicFinalContractSent DraftTopic = "final_contract_sent"
	// TopicDateRequest asks the client to pick or confirm a date
	TopicDateRequest DraftTopic = "date_request"
	// TopicRoomProposal proposes one or more rooms
	TopicRoomProposal DraftTopic = "room_proposal"
	// TopicBillingRequest asks for missing billing fields
	TopicBillingRequest DraftTopic = "billing_request"
	// TopicDepositRequest asks for the deposit payment
	TopicDepositRequest DraftTopic = "deposit_request"
	// TopicSiteVisit arranges a venue visit
	TopicSiteVisit DraftTopic = "site_visit"
	// TopicQnA answers a question
	TopicQnA DraftTopic = "qna"
	// TopicOfferSummary is the manager-panel recap of a composed offer
	TopicOfferSummary DraftTopic = "offer_summary"
	// TopicFallback is the visible reply on processing failure
	TopicFallback DraftTopic = "fallback"
)

// HILGated reports whether this topic must never be auto-sent while
// hil_mode is enabled.
func (t DraftTopic) HILGated() bool {
	switch t {
	case TopicOfferSent, TopicOfferConfirmation, TopicTransitionMessage, TopicFinalContractSent:
		return true
	default:
		return false
	}
}

// TableBlock is tabular content attached to a manager-panel draft.
type TableBlock struct {
	Title   string     `json:"title,omitempty"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Draft is one outbound reply candidate produced by a step handler.
type Draft struct {
	Body             string       `json:"body"`
	BodyMarkdown     string       `json:"body_markdown,omitempty"`
	Step             int          `json:"step"`
	Topic            DraftTopic   `json:"topic"`
	RequiresApproval bool         `json:"requires_approval"`
	Headers          []string     `json:"headers,omitempty"`
	TableBlocks      []TableBlock `json:"table_blocks,omitempty"`
	Footer           string       `json:"footer,omitempty"`
}
