package workflow

import (
	"strings"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/verbalizer"
)

// mergeBilling copies non-empty incoming billing fields onto the event
// and returns the names of the fields that changed. Existing values are
// only overwritten by a new non-empty value.
func mergeBilling(e *models.Event, in *models.BillingDetails) []string {
	if in == nil {
		return nil
	}
	var changed []string
	set := func(field string, dst *string, val string) {
		val = strings.TrimSpace(val)
		if val == "" || *dst == val {
			return
		}
		*dst = val
		changed = append(changed, field)
	}
	set("name_or_company", &e.BillingDetails.NameOrCompany, in.NameOrCompany)
	set("street", &e.BillingDetails.Street, in.Street)
	set("postal_code", &e.BillingDetails.PostalCode, in.PostalCode)
	set("city", &e.BillingDetails.City, in.City)
	set("country", &e.BillingDetails.Country, in.Country)
	return changed
}

// draftBillingRequest asks the client for the billing fields still
// missing before the flow can move on.
func draftBillingRequest(ws *WorkflowState, missing []string) DraftSpec {
	body := "Thank you! To finalize the paperwork we still need your billing details:\n\n" +
		verbalizer.FieldList(missing) +
		"\n\nA short reply with the address is all we need."
	return DraftSpec{
		Draft: models.Draft{
			Body:  body,
			Topic: models.TopicBillingRequest,
		},
		Facts: &verbalizer.Facts{
			Language:             ws.Language(),
			MissingBillingFields: missing,
		},
	}
}
