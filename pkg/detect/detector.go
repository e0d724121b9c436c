// Package detect classifies inbound messages and extracts the entities
// the workflow acts on. Unified mode does both in one LLM call; legacy
// mode runs a keyword pre-scan, an intent call and an entity call.
// Provider selection and the single fallback retry live in pkg/llm.
package detect

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/llm"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/prefilter"
)

// detection call budgets. Detection wants determinism, so temperature
// stays at zero and the budgets are tight.
const (
	detectMaxTokens = 700
	entityMaxTokens = 400
)

// Detector turns one inbound message into a UnifiedDetection.
type Detector struct {
	router *llm.Router
	logger *slog.Logger
}

// New creates a Detector. The LLM router is required.
func New(router *llm.Router, logger *slog.Logger) *Detector {
	if router == nil {
		panic("detect: router is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		router: router,
		logger: logger.With("component", "detector"),
	}
}

// Detect reads the message in the mode the runtime settings select.
// The language hint comes from the pre-filter scan and may be empty.
func (d *Detector) Detect(ctx context.Context, msg *models.InboundMessage, currentStep int, langHint string, settings models.Settings) (*models.UnifiedDetection, error) {
	body := prefilter.StripQuoted(msg.Body)
	if settings.DetectionMode == models.DetectionLegacy {
		return d.detectLegacy(ctx, msg, body, currentStep, langHint, settings)
	}
	return d.detectUnified(ctx, msg, body, currentStep, langHint, settings)
}

func (d *Detector) detectUnified(ctx context.Context, msg *models.InboundMessage, body string, currentStep int, langHint string, settings models.Settings) (*models.UnifiedDetection, error) {
	resp, err := d.router.Complete(ctx, settings.LLMProvider, llm.Request{
		Op:        llm.OpDetect,
		System:    buildUnifiedSystem(currentStep, msg.Subject, langHint),
		User:      body,
		MaxTokens: detectMaxTokens,
		JSONMode:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("unified detection: %w", err)
	}

	det, err := parseDetection(resp.Text)
	if err != nil {
		return nil, fmt.Errorf("unified detection: %w", err)
	}
	d.logger.Debug("message classified",
		"msg_id", msg.MsgID,
		"mode", models.DetectionUnified,
		"intent", det.Intent,
		"confidence", det.Confidence,
		"model", resp.Model)
	return det, nil
}

func (d *Detector) detectLegacy(ctx context.Context, msg *models.InboundMessage, body string, currentStep int, langHint string, settings models.Settings) (*models.UnifiedDetection, error) {
	// Keyword pre-scan settles trivial cases without any LLM call.
	if det, ok := prescan(body); ok {
		d.logger.Debug("message classified",
			"msg_id", msg.MsgID,
			"mode", models.DetectionLegacy,
			"intent", det.Intent,
			"confidence", det.Confidence,
			"model", "prescan")
		return det, nil
	}

	resp, err := d.router.Complete(ctx, settings.LLMProvider, llm.Request{
		Op:        llm.OpIntent,
		System:    buildIntentSystem(currentStep, langHint),
		User:      body,
		MaxTokens: detectMaxTokens,
		JSONMode:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("intent detection: %w", err)
	}
	det, err := parseDetection(resp.Text)
	if err != nil {
		return nil, fmt.Errorf("intent detection: %w", err)
	}

	if wantsEntities(det.Intent) {
		entResp, err := d.router.Complete(ctx, settings.LLMProvider, llm.Request{
			Op:        llm.OpEntity,
			System:    buildEntitySystem(langHint),
			User:      body,
			MaxTokens: entityMaxTokens,
			JSONMode:  true,
		})
		if err != nil {
			return nil, fmt.Errorf("entity extraction: %w", err)
		}
		entDet, err := parseDetection(entResp.Text)
		if err != nil {
			return nil, fmt.Errorf("entity extraction: %w", err)
		}
		det.Entities = entDet.Entities
	}

	d.logger.Debug("message classified",
		"msg_id", msg.MsgID,
		"mode", models.DetectionLegacy,
		"intent", det.Intent,
		"confidence", det.Confidence)
	return det, nil
}

// wantsEntities says whether the legacy flow spends a second call on
// extraction. Questions and noise carry nothing actionable.
func wantsEntities(intent models.Intent) bool {
	switch intent {
	case models.IntentQnA, models.IntentNonEvent, models.IntentManagerRequest:
		return false
	default:
		return true
	}
}

var (
	reNoise        = regexp.MustCompile(`(?i)\b(?:unsubscribe|out of office|automatic reply|auto-?reply|abwesenheitsnotiz|delivery status notification)\b`)
	reValidISODate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	reValidTime    = regexp.MustCompile(`^(?:[01]?\d|2[0-3]):[0-5]\d$`)
)

// prescan settles messages no model needs to read.
func prescan(body string) (*models.UnifiedDetection, bool) {
	if body == "" {
		return &models.UnifiedDetection{
			Intent:     models.IntentNonEvent,
			Confidence: 1,
			Language:   "en",
		}, true
	}
	if reNoise.MatchString(body) {
		return &models.UnifiedDetection{
			Intent:     models.IntentNonEvent,
			Confidence: 0.95,
			Language:   "en",
		}, true
	}
	return nil, false
}

// parseDetection decodes and normalizes a provider completion. Invalid
// enum values, out-of-range confidences and malformed entity formats are
// repaired rather than rejected; a reply the model mangled entirely is
// an error the caller turns into a fallback.
func parseDetection(text string) (*models.UnifiedDetection, error) {
	payload, err := llm.ExtractJSONObject(text)
	if err != nil {
		return nil, err
	}
	var det models.UnifiedDetection
	if err := json.Unmarshal([]byte(payload), &det); err != nil {
		return nil, fmt.Errorf("decode detection: %w", err)
	}
	normalize(&det)
	return &det, nil
}

func normalize(det *models.UnifiedDetection) {
	if !det.Intent.IsValid() {
		det.Intent = models.IntentQnA
	}
	if det.Confidence < 0 {
		det.Confidence = 0
	}
	if det.Confidence > 1 {
		det.Confidence = 1
	}
	if det.Language == "" {
		det.Language = "en"
	}

	ent := &det.Entities
	if ent.DateISO != "" {
		if !reValidISODate.MatchString(ent.DateISO) {
			ent.DateISO = ""
		} else if _, err := time.Parse("2006-01-02", ent.DateISO); err != nil {
			ent.DateISO = ""
		}
	}
	if ent.StartTime != "" && !reValidTime.MatchString(ent.StartTime) {
		ent.StartTime = ""
	}
	if ent.EndTime != "" && !reValidTime.MatchString(ent.EndTime) {
		ent.EndTime = ""
	}
	if ent.Participants != nil && *ent.Participants <= 0 {
		ent.Participants = nil
	}
	if ent.DurationHours != nil && *ent.DurationHours <= 0 {
		ent.DurationHours = nil
	}
	if ent.BillingAddress != nil {
		empty := models.BillingDetails{}
		if *ent.BillingAddress == empty {
			ent.BillingAddress = nil
		}
	}
	if det.StepAnchor != nil {
		if *det.StepAnchor < models.StepMin || *det.StepAnchor > models.StepMax {
			det.StepAnchor = nil
		}
	}
}
