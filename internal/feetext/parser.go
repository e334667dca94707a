package feetext

import (
	"strings"

	"github.com/mol-insights/feestrat-cli/internal/model"
)

// feeSanityCeiling is the amount above which a parsed fee is treated as
// likely noise: the value is kept but confidence is halved.
const feeSanityCeiling = 10000

// rule is one entry of the ordered classification chain. Marker matching
// runs against the raw note text; extracted numbers come from the
// normalized form. First matching rule wins.
type rule struct {
	unit       model.UnitType
	confidence float64
	markers    []string
	apply      func(d *model.FeeDescriptor, nums []float64, raw string)
}

func firstNumber(d *model.FeeDescriptor, nums []float64, _ string) {
	if len(nums) > 0 {
		d.BaseFee = nums[0]
	}
}

// rules encodes classification precedence: specific structural cues
// (per-person, per-month, per-modification) before profession tiers,
// before the general conditional bucket. A note can carry both a per-unit
// clause and a conditional clause; unit type is the primary axis and the
// condition tag is only attached within the conditional branch.
var rules = []rule{
	{
		unit:       model.UnitPerPerson,
		confidence: 0.9,
		markers:    []string{"كل شخص", "لكل شخص"},
		apply:      firstNumber,
	},
	{
		unit:       model.UnitPerMonth,
		confidence: 0.9,
		markers:    []string{"كل شهر", "شهريا", "شهرياً"},
		apply:      firstNumber,
	},
	{
		unit:       model.UnitPerModification,
		confidence: 0.9,
		markers:    []string{"كل تعديل", "لكل تعديل"},
		apply:      firstNumber,
	},
	{
		unit:       model.UnitTiered,
		confidence: 0.85,
		markers:    []string{"لكل مهنة", "مهنة"},
		apply: func(d *model.FeeDescriptor, nums []float64, _ string) {
			// Textual order of appearance: specialized rate first,
			// non-specialized second. Source notes have always listed
			// them in that order.
			if len(nums) > 0 {
				d.BaseFee = nums[0]
			}
			if len(nums) > 1 {
				d.SecondaryFee = nums[1]
			}
		},
	},
	{
		unit:       model.UnitConditional,
		confidence: 0.8,
		markers:    []string{"في حال", "حال"},
		apply: func(d *model.FeeDescriptor, nums []float64, raw string) {
			if len(nums) > 0 {
				d.BaseFee = nums[0]
			}
			d.Conditions = conditionTag(raw)
		},
	},
}

// conditionTags maps condition phrases to their tags, checked in order;
// the first match wins.
var conditionTags = []struct {
	tag     string
	markers []string
}{
	{model.ConditionPrivateCompany, []string{"شركة خاصة"}},
	{model.ConditionDisciplinary, []string{"الفصل التأديبي", "فصل تأديبي"}},
	{model.ConditionGovernment, []string{"حكومية"}},
}

func conditionTag(raw string) string {
	for _, ct := range conditionTags {
		if containsAny(raw, ct.markers...) {
			return ct.tag
		}
	}
	return ""
}

// ParseSuggestedFee maps one free-form fee note to a FeeDescriptor.
// Empty input yields a zero-confidence "none" descriptor; everything else
// is classified by the ordered rule chain, defaulting to a flat fee.
func ParseSuggestedFee(text string) model.FeeDescriptor {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return model.FeeDescriptor{UnitType: model.UnitNone}
	}

	nums := extractNumbers(Normalize(raw))
	d := model.FeeDescriptor{UnitType: model.UnitFlat, Source: raw}

	matched := false
	for _, r := range rules {
		if containsAny(raw, r.markers...) {
			d.UnitType = r.unit
			d.Confidence = r.confidence
			r.apply(&d, nums, raw)
			matched = true
			break
		}
	}

	if !matched {
		// Flat fallback: a note with a number is a usable flat fee;
		// a note with neither keyword nor number is indistinguishable
		// from noise.
		if len(nums) > 0 {
			d.BaseFee = nums[0]
			d.Confidence = 0.7
		}
	}

	if d.BaseFee > feeSanityCeiling {
		d.Confidence *= 0.5
	}

	return d
}

// ExtractCurrentFee pulls the numeric fee out of the current-fee column.
// "No fee" and cancellation markers map to 0; otherwise the first
// digit-only token wins.
func ExtractCurrentFee(text string) float64 {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0
	}
	if containsAny(s, "لا يوجد", "الغاء", "إلغاء") {
		return 0
	}
	nums := extractNumbers(Normalize(s))
	if len(nums) == 0 {
		return 0
	}
	return nums[0]
}
