package models

import "time"

type SurgeType string

const (
	SurgeTypeFixed   SurgeType = "Fixed"
	SurgeTypeDynamic SurgeType = "Dynamic"
)

// PayloadValue maps the display vocabulary to the wire vocabulary used in
// creation payloads: Fixed -> "fixed" (absolute multiplier), Dynamic ->
// "percentage" (percentage uplift).
func (t SurgeType) PayloadValue() string {
	if t == SurgeTypeDynamic {
		return "percentage"
	}
	return "fixed"
}

// ParseSurgeType accepts both vocabularies.
func ParseSurgeType(s string) (SurgeType, bool) {
	switch s {
	case "Fixed", "fixed":
		return SurgeTypeFixed, true
	case "Dynamic", "percentage":
		return SurgeTypeDynamic, true
	default:
		return "", false
	}
}

type SurgeArea struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	SurgeReason string    `json:"surgeReason"`
	SurgeType   SurgeType `json:"surgeType"`
	SurgeValue  float64   `json:"surgeValue"`
	Geometry    Geometry  `json:"geometry"`
	AreaSizeKm2 float64   `json:"areaSizeKm2"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

// reasonGroups maps free-text surge reasons to icon groups for the
// dashboard. Unknown reasons fall back to the default group.
var reasonGroups = map[string]string{
	"High Demand":     "demand",
	"Flight Schedule": "flight",
	"Weather":         "weather",
	"Event":           "event",
	"Holiday":         "holiday",
}

const DefaultReasonGroup = "general"

func ReasonGroup(reason string) string {
	if g, ok := reasonGroups[reason]; ok {
		return g
	}
	return DefaultReasonGroup
}
