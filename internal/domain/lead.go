package domain

import (
	"fmt"
	"strings"
	"time"
)

// Lead represents the contact record captured by the lead form
type Lead struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	Message string `json:"message"`
}

// RequiredIntakeFields lists the keys the intake route requires, in the
// order they are reported when missing.
var RequiredIntakeFields = []string{"first_name", "last_name", "email", "phone", "company", "message"}

// IntakePayload is the raw JSON object posted to the intake route. Keys
// beyond the required ones are carried through to the CRM record.
type IntakePayload map[string]any

// Missing returns the required keys that are absent or hold a falsy value
// (null, "", false or 0).
func (p IntakePayload) Missing(required ...string) []string {
	var missing []string
	for _, key := range required {
		if !truthy(p[key]) {
			missing = append(missing, key)
		}
	}
	return missing
}

// String returns the payload value for key rendered as text.
func (p IntakePayload) String(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return fmt.Sprint(v)
}

func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case bool:
		return val
	case float64:
		return val != 0
	case int:
		return val != 0
	default:
		return true
	}
}

// CRMLead is an intake payload enriched with CRM routing metadata
type CRMLead struct {
	Fields     IntakePayload `json:"-"`
	LeadID     string        `json:"lead_id"`
	Status     string        `json:"status"`
	AssignedTo string        `json:"assigned_to"`
	Priority   string        `json:"priority"`
	Tags       []string      `json:"tags"`
	CreatedAt  time.Time     `json:"-"`
}

// NewCRMLead builds a new CRM record for an accepted intake payload
func NewCRMLead(fields IntakePayload, assignedTo string, now time.Time) *CRMLead {
	return &CRMLead{
		Fields:     fields,
		LeadID:     fmt.Sprintf("LEAD_%d", now.UnixMilli()),
		Status:     "new",
		AssignedTo: assignedTo,
		Priority:   "medium",
		Tags:       []string{"website", "inbound"},
		CreatedAt:  now,
	}
}

// Record flattens the lead into the object sent to a downstream CRM:
// the submitted fields overlaid with the routing metadata.
func (l *CRMLead) Record() map[string]any {
	out := make(map[string]any, len(l.Fields)+5)
	for k, v := range l.Fields {
		out[k] = v
	}
	out["lead_id"] = l.LeadID
	out["status"] = l.Status
	out["assigned_to"] = l.AssignedTo
	out["priority"] = l.Priority
	out["tags"] = l.Tags
	return out
}

// FullName joins first and last name of the intake payload
func (l *CRMLead) FullName() string {
	return strings.TrimSpace(l.Fields.String("first_name") + " " + l.Fields.String("last_name"))
}

// IntakeResult is the answer of the intake route for an accepted lead
type IntakeResult struct {
	Success    bool   `json:"success"`
	LeadID     string `json:"lead_id"`
	Message    string `json:"message"`
	AssignedTo string `json:"assigned_to"`
	NextSteps  string `json:"next_steps"`
}
