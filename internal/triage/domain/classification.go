package domain

// Category is the closed set of triage outcomes the classifier may choose.
type Category string

const (
	CategoryFeature           Category = "feature"
	CategoryTask              Category = "task"
	CategoryResponse          Category = "response"
	CategoryCorrelateExisting Category = "correlate_existing"
	CategoryNoAction          Category = "no_action"
)

// NormalizeCategory maps a raw classifier string onto the closed enum.
// Empty or unrecognized values become CategoryResponse: silently dropping
// a message is higher-risk than defaulting to "needs a reply", so the
// fallback is never no_action.
func NormalizeCategory(raw string) Category {
	switch Category(raw) {
	case CategoryFeature, CategoryTask, CategoryResponse, CategoryCorrelateExisting, CategoryNoAction:
		return Category(raw)
	default:
		return CategoryResponse
	}
}

// FeatureFields are the classifier extractions for a new feature request.
type FeatureFields struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority,omitempty"`
	ModuleID    string `json:"module_id,omitempty"`
}

// TaskFields are the classifier extractions for a new task.
type TaskFields struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Priority    string   `json:"priority,omitempty"`
	Status      string   `json:"status,omitempty"`
	Assignees   []string `json:"assignees,omitempty"`
	DueDate     string   `json:"due_date,omitempty"`
	ModuleID    string   `json:"module_id,omitempty"`
}

// ResponseFields are the classifier extractions for a suggested reply.
type ResponseFields struct {
	ReplyText string `json:"reply_text,omitempty"`
	Tone      string `json:"tone,omitempty"`
}

// CorrelationFields are the classifier hints for matching an existing
// work item, plus the status/comment merged in by the correlator.
type CorrelationFields struct {
	WorkItemID string `json:"work_item_id,omitempty"`
	TenantID   string `json:"tenant_id,omitempty"`
	ModuleID   string `json:"module_id,omitempty"`
	Status     string `json:"status,omitempty"`
	Comment    string `json:"comment,omitempty"`
}

// ExtractedFields is the typed view of the classifier's open extraction
// map. Exactly one of the per-category structs is populated (matching the
// classification category); anything the model returned that we do not
// recognize lands in Extra so it is preserved in the audit snapshot.
type ExtractedFields struct {
	Feature     *FeatureFields     `json:"feature,omitempty"`
	Task        *TaskFields        `json:"task,omitempty"`
	Response    *ResponseFields    `json:"response,omitempty"`
	Correlation *CorrelationFields `json:"correlation,omitempty"`
	Extra       map[string]interface{} `json:"extra,omitempty"`
}

// ModuleID returns the module reference from whichever field set carries
// one, or "" when the classifier supplied none.
func (f *ExtractedFields) ModuleID() string {
	switch {
	case f.Feature != nil && f.Feature.ModuleID != "":
		return f.Feature.ModuleID
	case f.Task != nil && f.Task.ModuleID != "":
		return f.Task.ModuleID
	case f.Correlation != nil && f.Correlation.ModuleID != "":
		return f.Correlation.ModuleID
	}
	return ""
}

// TenantID returns the tenant reference, if the classifier supplied one.
func (f *ExtractedFields) TenantID() string {
	if f.Correlation != nil {
		return f.Correlation.TenantID
	}
	return ""
}

// ClassificationResult is the validated output of one classification call.
type ClassificationResult struct {
	Category      Category        `json:"category"`
	Fields        ExtractedFields `json:"fields"`
	MatchedItemID string          `json:"matched_item_id,omitempty"`
	Confidence    float64         `json:"confidence"` // advisory, clamped to [0,1]
}

// knownExtractionKeys are the keys the coercion below consumes; everything
// else is kept verbatim in Extra.
var knownExtractionKeys = map[string]bool{
	"category": true, "title": true, "description": true, "priority": true,
	"status": true, "assignees": true, "due_date": true, "reply_text": true,
	"tone": true, "tenant_id": true, "module_id": true, "work_item_id": true,
	"comment": true, "confidence": true,
}

// NewClassificationResult coerces the sanitized model object into a typed
// result. This is the single boundary where the untyped extraction map is
// validated; downstream workflow code only ever sees the typed form.
func NewClassificationResult(obj map[string]interface{}) ClassificationResult {
	category, _ := obj["category"].(string)
	result := ClassificationResult{
		Category:   NormalizeCategory(category),
		Confidence: clamp01(floatValue(obj["confidence"])),
	}

	if id, ok := obj["work_item_id"].(string); ok {
		result.MatchedItemID = id
	}

	switch result.Category {
	case CategoryFeature:
		result.Fields.Feature = &FeatureFields{
			Title:       stringValue(obj["title"]),
			Description: stringValue(obj["description"]),
			Priority:    stringValue(obj["priority"]),
			ModuleID:    stringValue(obj["module_id"]),
		}
	case CategoryTask:
		result.Fields.Task = &TaskFields{
			Title:       stringValue(obj["title"]),
			Description: stringValue(obj["description"]),
			Priority:    stringValue(obj["priority"]),
			Status:      stringValue(obj["status"]),
			Assignees:   stringSliceValue(obj["assignees"]),
			DueDate:     stringValue(obj["due_date"]),
			ModuleID:    stringValue(obj["module_id"]),
		}
	case CategoryResponse:
		result.Fields.Response = &ResponseFields{
			ReplyText: stringValue(obj["reply_text"]),
			Tone:      stringValue(obj["tone"]),
		}
	case CategoryCorrelateExisting:
		result.Fields.Correlation = &CorrelationFields{
			WorkItemID: stringValue(obj["work_item_id"]),
			TenantID:   stringValue(obj["tenant_id"]),
			ModuleID:   stringValue(obj["module_id"]),
			Status:     stringValue(obj["status"]),
			Comment:    stringValue(obj["comment"]),
		}
	}

	for k, v := range obj {
		if knownExtractionKeys[k] {
			continue
		}
		if result.Fields.Extra == nil {
			result.Fields.Extra = make(map[string]interface{})
		}
		result.Fields.Extra[k] = v
	}

	return result
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}

func floatValue(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}

func stringSliceValue(v interface{}) []string {
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
