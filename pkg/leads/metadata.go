package leads

import (
	"encoding/json"
	"strings"
	"time"
)

// MetadataMarker separates free-text notes from the embedded JSON payload
const MetadataMarker = "---LEVRIX_METADATA---"

// MetadataVersion is written into every payload as "v".
// Payloads without it were written before versioning and decode as 0.
const MetadataVersion = 1

// Metadata holds the derived lead fields the leads table has no columns for
type Metadata struct {
	PriorityScore    *int   `json:"priorityScore,omitempty"`
	NextFollowUpTask string `json:"nextFollowUpTask,omitempty"`
	Sentiment        string `json:"sentiment,omitempty"`
	PropertyAddress  string `json:"propertyAddress,omitempty"`
	CampaignSource   string `json:"campaignSource,omitempty"`
	TaskDueDate      string `json:"taskDueDate,omitempty"`
	TaskCompleted    *bool  `json:"taskCompleted,omitempty"`
	IsInvalidEmail   *bool  `json:"isInvalidEmail,omitempty"`
}

type envelope struct {
	V int `json:"v"`
	Metadata
}

// EncodeNotes strips any previous payload from notes and appends meta
func EncodeNotes(notes string, meta Metadata) string {
	clean := notes
	if i := strings.Index(clean, MetadataMarker); i >= 0 {
		clean = clean[:i]
	}
	clean = strings.TrimSpace(clean)

	payload, err := json.Marshal(envelope{V: MetadataVersion, Metadata: meta})
	if err != nil {
		payload = []byte(`{"v":1}`)
	}
	return clean + "\n\n" + MetadataMarker + "\n" + string(payload)
}

// DecodeNotes splits raw notes into text and metadata. It never fails:
// without a marker the notes come back untouched, and a payload that is not
// valid JSON returns the whole raw string with empty metadata.
func DecodeNotes(raw string) (string, Metadata, int) {
	i := strings.Index(raw, MetadataMarker)
	if i < 0 {
		return raw, Metadata{}, 0
	}

	prefix := strings.TrimSpace(raw[:i])
	rest := raw[i+len(MetadataMarker):]
	if j := strings.Index(rest, MetadataMarker); j >= 0 {
		rest = rest[:j]
	}

	payload := strings.TrimSpace(rest)
	if payload == "" {
		return prefix, Metadata{}, 0
	}

	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return raw, Metadata{}, 0
	}
	return prefix, env.Metadata, env.V
}

// metadataOf collects the derived fields of a lead
func metadataOf(l Lead) Metadata {
	completed := l.TaskCompleted
	rejected := l.EmailRejected

	meta := Metadata{
		PriorityScore:    l.PriorityScore,
		NextFollowUpTask: l.NextFollowUpTask,
		Sentiment:        string(l.Sentiment),
		PropertyAddress:  l.PropertyAddress,
		CampaignSource:   l.CampaignSource,
		TaskCompleted:    &completed,
		IsInvalidEmail:   &rejected,
	}
	if l.TaskDueDate != nil {
		meta.TaskDueDate = l.TaskDueDate.UTC().Format(time.RFC3339)
	}
	return meta
}

// applyMetadata copies decoded fields onto a lead read from the store
func applyMetadata(l *Lead, meta Metadata) {
	l.PriorityScore = meta.PriorityScore
	l.NextFollowUpTask = meta.NextFollowUpTask
	l.PropertyAddress = meta.PropertyAddress
	l.CampaignSource = meta.CampaignSource

	l.Sentiment = Sentiment(meta.Sentiment)
	if !l.Sentiment.Valid() {
		l.Sentiment = SentimentNeutral
	}
	if meta.TaskCompleted != nil {
		l.TaskCompleted = *meta.TaskCompleted
	}
	if meta.IsInvalidEmail != nil {
		l.EmailRejected = *meta.IsInvalidEmail
	}
	if meta.TaskDueDate != "" {
		if due, ok := parseDue(meta.TaskDueDate); ok {
			l.TaskDueDate = &due
		}
	}
}

// parseDue accepts RFC3339 and the bare dates older clients stored
func parseDue(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
