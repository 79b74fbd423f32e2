package leads

import "time"

// Source is where a lead came from
type Source string

const (
	SourceFacebook Source = "Facebook"
	SourceGoogle   Source = "Google"
	SourceManual   Source = "Manual"
	SourceReferral Source = "Referral"
)

// Valid reports whether s is a known source
func (s Source) Valid() bool {
	switch s {
	case SourceFacebook, SourceGoogle, SourceManual, SourceReferral:
		return true
	}
	return false
}

// Status is the sales status of a lead
type Status string

const (
	StatusNew            Status = "New"
	StatusContacted      Status = "Contacted"
	StatusQualified      Status = "Qualified"
	StatusProposal       Status = "Proposal"
	StatusWon            Status = "Won"
	StatusLost           Status = "Lost"
	StatusArchived       Status = "Archived"
	StatusFollowUpNeeded Status = "Follow Up Needed"
)

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusContacted, StatusQualified, StatusProposal,
		StatusWon, StatusLost, StatusArchived, StatusFollowUpNeeded:
		return true
	}
	return false
}

// Stage is the position of a lead in the follow-up pipeline
type Stage string

const (
	StageInquiry         Stage = "Inquiry"
	StageFirstContact    Stage = "First Contact"
	StagePropertyViewing Stage = "Property Viewing"
	StageOfferMade       Stage = "Offer Made"
	StageContract        Stage = "Contract"
	StageClosed          Stage = "Closed"
)

var pipeline = []Stage{
	StageInquiry,
	StageFirstContact,
	StagePropertyViewing,
	StageOfferMade,
	StageContract,
	StageClosed,
}

// Stages returns the pipeline in order
func Stages() []Stage {
	out := make([]Stage, len(pipeline))
	copy(out, pipeline)
	return out
}

// Valid reports whether s is part of the pipeline
func (s Stage) Valid() bool {
	return s.index() >= 0
}

// Next returns the following stage. Closed, and anything unknown, stays put.
func (s Stage) Next() Stage {
	i := s.index()
	if i < 0 || i == len(pipeline)-1 {
		return s
	}
	return pipeline[i+1]
}

func (s Stage) index() int {
	for i, st := range pipeline {
		if st == s {
			return i
		}
	}
	return -1
}

// Sentiment is the tone detected in the last interaction
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNeutral  Sentiment = "Neutral"
	SentimentNegative Sentiment = "Negative"
)

// Valid reports whether s is a known sentiment
func (s Sentiment) Valid() bool {
	return s == SentimentPositive || s == SentimentNeutral || s == SentimentNegative
}

// Lead is a prospective buyer tracked through the pipeline.
// Derived fields (priority, sentiment, task state, property and campaign)
// are persisted inside the notes column through the metadata codec.
type Lead struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`

	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`

	Source          Source `json:"source"`
	CampaignSource  string `json:"campaignSource"`
	PropertyAddress string `json:"propertyAddress"`

	Status Status `json:"status"`
	Stage  Stage  `json:"stage"`

	Notes string `json:"notes"`

	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
	LastContacted    *time.Time `json:"lastContacted,omitempty"`
	FirstContactedAt *time.Time `json:"firstContactedAt,omitempty"`
	TaskDueDate      *time.Time `json:"taskDueDate,omitempty"`

	PriorityScore    *int      `json:"priorityScore,omitempty"`
	Sentiment        Sentiment `json:"sentiment"`
	NextFollowUpTask string    `json:"nextFollowUpTask,omitempty"`
	TaskCompleted    bool      `json:"taskCompleted"`

	// EmailRejected is the write-time deliverability verdict
	EmailRejected bool `json:"-"`
}

// Health is the derived data-quality assessment of a lead
type Health struct {
	IsDuplicate          bool     `json:"isDuplicate"`
	DuplicateIDs         []string `json:"duplicateIds"`
	IsInvalidEmail       bool     `json:"isInvalidEmail"`
	NeedsStandardization bool     `json:"needsStandardization"`
}

// Dirty reports whether any data-quality flag is raised
func (h Health) Dirty() bool {
	return h.IsDuplicate || h.IsInvalidEmail || h.NeedsStandardization
}

// LeadView is a lead plus everything computed on read
type LeadView struct {
	Lead
	Health      Health      `json:"health"`
	AgingStatus AgingStatus `json:"agingStatus"`
}
