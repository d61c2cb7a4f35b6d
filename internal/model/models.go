// Package model defines the shared data structures of the matching engine.
//
// CandidateProfile and PostingSnapshot are read-only views supplied by the
// profile/posting collaborators — the engine never writes them back.
// Application is the only aggregate the engine owns and mutates, and only
// through validated lifecycle transitions.
package model

import (
	"time"

	"medmatch/matching-service/internal/lifecycle"
)

// VerificationTier is the candidate's identity/credential verification level.
type VerificationTier string

const (
	VerificationUnverified VerificationTier = "UNVERIFIED"
	VerificationPartial    VerificationTier = "PARTIAL"
	VerificationVerified   VerificationTier = "VERIFIED"
)

// RemotePreference is the candidate's stated remote-work preference.
type RemotePreference string

const (
	RemoteOnly RemotePreference = "REMOTE_ONLY"
	Flexible   RemotePreference = "FLEXIBLE"
	OnsiteOnly RemotePreference = "ONSITE_ONLY"
)

// LocationType is the posting's work-location arrangement.
type LocationType string

const (
	LocationRemote LocationType = "REMOTE"
	LocationHybrid LocationType = "HYBRID"
	LocationOnsite LocationType = "ONSITE"
)

// BudgetType describes how the posting's budget is structured.
type BudgetType string

const (
	BudgetFixed     BudgetType = "FIXED"
	BudgetHourly    BudgetType = "HOURLY"
	BudgetMilestone BudgetType = "MILESTONE"
)

// Visibility controls which candidates may see a posting.
type Visibility string

const (
	VisibilityPublic         Visibility = "PUBLIC"
	VisibilityVerifiedOnly   Visibility = "VERIFIED_ONLY"
	VisibilityInvitationOnly Visibility = "INVITATION_ONLY"
)

// CandidateProfile is the scoring-relevant snapshot of a candidate,
// owned by the profile collaborator.
type CandidateProfile struct {
	ID                   string           `json:"id"`
	PrimarySpecialty     string           `json:"primarySpecialty"`
	Subspecialties       []string         `json:"subspecialties"`
	YearsExperience      int              `json:"yearsExperience"`
	Skills               []string         `json:"skills"`
	Verification         VerificationTier `json:"verification"`
	Rating               float64          `json:"rating"`
	ReviewCount          int              `json:"reviewCount"`
	PreferredCategories  []string         `json:"preferredCategories"`
	PreferredBudgetMin   *float64         `json:"preferredBudgetMin"`
	PreferredBudgetMax   *float64         `json:"preferredBudgetMax"`
	RemotePreference     RemotePreference `json:"remotePreference"`
	SeekingOpportunities bool             `json:"seekingOpportunities"`
	AccountActive        bool             `json:"accountActive"`
	CreatedAt            time.Time        `json:"createdAt"`
}

// PostingSnapshot is the scoring-relevant snapshot of a job posting,
// owned by the posting collaborator. Status is the only field this engine
// ever writes, and only through validated posting transitions.
type PostingSnapshot struct {
	ID             string                  `json:"id"`
	OwnerID        string                  `json:"ownerId"`
	Specialty      string                  `json:"specialty"`
	Subspecialties []string                `json:"subspecialties"`
	RequiredSkills []string                `json:"requiredSkills"`
	MinYears       int                     `json:"minYears"`
	RequiredLevel  string                  `json:"requiredLevel"`
	BudgetAmount   float64                 `json:"budgetAmount"`
	BudgetType     BudgetType              `json:"budgetType"`
	Location       LocationType            `json:"location"`
	Category       string                  `json:"category"`
	Visibility     Visibility              `json:"visibility"`
	Status         lifecycle.PostingStatus `json:"status"`
	Deadline       time.Time               `json:"deadline"`
	CreatedAt      time.Time               `json:"createdAt"`
}

// Proposal is the applicant's pitch, captured at submission.
type Proposal struct {
	CoverLetter  string  `json:"coverLetter"`
	BudgetAmount float64 `json:"budgetAmount"`
	Timeline     string  `json:"timeline"`
}

// InterviewDetails is set only by the INTERVIEW_SCHEDULED transition.
type InterviewDetails struct {
	ScheduledAt time.Time `json:"scheduledAt"`
	Location    string    `json:"location"`
	Notes       string    `json:"notes"`
}

// ContractDetails is set only by the ACCEPTED transition.
type ContractDetails struct {
	StartDate time.Time `json:"startDate"`
	Amount    float64   `json:"amount"`
	Terms     string    `json:"terms"`
}

// Feedback is a one-time rating left by one party after completion.
type Feedback struct {
	Rating  int       `json:"rating"` // 1..5
	Review  string    `json:"review"`
	RatedAt time.Time `json:"ratedAt"`
}

// CommunicationEntry is one record in an application's append-only log.
type CommunicationEntry struct {
	Type       string              `json:"type"`
	Content    string              `json:"content"`
	AuthorRole lifecycle.ActorRole `json:"authorRole"`
	At         time.Time           `json:"at"`
}

// Application links exactly one candidate to one posting. At most one
// non-withdrawn application may exist per (candidate, posting) pair.
// MatchScore is computed once at submission and is immutable afterwards.
type Application struct {
	ID                string                      `json:"id"`
	CandidateID       string                      `json:"candidateId"`
	PostingID         string                      `json:"postingId"`
	Status            lifecycle.ApplicationStatus `json:"status"`
	MatchScore        int                         `json:"matchScore"`
	Proposal          Proposal                    `json:"proposal"`
	EmployerNotes     string                      `json:"employerNotes"`
	CandidateFeedback *Feedback                   `json:"candidateFeedback"`
	EmployerFeedback  *Feedback                   `json:"employerFeedback"`
	CommunicationLog  []CommunicationEntry        `json:"communicationLog"`
	Interview         *InterviewDetails           `json:"interview"`
	Contract          *ContractDetails            `json:"contract"`
	CreatedAt         time.Time                   `json:"createdAt"`
	UpdatedAt         time.Time                   `json:"updatedAt"`
}
