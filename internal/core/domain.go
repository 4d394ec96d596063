package core

import (
	"errors"
	"strings"
	"time"
)

const (
	StageLead          DealStage = "lead"
	StageInDevelopment DealStage = "in_development"
	StageProposal      DealStage = "proposal"
	StageDiscoveryCall DealStage = "discovery_call"
	StagePaid          DealStage = "paid"
	StageDoneCompleted DealStage = "done_completed"
	StageCancelled     DealStage = "cancelled"
)

const (
	TierEnterprise    DealTier = "enterprise"
	TierStrategic     DealTier = "strategic"
	TierMidMarket     DealTier = "mid_market"
	TierSmallBusiness DealTier = "small_business"
	TierStartup       DealTier = "startup"
	TierIndividual    DealTier = "individual"
)

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
)

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

type (
	DealStage    string
	DealTier     string
	TaskStatus   string
	TaskPriority string
	Role         string

	Money struct {
		Cents int64
	}

	Contact struct {
		ID        string
		Name      string
		Email     string
		Phone     string
		Company   string
		Position  string
		Notes     string
		CreatedAt time.Time
	}

	Deal struct {
		ID            string
		Title         string
		Description   string
		Value         Money
		Stage         DealStage
		Tier          DealTier // empty when the deal carries no tier label
		ContactID     *string
		AssignedTo    *string
		ExpectedClose *time.Time
		CreatedAt     time.Time
	}

	Task struct {
		ID          string
		Title       string
		Description string
		Status      TaskStatus
		Priority    TaskPriority
		AssignedTo  *string
		ContactID   *string
		DealID      *string
		DueDate     *time.Time
		CreatedAt   time.Time
	}

	Profile struct {
		ID        string
		FirstName string
		LastName  string
		Email     string
		AvatarURL string
		Role      Role
	}
)

var (
	ErrInvalidValue    = errors.New("invalid deal value")
	ErrInvalidStage    = errors.New("invalid deal stage")
	ErrInvalidTier     = errors.New("invalid deal tier")
	ErrInvalidStatus   = errors.New("invalid task status")
	ErrInvalidPriority = errors.New("invalid task priority")
	ErrInvalidRole     = errors.New("invalid profile role")
	ErrEmptyTitle      = errors.New("empty title")
	ErrEmptyName       = errors.New("empty name")
	ErrEmptyEmail      = errors.New("empty email")
)

// Stages returns the pipeline ordering used across forms and boards.
func Stages() []DealStage {
	return []DealStage{
		StageLead, StageInDevelopment, StageProposal, StageDiscoveryCall,
		StagePaid, StageDoneCompleted, StageCancelled,
	}
}

func (s DealStage) IsValid() bool {
	switch s {
	case StageLead, StageInDevelopment, StageProposal, StageDiscoveryCall,
		StagePaid, StageDoneCompleted, StageCancelled:
		return true
	default:
		return false
	}
}

// Resolved reports whether a deal in this stage has left the pipeline.
// Anything else (including an unknown stage read from an old row) still
// counts as pipeline value.
func (s DealStage) Resolved() bool {
	switch s {
	case StagePaid, StageDoneCompleted, StageCancelled:
		return true
	default:
		return false
	}
}

// Label returns the stage name formatted for display, e.g. "In Development".
func (s DealStage) Label() string {
	return labelize(string(s))
}

// Tiers returns the fixed set of tier labels.
func Tiers() []DealTier {
	return []DealTier{
		TierEnterprise, TierStrategic, TierMidMarket,
		TierSmallBusiness, TierStartup, TierIndividual,
	}
}

func (t DealTier) IsValid() bool {
	switch t {
	case TierEnterprise, TierStrategic, TierMidMarket,
		TierSmallBusiness, TierStartup, TierIndividual:
		return true
	default:
		return false
	}
}

func (t DealTier) Label() string {
	return labelize(string(t))
}

func TaskStatuses() []TaskStatus {
	return []TaskStatus{TaskPending, TaskInProgress, TaskCompleted, TaskCancelled}
}

func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted, TaskCancelled:
		return true
	default:
		return false
	}
}

func (s TaskStatus) Label() string {
	return labelize(string(s))
}

func TaskPriorities() []TaskPriority {
	return []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
}

func (p TaskPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

func (p TaskPriority) Label() string {
	return labelize(string(p))
}

func (r Role) Label() string {
	return labelize(string(r))
}

// Roles returns the fixed set of profile roles.
func Roles() []Role {
	return []Role{RoleAdmin, RoleEditor, RoleViewer}
}

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	default:
		return false
	}
}

func (c Contact) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return errors.New("invalid email address")
	}
	return nil
}

func (d Deal) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrEmptyTitle
	}
	if len(d.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if d.Value.Cents < 0 {
		return ErrInvalidValue
	}
	if !d.Stage.IsValid() {
		return ErrInvalidStage
	}
	if d.Tier != "" && !d.Tier.IsValid() {
		return ErrInvalidTier
	}
	return nil
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if len(t.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if !t.Status.IsValid() {
		return ErrInvalidStatus
	}
	if !t.Priority.IsValid() {
		return ErrInvalidPriority
	}
	return nil
}

func (p Profile) Validate() error {
	if strings.TrimSpace(p.FirstName) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(p.Email) == "" {
		return ErrEmptyEmail
	}
	if !strings.Contains(p.Email, "@") {
		return errors.New("invalid email address")
	}
	if !p.Role.IsValid() {
		return ErrInvalidRole
	}
	return nil
}

// labelize turns an enum value like "in_development" into "In Development".
func labelize(s string) string {
	parts := strings.Split(s, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
