package model

import "time"

// Exam represents an exam entity as returned by the portal API.
type Exam struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	OwnerID              string    `json:"ownerId"`
	SubjectID            string    `json:"subjectId"`
	Subject              *Subject  `json:"subject,omitempty"`
	NumQuestions         int       `json:"numQuestions"`
	PassingMarks         int       `json:"passingMarks"`
	TotalMarks           int       `json:"totalMarks"`
	CurrentQuestionCount int       `json:"currentQuestionCount"`
	CurrentTotalMarks    int       `json:"currentTotalMarks"`
	DurationMinutes      int       `json:"duration"`
	IsActive             bool      `json:"isActive"`
	StartDate            time.Time `json:"startDate"`
	EndDate              time.Time `json:"endDate"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// Status derives the exam's display status at the given instant.
func (e *Exam) Status(now time.Time) ExamStatus {
	return StatusOf(e.IsActive, now, e.StartDate, e.EndDate)
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	Name            string    `json:"name" validate:"required,min=3,max=255"`
	SubjectID       string    `json:"subjectId" validate:"required"`
	NumQuestions    int       `json:"numQuestions" validate:"required,min=1"`
	PassingMarks    int       `json:"passingMarks" validate:"required,min=0"`
	TotalMarks      int       `json:"totalMarks" validate:"required,min=1,gtefield=PassingMarks"`
	DurationMinutes int       `json:"duration" validate:"required,min=1,max=480"`
	StartDate       time.Time `json:"startDate" validate:"required"`
	EndDate         time.Time `json:"endDate" validate:"required,gtfield=StartDate"`
}

// UpdateExamRequest is the payload for updating an existing exam.
type UpdateExamRequest struct {
	Name            string     `json:"name" validate:"omitempty,min=3,max=255"`
	NumQuestions    int        `json:"numQuestions" validate:"omitempty,min=1"`
	PassingMarks    *int       `json:"passingMarks" validate:"omitempty,min=0"`
	TotalMarks      int        `json:"totalMarks" validate:"omitempty,min=1"`
	DurationMinutes int        `json:"duration" validate:"omitempty,min=1,max=480"`
	StartDate       *time.Time `json:"startDate" validate:"omitempty"`
	EndDate         *time.Time `json:"endDate" validate:"omitempty"`
}

// AssignedStudent is one student's standing within an exam.
type AssignedStudent struct {
	StudentID string `json:"studentId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Status    string `json:"status"`
	IsBanned  bool   `json:"isBanned"`
	Score     *int   `json:"score,omitempty"`
}

// ExamResults aggregates per-student outcomes for a finished exam.
type ExamResults struct {
	ExamID       string          `json:"examId"`
	Students     []StudentResult `json:"students"`
	AverageScore float64         `json:"averageScore"`
	PassRate     float64         `json:"passRate"`
}

// StudentResult is a single student's result for an exam.
type StudentResult struct {
	StudentID   string     `json:"studentId"`
	Name        string     `json:"name"`
	Score       int        `json:"score"`
	Passed      bool       `json:"passed"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
}
