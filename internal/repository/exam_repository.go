package repository

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/sarthi-kalathiya/examsync/internal/api"
	"github.com/sarthi-kalathiya/examsync/internal/cache"
	"github.com/sarthi-kalathiya/examsync/internal/model"
	"github.com/sarthi-kalathiya/examsync/internal/validator"
)

// ExamFilter narrows teacher exam list queries.
type ExamFilter struct {
	Page  int
	Limit int
}

func (f ExamFilter) values() map[string]any {
	values := map[string]any{}
	if f.Page > 0 {
		values["page"] = f.Page
	}
	if f.Limit > 0 {
		values["limit"] = f.Limit
	}
	return values
}

func (f ExamFilter) query() url.Values {
	q := url.Values{}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

// ExamRepository is the cache-aware client for the exams domain. Status
// changes run through the local transition guard before any network call.
type ExamRepository struct {
	client *api.Client
	cache  *cache.Store
	valid  *validator.Validator
	log    zerolog.Logger
	now    func() time.Time
}

func NewExamRepository(client *api.Client, store *cache.Store, valid *validator.Validator, log zerolog.Logger) *ExamRepository {
	return &ExamRepository{
		client: client,
		cache:  store,
		valid:  valid,
		log:    log.With().Str("component", "exam_repository").Logger(),
		now:    time.Now,
	}
}

// GetTeacherExams lists the teacher's exams, served from cache when valid.
func (r *ExamRepository) GetTeacherExams(ctx context.Context, f ExamFilter) (model.Page[model.Exam], error) {
	return readThrough(r.cache, CacheKey.ExamList(f), func() (model.Page[model.Exam], error) {
		var exams []model.Exam
		env, err := r.client.Get(ctx, "/teacher/exams", f.query(), &exams)
		if err != nil {
			return model.Page[model.Exam]{}, fmt.Errorf("list exams: %w", err)
		}
		return model.Page[model.Exam]{Items: exams, Pagination: env.Pagination}, nil
	})
}

// GetByID returns one exam, served from cache when valid.
func (r *ExamRepository) GetByID(ctx context.Context, id string) (*model.Exam, error) {
	return readThrough(r.cache, CacheKey.ExamDetail(id), func() (*model.Exam, error) {
		var exam model.Exam
		if _, err := r.client.Get(ctx, "/exams/"+id, nil, &exam); err != nil {
			return nil, fmt.Errorf("get exam %s: %w", id, err)
		}
		return &exam, nil
	})
}

// Create adds an exam and invalidates the cached lists.
func (r *ExamRepository) Create(ctx context.Context, req model.CreateExamRequest) (*model.Exam, error) {
	if err := validateReq(r.valid, req); err != nil {
		return nil, err
	}

	var exam model.Exam
	if _, err := r.client.Post(ctx, "/exams", req, &exam); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}

	r.cache.ClearByPrefix(examListPrefix)
	return &exam, nil
}

// Update edits an exam and invalidates its detail key plus the lists.
func (r *ExamRepository) Update(ctx context.Context, id string, req model.UpdateExamRequest) (*model.Exam, error) {
	if err := validateReq(r.valid, req); err != nil {
		return nil, err
	}

	var exam model.Exam
	if _, err := r.client.Put(ctx, "/exams/"+id, req, &exam); err != nil {
		return nil, fmt.Errorf("update exam %s: %w", id, err)
	}

	r.invalidate(id)
	return &exam, nil
}

// UpdateStatus requests an explicit status change. The target must be a
// settable status and the change legal from the exam's current derived
// status; violations are rejected locally with InvalidTransitionError. A
// target equal to the current status is a no-op.
func (r *ExamRepository) UpdateStatus(ctx context.Context, id string, target model.ExamStatus) (*model.Exam, error) {
	exam, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	current := exam.Status(r.now())
	if !target.Settable() || !model.IsTransitionAllowed(current, target) {
		return nil, &InvalidTransitionError{Current: current, Target: target}
	}
	if target == current {
		return exam, nil
	}

	// Draft maps to inactive; every other settable target to active.
	isActive := target != model.ExamStatusDraft
	body := map[string]bool{"isActive": isActive}

	var updated model.Exam
	if _, err := r.client.Patch(ctx, "/exams/"+id+"/status", body, &updated); err != nil {
		return nil, fmt.Errorf("update exam status %s: %w", id, err)
	}

	r.invalidate(id)
	return &updated, nil
}

// Delete removes an exam and invalidates its keys.
func (r *ExamRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.client.Delete(ctx, "/exams/"+id); err != nil {
		return fmt.Errorf("delete exam %s: %w", id, err)
	}

	r.invalidate(id)
	r.cache.ClearByPrefix(examStudentsPrefix + id)
	r.cache.ClearByPrefix(examResultsPrefix + id)
	return nil
}

// AssignStudents assigns the exam to students and invalidates the exam's
// student and detail keys.
func (r *ExamRepository) AssignStudents(ctx context.Context, examID string, studentIDs []string) error {
	body := map[string][]string{"studentIds": studentIDs}
	if _, err := r.client.Post(ctx, "/teacher/exams/"+examID+"/assign", body, nil); err != nil {
		return fmt.Errorf("assign students to exam %s: %w", examID, err)
	}

	r.cache.Remove(CacheKey.ExamDetail(examID))
	r.cache.ClearByPrefix(examStudentsPrefix + examID)
	return nil
}

// GetAssignedStudents lists the students assigned to an exam, cached.
func (r *ExamRepository) GetAssignedStudents(ctx context.Context, examID string) ([]model.AssignedStudent, error) {
	return readThrough(r.cache, CacheKey.ExamStudents(examID), func() ([]model.AssignedStudent, error) {
		var students []model.AssignedStudent
		if _, err := r.client.Get(ctx, "/teacher/exams/"+examID+"/students", nil, &students); err != nil {
			return nil, fmt.Errorf("list exam students %s: %w", examID, err)
		}
		return students, nil
	})
}

// ToggleStudentBan bans or unbans a student for an exam and invalidates the
// exam's student and result keys.
func (r *ExamRepository) ToggleStudentBan(ctx context.Context, examID, studentID string) error {
	path := "/teacher/exams/" + examID + "/students/" + studentID + "/toggle-ban"
	if _, err := r.client.Patch(ctx, path, struct{}{}, nil); err != nil {
		return fmt.Errorf("toggle ban for student %s on exam %s: %w", studentID, examID, err)
	}

	r.cache.ClearByPrefix(examStudentsPrefix + examID)
	r.cache.ClearByPrefix(examResultsPrefix + examID)
	return nil
}

// GetExamResults returns aggregated results for an exam, cached.
func (r *ExamRepository) GetExamResults(ctx context.Context, examID string) (*model.ExamResults, error) {
	return readThrough(r.cache, CacheKey.ExamResults(examID), func() (*model.ExamResults, error) {
		var results model.ExamResults
		if _, err := r.client.Get(ctx, "/teacher/exams/"+examID+"/results", nil, &results); err != nil {
			return nil, fmt.Errorf("exam results %s: %w", examID, err)
		}
		return &results, nil
	})
}

// GetStudentResult returns one student's result for an exam, cached.
func (r *ExamRepository) GetStudentResult(ctx context.Context, examID, studentID string) (*model.StudentResult, error) {
	key := CacheKey.ExamStudentResult(examID, studentID)
	return readThrough(r.cache, key, func() (*model.StudentResult, error) {
		var result model.StudentResult
		path := "/teacher/exams/" + examID + "/students/" + studentID + "/result"
		if _, err := r.client.Get(ctx, path, nil, &result); err != nil {
			return nil, fmt.Errorf("student result %s/%s: %w", examID, studentID, err)
		}
		return &result, nil
	})
}

func (r *ExamRepository) invalidate(id string) {
	r.cache.Remove(CacheKey.ExamDetail(id))
	r.cache.ClearByPrefix(examListPrefix)
}
