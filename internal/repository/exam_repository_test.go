package repository

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sarthi-kalathiya/examsync/internal/api"
	"github.com/sarthi-kalathiya/examsync/internal/apitest"
	"github.com/sarthi-kalathiya/examsync/internal/model"
	"github.com/sarthi-kalathiya/examsync/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExamRepo(t *testing.T, srv *apitest.Server) *ExamRepository {
	t.Helper()
	client, store := newTestClient(t, srv)
	return NewExamRepository(client, store, validator.New(), zerolog.Nop())
}

func seedExam(srv *apitest.Server, id string, isActive bool, start, end time.Time) {
	srv.AddExam(model.Exam{
		ID:        id,
		Name:      "Exam " + id,
		OwnerID:   "admin-1",
		SubjectID: "s1",
		IsActive:  isActive,
		StartDate: start,
		EndDate:   end,
	})
}

func TestExamListServedFromCache(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	now := time.Now()
	seedExam(srv, "e1", true, now.Add(time.Hour), now.Add(2*time.Hour))
	repo := newExamRepo(t, srv)
	ctx := context.Background()

	first, err := repo.GetTeacherExams(ctx, ExamFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, first.Items, 1)
	require.NotNil(t, first.Pagination)

	second, err := repo.GetTeacherExams(ctx, ExamFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, first, second, "pagination survives the cache round trip")
	assert.Equal(t, 1, srv.Hits("GET /teacher/exams"))
}

func TestExamActivateDraft(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	now := time.Now()
	seedExam(srv, "e1", false, now.Add(time.Hour), now.Add(2*time.Hour))
	repo := newExamRepo(t, srv)
	ctx := context.Background()

	updated, err := repo.UpdateStatus(ctx, "e1", model.ExamStatusActive)
	require.NoError(t, err)
	assert.True(t, updated.IsActive)
	assert.Equal(t, 1, srv.Hits("PATCH /exams/:id/status"))

	remote, ok := srv.Exam("e1")
	require.True(t, ok)
	assert.True(t, remote.IsActive)

	// Invalidation forces the next detail read back to the network.
	exam, err := repo.GetByID(ctx, "e1")
	require.NoError(t, err)
	assert.True(t, exam.IsActive)
	assert.Equal(t, 2, srv.Hits("GET /exams/:id"))
}

func TestExamStatusGuardRejectsLocally(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	now := time.Now()
	// Active right now: started an hour ago, ends in an hour.
	seedExam(srv, "e1", true, now.Add(-time.Hour), now.Add(time.Hour))
	repo := newExamRepo(t, srv)
	ctx := context.Background()

	_, err := repo.UpdateStatus(ctx, "e1", model.ExamStatusDraft)
	require.Error(t, err)

	var tErr *InvalidTransitionError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, model.ExamStatusActive, tErr.Current)
	assert.Equal(t, model.ExamStatusDraft, tErr.Target)
	assert.Equal(t, 0, srv.Hits("PATCH /exams/:id/status"),
		"the guard rejects before any network call")
}

func TestExamStatusGuardRejectsNonSettableTarget(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	now := time.Now()
	seedExam(srv, "e1", false, now.Add(time.Hour), now.Add(2*time.Hour))
	repo := newExamRepo(t, srv)

	_, err := repo.UpdateStatus(context.Background(), "e1", model.ExamStatusFinished)
	require.Error(t, err)

	var tErr *InvalidTransitionError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, 0, srv.Hits("PATCH /exams/:id/status"))
}

func TestExamFinishedIsImmutable(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	now := time.Now()
	seedExam(srv, "e1", true, now.Add(-2*time.Hour), now.Add(-time.Hour))
	repo := newExamRepo(t, srv)

	for _, target := range []model.ExamStatus{model.ExamStatusDraft, model.ExamStatusActive} {
		_, err := repo.UpdateStatus(context.Background(), "e1", target)
		var tErr *InvalidTransitionError
		require.ErrorAs(t, err, &tErr, "finished exams accept no status change")
	}
	assert.Equal(t, 0, srv.Hits("PATCH /exams/:id/status"))
}

func TestExamStatusNoOpSkipsNetwork(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	now := time.Now()
	seedExam(srv, "e1", true, now.Add(-time.Hour), now.Add(time.Hour))
	repo := newExamRepo(t, srv)

	exam, err := repo.UpdateStatus(context.Background(), "e1", model.ExamStatusActive)
	require.NoError(t, err)
	assert.True(t, exam.IsActive)
	assert.Equal(t, 0, srv.Hits("PATCH /exams/:id/status"),
		"setting the current status is a local no-op")
}

func TestExamStatusGuardUsesCachedDetail(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	now := time.Now()
	seedExam(srv, "e1", true, now.Add(-2*time.Hour), now.Add(-time.Hour))
	repo := newExamRepo(t, srv)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "e1")
	require.NoError(t, err)

	_, err = repo.UpdateStatus(ctx, "e1", model.ExamStatusActive)
	require.Error(t, err)
	assert.Equal(t, 1, srv.Hits("GET /exams/:id"),
		"the guard reads the exam through the cache")
}

func TestExamAssignStudentsInvalidates(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	now := time.Now()
	seedExam(srv, "e1", true, now.Add(time.Hour), now.Add(2*time.Hour))
	repo := newExamRepo(t, srv)
	ctx := context.Background()

	students, err := repo.GetAssignedStudents(ctx, "e1")
	require.NoError(t, err)
	assert.Empty(t, students)

	students, err = repo.GetAssignedStudents(ctx, "e1")
	require.NoError(t, err)
	assert.Empty(t, students)
	assert.Equal(t, 1, srv.Hits("GET /teacher/exams/:id/students"))

	require.NoError(t, repo.AssignStudents(ctx, "e1", []string{"stu-1", "stu-2"}))

	students, err = repo.GetAssignedStudents(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "stu-1", students[0].StudentID)
	assert.Equal(t, 2, srv.Hits("GET /teacher/exams/:id/students"))
}

func TestExamCreateInvalidatesLists(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	repo := newExamRepo(t, srv)
	ctx := context.Background()
	now := time.Now()

	empty, err := repo.GetTeacherExams(ctx, ExamFilter{})
	require.NoError(t, err)
	assert.Empty(t, empty.Items)

	created, err := repo.Create(ctx, model.CreateExamRequest{
		Name:            "Midterm",
		SubjectID:       "s1",
		NumQuestions:    10,
		PassingMarks:    40,
		TotalMarks:      100,
		DurationMinutes: 60,
		StartDate:       now.Add(time.Hour),
		EndDate:         now.Add(2 * time.Hour),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.IsActive, "new exams start as drafts")

	after, err := repo.GetTeacherExams(ctx, ExamFilter{})
	require.NoError(t, err)
	assert.Len(t, after.Items, 1)
	assert.Equal(t, 2, srv.Hits("GET /teacher/exams"))
}

func TestExamUpdateInvalidates(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	now := time.Now()
	seedExam(srv, "e1", false, now.Add(time.Hour), now.Add(2*time.Hour))
	repo := newExamRepo(t, srv)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "e1")
	require.NoError(t, err)

	updated, err := repo.Update(ctx, "e1", model.UpdateExamRequest{Name: "Final Exam"})
	require.NoError(t, err)
	assert.Equal(t, "Final Exam", updated.Name)

	exam, err := repo.GetByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Final Exam", exam.Name)
	assert.Equal(t, 2, srv.Hits("GET /exams/:id"))
}

func TestExamDeleteInvalidates(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	now := time.Now()
	seedExam(srv, "e1", false, now.Add(time.Hour), now.Add(2*time.Hour))
	repo := newExamRepo(t, srv)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "e1")
	require.NoError(t, err)
	_, err = repo.GetAssignedStudents(ctx, "e1")
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "e1"))

	_, err = repo.GetByID(ctx, "e1")
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr, "the deleted exam must not be served from cache")
	assert.Equal(t, 404, apiErr.StatusCode)

	// The student list was invalidated with the exam.
	_, err = repo.GetAssignedStudents(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, 2, srv.Hits("GET /teacher/exams/:id/students"))
}

func TestExamResultsServedFromCache(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	now := time.Now()
	seedExam(srv, "e1", true, now.Add(-2*time.Hour), now.Add(-time.Hour))
	srv.SetResults("e1", model.ExamResults{
		ExamID: "e1",
		Students: []model.StudentResult{
			{StudentID: "stu-1", Name: "Asha", Score: 80, Passed: true},
		},
		AverageScore: 80,
		PassRate:     1,
	})
	repo := newExamRepo(t, srv)
	ctx := context.Background()

	first, err := repo.GetExamResults(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, first.Students, 1)

	second, err := repo.GetExamResults(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, srv.Hits("GET /teacher/exams/:id/results"))

	result, err := repo.GetStudentResult(ctx, "e1", "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 80, result.Score)
	_, err = repo.GetStudentResult(ctx, "e1", "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 1, srv.Hits("GET /teacher/exams/:id/students/:studentId/result"))
}

func TestExamToggleBanInvalidates(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	now := time.Now()
	seedExam(srv, "e1", true, now.Add(-time.Hour), now.Add(time.Hour))
	srv.SetResults("e1", model.ExamResults{ExamID: "e1"})
	repo := newExamRepo(t, srv)
	ctx := context.Background()

	require.NoError(t, repo.AssignStudents(ctx, "e1", []string{"stu-1"}))

	students, err := repo.GetAssignedStudents(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.False(t, students[0].IsBanned)

	_, err = repo.GetExamResults(ctx, "e1")
	require.NoError(t, err)

	require.NoError(t, repo.ToggleStudentBan(ctx, "e1", "stu-1"))

	students, err = repo.GetAssignedStudents(ctx, "e1")
	require.NoError(t, err)
	assert.True(t, students[0].IsBanned, "refetched list must see the ban")
	assert.Equal(t, 2, srv.Hits("GET /teacher/exams/:id/students"))

	_, err = repo.GetExamResults(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, 2, srv.Hits("GET /teacher/exams/:id/results"),
		"results are invalidated alongside the student list")
}

func TestExamCreateRejectedLocally(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	repo := newExamRepo(t, srv)
	now := time.Now()

	_, err := repo.Create(context.Background(), model.CreateExamRequest{
		Name:            "Midterm",
		SubjectID:       "s1",
		NumQuestions:    10,
		PassingMarks:    50,
		TotalMarks:      40, // below passing marks
		DurationMinutes: 60,
		StartDate:       now.Add(time.Hour),
		EndDate:         now.Add(2 * time.Hour),
	})
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "totalMarks")
	assert.Equal(t, 0, srv.Hits("POST /exams"))
}
