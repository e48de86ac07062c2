package repository

import (
	"github.com/sarthi-kalathiya/examsync/internal/cache"
)

// Key prefixes per domain. Mutations clear the matching list prefix so every
// later list read misses and refetches.
const (
	subjectListPrefix   = "subjects_list_"
	subjectDetailPrefix = "subjects_detail_"
	userListPrefix      = "users_list_"
	userDetailPrefix    = "users_detail_"
	examListPrefix      = "exams_list_"
	examDetailPrefix    = "exams_detail_"
	examStudentsPrefix  = "exams_students_"
	examResultsPrefix   = "exams_results_"
)

// CacheKeyStruct builds the canonical cache keys used across repositories.
type CacheKeyStruct struct{}

func (CacheKeyStruct) SubjectList(f SubjectFilter) string {
	return cache.CanonicalKey(subjectListPrefix, f.values())
}

func (CacheKeyStruct) SubjectDetail(id string) string {
	return subjectDetailPrefix + id
}

func (CacheKeyStruct) UserList(f UserFilter) string {
	return cache.CanonicalKey(userListPrefix, f.values())
}

func (CacheKeyStruct) UserDetail(id string) string {
	return userDetailPrefix + id
}

func (CacheKeyStruct) ExamList(f ExamFilter) string {
	return cache.CanonicalKey(examListPrefix, f.values())
}

func (CacheKeyStruct) ExamDetail(id string) string {
	return examDetailPrefix + id
}

func (CacheKeyStruct) ExamStudents(examID string) string {
	return examStudentsPrefix + examID
}

func (CacheKeyStruct) ExamResults(examID string) string {
	return examResultsPrefix + examID
}

func (CacheKeyStruct) ExamStudentResult(examID, studentID string) string {
	return examResultsPrefix + examID + "_student_" + studentID
}

var CacheKey = CacheKeyStruct{}
