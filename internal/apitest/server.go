// Package apitest runs an in-process stand-in for the exam-portal API so
// package tests can exercise the client stack against real HTTP, envelopes,
// bcrypt-checked credentials, and signed JWTs.
package apitest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sarthi-kalathiya/examsync/internal/model"
	"golang.org/x/crypto/bcrypt"
)

// Default seeded admin credentials.
const (
	AdminEmail    = "admin@example.com"
	AdminPassword = "password123"
)

type account struct {
	passwordHash []byte
	profile      model.UserProfile
	subjectIDs   []string
}

// Server is the fake portal API. All exported mutators are safe for
// concurrent use with in-flight requests.
type Server struct {
	URL string

	ts     *httptest.Server
	secret []byte

	mu       sync.Mutex
	hits     map[string]int
	failNext map[string]int
	accounts map[string]*account // keyed by email
	refresh  map[string]string   // refresh token -> email
	subjects map[string]model.Subject
	exams    map[string]model.Exam
	students map[string][]model.AssignedStudent // keyed by exam id
	results  map[string]model.ExamResults       // keyed by exam id

	logoutAuth string

	// ProfileDelay stalls GET /user/profile, letting tests overlap
	// concurrent profile fetches.
	ProfileDelay time.Duration
}

// New starts the fake server with one seeded admin account.
func New() *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		secret:   []byte("apitest-secret"),
		hits:     make(map[string]int),
		failNext: make(map[string]int),
		accounts: make(map[string]*account),
		refresh:  make(map[string]string),
		subjects: make(map[string]model.Subject),
		exams:    make(map[string]model.Exam),
		students: make(map[string][]model.AssignedStudent),
		results:  make(map[string]model.ExamResults),
	}

	hash, _ := bcrypt.GenerateFromPassword([]byte(AdminPassword), bcrypt.MinCost)
	s.accounts[AdminEmail] = &account{
		passwordHash: hash,
		profile: model.UserProfile{
			User: model.User{
				ID:               "admin-1",
				FirstName:        "Portal",
				LastName:         "Admin",
				Email:            AdminEmail,
				Role:             model.RoleAdmin,
				ContactNumber:    "+1000000",
				IsActive:         true,
				ProfileCompleted: true,
			},
		},
	}

	router := gin.New()
	router.Use(cors.Default())
	s.routes(router)

	s.ts = httptest.NewServer(router)
	s.URL = s.ts.URL
	return s
}

// Close shuts the server down.
func (s *Server) Close() { s.ts.Close() }

// Hits reports how many requests reached the given route, keyed as
// "METHOD /path/:param".
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// FailNext makes the next n requests to the route answer 500 error
// envelopes.
func (s *Server) FailNext(route string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext[route] = n
}

// AddSubject seeds a subject.
func (s *Server) AddSubject(sub model.Subject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjects[sub.ID] = sub
}

// AddExam seeds an exam.
func (s *Server) AddExam(exam model.Exam) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exams[exam.ID] = exam
}

// Exam returns the current server-side copy of an exam.
func (s *Server) Exam(id string) (model.Exam, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exam, ok := s.exams[id]
	return exam, ok
}

// SetResults seeds aggregated results for an exam.
func (s *Server) SetResults(examID string, r model.ExamResults) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[examID] = r
}

// LogoutAuth returns the Authorization header the last logout request
// carried.
func (s *Server) LogoutAuth() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logoutAuth
}

// SetProfile replaces the seeded admin profile (e.g. to mark it complete or
// attach sub-profiles).
func (s *Server) SetProfile(p model.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.accounts[AdminEmail]
	acct.profile = p
}

// ─── routing ────────────────────────────────────────────────────────

func (s *Server) routes(r *gin.Engine) {
	r.Use(s.track)

	r.POST("/auth/signin", s.signIn)
	r.POST("/auth/admin/signup", s.signUp)
	r.POST("/auth/refresh-token", s.refreshToken)
	r.POST("/auth/logout", s.logout)

	authed := r.Group("/", s.requireJWT)
	authed.GET("/user/profile", s.getProfile)
	authed.PUT("/user/profile", s.updateProfile)
	authed.GET("/user/profile-status", s.profileStatus)

	authed.GET("/user/admin/users", s.listUsers)
	authed.POST("/user/admin/users", s.createUser)
	authed.GET("/user/admin/users/:id", s.getUser)
	authed.PUT("/user/admin/users/:id", s.updateUser)
	authed.DELETE("/user/admin/users/:id", s.deleteUser)
	authed.PATCH("/user/admin/users/:id/status", s.patchUserStatus)
	authed.PATCH("/user/admin/users/:id/subjects", s.patchUserSubjects)

	authed.GET("/subjects", s.listSubjects)
	authed.POST("/subjects", s.createSubject)
	authed.GET("/subjects/:id", s.getSubject)
	authed.PUT("/subjects/:id", s.updateSubject)
	authed.PATCH("/subjects/:id/status", s.patchSubjectStatus)
	authed.DELETE("/subjects/:id", s.deleteSubject)

	authed.GET("/teacher/exams", s.listExams)
	authed.POST("/exams", s.createExam)
	authed.GET("/exams/:id", s.getExam)
	authed.PUT("/exams/:id", s.updateExam)
	authed.DELETE("/exams/:id", s.deleteExam)
	authed.PATCH("/exams/:id/status", s.patchExamStatus)
	authed.POST("/teacher/exams/:id/assign", s.assignStudents)
	authed.GET("/teacher/exams/:id/students", s.listExamStudents)
	authed.GET("/teacher/exams/:id/results", s.examResults)
	authed.GET("/teacher/exams/:id/students/:studentId/result", s.studentResult)
	authed.PATCH("/teacher/exams/:id/students/:studentId/toggle-ban", s.toggleStudentBan)
}

// track counts hits per route and injects scripted failures.
func (s *Server) track(c *gin.Context) {
	route := c.Request.Method + " " + c.FullPath()

	s.mu.Lock()
	s.hits[route]++
	fail := s.failNext[route] > 0
	if fail {
		s.failNext[route]--
	}
	s.mu.Unlock()

	if fail {
		failJSON(c, http.StatusInternalServerError, "scripted failure")
		c.Abort()
		return
	}
	c.Next()
}

func (s *Server) requireJWT(c *gin.Context) {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		failJSON(c, http.StatusUnauthorized, "authentication token required")
		c.Abort()
		return
	}

	claims := &model.Claims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		failJSON(c, http.StatusUnauthorized, "invalid authentication token")
		c.Abort()
		return
	}

	c.Set("claims", claims)
	c.Next()
}

// ─── auth handlers ──────────────────────────────────────────────────

func (s *Server) signIn(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failJSON(c, http.StatusBadRequest, "invalid payload")
		return
	}

	s.mu.Lock()
	acct, ok := s.accounts[req.Email]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(req.Password)) != nil {
		failJSON(c, http.StatusUnauthorized, "invalid email or password")
		return
	}

	s.issueTokens(c, acct)
}

func (s *Server) signUp(c *gin.Context) {
	var req model.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failJSON(c, http.StatusBadRequest, "invalid payload")
		return
	}

	hash, _ := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[req.Email]; exists {
		failJSON(c, http.StatusConflict, "account already exists")
		return
	}
	s.accounts[req.Email] = &account{
		passwordHash: hash,
		profile: model.UserProfile{
			User: model.User{
				ID:            uuid.New().String(),
				FirstName:     req.FirstName,
				LastName:      req.LastName,
				Email:         req.Email,
				Role:          model.RoleAdmin,
				ContactNumber: req.ContactNumber,
				IsActive:      true,
			},
		},
	}
	okJSON(c, nil)
}

func (s *Server) refreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		failJSON(c, http.StatusBadRequest, "invalid payload")
		return
	}

	s.mu.Lock()
	email, ok := s.refresh[req.RefreshToken]
	if ok {
		delete(s.refresh, req.RefreshToken)
	}
	acct := s.accounts[email]
	s.mu.Unlock()

	if !ok || acct == nil {
		failJSON(c, http.StatusUnauthorized, "refresh token invalid")
		return
	}
	s.issueTokens(c, acct)
}

func (s *Server) logout(c *gin.Context) {
	s.mu.Lock()
	s.logoutAuth = c.GetHeader("Authorization")
	s.mu.Unlock()
	okJSON(c, nil)
}

func (s *Server) issueTokens(c *gin.Context, acct *account) {
	now := time.Now()
	claims := model.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   acct.profile.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Role:      acct.profile.Role,
		Email:     acct.profile.Email,
		FirstName: acct.profile.FirstName,
		LastName:  acct.profile.LastName,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		failJSON(c, http.StatusInternalServerError, "sign token")
		return
	}

	refreshToken := uuid.New().String()
	s.mu.Lock()
	s.refresh[refreshToken] = acct.profile.Email
	profile := acct.profile
	s.mu.Unlock()

	okJSON(c, model.AuthResult{
		AccessToken:  signed,
		RefreshToken: refreshToken,
		User:         &profile,
	})
}

// ─── profile handlers ───────────────────────────────────────────────

func (s *Server) currentAccount(c *gin.Context) *account {
	claims := c.MustGet("claims").(*model.Claims)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acct := range s.accounts {
		if acct.profile.ID == claims.Subject {
			return acct
		}
	}
	return nil
}

func (s *Server) getProfile(c *gin.Context) {
	if s.ProfileDelay > 0 {
		time.Sleep(s.ProfileDelay)
	}
	acct := s.currentAccount(c)
	if acct == nil {
		failJSON(c, http.StatusNotFound, "user not found")
		return
	}
	s.mu.Lock()
	profile := acct.profile
	s.mu.Unlock()
	okJSON(c, profile)
}

func (s *Server) updateProfile(c *gin.Context) {
	var req model.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failJSON(c, http.StatusBadRequest, "invalid payload")
		return
	}
	acct := s.currentAccount(c)
	if acct == nil {
		failJSON(c, http.StatusNotFound, "user not found")
		return
	}

	s.mu.Lock()
	if req.FirstName != "" {
		acct.profile.FirstName = req.FirstName
	}
	if req.LastName != "" {
		acct.profile.LastName = req.LastName
	}
	if req.ContactNumber != "" {
		acct.profile.ContactNumber = req.ContactNumber
	}
	profile := acct.profile
	s.mu.Unlock()
	okJSON(c, profile)
}

func (s *Server) profileStatus(c *gin.Context) {
	acct := s.currentAccount(c)
	if acct == nil {
		failJSON(c, http.StatusNotFound, "user not found")
		return
	}
	s.mu.Lock()
	status := model.ProfileStatus{
		ProfileCompleted:        acct.profile.ProfileCompleted,
		Role:                    acct.profile.Role,
		RequiresAdditionalSetup: !acct.profile.ProfileCompleted && acct.profile.Role != model.RoleAdmin,
	}
	s.mu.Unlock()
	okJSON(c, status)
}

// ─── user handlers ──────────────────────────────────────────────────

func (s *Server) listUsers(c *gin.Context) {
	s.mu.Lock()
	users := make([]model.User, 0, len(s.accounts))
	for _, acct := range s.accounts {
		users = append(users, acct.profile.User)
	}
	s.mu.Unlock()

	okPaged(c, users, &model.Pagination{
		Total: len(users), Page: 1, PageSize: len(users), TotalPages: 1,
	})
}

func (s *Server) getUser(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acct := range s.accounts {
		if acct.profile.ID == id {
			okJSON(c, acct.profile.User)
			return
		}
	}
	failJSON(c, http.StatusNotFound, "user not found")
}

func (s *Server) patchUserStatus(c *gin.Context) {
	var req struct {
		IsActive bool `json:"isActive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		failJSON(c, http.StatusBadRequest, "invalid payload")
		return
	}
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acct := range s.accounts {
		if acct.profile.ID == id {
			acct.profile.IsActive = req.IsActive
			okJSON(c, acct.profile.User)
			return
		}
	}
	failJSON(c, http.StatusNotFound, "user not found")
}

func (s *Server) createUser(c *gin.Context) {
	var req model.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failJSON(c, http.StatusBadRequest, "invalid payload")
		return
	}

	hash, _ := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[req.Email]; exists {
		failJSON(c, http.StatusConflict, "account already exists")
		return
	}
	user := model.User{
		ID:            uuid.New().String(),
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Role:          req.Role,
		ContactNumber: req.ContactNumber,
		IsActive:      true,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	s.accounts[req.Email] = &account{
		passwordHash: hash,
		profile:      model.UserProfile{User: user},
	}
	okJSON(c, user)
}

func (s *Server) updateUser(c *gin.Context) {
	var req model.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failJSON(c, http.StatusBadRequest, "invalid payload")
		return
	}

	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acct := range s.accounts {
		if acct.profile.ID != id {
			continue
		}
		if req.FirstName != "" {
			acct.profile.FirstName = req.FirstName
		}
		if req.LastName != "" {
			acct.profile.LastName = req.LastName
		}
		if req.ContactNumber != "" {
			acct.profile.ContactNumber = req.ContactNumber
		}
		acct.profile.UpdatedAt = time.Now()
		okJSON(c, acct.profile.User)
		return
	}
	failJSON(c, http.StatusNotFound, "user not found")
}

func (s *Server) deleteUser(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for email, acct := range s.accounts {
		if acct.profile.ID == id {
			delete(s.accounts, email)
			okJSON(c, nil)
			return
		}
	}
	failJSON(c, http.StatusNotFound, "user not found")
}

func (s *Server) patchUserSubjects(c *gin.Context) {
	var req struct {
		SubjectIDs []string `json:"subjectIds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		failJSON(c, http.StatusBadRequest, "invalid payload")
		return
	}

	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acct := range s.accounts {
		if acct.profile.ID == id {
			acct.subjectIDs = req.SubjectIDs
			okJSON(c, nil)
			return
		}
	}
	failJSON(c, http.StatusNotFound, "user not found")
}

// ─── subject handlers ───────────────────────────────────────────────

func (s *Server) listSubjects(c *gin.Context) {
	search := c.Query("searchTerm")

	s.mu.Lock()
	subjects := make([]model.Subject, 0, len(s.subjects))
	for _, sub := range s.subjects {
		if search != "" && !strings.Contains(strings.ToLower(sub.Name), strings.ToLower(search)) {
			continue
		}
		subjects = append(subjects, sub)
	}
	s.mu.Unlock()

	okJSON(c, subjects)
}

func (s *Server) getSubject(c *gin.Context) {
	s.mu.Lock()
	sub, ok := s.subjects[c.Param("id")]
	s.mu.Unlock()
	if !ok {
		failJSON(c, http.StatusNotFound, "subject not found")
		return
	}
	okJSON(c, sub)
}

func (s *Server) createSubject(c *gin.Context) {
	var req model.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failJSON(c, http.StatusBadRequest, "invalid payload")
		return
	}

	sub := model.Subject{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		Credits:     req.Credits,
		IsActive:    true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	s.mu.Lock()
	s.subjects[sub.ID] = sub
	s.mu.Unlock()
	okJSON(c, sub)
}

func (s *Server) updateSubject(c *gin.Context) {
	var req model.UpdateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failJSON(c, http.StatusBadRequest, "invalid payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subjects[c.Param("id")]
	if !ok {
		failJSON(c, http.StatusNotFound, "subject not found")
		return
	}
	if req.Name != "" {
		sub.Name = req.Name
	}
	if req.Code != "" {
		sub.Code = req.Code
	}
	if req.Description != "" {
		sub.Description = req.Description
	}
	if req.Credits > 0 {
		sub.Credits = req.Credits
	}
	sub.UpdatedAt = time.Now()
	s.subjects[sub.ID] = sub
	okJSON(c, sub)
}

func (s *Server) patchSubjectStatus(c *gin.Context) {
	var req struct {
		IsActive bool `json:"isActive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		failJSON(c, http.StatusBadRequest, "invalid payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subjects[c.Param("id")]
	if !ok {
		failJSON(c, http.StatusNotFound, "subject not found")
		return
	}
	sub.IsActive = req.IsActive
	sub.UpdatedAt = time.Now()
	s.subjects[sub.ID] = sub
	okJSON(c, sub)
}

func (s *Server) deleteSubject(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subjects[c.Param("id")]; !ok {
		failJSON(c, http.StatusNotFound, "subject not found")
		return
	}
	delete(s.subjects, c.Param("id"))
	okJSON(c, nil)
}

// ─── exam handlers ──────────────────────────────────────────────────

func (s *Server) listExams(c *gin.Context) {
	s.mu.Lock()
	exams := make([]model.Exam, 0, len(s.exams))
	for _, exam := range s.exams {
		exams = append(exams, exam)
	}
	s.mu.Unlock()

	okPaged(c, exams, &model.Pagination{
		Total: len(exams), Page: 1, PageSize: len(exams), TotalPages: 1,
	})
}

func (s *Server) getExam(c *gin.Context) {
	s.mu.Lock()
	exam, ok := s.exams[c.Param("id")]
	s.mu.Unlock()
	if !ok {
		failJSON(c, http.StatusNotFound, "exam not found")
		return
	}
	okJSON(c, exam)
}

func (s *Server) patchExamStatus(c *gin.Context) {
	var req struct {
		IsActive bool `json:"isActive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		failJSON(c, http.StatusBadRequest, "invalid payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	exam, ok := s.exams[c.Param("id")]
	if !ok {
		failJSON(c, http.StatusNotFound, "exam not found")
		return
	}
	exam.IsActive = req.IsActive
	exam.UpdatedAt = time.Now()
	s.exams[exam.ID] = exam
	okJSON(c, exam)
}

func (s *Server) assignStudents(c *gin.Context) {
	var req struct {
		StudentIDs []string `json:"studentIds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		failJSON(c, http.StatusBadRequest, "invalid payload")
		return
	}

	examID := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.exams[examID]; !ok {
		failJSON(c, http.StatusNotFound, "exam not found")
		return
	}
	for _, id := range req.StudentIDs {
		s.students[examID] = append(s.students[examID], model.AssignedStudent{
			StudentID: id,
			Status:    "NOT_STARTED",
		})
	}
	okJSON(c, nil)
}

func (s *Server) listExamStudents(c *gin.Context) {
	s.mu.Lock()
	students := append([]model.AssignedStudent(nil), s.students[c.Param("id")]...)
	s.mu.Unlock()
	okJSON(c, students)
}

func (s *Server) createExam(c *gin.Context) {
	var req model.CreateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failJSON(c, http.StatusBadRequest, "invalid payload")
		return
	}

	claims := c.MustGet("claims").(*model.Claims)
	exam := model.Exam{
		ID:              uuid.New().String(),
		Name:            req.Name,
		OwnerID:         claims.Subject,
		SubjectID:       req.SubjectID,
		NumQuestions:    req.NumQuestions,
		PassingMarks:    req.PassingMarks,
		TotalMarks:      req.TotalMarks,
		DurationMinutes: req.DurationMinutes,
		IsActive:        false,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	s.mu.Lock()
	s.exams[exam.ID] = exam
	s.mu.Unlock()
	okJSON(c, exam)
}

func (s *Server) updateExam(c *gin.Context) {
	var req model.UpdateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failJSON(c, http.StatusBadRequest, "invalid payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	exam, ok := s.exams[c.Param("id")]
	if !ok {
		failJSON(c, http.StatusNotFound, "exam not found")
		return
	}
	if req.Name != "" {
		exam.Name = req.Name
	}
	if req.NumQuestions > 0 {
		exam.NumQuestions = req.NumQuestions
	}
	if req.PassingMarks != nil {
		exam.PassingMarks = *req.PassingMarks
	}
	if req.TotalMarks > 0 {
		exam.TotalMarks = req.TotalMarks
	}
	if req.DurationMinutes > 0 {
		exam.DurationMinutes = req.DurationMinutes
	}
	if req.StartDate != nil {
		exam.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		exam.EndDate = *req.EndDate
	}
	exam.UpdatedAt = time.Now()
	s.exams[exam.ID] = exam
	okJSON(c, exam)
}

func (s *Server) deleteExam(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.exams[id]; !ok {
		failJSON(c, http.StatusNotFound, "exam not found")
		return
	}
	delete(s.exams, id)
	delete(s.students, id)
	delete(s.results, id)
	okJSON(c, nil)
}

func (s *Server) examResults(c *gin.Context) {
	s.mu.Lock()
	results, ok := s.results[c.Param("id")]
	s.mu.Unlock()
	if !ok {
		failJSON(c, http.StatusNotFound, "results not found")
		return
	}
	okJSON(c, results)
}

func (s *Server) studentResult(c *gin.Context) {
	s.mu.Lock()
	results, ok := s.results[c.Param("id")]
	s.mu.Unlock()
	if !ok {
		failJSON(c, http.StatusNotFound, "results not found")
		return
	}
	for _, r := range results.Students {
		if r.StudentID == c.Param("studentId") {
			okJSON(c, r)
			return
		}
	}
	failJSON(c, http.StatusNotFound, "student result not found")
}

func (s *Server) toggleStudentBan(c *gin.Context) {
	examID := c.Param("id")
	studentID := c.Param("studentId")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, stu := range s.students[examID] {
		if stu.StudentID == studentID {
			s.students[examID][i].IsBanned = !stu.IsBanned
			okJSON(c, nil)
			return
		}
	}
	failJSON(c, http.StatusNotFound, "student not assigned to exam")
}

// ─── envelope helpers ───────────────────────────────────────────────

type envelope struct {
	Status     string            `json:"status"`
	Message    string            `json:"message"`
	Data       any               `json:"data,omitempty"`
	Pagination *model.Pagination `json:"pagination,omitempty"`
}

func okJSON(c *gin.Context, data any) {
	c.JSON(http.StatusOK, envelope{Status: "success", Message: "ok", Data: data})
}

func okPaged(c *gin.Context, data any, p *model.Pagination) {
	c.JSON(http.StatusOK, envelope{Status: "success", Message: "ok", Data: data, Pagination: p})
}

func failJSON(c *gin.Context, code int, message string) {
	c.JSON(code, envelope{Status: "error", Message: message})
}
