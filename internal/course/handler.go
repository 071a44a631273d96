package course

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/mehmetcc/agora/internal/guard"
	"github.com/mehmetcc/agora/internal/httpx"
	"github.com/mehmetcc/agora/internal/upstream"
	"go.uber.org/zap"
)

type CourseHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Detail(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	MyCourses(w http.ResponseWriter, r *http.Request)
	Enroll(w http.ResponseWriter, r *http.Request)
	Comment(w http.ResponseWriter, r *http.Request)
	Availability(w http.ResponseWriter, r *http.Request)
	UploadResource(w http.ResponseWriter, r *http.Request)
	Routes() chi.Router
}

type courseHandler struct {
	logger    *zap.Logger
	guard     guard.Guard
	courses   upstream.Courses
	users     upstream.Users
	search    upstream.Search
	validator *validator.Validate
}

func NewCourseHandler(courses upstream.Courses, users upstream.Users, search upstream.Search, g guard.Guard, l *zap.Logger) CourseHandler {
	v := validator.New(validator.WithRequiredStructEnabled())
	return &courseHandler{
		logger:    l,
		guard:     g,
		courses:   courses,
		users:     users,
		search:    search,
		validator: v,
	}
}

func (h *courseHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/my", h.MyCourses)
	r.Post("/enroll", h.Enroll)
	r.Post("/comment", h.Comment)
	r.Post("/availability", h.Availability)
	r.Post("/resources", h.UploadResource)
	r.Get("/{id}", h.Detail)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}

// List populates the catalog from the search backend. Open to everyone.
func (h *courseHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	results, err := h.search.Search(r.Context(), q.Get("name"), q.Get("category"), q.Get("available"))
	if err != nil {
		h.logger.Warn("course search failed", zap.Error(err))
		upstream.WriteError(w, err, "failed to fetch courses")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, coursesResponse{
		Message: "Courses fetched",
		Courses: results,
	})
}

// Detail fetches a single course and, when the caller carries a token,
// decorates it with the caller's enrollment state. An enrollment-check
// failure degrades to "not subscribed" rather than failing the page.
func (h *courseHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	course, err := h.courses.Get(r.Context(), id)
	if err != nil {
		h.logger.Warn("course fetch failed", zap.String("course_id", id), zap.Error(err))
		upstream.WriteError(w, err, "error fetching course")
		return
	}

	subscribed := false
	if raw := h.guard.RawToken(r); raw != "" {
		enrolled, err := h.courses.EnrollmentCheck(r.Context(), id, raw)
		if err != nil {
			h.logger.Debug("enrollment check failed", zap.String("course_id", id), zap.Error(err))
		} else {
			subscribed = enrolled
		}
	}
	course["is_subscribed"] = subscribed

	httpx.WriteJSON(w, http.StatusOK, courseResponse{
		Message: "Course details fetched",
		Course:  course,
	})
}

// Create is admin-only. The instructor is always the caller, taken from the
// token, never from the body.
func (h *courseHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, err := h.guard.Identity(r)
	if err != nil {
		guard.WriteError(w, err)
		return
	}
	if err := h.guard.RequireAdmin(claims); err != nil {
		guard.WriteError(w, err)
		return
	}

	var req createCourseRequest
	if !httpx.DecodeBody(w, r, h.validator, h.logger, &req) {
		return
	}

	created, err := h.courses.Create(r.Context(), upstream.CreateCourseRequest{
		CourseName:   req.CourseName,
		Description:  req.CourseDescription,
		InstructorID: claims.UserID,
		Category:     req.CourseCategory,
		Requirements: req.CourseRequirements,
		Length:       req.CourseDuration,
		ImageURL:     req.CourseImage,
	}, h.guard.RawToken(r))
	if err != nil {
		h.logger.Warn("course creation failed", zap.Error(err))
		upstream.WriteError(w, err, "error creating course")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, courseRawResponse{
		Message: "Course created",
		Course:  created,
	})
}

func (h *courseHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, err := h.guard.Identity(r)
	if err != nil {
		guard.WriteError(w, err)
		return
	}
	if err := h.guard.RequireAdmin(claims); err != nil {
		guard.WriteError(w, err)
		return
	}

	var body map[string]any
	if !httpx.DecodeBody(w, r, nil, h.logger, &body) {
		return
	}
	coerceNumeric(body, "duration")
	coerceNumeric(body, "available_seats")

	id := chi.URLParam(r, "id")
	updated, err := h.courses.Update(r.Context(), id, body, h.guard.RawToken(r))
	if err != nil {
		h.logger.Warn("course update failed", zap.String("course_id", id), zap.Error(err))
		upstream.WriteError(w, err, "failed to update course")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, courseRawResponse{
		Message: "Course updated successfully",
		Course:  updated,
	})
}

func (h *courseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, err := h.guard.Identity(r)
	if err != nil {
		guard.WriteError(w, err)
		return
	}
	if err := h.guard.RequireAdmin(claims); err != nil {
		guard.WriteError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.courses.Delete(r.Context(), id, h.guard.RawToken(r)); err != nil {
		h.logger.Warn("course deletion failed", zap.String("course_id", id), zap.Error(err))
		upstream.WriteError(w, err, "error deleting course")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, messageResponse{Message: "Course deleted successfully"})
}

// MyCourses lists the caller's enrollments, scoped by the subject claim.
func (h *courseHandler) MyCourses(w http.ResponseWriter, r *http.Request) {
	claims, err := h.guard.Identity(r)
	if err != nil {
		guard.WriteError(w, err)
		return
	}

	results, err := h.users.CoursesOf(r.Context(), claims.UserID, h.guard.RawToken(r))
	if err != nil {
		h.logger.Warn("my-courses fetch failed", zap.Int64("user_id", claims.UserID), zap.Error(err))
		upstream.WriteError(w, err, "failed to fetch courses")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, coursesResponse{
		Message: "Courses fetched",
		Courses: results,
	})
}

func (h *courseHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	claims, err := h.guard.Identity(r)
	if err != nil {
		guard.WriteError(w, err)
		return
	}

	var req enrollRequest
	if !httpx.DecodeBody(w, r, h.validator, h.logger, &req) {
		return
	}

	enrolled, err := h.courses.Enroll(r.Context(), req.CourseID, claims.UserID, h.guard.RawToken(r))
	if err != nil {
		h.logger.Warn("enrollment failed",
			zap.Int64("course_id", req.CourseID),
			zap.Int64("user_id", claims.UserID),
			zap.Error(err),
		)
		upstream.WriteError(w, err, "failed to enroll in course")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, courseRawResponse{
		Message: "Successfully enrolled in course",
		Course:  enrolled,
	})
}

func (h *courseHandler) Comment(w http.ResponseWriter, r *http.Request) {
	claims, err := h.guard.Identity(r)
	if err != nil {
		guard.WriteError(w, err)
		return
	}

	var req commentRequest
	if !httpx.DecodeBody(w, r, h.validator, h.logger, &req) {
		return
	}

	comment, err := h.users.Comment(r.Context(), upstream.CommentRequest{
		CourseID: req.CourseID,
		UserID:   claims.UserID,
		Comment:  req.Comment,
	}, h.guard.RawToken(r))
	if err != nil {
		h.logger.Warn("comment failed", zap.Int64("course_id", req.CourseID), zap.Error(err))
		upstream.WriteError(w, err, "failed to add comment")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, commentResponse{
		Message: "comment added",
		Comment: comment,
	})
}

// Availability relays a batch seat check. Open endpoint, no identity needed.
func (h *courseHandler) Availability(w http.ResponseWriter, r *http.Request) {
	var courseIDs []int64
	if !httpx.DecodeBody(w, r, nil, h.logger, &courseIDs) {
		return
	}

	availability, err := h.courses.Availability(r.Context(), courseIDs)
	if err != nil {
		h.logger.Warn("availability check failed", zap.Error(err))
		upstream.WriteError(w, err, "error checking availability")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, availability)
}

// UploadResource streams a multipart upload through to the backend. Admin
// only: resources are attached from the course management screens.
func (h *courseHandler) UploadResource(w http.ResponseWriter, r *http.Request) {
	claims, err := h.guard.Identity(r)
	if err != nil {
		guard.WriteError(w, err)
		return
	}
	if err := h.guard.RequireAdmin(claims); err != nil {
		guard.WriteError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 64<<20) // 64MB
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.ErrorResponse[any]{
			Code:    httpx.ErrValidationFailed,
			Message: "failed to read upload body",
		})
		return
	}

	contentType := r.Header.Get("Content-Type")
	courseID, err := multipartField(raw, contentType, "courseId")
	if err != nil || courseID == "" {
		httpx.WriteError(w, http.StatusBadRequest, httpx.ErrorResponse[any]{
			Code:    httpx.ErrValidationFailed,
			Message: "courseId is required",
		})
		return
	}

	resource, err := h.users.Upload(r.Context(), courseID, contentType, bytes.NewReader(raw), h.guard.RawToken(r))
	if err != nil {
		h.logger.Warn("resource upload failed", zap.String("course_id", courseID), zap.Error(err))
		upstream.WriteError(w, err, "error while uploading resource")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, courseRawResponse{
		Message: "Resource Added",
		Course:  resource,
	})
}

// multipartField scans a multipart body for the value of one text field
// without disturbing the bytes that get forwarded upstream.
func multipartField(raw []byte, contentType, field string) (string, error) {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", err
	}
	boundary := params["boundary"]
	if boundary == "" {
		return "", fmt.Errorf("multipart body without boundary")
	}

	mr := multipart.NewReader(bytes.NewReader(raw), boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return "", nil
		}
		if err != nil {
			return "", err
		}
		if part.FormName() != field || part.FileName() != "" {
			continue
		}
		value, err := io.ReadAll(io.LimitReader(part, 256))
		if err != nil {
			return "", err
		}
		return string(value), nil
	}
}

// coerceNumeric turns a string field into a number when the client sent it
// as text, which the admin forms historically did.
func coerceNumeric(body map[string]any, key string) {
	s, ok := body[key].(string)
	if !ok {
		return
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		body[key] = n
	}
}

type createCourseRequest struct {
	CourseName         string `json:"courseName"         validate:"required,max=128"`
	CourseDescription  string `json:"courseDescription"  validate:"required"`
	CourseCategory     string `json:"courseCategory"     validate:"required,max=64"`
	CourseRequirements string `json:"courseRequirements" validate:"omitempty"`
	CourseDuration     int64  `json:"courseDuration"     validate:"required,gt=0"`
	CourseImage        string `json:"courseImage"        validate:"omitempty,url"`
}

type enrollRequest struct {
	CourseID int64 `json:"courseId" validate:"required,gt=0"`
}

type commentRequest struct {
	CourseID int64  `json:"courseId" validate:"required,gt=0"`
	Comment  string `json:"comment"  validate:"required,max=2048"`
}

type coursesResponse struct {
	Message string          `json:"message"`
	Courses json.RawMessage `json:"courses"`
}

type courseResponse struct {
	Message string         `json:"message"`
	Course  map[string]any `json:"course"`
}

type courseRawResponse struct {
	Message string          `json:"message"`
	Course  json.RawMessage `json:"course"`
}

type commentResponse struct {
	Message string          `json:"message"`
	Comment json.RawMessage `json:"comment"`
}

type messageResponse struct {
	Message string `json:"message"`
}
