package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mehmetcc/agora/internal/config"
	"go.uber.org/zap"
)

// Courses talks to the courses backend: catalog CRUD, enrollments and the
// admin-facing service/container endpoints it exposes.
type Courses interface {
	Get(ctx context.Context, id string) (map[string]any, error)
	Create(ctx context.Context, req CreateCourseRequest, rawToken string) (json.RawMessage, error)
	Update(ctx context.Context, id string, body map[string]any, rawToken string) (json.RawMessage, error)
	Delete(ctx context.Context, id string, rawToken string) error
	Availability(ctx context.Context, courseIDs []int64) (json.RawMessage, error)
	Enroll(ctx context.Context, courseID, userID int64, rawToken string) (json.RawMessage, error)
	EnrollmentCheck(ctx context.Context, courseID string, rawToken string) (bool, error)
	Containers(ctx context.Context, rawToken string) (json.RawMessage, error)
	Services(ctx context.Context, rawToken string) (json.RawMessage, error)
	AddService(ctx context.Context, body json.RawMessage, rawToken string) (json.RawMessage, error)
}

type CreateCourseRequest struct {
	CourseName   string `json:"course_name"`
	Description  string `json:"description"`
	InstructorID int64  `json:"instructor_id"`
	Category     string `json:"category"`
	Requirements string `json:"requirements"`
	Length       int64  `json:"length"`
	ImageURL     string `json:"ImageURL"`
}

type coursesClient struct {
	baseClient
}

func NewCoursesClient(cfg *config.UpstreamConfig, httpClient *http.Client, logger *zap.Logger) Courses {
	return &coursesClient{baseClient{
		http:   httpClient,
		base:   cfg.CoursesURL,
		logger: logger,
	}}
}

func (c *coursesClient) Get(ctx context.Context, id string) (map[string]any, error) {
	var course map[string]any
	if err := c.doJSON(ctx, http.MethodGet, "/courses/"+url.PathEscape(id), nil, &course); err != nil {
		return nil, err
	}
	// a 200 with a null body decodes into a nil map; callers mutate the result
	if course == nil {
		return nil, fmt.Errorf("%w: empty course payload", ErrUnavailable)
	}
	return course, nil
}

func (c *coursesClient) Create(ctx context.Context, req CreateCourseRequest, rawToken string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.doJSON(ctx, http.MethodPost, "/course", req, &raw, WithCookie(rawToken))
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *coursesClient) Update(ctx context.Context, id string, body map[string]any, rawToken string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.doJSON(ctx, http.MethodPut, "/courses/"+url.PathEscape(id), body, &raw, WithBearer(rawToken))
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *coursesClient) Delete(ctx context.Context, id string, rawToken string) error {
	return c.doJSON(ctx, http.MethodDelete, "/courses/"+url.PathEscape(id), nil, nil, WithBearer(rawToken))
}

func (c *coursesClient) Availability(ctx context.Context, courseIDs []int64) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodPost, "/courses/availability", courseIDs, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *coursesClient) Enroll(ctx context.Context, courseID, userID int64, rawToken string) (json.RawMessage, error) {
	body := map[string]int64{"course_id": courseID, "user_id": userID}
	var raw json.RawMessage
	err := c.doJSON(ctx, http.MethodPost, "/enrollments", body, &raw, WithCookie(rawToken))
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *coursesClient) EnrollmentCheck(ctx context.Context, courseID string, rawToken string) (bool, error) {
	var payload struct {
		Data struct {
			Enrolled bool `json:"enrolled"`
		} `json:"data"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/enrollments/check/"+url.PathEscape(courseID), nil, &payload, WithBearer(rawToken))
	if err != nil {
		return false, err
	}
	return payload.Data.Enrolled, nil
}

func (c *coursesClient) Containers(ctx context.Context, rawToken string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.doJSON(ctx, http.MethodGet, "/containers", nil, &raw, WithCookie(rawToken))
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *coursesClient) Services(ctx context.Context, rawToken string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.doJSON(ctx, http.MethodGet, "/api/services", nil, &raw, WithCookie(rawToken), WithBearer(rawToken))
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *coursesClient) AddService(ctx context.Context, body json.RawMessage, rawToken string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.doJSON(ctx, http.MethodPost, "/api/services", body, &raw, WithCookie(rawToken), WithBearer(rawToken))
	if err != nil {
		return nil, err
	}
	return raw, nil
}
