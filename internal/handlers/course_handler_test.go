package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

func lessonTitles(lessons []models.Lesson) []string {
	out := make([]string, len(lessons))
	for i, l := range lessons {
		out[i] = l.Title
	}
	return out
}

func TestCourseHandler_CreateWithThumbnail(t *testing.T) {
	s := newTestServer(t)
	admin := s.seedUser(t, "admin-1", models.RoleAdmin)

	body, contentType := multipartBody(t,
		map[string]interface{}{"title": "UI Basics", "duration_hours": 1, "duration_minutes": 30},
		upload{field: "thumbnail", name: "cover.png", contentType: "image/png", body: "png"},
	)
	w := s.do(t, request{method: http.MethodPost, path: "/api/v1/courses", token: admin, body: body,
		headers: map[string]string{"Content-Type": contentType}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	course := decode[map[string]interface{}](t, w)
	assert.Equal(t, "UI Basics", course["title"])
	thumbnail, _ := course["thumbnail_url"].(string)
	assert.True(t, strings.HasPrefix(thumbnail, s.blobs.PublicURL("courseThumbnails/")), thumbnail)
	assert.Equal(t, `"1"`, w.Header().Get("ETag"))
	assert.Len(t, s.blobs.Paths(), 1)
}

func TestCourseHandler_RejectsInvalidPayload(t *testing.T) {
	s := newTestServer(t)
	admin := s.seedUser(t, "admin-1", models.RoleAdmin)

	w := s.do(t, request{method: http.MethodPost, path: "/api/v1/courses", token: admin, body: strings.NewReader("{")})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, request{method: http.MethodPost, path: "/api/v1/courses", token: admin,
		body: jsonBody(t, map[string]interface{}{"title": ""})})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_failed", decode[errorBody](t, w).Code)

	w = s.do(t, request{method: http.MethodGet, path: "/api/v1/courses/missing", token: admin})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Course not found", decode[errorBody](t, w).Message)
}

func TestCourseHandler_LessonScenario(t *testing.T) {
	s := newTestServer(t)
	admin := s.seedUser(t, "admin-1", models.RoleAdmin)

	course := s.createCourse(t, admin, "UI Basics")
	id := course["id"].(string)

	s.addLesson(t, admin, id, "Intro", 1)
	after := s.addLesson(t, admin, id, "Layout", 2)
	assert.Equal(t, []string{"Intro", "Layout"}, lessonTitles(after.Lessons))

	w := s.do(t, request{method: http.MethodDelete, path: "/api/v1/courses/" + id + "/lessons/0", token: admin})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	lessons := decode[lessonsBody](t, w)
	require.Len(t, lessons.Lessons, 1)
	assert.Equal(t, "Layout", lessons.Lessons[0].Title)
	assert.Equal(t, 2, lessons.Lessons[0].Step, "step is not renumbered")

	w = s.do(t, request{method: http.MethodGet, path: "/api/v1/courses/" + id + "/lessons", token: admin})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"Layout"}, lessonTitles(decode[lessonsBody](t, w).Lessons))
}

func TestCourseHandler_EditLessonWithThumbnail(t *testing.T) {
	s := newTestServer(t)
	admin := s.seedUser(t, "admin-1", models.RoleAdmin)
	id := s.createCourse(t, admin, "UI Basics")["id"].(string)
	s.addLesson(t, admin, id, "Intro", 1)

	body, contentType := multipartBody(t,
		map[string]interface{}{"title": "Intro (revised)", "step": 1},
		upload{field: "thumbnail", name: "intro.jpg", contentType: "image/jpeg", body: "jpg"},
	)
	w := s.do(t, request{method: http.MethodPut, path: "/api/v1/courses/" + id + "/lessons/0", token: admin, body: body,
		headers: map[string]string{"Content-Type": contentType}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	lessons := decode[lessonsBody](t, w)
	require.Len(t, lessons.Lessons, 1)
	assert.Equal(t, "Intro (revised)", lessons.Lessons[0].Title)
	require.NotNil(t, lessons.Lessons[0].ThumbnailURL)
	assert.Contains(t, *lessons.Lessons[0].ThumbnailURL, "lessonThumbnails/")
}

func TestCourseHandler_LessonIndexErrors(t *testing.T) {
	s := newTestServer(t)
	admin := s.seedUser(t, "admin-1", models.RoleAdmin)
	id := s.createCourse(t, admin, "UI Basics")["id"].(string)
	s.addLesson(t, admin, id, "Intro", 1)

	w := s.do(t, request{method: http.MethodDelete, path: "/api/v1/courses/" + id + "/lessons/abc", token: admin})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, request{method: http.MethodDelete, path: "/api/v1/courses/" + id + "/lessons/5", token: admin})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_failed", decode[errorBody](t, w).Code)

	w = s.do(t, request{method: http.MethodPut, path: "/api/v1/courses/" + id + "/lessons/3", token: admin,
		body: jsonBody(t, map[string]interface{}{"title": "Ghost"})})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, s.blobs.Paths())
}

func TestCourseHandler_IfMatch(t *testing.T) {
	s := newTestServer(t)
	admin := s.seedUser(t, "admin-1", models.RoleAdmin)
	id := s.createCourse(t, admin, "UI Basics")["id"].(string)

	first := s.addLesson(t, admin, id, "Intro", 1)
	etag := `"` + strconv.Itoa(first.Version) + `"`

	// a second editor writes without a version check
	s.addLesson(t, admin, id, "Layout", 2)

	w := s.do(t, request{method: http.MethodPost, path: "/api/v1/courses/" + id + "/lessons", token: admin,
		body:    jsonBody(t, map[string]interface{}{"title": "Stale", "step": 3}),
		headers: map[string]string{"If-Match": etag}})
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.Equal(t, "version_conflict", decode[errorBody](t, w).Code)

	w = s.do(t, request{method: http.MethodGet, path: "/api/v1/courses/" + id + "/lessons", token: admin})
	current := decode[lessonsBody](t, w)
	assert.Equal(t, []string{"Intro", "Layout"}, lessonTitles(current.Lessons))
	fresh := w.Header().Get("ETag")
	assert.Equal(t, `"`+strconv.Itoa(current.Version)+`"`, fresh)

	w = s.do(t, request{method: http.MethodDelete, path: "/api/v1/courses/" + id + "/lessons/0", token: admin,
		headers: map[string]string{"If-Match": fresh}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, request{method: http.MethodDelete, path: "/api/v1/courses/" + id + "/lessons/0", token: admin,
		headers: map[string]string{"If-Match": "soon"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCourseHandler_UpdatePreservesLessons(t *testing.T) {
	s := newTestServer(t)
	admin := s.seedUser(t, "admin-1", models.RoleAdmin)
	id := s.createCourse(t, admin, "UI Basics")["id"].(string)
	s.addLesson(t, admin, id, "Intro", 1)

	w := s.do(t, request{method: http.MethodPut, path: "/api/v1/courses/" + id, token: admin,
		body: jsonBody(t, map[string]interface{}{"title": "UI Basics II", "duration_hours": 2})})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	course := decode[map[string]interface{}](t, w)
	assert.Equal(t, "UI Basics II", course["title"])
	assert.Len(t, course["lessons"], 1)
	assert.EqualValues(t, 1, course["lesson_count"])
}

func TestCourseHandler_ModeratorsCannotWriteCourses(t *testing.T) {
	s := newTestServer(t)
	admin := s.seedUser(t, "admin-1", models.RoleAdmin)
	mod := s.seedUser(t, "mod-1", models.RoleModerator)
	id := s.createCourse(t, admin, "UI Basics")["id"].(string)

	for _, r := range []request{
		{method: http.MethodPost, path: "/api/v1/courses", body: jsonBody(t, map[string]interface{}{"title": "Go"})},
		{method: http.MethodPut, path: "/api/v1/courses/" + id, body: jsonBody(t, map[string]interface{}{"title": "Renamed"})},
		{method: http.MethodDelete, path: "/api/v1/courses/" + id},
		{method: http.MethodPost, path: "/api/v1/courses/" + id + "/lessons", body: jsonBody(t, map[string]interface{}{"title": "Intro", "step": 1})},
		{method: http.MethodPut, path: "/api/v1/courses/" + id + "/lessons/0", body: jsonBody(t, map[string]interface{}{"title": "Intro"})},
		{method: http.MethodDelete, path: "/api/v1/courses/" + id + "/lessons/0"},
	} {
		r.token = mod
		w := s.do(t, r)
		assert.Equal(t, http.StatusForbidden, w.Code, "%s %s", r.method, r.path)
	}

	w := s.do(t, request{method: http.MethodGet, path: "/api/v1/courses/" + id, token: mod})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "UI Basics", decode[map[string]interface{}](t, w)["title"])
}

func TestCourseHandler_ListAndDelete(t *testing.T) {
	s := newTestServer(t)
	admin := s.seedUser(t, "admin-1", models.RoleAdmin)
	user := s.seedUser(t, "user-1", models.RoleUser)

	s.createCourse(t, admin, "Go Basics")
	doomed := s.createCourse(t, admin, "Rust Basics")["id"].(string)

	w := s.do(t, request{method: http.MethodGet, path: "/api/v1/courses?q=go", token: user})
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[map[string]interface{}](t, w)
	assert.EqualValues(t, 1, list["total"])

	w = s.do(t, request{method: http.MethodDelete, path: "/api/v1/courses/" + doomed, token: user})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, request{method: http.MethodDelete, path: "/api/v1/courses/" + doomed, token: admin})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, request{method: http.MethodGet, path: "/api/v1/courses/" + doomed, token: user})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
