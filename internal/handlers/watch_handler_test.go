package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/models"
)

func TestWatchHandler_UnknownCollection(t *testing.T) {
	s := newTestServer(t)
	user := s.seedUser(t, "user-1", models.RoleUser)

	w := s.do(t, request{method: http.MethodGet, path: "/api/v1/watch/users", token: user})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWatchHandler_StreamsCourseChanges(t *testing.T) {
	s := newTestServer(t)
	mod := s.seedUser(t, "mod-1", models.RoleModerator)
	admin := s.seedUser(t, "admin-1", models.RoleAdmin)

	srv := httptest.NewServer(s.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/watch/courses", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+mod)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	received := make(chan events.ChangeEvent, 1)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			data, ok := strings.CutPrefix(scanner.Text(), "data:")
			if !ok {
				continue
			}
			var evt events.ChangeEvent
			if json.Unmarshal([]byte(data), &evt) == nil {
				received <- evt
				return
			}
		}
	}()

	// the subscription is open once headers arrive
	course := s.createCourse(t, admin, "Live")

	select {
	case evt := <-received:
		assert.Equal(t, events.CollectionCourses, evt.Collection)
		assert.Equal(t, course["id"], evt.ID)
		assert.Equal(t, events.OpCreated, evt.Op)
		assert.Equal(t, 1, evt.Version)
	case <-ctx.Done():
		t.Fatal("no change event received")
	}
}
