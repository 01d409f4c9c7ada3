package roster

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"school-service/api"
	"school-service/pkg/response"
)

type fakeGetter struct {
	resp *api.HomeworkRosterResponse
	err  error
	got  string
}

func (f *fakeGetter) HomeworkRoster(_ context.Context, homeworkID string) (*api.HomeworkRosterResponse, error) {
	f.got = homeworkID
	return f.resp, f.err
}

func doRequest(handler http.HandlerFunc, homeworkID string) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	router.Get("/homework/{id}/students", handler)

	req := httptest.NewRequest(http.MethodGet, "/homework/"+homeworkID+"/students", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	return rec
}

func TestNew(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("returns the roster", func(t *testing.T) {
		status := "submitted"
		getter := &fakeGetter{resp: &api.HomeworkRosterResponse{
			Students: []api.BoardStudent{
				{StudentID: "s1", FullName: "A", Status: &status},
				{StudentID: "s2", FullName: "B"},
			},
		}}

		rec := doRequest(New(log, getter), "hw1")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "hw1", getter.got)

		var resp api.HomeworkRosterResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Students, 2)
		assert.Nil(t, resp.Students[1].Status)
	})

	t.Run("unknown homework is not found", func(t *testing.T) {
		getter := &fakeGetter{err: response.ErrNotFound}

		rec := doRequest(New(log, getter), "hw-missing")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "NOT_FOUND")
	})

	t.Run("storage failure is a server error", func(t *testing.T) {
		getter := &fakeGetter{err: errors.New("connection refused")}

		rec := doRequest(New(log, getter), "hw1")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
