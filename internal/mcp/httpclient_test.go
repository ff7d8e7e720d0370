package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/coordinator"
	"github.com/claude/liftlog/internal/models"
)

// newTestServer creates an httptest server that routes requests to handler functions
// keyed by method and path. Verifies the HTTP client sends correct methods and paths.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.Method+" "+r.URL.Path]
		if !ok {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

// TestWorkoutState verifies the client sends the API key and parses the view.
func TestWorkoutState(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/workout": func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("X-API-Key"); got != "secret" {
				t.Errorf("X-API-Key = %q, want secret", got)
			}
			writeTestJSON(t, w, http.StatusOK, coordinator.View{
				Status:    "active",
				IsActive:  true,
				SetIndex:  2,
				ElapsedMs: 61000,
				Rest:      &coordinator.RestView{Phase: "set_rest", RemainingSeconds: 12},
			})
		},
	})
	defer ts.Close()

	v, err := NewHTTPClient(ts.URL+"/", "secret").WorkoutState(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !v.IsActive || v.SetIndex != 2 || v.ElapsedMs != 61000 {
		t.Errorf("view = %+v", v)
	}
	if v.Rest == nil || v.Rest.RemainingSeconds != 12 {
		t.Errorf("rest = %+v, want 12s remaining", v.Rest)
	}
}

// TestTransitionsUsePost verifies each workout action hits its endpoint.
func TestTransitionsUsePost(t *testing.T) {
	var (
		mu   sync.Mutex
		hits []string
	)
	record := func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits = append(hits, r.URL.Path)
		mu.Unlock()
		writeTestJSON(t, w, http.StatusOK, coordinator.View{Status: "active"})
	}
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/workout/start":         record,
		"POST /api/v1/workout/sets/complete": record,
		"POST /api/v1/workout/rest/complete": record,
		"POST /api/v1/workout/end":           record,
		"POST /api/v1/workout/reset":         record,
	})
	defer ts.Close()

	c := NewHTTPClient(ts.URL, "")
	ctx := context.Background()
	for _, fn := range []func(context.Context) (coordinator.View, error){
		c.StartWorkout, c.CompleteSet, c.SkipRest, c.EndWorkout, c.ResetWorkout,
	} {
		if _, err := fn(ctx); err != nil {
			t.Fatal(err)
		}
	}
	mu.Lock()
	defer mu.Unlock()
	if len(hits) != 5 {
		t.Errorf("hits = %v, want 5 requests", hits)
	}
}

// TestUpdateElapsed verifies the elapsed time is sent in milliseconds.
func TestUpdateElapsed(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"PUT /api/v1/workout/elapsed": func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				ElapsedMs int64 `json:"elapsed_ms"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.ElapsedMs != 90500 {
				t.Errorf("elapsed_ms = %d, want 90500", body.ElapsedMs)
			}
			writeTestJSON(t, w, http.StatusOK, coordinator.View{ElapsedMs: body.ElapsedMs})
		},
	})
	defer ts.Close()

	v, err := NewHTTPClient(ts.URL, "").UpdateElapsed(context.Background(), 90500*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if v.ElapsedMs != 90500 {
		t.Errorf("elapsed_ms = %d, want 90500", v.ElapsedMs)
	}
}

// TestExercises verifies list, create and delete round trips.
func TestExercises(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/exercises": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, http.StatusOK, []models.Exercise{{ID: "sq", Name: "Squat", Sets: 3, Reps: 10}})
		},
		"POST /api/v1/exercises": func(w http.ResponseWriter, r *http.Request) {
			var ex models.Exercise
			if err := json.NewDecoder(r.Body).Decode(&ex); err != nil {
				t.Fatal(err)
			}
			if ex.Name != "Row" || ex.Sets != 2 || ex.Reps != 12 {
				t.Errorf("create body = %+v", ex)
			}
			ex.ID = "row-1"
			writeTestJSON(t, w, http.StatusCreated, ex)
		},
		"DELETE /api/v1/exercises/row-1": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		},
	})
	defer ts.Close()

	c := NewHTTPClient(ts.URL, "")
	ctx := context.Background()

	list, err := c.ListExercises(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Name != "Squat" {
		t.Errorf("list = %+v", list)
	}

	ex, err := c.CreateExercise(ctx, "Row", 2, 12)
	if err != nil {
		t.Fatal(err)
	}
	if ex.ID != "row-1" {
		t.Errorf("id = %q, want row-1", ex.ID)
	}

	if err := c.DeleteExercise(ctx, "row-1"); err != nil {
		t.Fatal(err)
	}
}

// TestStatusError verifies the server's error message is surfaced.
func TestStatusError(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/workout/sets/complete": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, http.StatusConflict, map[string]string{"error": "no workout in progress"})
		},
	})
	defer ts.Close()

	_, err := NewHTTPClient(ts.URL, "").CompleteSet(context.Background())
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if se.Status != http.StatusConflict {
		t.Errorf("status = %d, want 409", se.Status)
	}
	if se.Message != "no workout in progress" {
		t.Errorf("message = %q", se.Message)
	}
}
