package leaderboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"

	"github.com/roopamkhare/fashion-vashion/internal/cache/cachelru"
	"github.com/roopamkhare/fashion-vashion/internal/database"
	"github.com/roopamkhare/fashion-vashion/internal/database/highscore"
)

func testServer(t *testing.T) (*httptest.Server, *highscore.DB) {
	t.Helper()

	ctx := context.Background()
	db, err := database.NewFromEnv(ctx, &database.Config{
		FilePath: filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(ctx) })

	c, err := cachelru.NewLRU(8)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	scores := highscore.New(db, c)

	router := httprouter.New()
	New(scores).Routes(router)

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts, scores
}

func postScore(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/scores", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestSubmitAndList(t *testing.T) {
	ts, _ := testServer(t)

	resp := postScore(t, ts, `{"name":"Ada","score":120}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit status = %d", resp.StatusCode)
	}

	listResp, err := http.Get(ts.URL + "/scores")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer listResp.Body.Close()

	var body struct {
		Scores []highscore.Entry `json:"scores"`
	}
	if err := json.NewDecoder(listResp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Scores) != 1 || body.Scores[0].Name != "Ada" || body.Scores[0].Score != 120 {
		t.Fatalf("scores = %+v", body.Scores)
	}
}

func TestSubmitBelowCutoffRefused(t *testing.T) {
	ts, scores := testServer(t)

	for _, s := range []int{100, 90, 80, 70, 60} {
		if err := scores.Add("x", s); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	resp := postScore(t, ts, `{"name":"Low","score":10}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body struct {
		Accepted bool `json:"accepted"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Accepted {
		t.Fatal("sub-cutoff score accepted")
	}
}

func TestSubmitValidation(t *testing.T) {
	ts, _ := testServer(t)

	for _, body := range []string{
		`{"name":"","score":10}`,
		`{"name":"Ada","score":-1}`,
		`not json`,
	} {
		resp := postScore(t, ts, body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("body %q status = %d, want 400", body, resp.StatusCode)
		}
	}
}
