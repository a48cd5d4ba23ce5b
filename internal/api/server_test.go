package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verda0/verda/internal/challenge"
	"github.com/verda0/verda/internal/coach"
	"github.com/verda0/verda/internal/log"
	"github.com/verda0/verda/internal/rag"
	"github.com/verda0/verda/internal/store"
)

const testToken = "secret-rebuild-token"

type stubChat struct {
	turn coach.Turn
	err  error
}

func (s *stubChat) Reply(context.Context, string) (coach.Turn, error) {
	return s.turn, s.err
}

type stubRebuilder struct {
	index *rag.Index
	err   error
	calls int
}

func (s *stubRebuilder) Build(context.Context) (*rag.Index, error) {
	s.calls++
	return s.index, s.err
}

// stubEmbedding gives deterministic vectors for index fixtures.
func stubEmbedding(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, 3)
	lower := strings.ToLower(text)
	if strings.Contains(lower, "compost") {
		vec[0] = 1
	}
	if strings.Contains(lower, "cycling") {
		vec[1] = 1
	}
	vec[2] = 0.1
	return vec, nil
}

func buildTestIndex(t *testing.T, files map[string]string) *rag.Index {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	index, err := rag.NewIndexer(dir, stubEmbedding, log.NewNop()).Build(context.Background())
	if err != nil {
		t.Fatalf("building test index: %v", err)
	}
	return index
}

type testServer struct {
	srv       *httptest.Server
	store     *store.Store
	chat      *stubChat
	rebuilder *stubRebuilder
	handle    *rag.Handle
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.Migrate(db); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	st := store.New(db, log.NewNop())
	chat := &stubChat{turn: coach.Turn{Reply: "nice work", CarbonSaved: 0}}
	handle := rag.NewHandle(buildTestIndex(t, map[string]string{"a.md": "Compost scraps."}))
	rebuilder := &stubRebuilder{index: buildTestIndex(t, map[string]string{
		"a.md": "Compost scraps.",
		"b.md": "Cycling beats driving.",
	})}

	server, err := NewServer(ServerConfig{
		Logger:       log.NewNop(),
		Store:        st,
		Chat:         chat,
		Index:        handle,
		Rebuilder:    rebuilder,
		RebuildToken: testToken,
		DB:           db,
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, store: st, chat: chat, rebuilder: rebuilder, handle: handle}
}

func (ts *testServer) post(t *testing.T, path, body string, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, ts.srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return ts.do(t, req)
}

func (ts *testServer) get(t *testing.T, path string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, ts.srv.URL+path, nil)
	if err != nil {
		t.Fatal(err)
	}
	return ts.do(t, req)
}

func (ts *testServer) do(t *testing.T, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return resp, body
}

// getList fetches an endpoint that answers with a bare JSON array.
func (ts *testServer) getList(t *testing.T, path string) (*http.Response, []any) {
	t.Helper()
	resp, err := http.Get(ts.srv.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()

	var body []any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding list response: %v", err)
	}
	return resp, body
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.get(t, "/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
}

func TestReady(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.get(t, "/ready")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
}

func TestRequestIDHeader(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.getList(t, "/leaderboard")
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestChat(t *testing.T) {
	ts := newTestServer(t)
	ts.chat.turn = coach.Turn{Reply: "try cycling to work", CarbonSaved: 3}

	resp, body := ts.post(t, "/chat", `{"username":"alice","message":"I rode my bike"}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["reply"] != "try cycling to work" {
		t.Errorf("reply = %v", body["reply"])
	}
	if body["carbon_saved"] != float64(3) {
		t.Errorf("carbon_saved = %v, want 3", body["carbon_saved"])
	}
}

func TestChatSoftErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		chatErr error
		wantErr string
	}{
		{"empty message", `{"username":"alice"}`, nil, "message is required"},
		{"invalid body", `{not json`, nil, "invalid request body"},
		{"generation failure", `{"message":"hi"}`, errors.New("model down"), "could not generate a reply, please try again"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.chat.err = tt.chatErr

			resp, body := ts.post(t, "/chat", tt.body, nil)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, soft errors must be 200", resp.StatusCode)
			}
			if body["error"] != tt.wantErr {
				t.Errorf("error = %v, want %q", body["error"], tt.wantErr)
			}
		})
	}
}

func TestCarbonLogFlow(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.post(t, "/carbon/log", `{"username":"bob","activity":"rode my bike","carbon_saved":3}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["carbon_saved"] != float64(3) {
		t.Errorf("carbon_saved = %v, want 3", body["carbon_saved"])
	}
	if body["total_carbon_saved"] != float64(3) {
		t.Errorf("total_carbon_saved = %v, want 3", body["total_carbon_saved"])
	}

	// Second log accumulates.
	_, body = ts.post(t, "/carbon/log", `{"username":"bob","activity":"planted a tree","carbon_saved":2}`, nil)
	if body["total_carbon_saved"] != float64(5) {
		t.Errorf("total after second log = %v, want 5", body["total_carbon_saved"])
	}

	// The user is now visible.
	resp, body = ts.get(t, "/user/bob")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["username"] != "bob" {
		t.Errorf("username = %v", body["username"])
	}
}

// TestCarbonLogUsesReportedAmount pins the pass-through contract: the caller's
// carbon_saved is logged verbatim, even fractional and even when the activity
// text matches no chat-estimator keyword.
func TestCarbonLogUsesReportedAmount(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.post(t, "/carbon/log", `{"username":"dana","activity":"installed solar panels","carbon_saved":5.5}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["carbon_saved"] != float64(5.5) {
		t.Errorf("carbon_saved = %v, want 5.5", body["carbon_saved"])
	}
	if body["total_carbon_saved"] != float64(5.5) {
		t.Errorf("total_carbon_saved = %v, want 5.5", body["total_carbon_saved"])
	}

	// The ledger holds the reported amount, not a keyword score.
	_, body = ts.get(t, "/user/dana")
	if body["total_carbon_saved"] != float64(5.5) {
		t.Errorf("stored total = %v, want 5.5", body["total_carbon_saved"])
	}
}

func TestCarbonLogValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"missing username", `{"activity":"cycled"}`, "username is required"},
		{"missing activity", `{"username":"bob"}`, "activity is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := ts.post(t, "/carbon/log", tt.body, nil)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want 200", resp.StatusCode)
			}
			if body["error"] != tt.wantErr {
				t.Errorf("error = %v, want %q", body["error"], tt.wantErr)
			}
		})
	}
}

func TestGetUserNotFoundIsSoft(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.get(t, "/user/nobody")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 for soft not-found", resp.StatusCode)
	}
	if body["error"] != "user not found" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestLeaderboard(t *testing.T) {
	ts := newTestServer(t)

	ts.post(t, "/carbon/log", `{"username":"alice","activity":"rode my bike","carbon_saved":3}`, nil)
	ts.post(t, "/carbon/log", `{"username":"bob","activity":"turned off lights","carbon_saved":1}`, nil)

	resp, entries := ts.getList(t, "/leaderboard")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if len(entries) != 2 {
		t.Fatalf("leaderboard = %v, want 2 entries", entries)
	}
	first, _ := entries[0].(map[string]any)
	if first["username"] != "alice" {
		t.Errorf("top entry = %v, want alice", first)
	}
}

func TestLeaderboardEmptyIsBareArray(t *testing.T) {
	ts := newTestServer(t)

	resp, entries := ts.getList(t, "/leaderboard")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if len(entries) != 0 {
		t.Errorf("leaderboard = %v, want empty array", entries)
	}
}

func TestChallengeDaily(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.get(t, "/challenge/daily")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	date := time.Now().Format(time.DateOnly)
	if body["date"] != date {
		t.Errorf("date = %v, want %s", body["date"], date)
	}

	want, err := challenge.ForDate(date)
	if err != nil {
		t.Fatal(err)
	}
	ch, _ := body["challenge"].(map[string]any)
	if ch["id"] != float64(want.ID) {
		t.Errorf("challenge id = %v, want %d", ch["id"], want.ID)
	}

	// The binding is recorded so completions can be audited.
	got, err := ts.store.ChallengeOfDay(context.Background(), date)
	if err != nil {
		t.Fatalf("ChallengeOfDay: %v", err)
	}
	if got != want.ID {
		t.Errorf("stored binding = %d, want %d", got, want.ID)
	}

	// Same answer on repeat calls.
	_, body2 := ts.get(t, "/challenge/daily")
	ch2, _ := body2["challenge"].(map[string]any)
	if ch2["id"] != ch["id"] {
		t.Errorf("repeat call changed challenge: %v vs %v", ch2["id"], ch["id"])
	}
}

func TestChallengeComplete(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.post(t, "/challenge/complete", `{"username":"alice","challenge_id":2}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["message"] != "challenge completed" {
		t.Errorf("message = %v", body["message"])
	}
}

func TestChallengeCompleteUnknownID(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.post(t, "/challenge/complete", `{"username":"alice","challenge_id":99}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["error"] != "unknown challenge" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestReminderFlow(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.post(t, "/reminder/add", `{"username":"carol","habit":"compost","frequency":"weekly"}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["message"] != "reminder added" {
		t.Errorf("message = %v", body["message"])
	}

	_, reminders := ts.getList(t, "/reminders/carol")
	if len(reminders) != 1 {
		t.Fatalf("reminders = %v, want 1 entry", reminders)
	}
	first, _ := reminders[0].(map[string]any)
	if first["habit"] != "compost" {
		t.Errorf("habit = %v", first["habit"])
	}

	// Toggle off, then the list is empty.
	id := int64(first["id"].(float64))
	_, body = ts.post(t, "/reminder/toggle", `{"reminder_id":`+jsonInt(id)+`,"enabled":false}`, nil)
	if body["message"] != "reminder updated" {
		t.Errorf("toggle message = %v", body["message"])
	}

	_, reminders = ts.getList(t, "/reminders/carol")
	if len(reminders) != 0 {
		t.Errorf("reminders after disable = %v, want none", reminders)
	}
}

func TestRemindersUnknownUser(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.get(t, "/reminders/ghost")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["error"] != "user not found" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestToggleUnknownReminder(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.post(t, "/reminder/toggle", `{"reminder_id":123,"enabled":true}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["error"] != "reminder not found" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestRebuildWrongToken(t *testing.T) {
	ts := newTestServer(t)
	before := ts.handle.Load()

	resp, body := ts.post(t, "/rebuild-rag", "", map[string]string{"X-Rebuild-Token": "wrong"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
	if body["error"] != "forbidden" {
		t.Errorf("error = %v", body["error"])
	}
	if ts.rebuilder.calls != 0 {
		t.Errorf("rebuilder ran %d times on a rejected request", ts.rebuilder.calls)
	}
	if ts.handle.Load() != before {
		t.Error("index handle changed despite rejected token")
	}
}

func TestRebuildMissingToken(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.post(t, "/rebuild-rag", "", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func TestRebuildSwapsIndex(t *testing.T) {
	ts := newTestServer(t)

	if got := ts.handle.Load().Len(); got != 1 {
		t.Fatalf("initial index has %d chunks, want 1", got)
	}

	resp, body := ts.post(t, "/rebuild-rag", "", map[string]string{"X-Rebuild-Token": testToken})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["chunks"] != float64(2) {
		t.Errorf("chunks = %v, want 2", body["chunks"])
	}

	// Searches now hit the new index.
	passages, err := ts.handle.Search(context.Background(), "cycling", 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(passages) != 1 || !strings.Contains(passages[0].Content, "Cycling") {
		t.Errorf("post-rebuild search = %+v, want the cycling chunk", passages)
	}
}

func TestRebuildFailureKeepsOldIndex(t *testing.T) {
	ts := newTestServer(t)
	ts.rebuilder.err = errors.New("docs dir gone")
	ts.rebuilder.index = nil
	before := ts.handle.Load()

	resp, body := ts.post(t, "/rebuild-rag", "", map[string]string{"X-Rebuild-Token": testToken})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	if body["error"] != "rebuild_failed" {
		t.Errorf("error = %v", body["error"])
	}
	if ts.handle.Load() != before {
		t.Error("index handle changed despite failed rebuild")
	}
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
