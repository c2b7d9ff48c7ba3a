package httpapi_test

import (
	"net/http"
	"testing"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/noteoverflow/noteoverflow/internal/question"
)

type feedMsg struct {
	Questions     []question.Question `json:"questions"`
	Exhausted     bool                `json:"exhausted"`
	IsRateLimited bool                `json:"isRateLimited"`
}

func TestFeed(t *testing.T) {
	ts := newTestServer(t)
	ctx := t.Context()

	url := ts.URL + "/api/topical/feed?curriculumId=cie-a-level&subjectId=9702" +
		"&topic=Kinematics&year=2023&paperType=1&season=Summer&token=" + token(t, "u1", "")
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.CloseNow()

	// Five seeded questions arrive in batches of two.
	var first feedMsg
	if err := wsjson.Read(ctx, conn, &first); err != nil {
		t.Fatalf("read first batch: %v", err)
	}
	if len(first.Questions) != 2 || first.Exhausted {
		t.Fatalf("first batch = %d questions, exhausted=%v", len(first.Questions), first.Exhausted)
	}

	seen := len(first.Questions)
	for !first.Exhausted {
		if err := wsjson.Write(ctx, conn, map[string]string{"op": "next"}); err != nil {
			t.Fatalf("write next: %v", err)
		}
		var batch feedMsg
		if err := wsjson.Read(ctx, conn, &batch); err != nil {
			t.Fatalf("read batch: %v", err)
		}
		seen += len(batch.Questions)
		first.Exhausted = batch.Exhausted
	}
	if seen != 5 {
		t.Errorf("scrolled through %d questions, want 5", seen)
	}

	if err := wsjson.Write(ctx, conn, map[string]string{"op": "done"}); err != nil {
		t.Fatalf("write done: %v", err)
	}
}

func TestFeed_RejectsMissingToken(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/topical/feed?curriculumId=cie-a-level&subjectId=9702")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestFeed_RejectsInvalidFilter(t *testing.T) {
	ts := newTestServer(t)

	_, resp, err := websocket.Dial(t.Context(),
		ts.URL+"/api/topical/feed?curriculumId=cie-a-level&subjectId=9702&token="+token(t, "u1", ""), nil)
	if err == nil {
		t.Fatal("Dial() should fail for a filter with no dimensions")
	}
	if resp != nil && resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
