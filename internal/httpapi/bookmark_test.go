package httpapi_test

import (
	"net/http"
	"testing"

	"github.com/noteoverflow/noteoverflow/internal/bookmark"
	"github.com/noteoverflow/noteoverflow/internal/httpapi"
)

func TestBookmarkFlow(t *testing.T) {
	ts := newTestServer(t)
	bearer := token(t, "u1", "")

	var created bookmark.List
	status, _ := doJSON(t, ts, http.MethodPost, "/api/topical/bookmark", bearer,
		`{"name":"Mechanics revision"}`, &created)
	if status != http.StatusCreated || created.ID == "" {
		t.Fatalf("create: status=%d list=%+v", status, created)
	}

	var toggled struct {
		Bookmarked bool `json:"bookmarked"`
	}
	status, _ = doJSON(t, ts, http.MethodPost, "/api/topical/bookmark/"+created.ID+"/items",
		bearer, `{"questionId":"q1"}`, &toggled)
	if status != http.StatusOK || !toggled.Bookmarked {
		t.Fatalf("toggle: status=%d bookmarked=%v", status, toggled.Bookmarked)
	}

	var fetched bookmark.List
	status, _ = doJSON(t, ts, http.MethodGet, "/api/topical/bookmark/"+created.ID, bearer, "", &fetched)
	if status != http.StatusOK || len(fetched.Items) != 1 {
		t.Fatalf("get: status=%d items=%v", status, fetched.Items)
	}

	var lists []bookmark.List
	status, _ = doJSON(t, ts, http.MethodGet, "/api/topical/bookmark", bearer, "", &lists)
	if status != http.StatusOK || len(lists) != 1 {
		t.Fatalf("list: status=%d lists=%d", status, len(lists))
	}

	status, _ = doJSON(t, ts, http.MethodDelete,
		"/api/topical/bookmark/"+created.ID+"/items/q1", bearer, "", nil)
	if status != http.StatusOK {
		t.Fatalf("remove item: status=%d", status)
	}

	status, _ = doJSON(t, ts, http.MethodDelete, "/api/topical/bookmark/"+created.ID, bearer, "", nil)
	if status != http.StatusOK {
		t.Fatalf("delete list: status=%d", status)
	}
	status, code := doJSON(t, ts, http.MethodGet, "/api/topical/bookmark/"+created.ID, bearer, "", nil)
	if status != http.StatusNotFound || code != httpapi.CodeNotFound {
		t.Errorf("get after delete: status=%d code=%s", status, code)
	}
}

func TestBookmark_PrivateListHidden(t *testing.T) {
	ts := newTestServer(t)

	var created bookmark.List
	doJSON(t, ts, http.MethodPost, "/api/topical/bookmark", token(t, "owner", ""),
		`{"name":"private"}`, &created)

	status, code := doJSON(t, ts, http.MethodGet, "/api/topical/bookmark/"+created.ID,
		token(t, "stranger", ""), "", nil)
	if status != http.StatusForbidden || code != httpapi.CodeForbidden {
		t.Errorf("status=%d code=%s", status, code)
	}
}

func TestBookmark_PublicListShared(t *testing.T) {
	ts := newTestServer(t)

	var created bookmark.List
	doJSON(t, ts, http.MethodPost, "/api/topical/bookmark", token(t, "owner", ""),
		`{"name":"shared", "public":true}`, &created)

	var fetched bookmark.List
	status, _ := doJSON(t, ts, http.MethodGet, "/api/topical/bookmark/"+created.ID,
		token(t, "stranger", ""), "", &fetched)
	if status != http.StatusOK || fetched.Name != "shared" {
		t.Errorf("status=%d list=%+v", status, fetched)
	}
}

func TestBookmark_ListCap(t *testing.T) {
	ts := newTestServer(t)
	bearer := token(t, "u1", "")

	// The test server caps lists at 2.
	for i := 0; i < 2; i++ {
		status, _ := doJSON(t, ts, http.MethodPost, "/api/topical/bookmark", bearer,
			`{"name":"list"}`, nil)
		if status != http.StatusCreated {
			t.Fatalf("create %d: status=%d", i, status)
		}
	}

	status, code := doJSON(t, ts, http.MethodPost, "/api/topical/bookmark", bearer,
		`{"name":"over cap"}`, nil)
	if status != http.StatusConflict || code != httpapi.CodeListLimit {
		t.Errorf("status=%d code=%s, want 409 LIST_LIMIT_EXCEEDED", status, code)
	}
}

func TestBookmark_InvalidName(t *testing.T) {
	ts := newTestServer(t)

	status, code := doJSON(t, ts, http.MethodPost, "/api/topical/bookmark",
		token(t, "u1", ""), `{"name":"   "}`, nil)
	if status != http.StatusBadRequest || code != httpapi.CodeBadRequest {
		t.Errorf("status=%d code=%s", status, code)
	}
}
