package phantom_test

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"maps"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-phantom"
)

// fakePhantom is an in-memory stand-in for the container, artifact, vault
// and playbook endpoints.
type fakePhantom struct {
	mu         sync.Mutex
	nextID     int64
	containers map[int64]map[string]any
	artifacts  map[int64]map[string]any
	runs       map[int64]int // playbook run ID -> times fetched
	requests   int
}

func newFakePhantom(t *testing.T) (*fakePhantom, *phantom.Client) {
	t.Helper()
	f := &fakePhantom{
		containers: make(map[int64]map[string]any),
		artifacts:  make(map[int64]map[string]any),
		runs:       make(map[int64]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /rest/container", f.createContainer)
	mux.HandleFunc("GET /rest/container/{id}", f.getContainer)
	mux.HandleFunc("POST /rest/container/{id}", f.updateContainer)
	mux.HandleFunc("DELETE /rest/container/{id}", f.deleteContainer)
	mux.HandleFunc("GET /rest/container/{id}/artifacts", f.containerArtifacts)
	mux.HandleFunc("POST /rest/artifact", f.addArtifact)
	mux.HandleFunc("GET /rest/artifact/{id}", f.getArtifact)
	mux.HandleFunc("POST /rest/container_attachment", f.addAttachment)
	mux.HandleFunc("POST /rest/playbook_run", f.runPlaybook)
	mux.HandleFunc("GET /rest/playbook_run/{id}", f.getPlaybookRun)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests++
		f.mu.Unlock()
		if r.Header.Get("ph-auth-token") != "test-token" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"failed": true, "message": "bad token"})
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := phantom.NewClient(
		phantom.WithBaseURL(server.URL),
		phantom.WithToken("test-token"),
		phantom.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)
	return f, client
}

func (f *fakePhantom) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func notFoundJSON(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]any{"failed": true, "message": "Requested item not found"})
}

func decodeBody(r *http.Request) map[string]any {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	return body
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id
}

func (f *fakePhantom) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakePhantom) createContainer(w http.ResponseWriter, r *http.Request) {
	body := decodeBody(r)
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id()
	body["id"] = id
	body["container_type"] = "default"
	delete(body, "artifacts")
	f.containers[id] = body
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "success": true})
}

func (f *fakePhantom) getContainer(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.containers[pathID(r)]
	if !ok {
		notFoundJSON(w)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (f *fakePhantom) updateContainer(w http.ResponseWriter, r *http.Request) {
	body := decodeBody(r)
	f.mu.Lock()
	defer f.mu.Unlock()
	id := pathID(r)
	c, ok := f.containers[id]
	if !ok {
		notFoundJSON(w)
		return
	}
	maps.Copy(c, body)
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "success": true})
}

func (f *fakePhantom) deleteContainer(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := pathID(r)
	if _, ok := f.containers[id]; !ok {
		notFoundJSON(w)
		return
	}
	delete(f.containers, id)
	for aid, a := range f.artifacts {
		if a["container"] == id {
			delete(f.artifacts, aid)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (f *fakePhantom) containerArtifacts(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := pathID(r)
	if _, ok := f.containers[id]; !ok {
		notFoundJSON(w)
		return
	}
	data := []map[string]any{}
	for _, a := range f.artifacts {
		if a["container"] == id {
			data = append(data, a)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(data), "num_pages": 1, "data": data})
}

func (f *fakePhantom) addArtifact(w http.ResponseWriter, r *http.Request) {
	body := decodeBody(r)
	f.mu.Lock()
	defer f.mu.Unlock()
	cid := int64(body["container_id"].(float64))
	if _, ok := f.containers[cid]; !ok {
		notFoundJSON(w)
		return
	}
	id := f.id()
	delete(body, "container_id")
	body["id"] = id
	body["container"] = cid
	f.artifacts[id] = body
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "success": true})
}

func (f *fakePhantom) getArtifact(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.artifacts[pathID(r)]
	if !ok {
		notFoundJSON(w)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (f *fakePhantom) addAttachment(w http.ResponseWriter, r *http.Request) {
	body := decodeBody(r)
	content, err := base64.StdEncoding.DecodeString(body["file_content"].(string))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"failed": true, "message": "bad base64"})
		return
	}
	sum := sha1.Sum(content)
	f.mu.Lock()
	id := f.id()
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"id":        id,
		"succeeded": true,
		"vault_id":  hex.EncodeToString(sum[:]),
		"hash":      hex.EncodeToString(sum[:]),
	})
}

func (f *fakePhantom) runPlaybook(w http.ResponseWriter, r *http.Request) {
	body := decodeBody(r)
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.containers[int64(body["container_id"].(float64))]; !ok {
		notFoundJSON(w)
		return
	}
	id := f.id()
	f.runs[id] = 0
	writeJSON(w, http.StatusOK, map[string]any{"playbook_run_id": id, "message": "playbook started"})
}

// getPlaybookRun reports "running" on the first fetch and "success" after.
func (f *fakePhantom) getPlaybookRun(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := pathID(r)
	n, ok := f.runs[id]
	if !ok {
		notFoundJSON(w)
		return
	}
	f.runs[id] = n + 1
	status := "running"
	if n > 0 {
		status = "success"
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": status})
}
