package phantom_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-phantom"
)

func TestContainers_Create(t *testing.T) {
	t.Run("fills defaults", func(t *testing.T) {
		var body map[string]any
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/rest/container", r.URL.Path)
			assert.Equal(t, "test-token", r.Header.Get("ph-auth-token"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			writeJSON(w, http.StatusOK, map[string]any{"id": 10, "success": true})
		})

		result, err := client.Containers.Create(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, int64(10), result.ID)
		assert.True(t, result.Success)

		assert.Equal(t, "TEST - Default Name", body["name"])
		assert.Equal(t, "events", body["label"])
		assert.Equal(t, "low", body["severity"])
		assert.Equal(t, "white", body["sensitivity"])
		assert.Equal(t, "new", body["status"])
		assert.Equal(t, true, body["run_automation"])
		assert.Equal(t, []any{}, body["tags"])
		assert.Equal(t, []any{}, body["artifacts"])
		_, err = uuid.Parse(body["source_data_identifier"].(string))
		assert.NoError(t, err)
	})

	t.Run("keeps caller values and nested artifacts", func(t *testing.T) {
		var body map[string]any
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			writeJSON(w, http.StatusOK, map[string]any{"id": 11, "success": true})
		})

		_, err := client.Containers.Create(context.Background(), &phantom.CreateContainerRequest{
			Name:                 "Phishing report",
			Severity:             phantom.SeverityHigh,
			SourceDataIdentifier: "sdi-1",
			RunAutomation:        phantom.Bool(false),
			Artifacts: []*phantom.AddArtifactRequest{
				{CEF: map[string]any{"fromEmail": "bad@example.com"}},
			},
		})
		require.NoError(t, err)

		assert.Equal(t, "Phishing report", body["name"])
		assert.Equal(t, "high", body["severity"])
		assert.Equal(t, "sdi-1", body["source_data_identifier"])
		assert.Equal(t, false, body["run_automation"])

		artifacts := body["artifacts"].([]any)
		require.Len(t, artifacts, 1)
		artifact := artifacts[0].(map[string]any)
		assert.Equal(t, "Test Artifact", artifact["name"])
		assert.Equal(t, "bad@example.com", artifact["cef"].(map[string]any)["fromEmail"])
	})

	t.Run("duplicate source identifier", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "duplicate", "existing_container_id": 4})
		})

		result, err := client.Containers.Create(context.Background(), &phantom.CreateContainerRequest{SourceDataIdentifier: "x"})
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, int64(4), result.ExistingID)
	})
}

func TestContainers_Lifecycle(t *testing.T) {
	fake, client := newFakePhantom(t)
	ctx := context.Background()

	created, err := client.Containers.Create(ctx, &phantom.CreateContainerRequest{Name: "lifecycle"})
	require.NoError(t, err)

	_, err = client.Artifacts.Add(ctx, &phantom.AddArtifactRequest{
		ContainerID: created.ID,
		CEF:         map[string]any{"sourceAddress": "10.1.1.1"},
	})
	require.NoError(t, err)

	page, err := client.Containers.Artifacts(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Count)
	require.Len(t, page.Data, 1)
	assert.Equal(t, created.ID, page.Data[0].ContainerID)

	_, err = client.Containers.UpdateStatus(ctx, created.ID, phantom.StatusOpen)
	require.NoError(t, err)

	container, err := client.Containers.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "lifecycle", container.Name)
	assert.Equal(t, phantom.StatusOpen, container.Status)

	_, err = client.Containers.Delete(ctx, created.ID)
	require.NoError(t, err)

	_, err = client.Containers.Artifacts(ctx, created.ID)
	var nf *phantom.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "container", nf.ResourceType)

	_, err = client.Containers.Get(ctx, created.ID)
	require.ErrorAs(t, err, &nf)

	_, err = client.Containers.Delete(ctx, created.ID)
	require.ErrorAs(t, err, &nf)

	assert.Equal(t, 9, fake.requestCount())
}

func TestContainers_UpdateTags(t *testing.T) {
	var bodies []map[string]any
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/container/5", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
		writeJSON(w, http.StatusOK, map[string]any{"id": 5, "success": true})
	})
	ctx := context.Background()

	_, err := client.Containers.UpdateTags(ctx, 5, []string{"phish", "vip"})
	require.NoError(t, err)
	_, err = client.Containers.UpdateTags(ctx, 5, nil)
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	assert.Equal(t, []any{"phish", "vip"}, bodies[0]["tags"])
	assert.Equal(t, []any{}, bodies[1]["tags"])
}

func TestContainers_Last(t *testing.T) {
	t.Run("newest matching tag", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "/rest/container", r.URL.Path)
			assert.Equal(t, "id", q.Get("sort"))
			assert.Equal(t, "desc", q.Get("order"))
			assert.Equal(t, "1", q.Get("page_size"))
			assert.Equal(t, `"nightly"`, q.Get("_filter_tags__icontains"))
			writeJSON(w, http.StatusOK, map[string]any{
				"count": 1, "num_pages": 1,
				"data": []any{map[string]any{"id": 31, "name": "latest"}},
			})
		})

		c, err := client.Containers.Last(context.Background(), "nightly")
		require.NoError(t, err)
		assert.Equal(t, int64(31), c.ID)
	})

	t.Run("no match", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"count": 0, "num_pages": 0, "data": []any{}})
		})

		_, err := client.Containers.Last(context.Background(), "nightly")
		var nf *phantom.NotFoundError
		require.ErrorAs(t, err, &nf)
	})
}

func TestContainers_PromoteAndDemote(t *testing.T) {
	var updates []map[string]any
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/rest/workflow_template":
			if r.URL.Query().Get("_filter_name") == `"Data Breach"` {
				writeJSON(w, http.StatusOK, map[string]any{
					"count": 1, "num_pages": 1,
					"data": []any{map[string]any{"id": 6, "name": "Data Breach"}},
				})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"count": 0, "num_pages": 0, "data": []any{}})
		case r.Method == http.MethodPost && r.URL.Path == "/rest/container/8":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			updates = append(updates, body)
			writeJSON(w, http.StatusOK, map[string]any{"id": 8, "success": true})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})
	ctx := context.Background()

	_, err := client.Containers.PromoteToCase(ctx, 8, "Data Breach")
	require.NoError(t, err)
	_, err = client.Containers.DemoteToContainer(ctx, 8)
	require.NoError(t, err)

	_, err = client.Containers.PromoteToCase(ctx, 8, "Unknown")
	var nf *phantom.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "case template", nf.ResourceType)

	require.Len(t, updates, 2)
	assert.Equal(t, map[string]any{"container_type": "case", "template_id": float64(6)}, updates[0])
	assert.Equal(t, map[string]any{"container_type": "default"}, updates[1])
}
