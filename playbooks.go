package phantom

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"strconv"

	"github.com/tphakala/go-phantom/internal/api"
)

const (
	defaultPlaybookScope = "new"

	// systemFailureMessage marks runs aborted by a daemon restart.
	systemFailureMessage = "system/daemon start"
)

// Playbook is a playbook definition.
type Playbook struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Active   bool     `json:"active"`
	Category string   `json:"category,omitempty"`
	Labels   []string `json:"labels,omitempty"`
}

// LastRunFilter narrows LastRun. Zero fields are ignored.
type LastRunFilter struct {
	ContainerID  int64
	PlaybookName string
}

// PlaybookService provides playbook runs and their results.
type PlaybookService interface {
	// Run starts a playbook against a container and returns the run ID
	// without waiting for the run to finish.
	Run(ctx context.Context, req *RunPlaybookRequest, opts ...RequestOption) (*RunPlaybookResult, error)

	// Get returns the current state of a playbook run.
	Get(ctx context.Context, runID int64, opts ...RequestOption) (*PlaybookRun, error)

	// ActionResults returns the app runs of a playbook run, restricted to
	// one action when action is not empty.
	ActionResults(ctx context.Context, runID int64, action string, opts ...RequestOption) (*Page[*AppRun], error)

	// Info returns the playbook definition with the given name.
	Info(ctx context.Context, name string, opts ...RequestOption) (*Playbook, error)

	// LastRun returns the most recent playbook run matching filter.
	LastRun(ctx context.Context, filter *LastRunFilter, opts ...RequestOption) (*PlaybookRun, error)

	// SetActive activates or deactivates a playbook, optionally cancelling
	// its pending runs.
	SetActive(ctx context.Context, playbookID int64, active, cancelRuns bool, opts ...RequestOption) (Object, error)

	// SystemFailureImpacted lists runs that failed because Phantom restarted.
	SystemFailureImpacted(ctx context.Context, window *TimeRange, opts ...RequestOption) (*Page[*PlaybookRun], error)

	// SystemFailurePending lists containers whose playbooks never started.
	SystemFailurePending(ctx context.Context, window *TimeRange, opts ...RequestOption) (*Page[*Container], error)

	// Watch polls a run and yields every snapshot until it finishes.
	Watch(ctx context.Context, runID int64, poll *PollOptions, opts ...RequestOption) iter.Seq2[*PlaybookRun, error]

	// Wait polls a run until it finishes and returns the final snapshot.
	Wait(ctx context.Context, runID int64, poll *PollOptions, opts ...RequestOption) (*PlaybookRun, error)
}

// playbookService implements PlaybookService.
type playbookService struct {
	transport *api.Transport
}

func newPlaybookService(transport *api.Transport) *playbookService {
	return &playbookService{transport: transport}
}

// playbookRef sends numeric references as numbers and "repo/name"
// references as strings; Phantom accepts both forms of playbook_id.
func playbookRef(ref string) any {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return id
	}
	return ref
}

// Run starts a playbook.
func (s *playbookService) Run(ctx context.Context, req *RunPlaybookRequest, opts ...RequestOption) (*RunPlaybookResult, error) {
	if req == nil {
		return nil, invalid("playbook request cannot be nil")
	}
	if err := validateID("container", req.ContainerID); err != nil {
		return nil, err
	}
	if req.Playbook == "" {
		return nil, invalid("playbook is required")
	}

	scope := req.Scope
	if scope == "" {
		scope = defaultPlaybookScope
	}

	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	body := map[string]any{
		"container_id": req.ContainerID,
		"playbook_id":  playbookRef(req.Playbook),
		"scope":        scope,
		"run":          true,
	}

	var result RunPlaybookResult
	resp, err := s.transport.DoJSON(ctx, reqCfg.request(http.MethodPost, "/rest/playbook_run", nil, body), &result)
	if err != nil {
		return nil, err
	}

	if err := checkResponse(resp, "", 0); err != nil {
		return nil, err
	}

	return &result, nil
}

// Get returns the current state of a playbook run.
func (s *playbookService) Get(ctx context.Context, runID int64, opts ...RequestOption) (*PlaybookRun, error) {
	if err := validateID("playbook run", runID); err != nil {
		return nil, err
	}

	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	var result PlaybookRun
	resp, err := s.transport.DoJSON(ctx,
		reqCfg.request(http.MethodGet, fmt.Sprintf("/rest/playbook_run/%d", runID), nil, nil), &result)
	if err != nil {
		return nil, err
	}

	if err := checkResponse(resp, "playbook run", runID); err != nil {
		return nil, err
	}

	return &result, nil
}

// ActionResults returns the app runs of a playbook run.
func (s *playbookService) ActionResults(ctx context.Context, runID int64, action string, opts ...RequestOption) (*Page[*AppRun], error) {
	if err := validateID("playbook run", runID); err != nil {
		return nil, err
	}

	q := NewQuery().Filter("playbook_run", runID).PageSize(0).IncludeExpensive()
	if action != "" {
		q.Filter("action", action)
	}

	return list[*AppRun](ctx, s.transport, "/rest/app_run", q, opts)
}

// Info returns the playbook definition with the given name.
func (s *playbookService) Info(ctx context.Context, name string, opts ...RequestOption) (*Playbook, error) {
	if name == "" {
		return nil, invalid("playbook name is required")
	}

	page, err := list[*Playbook](ctx, s.transport, "/rest/playbook", newest().Filter("name", name), opts)
	if err != nil {
		return nil, err
	}

	playbook, ok := page.First()
	if !ok {
		return nil, &NotFoundError{
			APIError:     APIError{StatusCode: http.StatusNotFound, Message: "playbook not found"},
			ResourceType: "playbook",
			ResourceID:   name,
		}
	}
	return playbook, nil
}

// LastRun returns the most recent playbook run matching filter.
func (s *playbookService) LastRun(ctx context.Context, filter *LastRunFilter, opts ...RequestOption) (*PlaybookRun, error) {
	q := newest()
	if filter != nil {
		if filter.ContainerID > 0 {
			q.Filter("container", filter.ContainerID)
		}
		if filter.PlaybookName != "" {
			q.Filter("message__icontains", filter.PlaybookName)
		}
	}

	page, err := list[*PlaybookRun](ctx, s.transport, "/rest/playbook_run", q, opts)
	if err != nil {
		return nil, err
	}

	run, ok := page.First()
	if !ok {
		return nil, &NotFoundError{
			APIError:     APIError{StatusCode: http.StatusNotFound, Message: "no playbook run matches"},
			ResourceType: "playbook run",
		}
	}
	return run, nil
}

// SetActive activates or deactivates a playbook.
func (s *playbookService) SetActive(ctx context.Context, playbookID int64, active, cancelRuns bool, opts ...RequestOption) (Object, error) {
	if err := validateID("playbook", playbookID); err != nil {
		return nil, err
	}

	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	body := map[string]any{
		"active":      active,
		"cancel_runs": cancelRuns,
	}

	var result Object
	resp, err := s.transport.DoJSON(ctx,
		reqCfg.request(http.MethodPost, fmt.Sprintf("/rest/playbook/%d", playbookID), nil, body), &result)
	if err != nil {
		return nil, err
	}

	if err := checkResponse(resp, "playbook", playbookID); err != nil {
		return nil, err
	}

	return result, nil
}

// SystemFailureImpacted lists runs that failed because Phantom restarted.
func (s *playbookService) SystemFailureImpacted(ctx context.Context, window *TimeRange, opts ...RequestOption) (*Page[*PlaybookRun], error) {
	q := NewQuery().
		Filter("status", RunFailed).
		Filter("message__contains", systemFailureMessage).
		Sort("id", OrderDesc).
		PageSize(0).
		CreatedBetween(window)

	return list[*PlaybookRun](ctx, s.transport, "/rest/playbook_run", q, opts)
}

// SystemFailurePending lists containers that never had a playbook run.
func (s *playbookService) SystemFailurePending(ctx context.Context, window *TimeRange, opts ...RequestOption) (*Page[*Container], error) {
	q := NewQuery().
		Filter("playbookrun__container__isnull", true).
		Sort("id", OrderDesc).
		PageSize(0).
		CreatedBetween(window)

	return list[*Container](ctx, s.transport, "/rest/container", q, opts)
}

// Watch polls a run and yields every snapshot until it finishes.
func (s *playbookService) Watch(ctx context.Context, runID int64, poll *PollOptions, opts ...RequestOption) iter.Seq2[*PlaybookRun, error] {
	return watch(ctx, poll,
		func(ctx context.Context) (*PlaybookRun, error) { return s.Get(ctx, runID, opts...) },
		func(r *PlaybookRun) RunStatus { return r.Status })
}

// Wait polls a run until it finishes.
func (s *playbookService) Wait(ctx context.Context, runID int64, poll *PollOptions, opts ...RequestOption) (*PlaybookRun, error) {
	return Last(s.Watch(ctx, runID, poll, opts...))
}
