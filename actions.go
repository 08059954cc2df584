package phantom

import (
	"context"
	"fmt"
	"iter"
	"net/http"

	"github.com/tphakala/go-phantom/internal/api"
)

// ActionService provides app action runs and their results.
type ActionService interface {
	// AppID resolves the app that backs the named asset.
	AppID(ctx context.Context, assetName string, opts ...RequestOption) (*App, error)

	// Run starts an action and returns the run ID without waiting for it.
	Run(ctx context.Context, req *RunActionRequest, opts ...RequestOption) (*RunActionResult, error)

	// RunOnAsset resolves the asset's app and runs action with params
	// against that single asset.
	RunOnAsset(ctx context.Context, containerID int64, action, assetName string, params []map[string]any, opts ...RequestOption) (*RunActionResult, error)

	// Get returns the current state of an action run.
	Get(ctx context.Context, actionRunID int64, opts ...RequestOption) (*ActionRun, error)

	// RunData returns the app runs, including result data, of an action run.
	RunData(ctx context.Context, actionRunID int64, opts ...RequestOption) (*Page[*AppRun], error)

	// Watch polls an action run and yields every snapshot until it finishes.
	Watch(ctx context.Context, actionRunID int64, poll *PollOptions, opts ...RequestOption) iter.Seq2[*ActionRun, error]

	// Wait polls an action run until it finishes.
	Wait(ctx context.Context, actionRunID int64, poll *PollOptions, opts ...RequestOption) (*ActionRun, error)
}

// actionService implements ActionService.
type actionService struct {
	transport *api.Transport
}

func newActionService(transport *api.Transport) *actionService {
	return &actionService{transport: transport}
}

// AppID resolves the app behind an asset: the asset names a product, and
// the app is the installed app for that product.
func (s *actionService) AppID(ctx context.Context, assetName string, opts ...RequestOption) (*App, error) {
	if assetName == "" {
		return nil, invalid("asset name is required")
	}

	assets, err := list[Asset](ctx, s.transport, "/rest/asset", NewQuery().Filter("name", assetName), opts)
	if err != nil {
		return nil, err
	}
	asset, ok := assets.First()
	if !ok {
		return nil, &NotFoundError{
			APIError:     APIError{StatusCode: http.StatusNotFound, Message: "asset not found"},
			ResourceType: "asset",
			ResourceID:   assetName,
		}
	}

	apps, err := list[App](ctx, s.transport, "/rest/app", NewQuery().Filter("product_name", asset.ProductName), opts)
	if err != nil {
		return nil, err
	}
	app, ok := apps.First()
	if !ok {
		return nil, &NotFoundError{
			APIError:     APIError{StatusCode: http.StatusNotFound, Message: "app not found"},
			ResourceType: "app",
			ResourceID:   asset.ProductName,
		}
	}
	return &app, nil
}

// validateRunActionRequest validates the run action request.
func validateRunActionRequest(req *RunActionRequest) error {
	if req == nil {
		return invalid("action request cannot be nil")
	}
	if req.Action == "" {
		return invalid("action name is required")
	}
	if err := validateID("container", req.ContainerID); err != nil {
		return err
	}
	if len(req.Targets) == 0 {
		return invalid("at least one action target is required")
	}
	for i, t := range req.Targets {
		if len(t.Assets) == 0 {
			return invalid(fmt.Sprintf("action target %d has no assets", i))
		}
	}
	return nil
}

// Run starts an action.
func (s *actionService) Run(ctx context.Context, req *RunActionRequest, opts ...RequestOption) (*RunActionResult, error) {
	if err := validateRunActionRequest(req); err != nil {
		return nil, err
	}

	body := *req
	if body.Name == "" {
		body.Name = req.Action
	}
	// Phantom rejects a null parameter list.
	body.Targets = make([]ActionTarget, len(req.Targets))
	for i, t := range req.Targets {
		if t.Parameters == nil {
			t.Parameters = []map[string]any{}
		}
		body.Targets[i] = t
	}

	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	var result RunActionResult
	resp, err := s.transport.DoJSON(ctx, reqCfg.request(http.MethodPost, "/rest/action_run", nil, &body), &result)
	if err != nil {
		return nil, err
	}

	if err := checkResponse(resp, "", 0); err != nil {
		return nil, err
	}

	return &result, nil
}

// RunOnAsset resolves the asset's app and runs the action against it.
func (s *actionService) RunOnAsset(ctx context.Context, containerID int64, action, assetName string, params []map[string]any, opts ...RequestOption) (*RunActionResult, error) {
	app, err := s.AppID(ctx, assetName, opts...)
	if err != nil {
		return nil, err
	}

	return s.Run(ctx, &RunActionRequest{
		Action:      action,
		ContainerID: containerID,
		Targets: []ActionTarget{{
			Assets:     []string{assetName},
			Parameters: params,
			AppID:      app.ID,
		}},
	}, opts...)
}

// Get returns the current state of an action run.
func (s *actionService) Get(ctx context.Context, actionRunID int64, opts ...RequestOption) (*ActionRun, error) {
	if err := validateID("action run", actionRunID); err != nil {
		return nil, err
	}

	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	var result ActionRun
	resp, err := s.transport.DoJSON(ctx,
		reqCfg.request(http.MethodGet, fmt.Sprintf("/rest/action_run/%d", actionRunID), nil, nil), &result)
	if err != nil {
		return nil, err
	}

	if err := checkResponse(resp, "action run", actionRunID); err != nil {
		return nil, err
	}

	return &result, nil
}

// RunData returns the app runs of an action run.
func (s *actionService) RunData(ctx context.Context, actionRunID int64, opts ...RequestOption) (*Page[*AppRun], error) {
	if err := validateID("action run", actionRunID); err != nil {
		return nil, err
	}

	q := NewQuery().Filter("action_run", actionRunID).PageSize(0).IncludeExpensive()
	return list[*AppRun](ctx, s.transport, "/rest/app_run", q, opts)
}

// Watch polls an action run and yields every snapshot until it finishes.
func (s *actionService) Watch(ctx context.Context, actionRunID int64, poll *PollOptions, opts ...RequestOption) iter.Seq2[*ActionRun, error] {
	return watch(ctx, poll,
		func(ctx context.Context) (*ActionRun, error) { return s.Get(ctx, actionRunID, opts...) },
		func(r *ActionRun) RunStatus { return r.Status })
}

// Wait polls an action run until it finishes.
func (s *actionService) Wait(ctx context.Context, actionRunID int64, poll *PollOptions, opts ...RequestOption) (*ActionRun, error) {
	return Last(s.Watch(ctx, actionRunID, poll, opts...))
}
