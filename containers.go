package phantom

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/tphakala/go-phantom/internal/api"
)

// Defaults applied to zero-valued create requests.
const (
	defaultContainerName        = "TEST - Default Name"
	defaultContainerDescription = "Created by go-phantom"
	defaultLabel                = "events"
)

// ContainerService provides operations on Phantom containers and cases.
type ContainerService interface {
	// Create creates a new container and returns its ID with the full response.
	Create(ctx context.Context, req *CreateContainerRequest, opts ...RequestOption) (*CreateResult, error)

	// Get retrieves a single container by ID.
	Get(ctx context.Context, id int64, opts ...RequestOption) (*Container, error)

	// Update modifies the non-nil fields of a container.
	Update(ctx context.Context, id int64, req *UpdateContainerRequest, opts ...RequestOption) (Object, error)

	// UpdateStatus sets the container status.
	UpdateStatus(ctx context.Context, id int64, status ContainerStatus, opts ...RequestOption) (Object, error)

	// UpdateTags replaces the container tags.
	UpdateTags(ctx context.Context, id int64, tags []string, opts ...RequestOption) (Object, error)

	// Last returns the most recently created container, optionally
	// restricted to containers whose tags contain tag.
	Last(ctx context.Context, tag string, opts ...RequestOption) (*Container, error)

	// Artifacts lists the artifacts of a container.
	Artifacts(ctx context.Context, id int64, opts ...RequestOption) (*Page[*Artifact], error)

	// PromoteToCase turns a container into a case based on the named
	// case template.
	PromoteToCase(ctx context.Context, id int64, templateName string, opts ...RequestOption) (Object, error)

	// DemoteToContainer turns a case back into a plain container.
	DemoteToContainer(ctx context.Context, id int64, opts ...RequestOption) (Object, error)

	// Delete removes a container by ID.
	Delete(ctx context.Context, id int64, opts ...RequestOption) (Object, error)
}

// containerService implements ContainerService.
type containerService struct {
	transport *api.Transport
}

func newContainerService(transport *api.Transport) *containerService {
	return &containerService{transport: transport}
}

func containerPath(id int64) string {
	return fmt.Sprintf("/rest/container/%d", id)
}

// withDefaults returns a copy of req with zero fields filled in.
func (r *CreateContainerRequest) withDefaults() *CreateContainerRequest {
	out := *r
	if out.Name == "" {
		out.Name = defaultContainerName
	}
	if out.Label == "" {
		out.Label = defaultLabel
	}
	if out.Description == "" {
		out.Description = defaultContainerDescription
	}
	if out.Severity == "" {
		out.Severity = SeverityLow
	}
	if out.Sensitivity == "" {
		out.Sensitivity = SensitivityWhite
	}
	if out.Status == "" {
		out.Status = StatusNew
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if out.CustomFields == nil {
		out.CustomFields = map[string]any{}
	}
	if out.Data == nil {
		out.Data = map[string]any{}
	}
	if out.SourceDataIdentifier == "" {
		out.SourceDataIdentifier = uuid.NewString()
	}
	if out.RunAutomation == nil {
		out.RunAutomation = Bool(true)
	}
	if len(out.Artifacts) > 0 {
		artifacts := make([]*AddArtifactRequest, 0, len(out.Artifacts))
		for _, a := range out.Artifacts {
			if a == nil {
				continue
			}
			artifacts = append(artifacts, a.withDefaults())
		}
		out.Artifacts = artifacts
	} else {
		out.Artifacts = []*AddArtifactRequest{}
	}
	return &out
}

// Create creates a new container.
func (s *containerService) Create(ctx context.Context, req *CreateContainerRequest, opts ...RequestOption) (*CreateResult, error) {
	if req == nil {
		req = &CreateContainerRequest{}
	}

	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	var result CreateResult
	resp, err := s.transport.DoJSON(ctx,
		reqCfg.request(http.MethodPost, "/rest/container", nil, req.withDefaults()), &result)
	if err != nil {
		return nil, err
	}

	if err := checkResponse(resp, "", 0); err != nil {
		return nil, err
	}

	return &result, nil
}

// Get retrieves a single container by ID.
func (s *containerService) Get(ctx context.Context, id int64, opts ...RequestOption) (*Container, error) {
	if err := validateID("container", id); err != nil {
		return nil, err
	}

	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	var result Container
	resp, err := s.transport.DoJSON(ctx, reqCfg.request(http.MethodGet, containerPath(id), nil, nil), &result)
	if err != nil {
		return nil, err
	}

	if err := checkResponse(resp, "container", id); err != nil {
		return nil, err
	}

	return &result, nil
}

// Update modifies an existing container.
func (s *containerService) Update(ctx context.Context, id int64, req *UpdateContainerRequest, opts ...RequestOption) (Object, error) {
	if err := validateID("container", id); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, invalid("update request cannot be nil")
	}

	return s.post(ctx, id, req, opts)
}

// UpdateStatus sets the container status.
func (s *containerService) UpdateStatus(ctx context.Context, id int64, status ContainerStatus, opts ...RequestOption) (Object, error) {
	if status == "" {
		return nil, invalid("container status is required")
	}
	return s.Update(ctx, id, &UpdateContainerRequest{Status: &status}, opts...)
}

// UpdateTags replaces the container tags.
func (s *containerService) UpdateTags(ctx context.Context, id int64, tags []string, opts ...RequestOption) (Object, error) {
	if err := validateID("container", id); err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}
	// Sent as a map so an empty list clears the tags instead of being omitted.
	return s.post(ctx, id, map[string]any{"tags": tags}, opts)
}

// Last returns the most recently created container.
func (s *containerService) Last(ctx context.Context, tag string, opts ...RequestOption) (*Container, error) {
	q := newest()
	if tag != "" {
		q.Filter("tags__icontains", tag)
	}

	page, err := list[*Container](ctx, s.transport, "/rest/container", q, opts)
	if err != nil {
		return nil, err
	}

	container, ok := page.First()
	if !ok {
		return nil, &NotFoundError{
			APIError:     APIError{StatusCode: http.StatusNotFound, Message: "no container matches"},
			ResourceType: "container",
			ResourceID:   "tag=" + tag,
		}
	}
	return container, nil
}

// Artifacts lists the artifacts of a container.
func (s *containerService) Artifacts(ctx context.Context, id int64, opts ...RequestOption) (*Page[*Artifact], error) {
	if err := validateID("container", id); err != nil {
		return nil, err
	}

	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	// The nested endpoint answers 404 for a deleted container, where
	// /rest/artifact?_filter_container would return an empty page.
	// page_size=0 returns every artifact in one page.
	q := NewQuery().PageSize(0).IncludeExpensive()

	var page Page[*Artifact]
	resp, err := s.transport.DoJSON(ctx, reqCfg.request(http.MethodGet, containerPath(id)+"/artifacts", q, nil), &page)
	if err != nil {
		return nil, err
	}

	if err := checkResponse(resp, "container", id); err != nil {
		return nil, err
	}

	return &page, nil
}

// PromoteToCase turns a container into a case.
func (s *containerService) PromoteToCase(ctx context.Context, id int64, templateName string, opts ...RequestOption) (Object, error) {
	if err := validateID("container", id); err != nil {
		return nil, err
	}
	if templateName == "" {
		return nil, invalid("case template name is required")
	}

	q := NewQuery().Filter("name", templateName)
	templates, err := list[CaseTemplate](ctx, s.transport, "/rest/workflow_template", q, opts)
	if err != nil {
		return nil, err
	}

	template, ok := templates.First()
	if !ok {
		return nil, &NotFoundError{
			APIError:     APIError{StatusCode: http.StatusNotFound, Message: "case template not found"},
			ResourceType: "case template",
			ResourceID:   templateName,
		}
	}

	caseType := ContainerTypeCase
	return s.post(ctx, id, &UpdateContainerRequest{
		ContainerType: &caseType,
		TemplateID:    &template.ID,
	}, opts)
}

// DemoteToContainer turns a case back into a plain container.
func (s *containerService) DemoteToContainer(ctx context.Context, id int64, opts ...RequestOption) (Object, error) {
	if err := validateID("container", id); err != nil {
		return nil, err
	}

	defaultType := ContainerTypeDefault
	return s.post(ctx, id, &UpdateContainerRequest{ContainerType: &defaultType}, opts)
}

// Delete removes a container by ID.
func (s *containerService) Delete(ctx context.Context, id int64, opts ...RequestOption) (Object, error) {
	if err := validateID("container", id); err != nil {
		return nil, err
	}

	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	var result Object
	resp, err := s.transport.DoJSON(ctx, reqCfg.request(http.MethodDelete, containerPath(id), nil, nil), &result)
	if err != nil {
		return nil, err
	}

	if err := checkResponse(resp, "container", id); err != nil {
		return nil, err
	}

	return result, nil
}

// post sends body to the container endpoint. Phantom updates containers
// with POST rather than PATCH.
func (s *containerService) post(ctx context.Context, id int64, body any, opts []RequestOption) (Object, error) {
	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	var result Object
	resp, err := s.transport.DoJSON(ctx, reqCfg.request(http.MethodPost, containerPath(id), nil, body), &result)
	if err != nil {
		return nil, err
	}

	if err := checkResponse(resp, "container", id); err != nil {
		return nil, err
	}

	return result, nil
}
