package phantom

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/tphakala/go-phantom/internal/api"
)

const (
	defaultArtifactName        = "Test Artifact"
	defaultArtifactDescription = "Artifact created by go-phantom"
)

// ArtifactService provides operations on artifacts.
type ArtifactService interface {
	// Add attaches an artifact to a container. CEF fields are sent verbatim.
	Add(ctx context.Context, req *AddArtifactRequest, opts ...RequestOption) (*CreateResult, error)

	// Get retrieves a single artifact by ID.
	Get(ctx context.Context, id int64, opts ...RequestOption) (*Artifact, error)

	// Last returns the most recently created artifact, optionally restricted
	// to artifacts whose tags contain tag.
	Last(ctx context.Context, tag string, opts ...RequestOption) (*Artifact, error)
}

// artifactService implements ArtifactService.
type artifactService struct {
	transport *api.Transport
}

func newArtifactService(transport *api.Transport) *artifactService {
	return &artifactService{transport: transport}
}

// withDefaults returns a copy of req with zero fields filled in.
func (r *AddArtifactRequest) withDefaults() *AddArtifactRequest {
	out := *r
	if out.Name == "" {
		out.Name = defaultArtifactName
	}
	if out.Label == "" {
		out.Label = defaultLabel
	}
	if out.Description == "" {
		out.Description = defaultArtifactDescription
	}
	if out.Severity == "" {
		out.Severity = SeverityLow
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if out.CEF == nil {
		out.CEF = map[string]any{}
	}
	if out.CEFTypes == nil {
		out.CEFTypes = map[string][]string{}
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
	return &out
}

// Add attaches an artifact to a container.
func (s *artifactService) Add(ctx context.Context, req *AddArtifactRequest, opts ...RequestOption) (*CreateResult, error) {
	if req == nil {
		return nil, invalid("artifact request cannot be nil")
	}
	if err := validateID("container", req.ContainerID); err != nil {
		return nil, err
	}

	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	var result CreateResult
	resp, err := s.transport.DoJSON(ctx,
		reqCfg.request(http.MethodPost, "/rest/artifact", nil, req.withDefaults()), &result)
	if err != nil {
		return nil, err
	}

	if err := checkResponse(resp, "container", req.ContainerID); err != nil {
		return nil, err
	}

	return &result, nil
}

// Get retrieves a single artifact by ID.
func (s *artifactService) Get(ctx context.Context, id int64, opts ...RequestOption) (*Artifact, error) {
	if err := validateID("artifact", id); err != nil {
		return nil, err
	}

	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	var result Artifact
	resp, err := s.transport.DoJSON(ctx,
		reqCfg.request(http.MethodGet, fmt.Sprintf("/rest/artifact/%d", id), nil, nil), &result)
	if err != nil {
		return nil, err
	}

	if err := checkResponse(resp, "artifact", id); err != nil {
		return nil, err
	}

	return &result, nil
}

// Last returns the most recently created artifact.
func (s *artifactService) Last(ctx context.Context, tag string, opts ...RequestOption) (*Artifact, error) {
	q := newest()
	if tag != "" {
		q.Filter("tags__icontains", tag)
	}

	page, err := list[*Artifact](ctx, s.transport, "/rest/artifact", q, opts)
	if err != nil {
		return nil, err
	}

	artifact, ok := page.First()
	if !ok {
		return nil, &NotFoundError{
			APIError:     APIError{StatusCode: http.StatusNotFound, Message: "no artifact matches"},
			ResourceType: "artifact",
			ResourceID:   "tag=" + tag,
		}
	}
	return artifact, nil
}
