package phantom

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/tphakala/go-phantom/internal/api"
)

// VaultService uploads files into container vaults.
type VaultService interface {
	// Upload reads the local file at path and adds it to the container's
	// vault. A missing file fails with an error matching fs.ErrNotExist
	// before any request is sent.
	Upload(ctx context.Context, containerID int64, path string, opts ...RequestOption) (*VaultAddResult, error)

	// UploadReader adds the content of r to the vault under name.
	UploadReader(ctx context.Context, containerID int64, name string, r io.Reader, opts ...RequestOption) (*VaultAddResult, error)
}

// vaultService implements VaultService.
type vaultService struct {
	transport *api.Transport
}

func newVaultService(transport *api.Transport) *vaultService {
	return &vaultService{transport: transport}
}

// attachmentRequest is the body of POST /rest/container_attachment.
type attachmentRequest struct {
	ContainerID int64          `json:"container_id"`
	FileContent string         `json:"file_content"`
	FileName    string         `json:"file_name"`
	Metadata    map[string]any `json:"metadata"`
}

// Upload adds a local file to the container vault.
func (s *vaultService) Upload(ctx context.Context, containerID int64, path string, opts ...RequestOption) (*VaultAddResult, error) {
	if err := validateID("container", containerID); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("phantom: upload file: %w", err)
	}
	if info.IsDir() {
		return nil, invalid(fmt.Sprintf("upload path %s is a directory", path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("phantom: upload file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return s.UploadReader(ctx, containerID, filepath.Base(path), f, opts...)
}

// UploadReader adds the content of r to the container vault.
func (s *vaultService) UploadReader(ctx context.Context, containerID int64, name string, r io.Reader, opts ...RequestOption) (*VaultAddResult, error) {
	if err := validateID("container", containerID); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, invalid("file name is required")
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("phantom: reading upload content: %w", err)
	}
	if len(content) == 0 {
		return nil, invalid(fmt.Sprintf("file %s is empty", name))
	}

	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	body := &attachmentRequest{
		ContainerID: containerID,
		FileContent: base64.StdEncoding.EncodeToString(content),
		FileName:    name,
		Metadata:    map[string]any{"contains": []string{"vault id"}},
	}

	var result VaultAddResult
	resp, err := s.transport.DoJSON(ctx,
		reqCfg.request(http.MethodPost, "/rest/container_attachment", nil, body), &result)
	if err != nil {
		return nil, err
	}

	if err := checkResponse(resp, "container", containerID); err != nil {
		return nil, err
	}

	return &result, nil
}
