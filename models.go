package phantom

import (
	"encoding/json"
	"strconv"
	"time"
)

// Object is a decoded JSON object as returned by Phantom.
type Object map[string]any

// String returns the string value of key, or "" when absent or not a string.
func (o Object) String(key string) string {
	s, _ := o[key].(string)
	return s
}

// Int returns the integer value of key. Phantom returns IDs as JSON numbers
// but some endpoints quote them, so numeric strings are accepted too.
func (o Object) Int(key string) (int64, bool) {
	switch v := o[key].(type) {
	case float64:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// Bool returns the boolean value of key.
func (o Object) Bool(key string) bool {
	b, _ := o[key].(bool)
	return b
}

// Object returns the nested object at key, or nil.
func (o Object) Object(key string) Object {
	m, _ := o[key].(map[string]any)
	return m
}

// Slice returns the array at key, or nil.
func (o Object) Slice(key string) []any {
	s, _ := o[key].([]any)
	return s
}

// Severity is the severity of a container or artifact.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Sensitivity is the TLP marking of a container.
type Sensitivity string

const (
	SensitivityWhite Sensitivity = "white"
	SensitivityGreen Sensitivity = "green"
	SensitivityAmber Sensitivity = "amber"
	SensitivityRed   Sensitivity = "red"
)

// ContainerStatus represents the status of a container.
type ContainerStatus string

const (
	StatusNew      ContainerStatus = "new"
	StatusOpen     ContainerStatus = "open"
	StatusClosed   ContainerStatus = "closed"
	StatusResolved ContainerStatus = "resolved"
)

// ContainerType distinguishes plain containers from cases.
type ContainerType string

const (
	ContainerTypeDefault ContainerType = "default"
	ContainerTypeCase    ContainerType = "case"
)

// RunStatus is the status of a playbook, action or app run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunSuccess   RunStatus = "success"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// IsTerminal reports whether the run has finished.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunSuccess, RunFailed, RunCancelled:
		return true
	default:
		return false
	}
}

// inProgress reports whether the run is still expected to change.
func (s RunStatus) inProgress() bool {
	return s == RunPending || s == RunRunning
}

// Container represents a Phantom container (event or case).
type Container struct {
	ID                   int64           `json:"id"`
	Name                 string          `json:"name"`
	Label                string          `json:"label"`
	Description          string          `json:"description,omitempty"`
	Status               ContainerStatus `json:"status"`
	Severity             Severity        `json:"severity"`
	Sensitivity          Sensitivity     `json:"sensitivity"`
	ContainerType        ContainerType   `json:"container_type"`
	Tags                 []string        `json:"tags,omitempty"`
	SourceDataIdentifier string          `json:"source_data_identifier,omitempty"`
	ArtifactCount        int             `json:"artifact_count"`
	CreateTime           time.Time       `json:"create_time,omitzero"`

	CustomFields map[string]any `json:"custom_fields,omitempty"`

	// Raw holds the complete response object, including fields not modeled.
	Raw Object `json:"-"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Container) UnmarshalJSON(data []byte) error {
	type alias Container
	var a alias
	if err := decodeWithRaw(data, &a, &a.Raw); err != nil {
		return err
	}
	*c = Container(a)
	return nil
}

// Artifact represents evidence attached to a container.
type Artifact struct {
	ID                   int64               `json:"id"`
	ContainerID          int64               `json:"container"`
	Name                 string              `json:"name"`
	Label                string              `json:"label"`
	Description          string              `json:"description,omitempty"`
	Type                 string              `json:"type,omitempty"`
	Severity             Severity            `json:"severity"`
	Tags                 []string            `json:"tags,omitempty"`
	SourceDataIdentifier string              `json:"source_data_identifier,omitempty"`
	CEF                  map[string]any      `json:"cef"`
	CEFTypes             map[string][]string `json:"cef_types,omitempty"`
	CreateTime           time.Time           `json:"create_time,omitzero"`

	Raw Object `json:"-"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Artifact) UnmarshalJSON(data []byte) error {
	type alias Artifact
	var v alias
	if err := decodeWithRaw(data, &v, &v.Raw); err != nil {
		return err
	}
	*a = Artifact(v)
	return nil
}

// PlaybookRun is the execution record of a playbook.
type PlaybookRun struct {
	ID          int64     `json:"id"`
	PlaybookID  int64     `json:"playbook"`
	ContainerID int64     `json:"container"`
	Status      RunStatus `json:"status"`
	Message     string    `json:"message,omitempty"`
	Scope       string    `json:"scope,omitempty"`
	StartTime   time.Time `json:"start_time,omitzero"`
	UpdateTime  time.Time `json:"update_time,omitzero"`

	Raw Object `json:"-"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *PlaybookRun) UnmarshalJSON(data []byte) error {
	type alias PlaybookRun
	var v alias
	if err := decodeWithRaw(data, &v, &v.Raw); err != nil {
		return err
	}
	*r = PlaybookRun(v)
	return nil
}

// ActionRun is the execution record of an app action.
type ActionRun struct {
	ID          int64     `json:"id"`
	Action      string    `json:"action"`
	Name        string    `json:"name,omitempty"`
	ContainerID int64     `json:"container"`
	Status      RunStatus `json:"status"`
	Message     string    `json:"message,omitempty"`

	Raw Object `json:"-"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *ActionRun) UnmarshalJSON(data []byte) error {
	type alias ActionRun
	var v alias
	if err := decodeWithRaw(data, &v, &v.Raw); err != nil {
		return err
	}
	*r = ActionRun(v)
	return nil
}

// AppRun is one app execution within an action or playbook run.
type AppRun struct {
	ID            int64     `json:"id"`
	Action        string    `json:"action"`
	ActionRunID   int64     `json:"action_run"`
	PlaybookRunID int64     `json:"playbook_run,omitempty"`
	AppID         int64     `json:"app"`
	AssetID       int64     `json:"asset"`
	Status        RunStatus `json:"status"`
	Message       string    `json:"message,omitempty"`
	ResultData    []Object  `json:"result_data,omitempty"`

	Raw Object `json:"-"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *AppRun) UnmarshalJSON(data []byte) error {
	type alias AppRun
	var v alias
	if err := decodeWithRaw(data, &v, &v.Raw); err != nil {
		return err
	}
	*r = AppRun(v)
	return nil
}

// Asset is a configured instance of an app.
type Asset struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	ProductName   string `json:"product_name"`
	ProductVendor string `json:"product_vendor,omitempty"`
}

// App is an installed Phantom app.
type App struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	ProductName string `json:"product_name"`
	AppVersion  string `json:"app_version,omitempty"`
}

// CaseTemplate is a case management workflow template.
type CaseTemplate struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Page is the list envelope returned by Phantom collection endpoints.
type Page[T any] struct {
	Count    int `json:"count"`
	NumPages int `json:"num_pages"`
	Data     []T `json:"data"`
}

// First returns the first item of the page and whether there was one.
func (p *Page[T]) First() (T, bool) {
	if p == nil || len(p.Data) == 0 {
		var zero T
		return zero, false
	}
	return p.Data[0], true
}

// CreateResult is the response to a create request.
type CreateResult struct {
	ID      int64  `json:"id"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`

	// ExistingID is set when Phantom deduplicated the request against an
	// object with the same source_data_identifier.
	ExistingID int64 `json:"-"`

	Raw Object `json:"-"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *CreateResult) UnmarshalJSON(data []byte) error {
	type alias CreateResult
	var v alias
	if err := decodeWithRaw(data, &v, &v.Raw); err != nil {
		return err
	}
	for _, key := range []string{"existing_container_id", "existing_artifact_id"} {
		if id, ok := v.Raw.Int(key); ok {
			v.ExistingID = id
		}
	}
	*r = CreateResult(v)
	return nil
}

// CreateContainerRequest contains data for creating a new container.
// Zero values are replaced by the defaults Phantom test fixtures use.
type CreateContainerRequest struct {
	Name                 string                `json:"name"`
	Label                string                `json:"label"`
	Description          string                `json:"description"`
	Severity             Severity              `json:"severity"`
	Sensitivity          Sensitivity           `json:"sensitivity"`
	Status               ContainerStatus       `json:"status"`
	Tags                 []string              `json:"tags"`
	CustomFields         map[string]any        `json:"custom_fields"`
	Data                 map[string]any        `json:"data"`
	Artifacts            []*AddArtifactRequest `json:"artifacts"`
	SourceDataIdentifier string                `json:"source_data_identifier"`

	// RunAutomation defaults to true when nil.
	RunAutomation *bool `json:"run_automation"`
}

// UpdateContainerRequest contains data for updating a container.
// Nil fields are left unchanged.
type UpdateContainerRequest struct {
	Name          *string          `json:"name,omitempty"`
	Description   *string          `json:"description,omitempty"`
	Status        *ContainerStatus `json:"status,omitempty"`
	Severity      *Severity        `json:"severity,omitempty"`
	Sensitivity   *Sensitivity     `json:"sensitivity,omitempty"`
	Tags          []string         `json:"tags,omitempty"`
	ContainerType *ContainerType   `json:"container_type,omitempty"`
	TemplateID    *int64           `json:"template_id,omitempty"`
	CustomFields  map[string]any   `json:"custom_fields,omitempty"`
}

// AddArtifactRequest contains data for adding an artifact to a container.
type AddArtifactRequest struct {
	ContainerID          int64               `json:"container_id,omitempty"`
	Name                 string              `json:"name"`
	Label                string              `json:"label"`
	Description          string              `json:"description"`
	Type                 string              `json:"type,omitempty"`
	Severity             Severity            `json:"severity"`
	Tags                 []string            `json:"tags"`
	CEF                  map[string]any      `json:"cef"`
	CEFTypes             map[string][]string `json:"cef_types"`
	Data                 map[string]any      `json:"data"`
	SourceDataIdentifier string              `json:"source_data_identifier"`

	// RunAutomation defaults to true when nil.
	RunAutomation *bool `json:"run_automation"`
}

// RunPlaybookRequest starts a playbook against a container.
type RunPlaybookRequest struct {
	ContainerID int64

	// Playbook is a numeric playbook ID or a "repo/name" reference.
	Playbook string

	// Scope selects the artifacts the playbook sees. Defaults to "new".
	Scope string
}

// RunPlaybookResult is the response to starting a playbook.
type RunPlaybookResult struct {
	RunID   int64  `json:"playbook_run_id"`
	Message string `json:"message,omitempty"`

	Raw Object `json:"-"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *RunPlaybookResult) UnmarshalJSON(data []byte) error {
	type alias RunPlaybookResult
	var v alias
	if err := decodeWithRaw(data, &v, &v.Raw); err != nil {
		return err
	}
	*r = RunPlaybookResult(v)
	return nil
}

// ActionTarget selects the assets and parameters of an action run.
type ActionTarget struct {
	Assets     []string         `json:"assets"`
	Parameters []map[string]any `json:"parameters"`
	AppID      int64            `json:"app_id,omitempty"`
}

// RunActionRequest runs a single app action.
type RunActionRequest struct {
	Action      string         `json:"action"`
	ContainerID int64          `json:"container_id"`
	Name        string         `json:"name"`
	Targets     []ActionTarget `json:"targets"`
}

// RunActionResult is the response to starting an action.
type RunActionResult struct {
	RunID   int64  `json:"action_run_id"`
	Message string `json:"message,omitempty"`

	Raw Object `json:"-"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *RunActionResult) UnmarshalJSON(data []byte) error {
	type alias RunActionResult
	var v alias
	if err := decodeWithRaw(data, &v, &v.Raw); err != nil {
		return err
	}
	*r = RunActionResult(v)
	return nil
}

// VaultAddResult is the response to a vault upload.
type VaultAddResult struct {
	ID        int64  `json:"id"`
	VaultID   string `json:"vault_id"`
	Hash      string `json:"hash"`
	Succeeded bool   `json:"succeeded"`
	Message   string `json:"message,omitempty"`

	Raw Object `json:"-"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *VaultAddResult) UnmarshalJSON(data []byte) error {
	type alias VaultAddResult
	var v alias
	if err := decodeWithRaw(data, &v, &v.Raw); err != nil {
		return err
	}
	*r = VaultAddResult(v)
	return nil
}

// TimeRange bounds queries on create_time. Both ends are required.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Bool returns a pointer to v, for optional request fields.
func Bool(v bool) *bool { return &v }

// decodeWithRaw decodes data into v and keeps the full object in raw.
func decodeWithRaw(data []byte, v any, raw *Object) error {
	if err := json.Unmarshal(data, v); err != nil {
		return err
	}
	return json.Unmarshal(data, raw)
}
