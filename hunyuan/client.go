// Package hunyuan wraps the Tencent Cloud Hunyuan3D ("ai3d") API:
// job submission, status queries, credential resolution, and the
// translation of provider error codes into actionable hints.
package hunyuan

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	sdkerrors "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/errors"
	tchttp "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/http"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	"go.uber.org/zap"

	"github.com/fooni/hy3d/internal/tlsutil"
	"github.com/fooni/hy3d/payload"
	"github.com/fooni/hy3d/types"
)

const (
	defaultEndpoint = "ai3d.tencentcloudapi.com"
	apiVersion      = "2025-05-13"
	service         = "ai3d"

	actionSubmit = "SubmitHunyuanTo3DJob"
	actionQuery  = "QueryHunyuanTo3DJob"
)

// DefaultRegion is used when the caller supplies none.
const DefaultRegion = "ap-guangzhou"

// ClientConfig configures the Hunyuan3D client.
type ClientConfig struct {
	Endpoint string        `json:"endpoint" yaml:"endpoint"`
	Timeout  time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// DefaultClientConfig returns default client config.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Endpoint: defaultEndpoint,
		Timeout:  15 * time.Second,
	}
}

// Client performs the remote calls. It holds no credentials: they are
// passed per call so cache lifetime stays the resolver's concern.
type Client struct {
	cfg    ClientConfig
	logger *zap.Logger
}

// NewClient creates a Hunyuan3D API client.
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{cfg: cfg, logger: logger.With(zap.String("component", "hunyuan"))}
}

func (c *Client) sdkClient(creds Credentials, region string) *common.Client {
	cpf := profile.NewClientProfile()
	cpf.HttpProfile.Endpoint = c.cfg.Endpoint
	cpf.HttpProfile.ReqTimeout = int(c.cfg.Timeout / time.Second)

	region = strings.TrimSpace(region)
	if region == "" {
		region = DefaultRegion
	}
	client := common.NewCommonClient(common.NewCredential(creds.SecretID, creds.SecretKey), region, cpf)
	client.WithHttpTransport(tlsutil.SecureTransport())
	return client
}

func (c *Client) call(ctx context.Context, creds Credentials, region, action string, params map[string]any, out any) error {
	request := tchttp.NewCommonRequest(service, apiVersion, action)
	if err := request.SetActionParameters(params); err != nil {
		return types.NewError(types.ErrInternal, "failed to encode request parameters").WithCause(err)
	}
	request.SetContext(ctx)

	response := tchttp.NewCommonResponse()
	if err := c.sdkClient(creds, region).Send(request, response); err != nil {
		return c.wrapSDKError(action, err)
	}

	var envelope struct {
		Response json.RawMessage `json:"Response"`
	}
	if err := json.Unmarshal(response.GetBody(), &envelope); err != nil {
		return types.NewError(types.ErrProvider, "failed to decode provider response").WithCause(err)
	}
	if err := json.Unmarshal(envelope.Response, out); err != nil {
		return types.NewError(types.ErrProvider, "failed to decode provider response").WithCause(err)
	}
	return nil
}

// Submit sends the generation request and returns the provider job id.
func (c *Client) Submit(ctx context.Context, req *payload.GenerationRequest, creds Credentials, region string) (string, error) {
	var resp submitResponse
	if err := c.call(ctx, creds, region, actionSubmit, req.Parameters(), &resp); err != nil {
		return "", err
	}
	if resp.JobID == "" {
		return "", types.NewError(types.ErrProvider, "JobId missing in submission response")
	}
	c.logger.Info("job submitted",
		zap.String("job_id", resp.JobID),
		zap.String("status", resp.Status),
		zap.String("request_id", resp.RequestID))
	return resp.JobID, nil
}

// Query fetches the raw status of a job. It performs no retries; backoff
// is the lifecycle controller's responsibility.
func (c *Client) Query(ctx context.Context, jobID string, creds Credentials, region string) (*StatusPayload, error) {
	var resp StatusPayload
	if err := c.call(ctx, creds, region, actionQuery, map[string]any{"JobId": jobID}, &resp); err != nil {
		return nil, err
	}
	c.logger.Debug("job queried",
		zap.String("job_id", jobID),
		zap.String("status", resp.StatusValue()),
		zap.String("request_id", resp.RequestID))
	return &resp, nil
}

// knownHints maps provider error codes to a short actionable hint
// appended after the raw message. Unknown codes pass through unchanged.
var knownHints = []struct {
	code string
	hint string
}{
	{
		"RequestLimitExceeded.JobNumExceed",
		"Another job is running. Wait until it finishes.",
	},
	{
		"UnsupportedRegion",
		"This API is unavailable in the selected region. Try ap-guangzhou / ap-shanghai / ap-singapore.",
	},
	{
		"AuthFailure.SecretIdNotFound",
		"Verify that your SecretId/SecretKey are correct and not disabled or deleted.",
	},
}

// friendlyHint searches the merged code+message text for known provider
// error codes.
func friendlyHint(merged string) string {
	for _, entry := range knownHints {
		if strings.Contains(merged, entry.code) {
			return entry.hint
		}
	}
	return ""
}

func (c *Client) wrapSDKError(action string, err error) error {
	if sdkErr, ok := err.(*sdkerrors.TencentCloudSDKError); ok {
		merged := sdkErr.GetCode() + " " + sdkErr.GetMessage()
		wrapped := types.Errorf(types.ErrProvider, "API error during %s", action).WithCause(err)
		if hint := friendlyHint(merged); hint != "" {
			wrapped = wrapped.WithHint(hint)
		}
		c.logger.Error("provider call failed",
			zap.String("action", action),
			zap.String("code", sdkErr.GetCode()),
			zap.Error(err))
		return wrapped
	}
	c.logger.Error("provider call failed", zap.String("action", action), zap.Error(err))
	// Network-level failures are safe to retry; provider rejections are
	// not (the same request would be rejected again).
	return types.Errorf(types.ErrTransport, "network error during %s", action).
		WithCause(err).
		WithRetryable(true)
}
