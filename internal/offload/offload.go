package offload

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"telegram-fetch-bot/internal/utils"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// Client pushes files that cannot be delivered through the chat to an
// external HTTP storage endpoint. Empty endpoint means the remedy is
// disabled and Enabled reports false.
type Client struct {
	endpoint string
	http     *resty.Client
}

func New(endpoint string) *Client {
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		http: resty.New().
			SetTimeout(30 * time.Minute).
			SetRetryCount(1),
	}
}

func (c *Client) Enabled() bool {
	return c.endpoint != ""
}

// Upload PUTs the file under its base name and returns the resulting URL.
func (c *Client) Upload(ctx context.Context, path string) (string, error) {
	if !c.Enabled() {
		return "", utils.WrapError(utils.ErrUploadFailed, "offload endpoint not configured", nil)
	}

	file, err := os.Open(path)
	if err != nil {
		return "", utils.WrapError(utils.ErrFileNotFound, "cannot open file for offload", map[string]any{"path": path})
	}
	defer file.Close()

	target := c.endpoint + "/" + url.PathEscape(filepath.Base(path))
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(file).
		SetHeader("Content-Type", "application/octet-stream").
		Put(target)
	if err != nil {
		return "", utils.WrapError(utils.ErrUploadFailed, utils.RootError(err).Error(), map[string]any{"target": target})
	}
	if resp.IsError() {
		return "", utils.WrapError(utils.ErrUploadFailed, fmt.Sprintf("storage returned %s", resp.Status()), map[string]any{"target": target})
	}

	logrus.WithField("target", target).Info("Offloaded file to external storage")
	return target, nil
}
