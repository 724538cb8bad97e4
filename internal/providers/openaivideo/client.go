package openaivideo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/hardingCheng/waoowaoo/internal/imageref"
	"github.com/hardingCheng/waoowaoo/internal/metrics"
	"github.com/hardingCheng/waoowaoo/internal/providerconf"
)

type createRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Seconds string `json:"seconds,omitempty"`
	Size    string `json:"size,omitempty"`
}

// videoTask mirrors the provider's video job object. The id stays untyped so
// a malformed response surfaces as a contract violation rather than a decode
// failure.
type videoTask struct {
	ID       any             `json:"id"`
	Status   string          `json:"status"`
	Progress int             `json:"progress"`
	Error    *videoTaskError `json:"error"`
}

type videoTaskError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// taskID returns the provider task id when the response carries a usable one.
func (t *videoTask) taskID() (string, bool) {
	s, ok := t.ID.(string)
	s = strings.TrimSpace(s)
	return s, ok && s != ""
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (a *Adapter) createVideo(ctx context.Context, cfg providerconf.Config, params videoParams, upload *imageref.Upload) (*videoTask, error) {
	endpoint := strings.TrimRight(cfg.BaseURL, "/") + "/videos"

	var body io.Reader
	contentType := "application/json"
	if upload != nil {
		buf := &bytes.Buffer{}
		writer := multipart.NewWriter(buf)
		fields := [][2]string{{"model", params.Model}, {"prompt", params.Prompt}}
		if params.Seconds != "" {
			fields = append(fields, [2]string{"seconds", params.Seconds})
		}
		if params.Size != "" {
			fields = append(fields, [2]string{"size", params.Size})
		}
		for _, field := range fields {
			if err := writer.WriteField(field[0], field[1]); err != nil {
				return nil, fmt.Errorf("openaivideo: encode form field %s: %w", field[0], err)
			}
		}
		part, err := createFilePart(writer, "input_reference", upload)
		if err != nil {
			return nil, fmt.Errorf("openaivideo: encode input reference: %w", err)
		}
		if _, err := part.Write(upload.Data); err != nil {
			return nil, fmt.Errorf("openaivideo: write input reference: %w", err)
		}
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("openaivideo: finish form: %w", err)
		}
		body = buf
		contentType = writer.FormDataContentType()
	} else {
		raw, err := json.Marshal(createRequest{Model: params.Model, Prompt: params.Prompt, Seconds: params.Seconds, Size: params.Size})
		if err != nil {
			return nil, fmt.Errorf("openaivideo: encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("openaivideo: build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	return a.doVideo(req, "video.create")
}

func (a *Adapter) getVideo(ctx context.Context, cfg providerconf.Config, taskID string) (*videoTask, error) {
	endpoint := strings.TrimRight(cfg.BaseURL, "/") + "/videos/" + taskID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("openaivideo: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	return a.doVideo(req, "video.retrieve")
}

func (a *Adapter) doVideo(req *http.Request, operation string) (*videoTask, error) {
	start := time.Now()
	resp, err := a.httpClient.Do(req)
	if err != nil {
		metrics.RecordProviderRequest(a.providerID, operation, "error", time.Since(start))
		return nil, fmt.Errorf("openaivideo: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordProviderRequest(a.providerID, operation, "error", time.Since(start))
		return nil, fmt.Errorf("openaivideo: read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		metrics.RecordProviderRequest(a.providerID, operation, "error", time.Since(start))
		var detail errorResponse
		if err := json.Unmarshal(raw, &detail); err == nil && detail.Error.Message != "" {
			return nil, fmt.Errorf("openaivideo: %s (%s)", detail.Error.Message, firstNonEmpty(detail.Error.Code, detail.Error.Type, "unknown"))
		}
		return nil, fmt.Errorf("openaivideo: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	metrics.RecordProviderRequest(a.providerID, operation, "success", time.Since(start))

	var task videoTask
	if err := json.Unmarshal(raw, &task); err != nil {
		return nil, fmt.Errorf("openaivideo: decode response: %w", err)
	}
	return &task, nil
}

func createFilePart(writer *multipart.Writer, field string, upload *imageref.Upload) (io.Writer, error) {
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, upload.Filename))
	if upload.MIME != "" {
		header.Set("Content-Type", upload.MIME)
	}
	return writer.CreatePart(header)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
