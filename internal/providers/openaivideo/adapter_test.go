package openaivideo

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/hardingCheng/waoowaoo/internal/domain"
	"github.com/hardingCheng/waoowaoo/internal/providerconf"
	"github.com/hardingCheng/waoowaoo/internal/taskid"
)

type captureTransport struct {
	calls    int
	lastReq  *http.Request
	lastBody []byte
	status   int
	payload  any
}

func (c *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.calls++
	c.lastReq = req
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body.Close()
		c.lastBody = body
	}
	status := c.status
	if status == 0 {
		status = http.StatusOK
	}
	raw, _ := json.Marshal(c.payload)
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(raw)),
	}, nil
}

func testResolver() providerconf.StaticResolver {
	return providerconf.StaticResolver{
		providerconf.ProviderOpenAI: {APIKey: "sk-live", BaseURL: "https://api.example.com/v1"},
	}
}

func newTestAdapter(t *testing.T, transport *captureTransport, resolver providerconf.Resolver) *Adapter {
	t.Helper()
	adapter, err := New(Options{
		Resolver:   resolver,
		HTTPClient: &http.Client{Transport: transport},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return adapter
}

func TestGenerateSubmitsJSONRequest(t *testing.T) {
	transport := &captureTransport{payload: map[string]any{"id": "video_abc", "status": "queued"}}
	adapter := newTestAdapter(t, transport, testResolver())

	result, err := adapter.Generate(context.Background(), GenerateRequest{
		UserID:    "user-1",
		RequestID: "req-42",
		Prompt:    "a fox jumps over a frozen lake",
		Options:   map[string]any{"duration": "8", "size": "1280x720"},
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if transport.calls != 1 {
		t.Fatalf("provider calls = %d, want exactly 1", transport.calls)
	}
	if transport.lastReq.Method != http.MethodPost {
		t.Fatalf("method = %q, want POST", transport.lastReq.Method)
	}
	if got := transport.lastReq.URL.String(); got != "https://api.example.com/v1/videos" {
		t.Fatalf("url = %q, want videos endpoint", got)
	}
	if got := transport.lastReq.Header.Get("Authorization"); got != "Bearer sk-live" {
		t.Fatalf("authorization = %q, want bearer key", got)
	}
	if got := transport.lastReq.Header.Get("Content-Type"); got != "application/json" {
		t.Fatalf("content type = %q, want application/json", got)
	}

	var payload map[string]any
	if err := json.Unmarshal(transport.lastBody, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["model"] != "sora-2" {
		t.Fatalf("model = %v, want sora-2", payload["model"])
	}
	if payload["prompt"] != "a fox jumps over a frozen lake" {
		t.Fatalf("prompt = %v, want original prompt", payload["prompt"])
	}
	if payload["seconds"] != "8" {
		t.Fatalf("seconds = %v, want 8", payload["seconds"])
	}
	if payload["size"] != "1280x720" {
		t.Fatalf("size = %v, want 1280x720", payload["size"])
	}

	if !result.Success || !result.Async {
		t.Fatalf("result flags = %v/%v, want true/true", result.Success, result.Async)
	}
	if result.RequestID != "req-42" {
		t.Fatalf("request id = %q, want req-42", result.RequestID)
	}
	ref, err := taskid.Decode(result.ExternalID)
	if err != nil {
		t.Fatalf("external id %q not decodable: %v", result.ExternalID, err)
	}
	if ref.Provider != taskid.ProviderOpenAI || ref.Kind != domain.TaskKindVideo {
		t.Fatalf("ref = %+v, want OPENAI video ref", ref)
	}
	if ref.ProviderID != providerconf.ProviderOpenAI {
		t.Fatalf("ref.ProviderID = %q, want %q", ref.ProviderID, providerconf.ProviderOpenAI)
	}
	if ref.TaskID != "video_abc" {
		t.Fatalf("ref.TaskID = %q, want video_abc", ref.TaskID)
	}
}

func TestGenerateOmitsUnsetParams(t *testing.T) {
	transport := &captureTransport{payload: map[string]any{"id": "video_abc", "status": "queued"}}
	adapter := newTestAdapter(t, transport, testResolver())

	if _, err := adapter.Generate(context.Background(), GenerateRequest{Prompt: "a fox"}); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(transport.lastBody, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if _, ok := payload["seconds"]; ok {
		t.Fatal("seconds should be omitted when unset")
	}
	if _, ok := payload["size"]; ok {
		t.Fatal("size should be omitted when unset")
	}
}

func TestGenerateUploadsSeedImageAsMultipart(t *testing.T) {
	seed := []byte{0x89, 'P', 'N', 'G'}
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(seed)

	transport := &captureTransport{payload: map[string]any{"id": "video_img", "status": "queued"}}
	adapter := newTestAdapter(t, transport, testResolver())

	_, err := adapter.Generate(context.Background(), GenerateRequest{
		Prompt:   "animate this",
		ImageURL: dataURL,
		Options:  map[string]any{"duration": float64(4)},
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	mediaType, params, err := mime.ParseMediaType(transport.lastReq.Header.Get("Content-Type"))
	if err != nil {
		t.Fatalf("parse content type: %v", err)
	}
	if mediaType != "multipart/form-data" {
		t.Fatalf("media type = %q, want multipart/form-data", mediaType)
	}

	reader := multipart.NewReader(bytes.NewReader(transport.lastBody), params["boundary"])
	fields := map[string]string{}
	var fileData []byte
	var fileName, fileType string
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("read part: %v", err)
		}
		data, err := io.ReadAll(part)
		if err != nil {
			t.Fatalf("read part body: %v", err)
		}
		if part.FileName() != "" {
			if part.FormName() != "input_reference" {
				t.Fatalf("file field = %q, want input_reference", part.FormName())
			}
			fileData = data
			fileName = part.FileName()
			fileType = part.Header.Get("Content-Type")
			continue
		}
		fields[part.FormName()] = string(data)
	}

	if fields["model"] != "sora-2" {
		t.Fatalf("model field = %q, want sora-2", fields["model"])
	}
	if fields["prompt"] != "animate this" {
		t.Fatalf("prompt field = %q, want prompt", fields["prompt"])
	}
	if fields["seconds"] != "4" {
		t.Fatalf("seconds field = %q, want 4", fields["seconds"])
	}
	if !bytes.Equal(fileData, seed) {
		t.Fatalf("file bytes = %v, want seed image", fileData)
	}
	if fileName != "input_reference.png" {
		t.Fatalf("file name = %q, want input_reference.png", fileName)
	}
	if fileType != "image/png" {
		t.Fatalf("file content type = %q, want image/png", fileType)
	}
}

func TestGenerateRejectsNonStringTaskID(t *testing.T) {
	transport := &captureTransport{payload: map[string]any{"id": 12345, "status": "queued"}}
	adapter := newTestAdapter(t, transport, testResolver())

	_, err := adapter.Generate(context.Background(), GenerateRequest{Prompt: "a fox"})
	if err == nil {
		t.Fatal("expected error")
	}
	if code := domain.CodeOf(err); code != domain.CodeVideoCreateInvalidResponse {
		t.Fatalf("code = %q, want %q", code, domain.CodeVideoCreateInvalidResponse)
	}
}

func TestGenerateRejectsMissingTaskID(t *testing.T) {
	transport := &captureTransport{payload: map[string]any{"status": "queued"}}
	adapter := newTestAdapter(t, transport, testResolver())

	_, err := adapter.Generate(context.Background(), GenerateRequest{Prompt: "a fox"})
	if err == nil {
		t.Fatal("expected error")
	}
	if code := domain.CodeOf(err); code != domain.CodeVideoCreateInvalidResponse {
		t.Fatalf("code = %q, want %q", code, domain.CodeVideoCreateInvalidResponse)
	}
}

func TestGenerateSurfacesProviderError(t *testing.T) {
	transport := &captureTransport{
		status: http.StatusTooManyRequests,
		payload: map[string]any{
			"error": map[string]any{"code": "insufficient_quota", "message": "quota exceeded"},
		},
	}
	adapter := newTestAdapter(t, transport, testResolver())

	_, err := adapter.Generate(context.Background(), GenerateRequest{Prompt: "a fox"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "quota exceeded") || !strings.Contains(err.Error(), "insufficient_quota") {
		t.Fatalf("error = %q, want provider message and code", err)
	}
}

func TestGenerateValidationFailsBeforeProviderCall(t *testing.T) {
	transport := &captureTransport{payload: map[string]any{"id": "video_abc", "status": "queued"}}
	adapter := newTestAdapter(t, transport, testResolver())

	_, err := adapter.Generate(context.Background(), GenerateRequest{
		Prompt:  "a fox",
		Options: map[string]any{"duration": "7"},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if code := domain.CodeOf(err); code != domain.CodeVideoDurationUnsupported {
		t.Fatalf("code = %q, want %q", code, domain.CodeVideoDurationUnsupported)
	}
	if transport.calls != 0 {
		t.Fatalf("provider calls = %d, want 0", transport.calls)
	}
}

func TestGenerateRequiresBaseURL(t *testing.T) {
	transport := &captureTransport{payload: map[string]any{"id": "video_abc", "status": "queued"}}
	resolver := providerconf.StaticResolver{
		providerconf.ProviderOpenAI: {APIKey: "sk-live"},
	}
	adapter := newTestAdapter(t, transport, resolver)

	_, err := adapter.Generate(context.Background(), GenerateRequest{Prompt: "a fox"})
	if err == nil {
		t.Fatal("expected error")
	}
	if code := domain.CodeOf(err); code != domain.CodeProviderBaseURLMissing {
		t.Fatalf("code = %q, want %q", code, domain.CodeProviderBaseURLMissing)
	}
	if transport.calls != 0 {
		t.Fatalf("provider calls = %d, want 0", transport.calls)
	}
}

func TestGenerateMintsRequestIDWhenAbsent(t *testing.T) {
	transport := &captureTransport{payload: map[string]any{"id": "video_abc", "status": "queued"}}
	adapter := newTestAdapter(t, transport, testResolver())

	result, err := adapter.Generate(context.Background(), GenerateRequest{Prompt: "a fox"})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if strings.TrimSpace(result.RequestID) == "" {
		t.Fatal("expected generated request id")
	}
}
