//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cloo-solutions/askbase/internal/api/handlers"
	"github.com/cloo-solutions/askbase/internal/config"
	"github.com/cloo-solutions/askbase/internal/repository"
	"github.com/cloo-solutions/askbase/internal/server"
	"github.com/cloo-solutions/askbase/internal/service"
	"github.com/cloo-solutions/askbase/internal/storage"
	"github.com/cloo-solutions/askbase/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
)

// scriptedProvider is a deterministic stand-in for the generative answer
// provider: it replays canned answers and records the prompts it was given.
type scriptedProvider struct {
	mu       sync.Mutex
	answers  map[string]string
	fallback string

	Prompts   []string
	ImageURLs []string
}

func newScriptedProvider(fallback string) *scriptedProvider {
	return &scriptedProvider{
		answers:  make(map[string]string),
		fallback: fallback,
	}
}

func (p *scriptedProvider) Script(prompt, answer string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.answers[prompt] = answer
}

func (p *scriptedProvider) GenerateAnswer(ctx context.Context, prompt string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Prompts = append(p.Prompts, prompt)
	if answer, ok := p.answers[prompt]; ok {
		return answer, nil
	}
	return p.fallback, nil
}

func (p *scriptedProvider) GenerateAnswerWithImage(ctx context.Context, prompt, imageURL string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Prompts = append(p.Prompts, prompt)
	p.ImageURLs = append(p.ImageURLs, imageURL)
	if answer, ok := p.answers[prompt]; ok {
		return answer, nil
	}
	return p.fallback, nil
}

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	RustFSC      *testutil.RustFSContainer
	Pool         *pgxpool.Pool
	Provider     *scriptedProvider
	UploadDir    string
	ServerURL    string
	ServerCloser func()
	BinaryDir    string
	HTTPClient   *http.Client
}

// SetupE2EEnv creates a full E2E environment: Postgres, an S3-compatible
// store, and an in-process gateway running the given upload policy.
func SetupE2EEnv(t *testing.T, policy config.UploadPolicy) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	var s3C *testutil.RustFSContainer
	var s3Client *storage.S3Client
	if policy == config.UploadPolicyMediaAware {
		s3C = testutil.NewRustFSContainer(ctx, t)

		var err error
		s3Client, err = storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        s3C.Endpoint(),
			Region:          "us-east-1",
			AccessKeyID:     "rustfsadmin",
			SecretAccessKey: "rustfsadmin",
			Bucket:          "test-media",
			UsePathStyle:    true,
		})
		if err != nil {
			t.Fatalf("failed to create S3 client: %v", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			t.Fatalf("failed to create bucket: %v", err)
		}
	}

	uploadDir, err := os.MkdirTemp("", "askbase-uploads-*")
	if err != nil {
		t.Fatalf("failed to create upload dir: %v", err)
	}

	provider := newScriptedProvider("generated answer")

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	serverURL, serverCloser := startServer(t, pool, provider, s3Client, uploadDir, policy, port)

	return &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		RustFSC:      s3C,
		Pool:         pool,
		Provider:     provider,
		UploadDir:    uploadDir,
		ServerURL:    serverURL,
		ServerCloser: serverCloser,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.RustFSC != nil {
		e.RustFSC.Terminate(e.Ctx)
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
	if e.UploadDir != "" {
		os.RemoveAll(e.UploadDir)
	}
	if e.BinaryDir != "" {
		os.RemoveAll(e.BinaryDir)
	}
}

// BuildBinaries builds the askbase CLI binary.
func (e *E2ETestEnv) BuildBinaries() {
	tmpDir, err := os.MkdirTemp("", "askbase-e2e-*")
	if err != nil {
		e.T.Fatalf("failed to create temp dir: %v", err)
	}
	e.BinaryDir = tmpDir

	cmd := exec.Command("go", "build", "-o", filepath.Join(tmpDir, "askbase"), "./cmd/askbase")
	cmd.Dir = "../.."
	if out, err := cmd.CombinedOutput(); err != nil {
		e.T.Fatalf("failed to build askbase: %v\n%s", err, out)
	}
}

// RunAskbase runs the askbase CLI against the test server.
func (e *E2ETestEnv) RunAskbase(args ...string) (string, error) {
	cmd := exec.Command(filepath.Join(e.BinaryDir, "askbase"), args...)
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("ASKBASE_SERVER_URL=%s", e.ServerURL),
	)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// PostJSON performs a POST with a JSON body and returns status and raw body.
func (e *E2ETestEnv) PostJSON(path string, body interface{}) (int, []byte, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return 0, nil, err
	}

	resp, err := e.HTTPClient.Post(e.ServerURL+path, "application/json", bytes.NewReader(jsonData))
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp.StatusCode, respBody, err
}

// Get performs a GET and returns status and raw body.
func (e *E2ETestEnv) Get(path string) (int, []byte, error) {
	resp, err := e.HTTPClient.Get(e.ServerURL + path)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp.StatusCode, respBody, err
}

// PostMultipart performs a multipart POST for the upload endpoint. File is
// omitted when fileName is empty.
func (e *E2ETestEnv) PostMultipart(path string, fields map[string]string, fileName, fileContentType string, fileContent []byte) (int, []byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return 0, nil, err
		}
	}
	if fileName != "" {
		h := make(map[string][]string)
		h["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName)}
		h["Content-Type"] = []string{fileContentType}
		part, err := mw.CreatePart(h)
		if err != nil {
			return 0, nil, err
		}
		if _, err := part.Write(fileContent); err != nil {
			return 0, nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return 0, nil, err
	}

	resp, err := e.HTTPClient.Post(e.ServerURL+path, mw.FormDataContentType(), &buf)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp.StatusCode, respBody, err
}

// startServer wires the real stack with the scripted provider.
func startServer(t *testing.T, pool *pgxpool.Pool, provider *scriptedProvider, s3Client *storage.S3Client, uploadDir string, policy config.UploadPolicy, port int) (string, func()) {
	entryRepo := repository.NewKnowledgeBaseRepository(pool)
	questionRepo := repository.NewUnansweredQuestionRepository(pool)

	uploads, err := storage.NewLocalStore(uploadDir)
	if err != nil {
		t.Fatalf("failed to create upload store: %v", err)
	}

	var resolutionSvc *service.ResolutionService
	if policy == config.UploadPolicyMediaAware {
		resolutionSvc = service.NewResolutionServiceWithMediaHost(
			entryRepo, questionRepo, provider, s3Client, uploads, policy)
	} else {
		resolutionSvc = service.NewResolutionService(entryRepo, questionRepo, provider, policy)
	}

	cfg := server.RouterConfig{
		ChatbotHandler: handlers.NewChatbotHandler(resolutionSvc, service.NewHistoryService(entryRepo), uploads),
		ReviewHandler:  handlers.NewReviewHandler(service.NewReviewService(entryRepo, questionRepo)),
		UploadDir:      uploads.Dir(),
	}

	router := server.NewRouter(cfg)
	addr := fmt.Sprintf(":%d", port)

	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL, 10*time.Second)

	return serverURL, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
