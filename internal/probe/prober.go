package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"lettervoice/internal/config"
	"lettervoice/internal/logging"
)

const (
	acceptHeader = "audio/webm,video/webm,*/*;q=0.1"
	rangeHeader  = "bytes=0-3"
	sniffLength  = 4
)

// HTTPDoer describes the HTTP client used by the prober.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Step names the request that settled a path.
type Step string

const (
	StepHead  Step = "head"
	StepRange Step = "range"
	StepError Step = "error"
)

// Result is the outcome for one voice path.
type Result struct {
	VoicePath string
	Exists    bool
	Step      Step
	Status    int
}

// Prober checks voice paths against the remote host.
type Prober struct {
	rootURL     string
	client      HTTPDoer
	timeout     time.Duration
	concurrency int
	userAgent   string
	logger      *slog.Logger
}

// New constructs a prober from configuration. A nil client falls back to
// http.DefaultClient.
func New(cfg *config.Config, client HTTPDoer, logger *slog.Logger) *Prober {
	if client == nil {
		client = http.DefaultClient
	}
	p := &Prober{
		client: client,
		logger: logging.NewComponentLogger(logger, "probe"),
	}
	if cfg != nil {
		p.rootURL = strings.TrimRight(strings.TrimSpace(cfg.Voice.RootURL), "/")
		p.timeout = time.Duration(cfg.Probe.TimeoutSeconds) * time.Second
		p.concurrency = cfg.Probe.Concurrency
		p.userAgent = cfg.Probe.UserAgent
	}
	return p
}

// BuildIndex probes every distinct path concurrently and returns the set of
// paths that exist along with the per-path results in input order.
func (p *Prober) BuildIndex(ctx context.Context, voicePaths []string) (Index, []Result) {
	paths := dedupe(voicePaths)
	results := make([]Result, len(paths))

	group, groupCtx := errgroup.WithContext(ctx)
	if p.concurrency > 0 {
		group.SetLimit(p.concurrency)
	}
	for i, voicePath := range paths {
		group.Go(func() error {
			results[i] = p.ProbePath(groupCtx, voicePath)
			return nil
		})
	}
	_ = group.Wait()

	existing := make([]string, 0, len(results))
	for _, res := range results {
		if res.Exists {
			existing = append(existing, res.VoicePath)
		}
	}
	index := NewIndex(existing...)
	p.logger.Info("existing voice assets indexed",
		logging.String(logging.FieldEventType, "probe_index_built"),
		logging.Int("candidates", len(paths)),
		logging.Int("existing", index.Len()),
	)
	return index, results
}

// ProbePath decides whether one voice path exists. It never fails: transport
// errors resolve to absent.
func (p *Prober) ProbePath(ctx context.Context, voicePath string) Result {
	result := Result{VoicePath: voicePath, Step: StepError}
	target, err := p.assetURL(voicePath)
	if err != nil {
		p.logger.Debug("voice path rejected", logging.String(logging.FieldVoicePath, voicePath), logging.Error(err))
		return result
	}

	status, contentType, err := p.head(ctx, target)
	if err == nil {
		result.Status = status
		switch ClassifyResponse(status, contentType, nil) {
		case Exists:
			result.Exists, result.Step = true, StepHead
			p.logVerdict(result, contentType)
			return result
		case Absent:
			result.Step = StepHead
			p.logVerdict(result, contentType)
			return result
		}
	} else {
		p.logger.Debug("head probe failed, falling back to ranged get",
			logging.String(logging.FieldVoicePath, voicePath),
			logging.Error(err),
		)
	}

	status, contentType, firstBytes, err := p.rangedGet(ctx, target)
	if err != nil {
		p.logger.Debug("ranged probe failed", logging.String(logging.FieldVoicePath, voicePath), logging.Error(err))
		result.Step = StepError
		return result
	}
	result.Status = status
	result.Step = StepRange
	result.Exists = ClassifyResponse(status, contentType, firstBytes) == Exists
	p.logVerdict(result, contentType)
	return result
}

func (p *Prober) head(ctx context.Context, target string) (int, string, error) {
	reqCtx, cancel := p.requestContext(ctx)
	defer cancel()

	req, err := p.newRequest(reqCtx, http.MethodHead, target)
	if err != nil {
		return 0, "", err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("head %s: %w", target, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, resp.Header.Get("Content-Type"), nil
}

func (p *Prober) rangedGet(ctx context.Context, target string) (int, string, []byte, error) {
	reqCtx, cancel := p.requestContext(ctx)
	defer cancel()

	req, err := p.newRequest(reqCtx, http.MethodGet, target)
	if err != nil {
		return 0, "", nil, err
	}
	req.Header.Set("Range", rangeHeader)
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, "", nil, fmt.Errorf("get %s: %w", target, err)
	}
	defer resp.Body.Close()

	buf := make([]byte, sniffLength)
	n, err := io.ReadFull(resp.Body, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, "", nil, fmt.Errorf("read %s: %w", target, err)
	}
	return resp.StatusCode, resp.Header.Get("Content-Type"), buf[:n], nil
}

func (p *Prober) newRequest(ctx context.Context, method, target string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", strings.ToLower(method), err)
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Cache-Control", "no-store")
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
	return req, nil
}

func (p *Prober) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}

func (p *Prober) assetURL(voicePath string) (string, error) {
	if p.rootURL == "" {
		return "", errors.New("voice root url is not configured")
	}
	voicePath = strings.TrimLeft(strings.TrimSpace(voicePath), "/")
	if voicePath == "" {
		return "", errors.New("empty voice path")
	}
	return url.JoinPath(p.rootURL, strings.Split(voicePath, "/")...)
}

func (p *Prober) logVerdict(res Result, contentType string) {
	p.logger.Debug("voice asset probed",
		logging.String(logging.FieldVoicePath, res.VoicePath),
		logging.Bool("exists", res.Exists),
		logging.String("step", string(res.Step)),
		logging.Int("status", res.Status),
		logging.String("content_type", contentType),
	)
}

func dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
