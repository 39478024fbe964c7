package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

// BatchSubmit describes one bulk submission: the text to split into
// lines, the target URL, and how each line is delivered
type BatchSubmit struct {
	Text      string
	URL       string
	Method    string // GET sends the line as a query arg, anything else POSTs a form
	ParamName string // parameter name for the line value, "line" by default
}

// BatchLineResult reports the outcome of one submitted line
type BatchLineResult struct {
	Line       string `json:"line"`
	StatusCode int    `json:"status_code"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// BatchReport summarizes one bulk submission
type BatchReport struct {
	Total     int               `json:"total"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Results   []BatchLineResult `json:"results"`
}

// BatchService posts text line by line to a target URL, one request
// per non-empty line
type BatchService struct {
	client *fasthttp.Client
	logger zerolog.Logger
}

// NewBatchService creates a new batch submission service
func NewBatchService(log zerolog.Logger) *BatchService {
	return &BatchService{
		client: &fasthttp.Client{
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		logger: log.With().Str("component", "batch_service").Logger(),
	}
}

// Submit splits the text into lines, sends each to the target URL, and
// returns per-line results. Blank lines are skipped; a failing line
// does not abort the rest.
func (s *BatchService) Submit(ctx context.Context, sub BatchSubmit) (*BatchReport, error) {
	if sub.ParamName == "" {
		sub.ParamName = "line"
	}

	report := &BatchReport{}

	for _, raw := range strings.Split(sub.Text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		report.Total++
		result := s.submitLine(line, sub)
		if result.Success {
			report.Succeeded++
		} else {
			report.Failed++
		}
		report.Results = append(report.Results, result)
	}

	s.logger.Info().
		Int("total", report.Total).
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Msg("batch submission finished")
	return report, nil
}

func (s *BatchService) submitLine(line string, sub BatchSubmit) BatchLineResult {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(sub.URL)

	if strings.EqualFold(sub.Method, fasthttp.MethodGet) {
		req.Header.SetMethod(fasthttp.MethodGet)
		req.URI().QueryArgs().Set(sub.ParamName, line)
	} else {
		req.Header.SetMethod(fasthttp.MethodPost)
		req.Header.SetContentType("application/x-www-form-urlencoded")
		args := fasthttp.AcquireArgs()
		args.Set(sub.ParamName, line)
		req.SetBody(args.QueryString())
		fasthttp.ReleaseArgs(args)
	}

	if err := s.client.DoTimeout(req, resp, 30*time.Second); err != nil {
		return BatchLineResult{Line: line, Error: err.Error()}
	}

	status := resp.StatusCode()
	return BatchLineResult{
		Line:       line,
		StatusCode: status,
		Success:    status >= 200 && status < 300,
	}
}
