package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Facts is everything the analysis service is told about a request.
type Facts struct {
	RequestID            uuid.UUID
	EmployeeID           uuid.UUID
	LeaveType            string
	StartDate            time.Time
	EndDate              time.Time
	TotalDays            decimal.Decimal
	IsHalfDay            bool
	ForceEscalationCheck bool
}

const (
	RecommendApprove  = "approve"
	RecommendReject   = "reject"
	RecommendReview   = "review"
	RecommendEscalate = "escalate"
)

// Recommendation is the oracle's verdict. Offline carries the
// oracle-offline audit tag: the verdict came from the local fallback,
// not the service.
type Recommendation struct {
	Recommendation string
	Confidence     float64
	CanAutoApprove bool
	Reason         string
	Offline        bool
}

//go:generate mockgen -source=client.go -destination=mock/oracle_client_mock.go -package=mock
type Client interface {
	// Analyze never returns an error: on timeout or transport failure it
	// degrades to FallbackRecommendation, so callers can never block on
	// or be failed by this dependency.
	Analyze(ctx context.Context, facts Facts) Recommendation

	// WorkingDays asks the oracle for the working-day count of a range.
	// Unlike Analyze this surfaces the error: the caller owns the naive
	// calendar fallback.
	WorkingDays(ctx context.Context, start, end time.Time, isHalfDay bool) (decimal.Decimal, error)
}

type analyzeRequest struct {
	RequestID            string  `json:"request_id"`
	EmpID                string  `json:"emp_id"`
	LeaveType            string  `json:"leave_type"`
	StartDate            string  `json:"start_date"`
	EndDate              string  `json:"end_date"`
	TotalDays            float64 `json:"total_days"`
	IsHalfDay            bool    `json:"is_half_day"`
	ForceEscalationCheck bool    `json:"force_escalation_check,omitempty"`
}

type analyzeResponse struct {
	Recommendation       string  `json:"recommendation"`
	Confidence           float64 `json:"confidence"`
	CanAutoApprove       bool    `json:"can_auto_approve"`
	RecommendationReason string  `json:"recommendation_reason"`
}

type workingDaysRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	IsHalfDay bool   `json:"is_half_day"`
}

type workingDaysResponse struct {
	WorkingDays float64 `json:"working_days"`
}

type httpClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPClient builds a client for the analysis service. The timeout
// bounds every call; the zero value gets the 5s default.
func NewHTTPClient(baseURL string, timeout time.Duration, logger ...*zap.Logger) Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	l := zap.L().Named("oracle.client")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("oracle.client")
	}
	return &httpClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  l,
	}
}

func (c *httpClient) Analyze(ctx context.Context, facts Facts) Recommendation {
	payload := analyzeRequest{
		RequestID:            facts.RequestID.String(),
		EmpID:                facts.EmployeeID.String(),
		LeaveType:            facts.LeaveType,
		StartDate:            facts.StartDate.Format("2006-01-02"),
		EndDate:              facts.EndDate.Format("2006-01-02"),
		TotalDays:            facts.TotalDays.InexactFloat64(),
		IsHalfDay:            facts.IsHalfDay,
		ForceEscalationCheck: facts.ForceEscalationCheck,
	}

	var resp analyzeResponse
	if err := c.post(ctx, "/analyze", payload, &resp); err != nil {
		c.logger.Warn("oracle unreachable, using local fallback",
			zap.String("request_id", facts.RequestID.String()),
			zap.Error(err),
		)
		return FallbackRecommendation(facts)
	}

	return Recommendation{
		Recommendation: resp.Recommendation,
		Confidence:     resp.Confidence,
		CanAutoApprove: resp.CanAutoApprove,
		Reason:         resp.RecommendationReason,
	}
}

func (c *httpClient) WorkingDays(ctx context.Context, start, end time.Time, isHalfDay bool) (decimal.Decimal, error) {
	payload := workingDaysRequest{
		StartDate: start.Format("2006-01-02"),
		EndDate:   end.Format("2006-01-02"),
		IsHalfDay: isHalfDay,
	}

	var resp workingDaysResponse
	if err := c.post(ctx, "/calculate-working-days", payload, &resp); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromFloat(resp.WorkingDays), nil
}

func (c *httpClient) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("oracle returned status %d", res.StatusCode)
	}

	return json.NewDecoder(res.Body).Decode(out)
}
