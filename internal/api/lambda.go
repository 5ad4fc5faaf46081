package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
)

// LambdaHandler serves API Gateway proxy events through the gin router, and
// Bedrock agent action-group events through ActionGroup.
type LambdaHandler struct {
	adapter *ginadapter.GinLambda
	actions *ActionGroup
}

func NewLambdaHandler(s *Server) *LambdaHandler {
	return &LambdaHandler{adapter: ginadapter.New(s.Router()), actions: NewActionGroup(s.svc, s.logger)}
}

// Invoke is the lambda entry point. It inspects the raw event to tell the two
// shapes apart.
func (h *LambdaHandler) Invoke(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var probe struct {
		MessageVersion string `json:"messageVersion"`
		ActionGroup    string `json:"actionGroup"`
	}
	_ = json.Unmarshal(raw, &probe)

	if probe.ActionGroup != "" && probe.MessageVersion != "" {
		var ev ActionGroupEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decode action group event: %w", err)
		}
		return h.actions.Handle(ctx, ev), nil
	}

	var req events.APIGatewayProxyRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("decode proxy event: %w", err)
	}
	return h.ServeProxy(ctx, req)
}

// ServeProxy hands an API Gateway proxy request to the gin router through the
// lambda proxy adapter, after normalizing the path and method.
func (h *LambdaHandler) ServeProxy(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	req.Path = proxyPath(req)
	if req.HTTPMethod == "" {
		req.HTTPMethod = http.MethodPost
	}
	headers := make(map[string]string, len(req.Headers)+1)
	for k, v := range req.Headers {
		headers[k] = v
	}
	if http.Header(req.MultiValueHeaders).Get("Content-Type") == "" && headerValue(headers, "Content-Type") == "" {
		headers["Content-Type"] = "application/json"
	}
	req.Headers = headers

	resp, err := h.adapter.ProxyWithContext(ctx, req)
	if err != nil {
		return events.APIGatewayProxyResponse{}, fmt.Errorf("proxy request: %w", err)
	}
	return resp, nil
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// proxyPath drops the stage prefix API Gateway leaves on the raw path.
func proxyPath(req events.APIGatewayProxyRequest) string {
	path := req.Path
	if p, ok := req.PathParameters["proxy"]; ok && p != "" {
		path = "/" + strings.TrimPrefix(p, "/")
	}
	if stage := req.RequestContext.Stage; stage != "" {
		path = strings.TrimPrefix(path, "/"+stage)
	}
	if path == "" {
		path = "/intent-mapper"
	}
	return path
}
