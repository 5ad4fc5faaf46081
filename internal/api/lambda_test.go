package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLambdaHandler_ServeProxy(t *testing.T) {
	s, _ := newTestServer(t, echoResolver())
	h := NewLambdaHandler(s)

	tests := []struct {
		name       string
		req        events.APIGatewayProxyRequest
		wantStatus int
		wantBody   string
	}{
		{
			name: "intent with stage prefix",
			req: events.APIGatewayProxyRequest{
				HTTPMethod:     http.MethodPost,
				Path:           "/prod/intent-mapper",
				Body:           `{"text":"hello there"}`,
				RequestContext: events.APIGatewayProxyRequestContext{Stage: "prod"},
			},
			wantStatus: http.StatusOK,
			wantBody:   "echo: hello there",
		},
		{
			name: "base64 body",
			req: events.APIGatewayProxyRequest{
				HTTPMethod:      http.MethodPost,
				Path:            "/intent-mapper",
				Body:            base64.StdEncoding.EncodeToString([]byte(`{"text":"encoded"}`)),
				IsBase64Encoded: true,
			},
			wantStatus: http.StatusOK,
			wantBody:   "echo: encoded",
		},
		{
			name: "quote query parameters",
			req: events.APIGatewayProxyRequest{
				HTTPMethod:            http.MethodGet,
				Path:                  "/get-quote",
				QueryStringParameters: map[string]string{"procedureCode": "XRAY001"},
			},
			wantStatus: http.StatusOK,
			wantBody:   "XRAY001",
		},
		{
			name: "proxy path parameter",
			req: events.APIGatewayProxyRequest{
				HTTPMethod:     http.MethodGet,
				Path:           "/prod/api/get-quote",
				PathParameters: map[string]string{"proxy": "get-quote"},
				QueryStringParameters: map[string]string{
					"doctorName":    "Robert Brown",
					"procedureCode": "XRAY001",
				},
				RequestContext: events.APIGatewayProxyRequestContext{Stage: "prod"},
			},
			wantStatus: http.StatusOK,
			wantBody:   "Robert Brown",
		},
		{
			name: "missing history doctor",
			req: events.APIGatewayProxyRequest{
				HTTPMethod: http.MethodGet,
				Path:       "/show-history",
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   "Missing required parameter: doctorName.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := h.ServeProxy(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode, resp.Body)
			assert.Contains(t, resp.Body, tt.wantBody)
			assert.Equal(t, "*", http.Header(resp.MultiValueHeaders).Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestLambdaHandler_InvokeDetectsEventShape(t *testing.T) {
	s, _ := newTestServer(t, echoResolver())
	h := NewLambdaHandler(s)

	proxy := json.RawMessage(`{"httpMethod":"POST","path":"/intent-mapper","body":"{\"text\":\"hi\"}"}`)
	out, err := h.Invoke(context.Background(), proxy)
	require.NoError(t, err)
	resp, ok := out.(events.APIGatewayProxyResponse)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	action := json.RawMessage(`{
		"messageVersion": "1.0",
		"agent": {"name": "procedures", "id": "A1", "alias": "TSTALIASID", "version": "DRAFT"},
		"actionGroup": "GetQuoteGroup",
		"apiPath": "/getQuote",
		"httpMethod": "GET",
		"parameters": [{"name": "doctorName", "type": "string", "value": "Sarah Johnson"}]
	}`)
	out, err = h.Invoke(context.Background(), action)
	require.NoError(t, err)
	ag, ok := out.(ActionGroupResponse)
	require.True(t, ok)
	assert.Equal(t, "1.0", ag.MessageVersion)
	assert.Equal(t, "GetQuoteGroup", ag.Response.ActionGroup)
	assert.Equal(t, http.StatusOK, ag.Response.HTTPStatusCode)
}

func TestActionGroup_Handle(t *testing.T) {
	s, _ := newTestServer(t, echoResolver())
	ag := NewActionGroup(s.svc, s.logger)

	tests := []struct {
		name       string
		ev         ActionGroupEvent
		wantStatus int
		wantBody   string
	}{
		{
			name: "add procedure from body properties",
			ev: func() ActionGroupEvent {
				var ev ActionGroupEvent
				require.NoError(t, json.Unmarshal([]byte(`{
					"messageVersion": "1.0",
					"actionGroup": "AddDoctorProcedureGroup",
					"apiPath": "/addDoctorProcedure",
					"httpMethod": "POST",
					"requestBody": {"content": {"application/json": {"properties": [
						{"name": "doctorName", "value": "Robert Brown"},
						{"name": "procedureCode", "value": "XRAY001"},
						{"name": "cost", "value": "$125.00"}
					]}}}
				}`), &ev))
				return ev
			}(),
			wantStatus: http.StatusOK,
			wantBody:   "Robert Brown",
		},
		{
			name: "add procedure missing cost",
			ev: ActionGroupEvent{
				MessageVersion: "1.0",
				ActionGroup:    "AddDoctorProcedureGroup",
				APIPath:        PathAddDoctorProcedure,
				HTTPMethod:     http.MethodPost,
				Parameters: []ActionParameter{
					{Name: "doctorName", Value: "Robert Brown"},
					{Name: "procedureCode", Value: "XRAY001"},
				},
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   msgMissingAddParam,
		},
		{
			name: "add procedure bad cost",
			ev: ActionGroupEvent{
				APIPath: PathAddDoctorProcedure,
				Parameters: []ActionParameter{
					{Name: "doctorName", Value: "Robert Brown"},
					{Name: "procedureCode", Value: "XRAY001"},
					{Name: "cost", Value: "cheap"},
				},
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   msgInvalidCost,
		},
		{
			name: "history",
			ev: ActionGroupEvent{
				APIPath:    PathShowHistory,
				Parameters: []ActionParameter{{Name: "doctorName", Value: "Sarah Johnson"}, {Name: "limit", Value: "1"}},
			},
			wantStatus: http.StatusOK,
			wantBody:   "Found 1 procedures for Dr. Sarah Johnson.",
		},
		{
			name:       "unknown path",
			ev:         ActionGroupEvent{APIPath: "/deleteEverything"},
			wantStatus: http.StatusBadRequest,
			wantBody:   "Unknown action",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ag.Handle(context.Background(), tt.ev)

			assert.Equal(t, "1.0", resp.MessageVersion)
			assert.Equal(t, tt.ev.APIPath, resp.Response.APIPath)
			assert.Equal(t, tt.wantStatus, resp.Response.HTTPStatusCode)
			body := resp.Response.ResponseBody["application/json"]["body"]
			assert.Contains(t, body, tt.wantBody)
			assert.True(t, json.Valid([]byte(body)))
		})
	}
}
