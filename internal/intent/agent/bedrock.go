// Package agent invokes the primary natural-language router and retries it
// on rate limiting.
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/aws/smithy-go"
)

// ErrThrottled marks a rate-limit rejection from the router.
var ErrThrottled = errors.New("agent throttled")

// Agent returns the text fragments of one router reply in the order received.
type Agent interface {
	InvokeAgent(ctx context.Context, sessionID, text string) ([]string, error)
}

// RuntimeClient is the subset of the Bedrock agent runtime client in use.
type RuntimeClient interface {
	InvokeAgent(ctx context.Context, params *bedrockagentruntime.InvokeAgentInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.InvokeAgentOutput, error)
}

// BedrockAgent calls a Bedrock agent alias and drains its completion stream.
type BedrockAgent struct {
	client  RuntimeClient
	agentID string
	aliasID string
}

func NewBedrockAgent(client RuntimeClient, agentID, aliasID string) *BedrockAgent {
	return &BedrockAgent{client: client, agentID: agentID, aliasID: aliasID}
}

func (b *BedrockAgent) InvokeAgent(ctx context.Context, sessionID, text string) ([]string, error) {
	out, err := b.client.InvokeAgent(ctx, &bedrockagentruntime.InvokeAgentInput{
		AgentId:      aws.String(b.agentID),
		AgentAliasId: aws.String(b.aliasID),
		SessionId:    aws.String(sessionID),
		InputText:    aws.String(text),
	})
	if err != nil {
		return nil, classify(err)
	}

	stream := out.GetStream()
	if stream == nil {
		return []string{}, nil
	}
	defer stream.Close()

	fragments := []string{}
	for event := range stream.Events() {
		switch ev := event.(type) {
		case *types.ResponseStreamMemberChunk:
			if len(ev.Value.Bytes) > 0 {
				fragments = append(fragments, string(ev.Value.Bytes))
			}
		default:
			// trace and return-control events carry no reply text
		}
	}
	if err := stream.Err(); err != nil {
		return nil, classify(err)
	}
	return fragments, nil
}

// classify wraps throttling errors with ErrThrottled.
func classify(err error) error {
	if IsThrottled(err) {
		return fmt.Errorf("%w: %v", ErrThrottled, err)
	}
	return err
}

// IsThrottled reports whether err is a rate-limit rejection.
func IsThrottled(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrThrottled) {
		return true
	}
	var te *types.ThrottlingException
	if errors.As(err, &te) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "ThrottlingException"
	}
	return false
}
