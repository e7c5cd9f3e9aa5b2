package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

// LambdaHandler serves h behind an API Gateway proxy integration
func LambdaHandler(h HandlerFunc) func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return func(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		body := []byte(event.Body)
		if event.IsBase64Encoded {
			// Undecodable bodies are passed through and fail JSON parsing
			if decoded, err := base64.StdEncoding.DecodeString(event.Body); err == nil {
				body = decoded
			}
		}

		resp := h(ctx, &Request{
			Method:  event.HTTPMethod,
			Path:    event.Path,
			Headers: event.Headers,
			Body:    body,
		})

		out := events.APIGatewayProxyResponse{
			StatusCode: resp.StatusCode,
			Headers:    resp.Headers,
		}
		if resp.Body != nil {
			payload, err := json.Marshal(resp.Body)
			if err != nil {
				return events.APIGatewayProxyResponse{
					StatusCode: http.StatusInternalServerError,
					Headers:    map[string]string{"Content-Type": "application/json"},
					Body:       `{"success":false,"error":"internal server error"}`,
				}, nil
			}
			out.Body = string(payload)
		}
		return out, nil
	}
}
