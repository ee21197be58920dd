package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/saramaebee/devrev-mcp/engine/core"
)

// resourceHandler produces the payload for a resource read. The return
// value is marshaled to JSON by the wrapper.
type resourceHandler func(ctx context.Context, params map[string]string) (any, error)

// wrapResourceHandler adapts a resourceHandler to the mcp-go signature,
// extracting template parameters from the concrete request URI.
func wrapResourceHandler(
	template string,
	handler resourceHandler,
) func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		uri := request.Params.URI

		params, err := matchTemplate(template, uri)
		if err != nil {
			return nil, err
		}

		payload, err := handler(ctx, params)
		if err != nil {
			return nil, err
		}

		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode resource %s: %w", uri, err)
		}

		return []mcp.ResourceContents{
			&mcp.TextResourceContents{
				URI:      uri,
				Text:     string(data),
				MIMEType: "application/json",
			},
		}, nil
	}
}

// matchTemplate extracts {param} values by aligning the segments of a
// concrete URI against its template. Values are percent-decoded so
// escaped don IDs come back in their API form.
func matchTemplate(template, uri string) (map[string]string, error) {
	templateParts := strings.Split(template, "/")
	uriParts := strings.Split(uri, "/")

	if len(templateParts) != len(uriParts) {
		return nil, core.NewError(
			fmt.Errorf("URI %s does not match template %s", uri, template),
			core.ErrorCodeValidationFailed,
			map[string]any{"uri": uri, "template": template},
		)
	}

	params := make(map[string]string)
	for i, part := range templateParts {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			value := uriParts[i]
			if decoded, err := url.PathUnescape(value); err == nil {
				value = decoded
			}
			params[strings.Trim(part, "{}")] = value
			continue
		}
		if part != uriParts[i] {
			return nil, core.NewError(
				fmt.Errorf("URI %s does not match template %s", uri, template),
				core.ErrorCodeValidationFailed,
				map[string]any{"uri": uri, "template": template},
			)
		}
	}
	return params, nil
}

// newToolResultJSON marshals a payload into a text tool result
func newToolResultJSON(payload any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// getString returns a string argument or empty when absent
func getString(req mcp.CallToolRequest, key string) string {
	return req.GetString(key, "")
}
