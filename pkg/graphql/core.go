// Go community is big on static type and codegen for GraphQL. We only run a
// couple of fixed subgraph queries, so a small dynamic client is enough.

package graphql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// Client is a client for interacting with a GraphQL API.
type Client struct {
	endpoint    string
	restyClient *resty.Client

	// Log is called with various debug information.
	// To log to standard out, use:
	//  client.Log = func(s string) { log.Println(s) }
	Log func(s string)
}

// NewClient creates a new GraphQL client with the specified endpoint and options.
func NewClient(endpoint string, log func(s string), opts ...ClientOption) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("graphql: endpoint is required")
	}
	if log == nil {
		log = func(string) {}
	}

	client := &Client{
		endpoint:    endpoint,
		restyClient: resty.New(),
		Log:         log,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

func (c *Client) logf(format string, args ...interface{}) {
	c.Log(fmt.Sprintf(format, args...))
}

// Run executes the GraphQL query and unmarshals the response into the provided response object.
func (c *Client) Run(ctx context.Context, req *Request, resp interface{}) error {
	requestBody := map[string]interface{}{
		"query":     req.Query(),
		"variables": req.Vars(),
	}

	c.logf(">> variables: %v", req.Vars())
	c.logf(">> query: %s", req.Query())

	response, err := c.restyClient.R().
		SetContext(ctx).
		SetHeaders(req.Header).
		SetBody(requestBody).
		Post(c.endpoint)

	if err != nil {
		return err
	}

	c.logf("<< status: %d", response.StatusCode())
	c.logf("<< body: %s", response.String())

	if response.IsError() {
		return fmt.Errorf("graphql: server returned a non-200 status code: %d", response.StatusCode())
	}

	return c.parseResponse(response.Body(), resp)
}

func (c *Client) parseResponse(body []byte, resp interface{}) error {
	gr := &graphResponse{Data: resp}
	if err := json.Unmarshal(body, gr); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if len(gr.Errors) > 0 {
		return gr.Errors[0]
	}
	return nil
}

// ClientOption defines a configuration option for the Client.
type ClientOption func(*Client)

// WithRestyClient sets a custom Resty client.
func WithRestyClient(client *resty.Client) ClientOption {
	return func(c *Client) {
		c.restyClient = client
	}
}

// Request represents a GraphQL request.
type Request struct {
	query  string
	vars   map[string]interface{}
	Header map[string]string
}

// NewRequest creates a new GraphQL request.
func NewRequest(query string) *Request {
	return &Request{
		query:  query,
		vars:   make(map[string]interface{}),
		Header: make(map[string]string),
	}
}

// Var sets a variable for the GraphQL request.
func (r *Request) Var(key string, value interface{}) {
	r.vars[key] = value
}

// Vars returns the variables of the request.
func (r *Request) Vars() map[string]interface{} {
	return r.vars
}

// Query returns the GraphQL query string.
func (r *Request) Query() string {
	return r.query
}

type graphErr struct {
	Message string
}

func (e graphErr) Error() string {
	return "graphql: " + e.Message
}

type graphResponse struct {
	Data   interface{}
	Errors []graphErr
}
