// Package client is the stdin/stdout pipe client for the translation API.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/valpere/jatran/internal"
)

// Exit codes returned by Run.
const (
	ExitOK    = 0
	ExitError = 1
)

// ConnectionError means the server could not be reached or answered with a
// non-2xx status.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("could not connect to %s: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ResponseError means the server answered 2xx without a string translation
// field.
type ResponseError struct {
	Body string
}

func (e *ResponseError) Error() string {
	return "unexpected response: " + e.Body
}

type Options struct {
	ServerURL string
	// Timeout of zero waits indefinitely.
	Timeout time.Duration
}

type Client struct {
	serverURL string
	http      *resty.Client
}

func New(opts Options) *Client {
	rc := resty.New().
		SetLogger(log.StandardLogger()).
		SetHeader("Content-Type", "application/json")
	if opts.Timeout > 0 {
		rc.SetTimeout(opts.Timeout)
	}
	return &Client{
		serverURL: opts.ServerURL,
		http:      rc,
	}
}

// Translate posts text to the server and returns the translation field.
func (c *Client) Translate(ctx context.Context, text string) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(internal.TranslationRequest{Text: text}).
		Post(c.serverURL)
	if err != nil {
		return "", &ConnectionError{URL: c.serverURL, Err: err}
	}
	if resp.IsError() {
		return "", &ConnectionError{
			URL: c.serverURL,
			Err: fmt.Errorf("%s: %s", resp.Status(), strings.TrimSpace(resp.String())),
		}
	}

	body := resp.Body()
	translation := gjson.GetBytes(body, "translation")
	if !gjson.ValidBytes(body) || translation.Type != gjson.String {
		return "", &ResponseError{Body: string(body)}
	}
	return translation.String(), nil
}

// Run reads all of stdin, translates it and prints the result. It returns the
// process exit code; diagnostics go to stderr.
func Run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, opts Options) int {
	raw, err := io.ReadAll(stdin)
	if err != nil {
		fmt.Fprintf(stderr, "Error: Could not read standard input.\nDetails: %v\n", err)
		return ExitError
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		fmt.Fprintln(stderr, "Error: No input provided. Please pipe text to the command.")
		return ExitError
	}

	c := New(opts)
	translation, err := c.Translate(ctx, text)

	var connErr *ConnectionError
	var respErr *ResponseError
	switch {
	case errors.As(err, &connErr):
		fmt.Fprintf(stderr, "Error: Could not connect to the translation server at %s.\nDetails: %v\n", connErr.URL, connErr.Err)
		return ExitError
	case errors.As(err, &respErr):
		fmt.Fprintf(stderr, "Error: Received an unexpected response from the server.\nResponse: %s\n", respErr.Body)
		return ExitError
	case err != nil:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}

	fmt.Fprintln(stdout, translation)
	return ExitOK
}
