package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-resty/resty/v2"
	config "github.com/maheshrc27/postpilot/configs"
	"github.com/maheshrc27/postpilot/internal/transfer"
	"golang.org/x/oauth2"
)

type FacebookCredentials struct {
	PageID      string
	AccessToken string
	APIVersion  string
	GraphURL    string
}

func credentialsFrom(fb config.Facebook) FacebookCredentials {
	return FacebookCredentials{
		PageID:      fb.PageID,
		AccessToken: fb.PageAccessToken,
		APIVersion:  fb.APIVersion,
		GraphURL:    fb.GraphURL,
	}
}

// FacebookClient talks to the Graph API on behalf of a single page.
type FacebookClient interface {
	PublishPhotoURL(ctx context.Context, creds FacebookCredentials, imageURL, message string) (string, error)
	PublishPhotoFile(ctx context.Context, creds FacebookCredentials, message, fileName string, file io.Reader) (string, error)
	PublishText(ctx context.Context, creds FacebookCredentials, message string) (string, error)
	PageInfo(ctx context.Context, creds FacebookCredentials) (*transfer.FacebookPageInfo, error)
}

type facebookClient struct{}

func NewFacebookClient() FacebookClient {
	return &facebookClient{}
}

// graph builds a client for the page token in effect for this call. The
// token travels as a bearer credential through the oauth2 transport.
func (c *facebookClient) graph(ctx context.Context, creds FacebookCredentials) *resty.Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.AccessToken, TokenType: "Bearer"})
	base := fmt.Sprintf("%s/%s", strings.TrimSuffix(creds.GraphURL, "/"), creds.APIVersion)
	return resty.NewWithClient(oauth2.NewClient(ctx, src)).SetBaseURL(base)
}

func (c *facebookClient) PublishPhotoURL(ctx context.Context, creds FacebookCredentials, imageURL, message string) (string, error) {
	var out transfer.FacebookPostResponse
	var fbErr transfer.FacebookErrorResponse

	resp, err := c.graph(ctx, creds).R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"url":       imageURL,
			"message":   message,
			"published": true,
		}).
		SetResult(&out).
		SetError(&fbErr).
		Post(fmt.Sprintf("/%s/photos", creds.PageID))

	return postResult(resp, err, &out, &fbErr)
}

func (c *facebookClient) PublishPhotoFile(ctx context.Context, creds FacebookCredentials, message, fileName string, file io.Reader) (string, error) {
	var out transfer.FacebookPostResponse
	var fbErr transfer.FacebookErrorResponse

	resp, err := c.graph(ctx, creds).R().
		SetContext(ctx).
		SetMultipartFormData(map[string]string{
			"message":   message,
			"published": "true",
		}).
		SetFileReader("source", fileName, file).
		SetResult(&out).
		SetError(&fbErr).
		Post(fmt.Sprintf("/%s/photos", creds.PageID))

	return postResult(resp, err, &out, &fbErr)
}

func (c *facebookClient) PublishText(ctx context.Context, creds FacebookCredentials, message string) (string, error) {
	var out transfer.FacebookPostResponse
	var fbErr transfer.FacebookErrorResponse

	resp, err := c.graph(ctx, creds).R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"message": message,
		}).
		SetResult(&out).
		SetError(&fbErr).
		Post(fmt.Sprintf("/%s/feed", creds.PageID))

	return postResult(resp, err, &out, &fbErr)
}

func (c *facebookClient) PageInfo(ctx context.Context, creds FacebookCredentials) (*transfer.FacebookPageInfo, error) {
	var out transfer.FacebookPageInfo
	var fbErr transfer.FacebookErrorResponse

	resp, err := c.graph(ctx, creds).R().
		SetContext(ctx).
		SetQueryParam("fields", "id,name").
		SetResult(&out).
		SetError(&fbErr).
		Get("/" + creds.PageID)
	if err := graphError(resp, err, &fbErr); err != nil {
		return nil, err
	}

	return &out, nil
}

func postResult(resp *resty.Response, err error, out *transfer.FacebookPostResponse, fbErr *transfer.FacebookErrorResponse) (string, error) {
	if err := graphError(resp, err, fbErr); err != nil {
		return "", err
	}

	id := out.PlatformPostID()
	if id == "" {
		return "", &GraphError{StatusCode: resp.StatusCode(), Message: "no post id returned from Facebook"}
	}
	return id, nil
}

func graphError(resp *resty.Response, err error, fbErr *transfer.FacebookErrorResponse) error {
	if err != nil {
		return &GraphError{Err: err}
	}
	if !resp.IsError() {
		return nil
	}

	ge := &GraphError{
		StatusCode: resp.StatusCode(),
		Message:    fbErr.Error.Message,
		Type:       fbErr.Error.Type,
		Code:       fbErr.Error.Code,
		FbtraceID:  fbErr.Error.FbtraceID,
	}
	if ge.Message == "" {
		ge.Err = fmt.Errorf("unexpected status code from Facebook: %d", resp.StatusCode())
	}
	return ge
}
