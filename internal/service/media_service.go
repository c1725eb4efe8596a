package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
)

const octetStream = "application/octet-stream"

type Media struct {
	Body        []byte
	ContentType string
}

type MediaService interface {
	// Fetch downloads the whole media body. There is no size cap.
	Fetch(ctx context.Context, rawURL string) (*Media, error)
}

type mediaService struct {
	client *http.Client
	r2     *R2Service
}

// NewMediaService builds the fetcher. r2 may be nil, in which case every URL
// is downloaded over plain HTTP.
func NewMediaService(client *http.Client, r2 *R2Service) MediaService {
	if client == nil {
		client = http.DefaultClient
	}
	return &mediaService{client: client, r2: r2}
}

func (s *mediaService) Fetch(ctx context.Context, rawURL string) (*Media, error) {
	if key, ok := s.r2.ObjectKey(rawURL); ok {
		body, contentType, err := s.r2.Download(ctx, key)
		if err != nil {
			return nil, err
		}
		return &Media{Body: body, ContentType: detectContentType(contentType, body)}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("error downloading media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected response status downloading media: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading media body: %w", err)
	}

	return &Media{Body: body, ContentType: detectContentType(resp.Header.Get("Content-Type"), body)}, nil
}

// detectContentType keeps a meaningful declared type and otherwise sniffs the
// bytes.
func detectContentType(declared string, body []byte) string {
	if declared != "" {
		if mediaType, _, err := mime.ParseMediaType(declared); err == nil && mediaType != octetStream {
			return declared
		}
	}
	kind, err := filetype.Match(body)
	if err != nil || kind == types.Unknown {
		return octetStream
	}
	return kind.MIME.Value
}
