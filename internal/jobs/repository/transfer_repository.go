package repository

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/amankumarsingh77/ffserve/internal/jobs"
	"github.com/amankumarsingh77/ffserve/internal/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
)

const maxErrorBodyBytes = 512

// S3API is the subset of the S3 client used for s3:// URLs.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type transferRepository struct {
	httpClient *http.Client
	s3Client   S3API
}

// NewTransferRepository moves media over http(s) and, when s3Client is not
// nil, over s3://bucket/key URLs.
func NewTransferRepository(httpClient *http.Client, s3Client S3API) jobs.Transport {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &transferRepository{
		httpClient: httpClient,
		s3Client:   s3Client,
	}
}

func (t *transferRepository) Download(ctx context.Context, rawURL, dstPath string) error {
	body, err := t.open(ctx, rawURL)
	if err != nil {
		return fmt.Errorf("%w: %w", jobs.ErrSourceUnavailable, err)
	}
	defer body.Close()

	out, err := os.Create(dstPath)
	if err != nil {
		return errors.Wrap(err, "failed to create local video file")
	}
	if _, err = io.Copy(out, body); err != nil {
		out.Close()
		os.Remove(dstPath)
		return fmt.Errorf("%w: failed to read source: %v", jobs.ErrSourceUnavailable, err)
	}
	if err = out.Close(); err != nil {
		os.Remove(dstPath)
		return errors.Wrap(err, "failed to write video file")
	}
	return nil
}

func (t *transferRepository) open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid source url")
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, errors.Wrap(err, "GET request failed")
		}
		resp, err := t.httpClient.Do(req)
		if err != nil {
			return nil, errors.Wrap(err, "GET request failed")
		}
		if err := checkStatus(resp); err != nil {
			resp.Body.Close()
			return nil, errors.Wrap(err, "GET request failed")
		}
		return resp.Body, nil
	case "s3":
		loc, err := parseObjectLocation(u)
		if err != nil {
			return nil, err
		}
		if t.s3Client == nil {
			return nil, jobs.ErrStorageNotConfigured
		}
		res, err := t.s3Client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(loc.Bucket),
			Key:    aws.String(loc.Key),
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to download file")
		}
		return res.Body, nil
	default:
		return nil, fmt.Errorf("%w %q", jobs.ErrUnsupportedScheme, u.Scheme)
	}
}

func (t *transferRepository) Upload(ctx context.Context, rawURL, srcPath string) error {
	if err := t.upload(ctx, rawURL, srcPath); err != nil {
		return errors.Wrapf(err, "upload to %s failed", rawURL)
	}
	return nil
}

func (t *transferRepository) upload(ctx context.Context, rawURL, srcPath string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return errors.Wrap(err, "invalid destination url")
	}

	file, err := os.Open(srcPath)
	if err != nil {
		return errors.Wrap(err, "failed to open output file")
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return errors.Wrap(err, "failed to stat output file")
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, rawURL, file)
		if err != nil {
			return err
		}
		req.ContentLength = info.Size()
		resp, err := t.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		return checkStatus(resp)
	case "s3":
		loc, err := parseObjectLocation(u)
		if err != nil {
			return err
		}
		if t.s3Client == nil {
			return jobs.ErrStorageNotConfigured
		}
		return t.putObject(ctx, models.UploadInput{
			File:     file,
			Location: *loc,
			Size:     info.Size(),
			MimeType: contentType(srcPath),
		})
	default:
		return fmt.Errorf("%w %q", jobs.ErrUnsupportedScheme, u.Scheme)
	}
}

func (t *transferRepository) putObject(ctx context.Context, input models.UploadInput) error {
	_, err := t.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(input.Location.Bucket),
		Key:           aws.String(input.Location.Key),
		ContentType:   aws.String(input.MimeType),
		ContentLength: aws.Int64(input.Size),
		Body:          input.File,
	})
	if err != nil {
		return errors.Wrap(err, "failed to upload file")
	}
	return nil
}

func parseObjectLocation(u *url.URL) (*models.ObjectLocation, error) {
	loc := &models.ObjectLocation{
		Bucket: u.Host,
		Key:    strings.TrimPrefix(u.Path, "/"),
	}
	if loc.Bucket == "" || loc.Key == "" {
		return nil, errors.Errorf("invalid s3 url %q: want s3://bucket/key", u.String())
	}
	return loc, nil
}

func contentType(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "application/octet-stream"
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if msg := strings.TrimSpace(string(snippet)); msg != "" {
		return errors.Errorf("unexpected status %s: %s", resp.Status, msg)
	}
	return errors.Errorf("unexpected status %s", resp.Status)
}
