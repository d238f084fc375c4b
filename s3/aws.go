package s3

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hupe1980/omnifs"
)

// awsClient implements objectClient on the AWS SDK with the default
// credential chain.
type awsClient struct {
	c      *awss3.Client
	up     *manager.Uploader
	bucket string
}

func newAWSClient(ctx context.Context, cfg clientConfig, bucket string) (*awsClient, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}
	cl := awss3.NewFromConfig(awsCfg)
	return &awsClient{
		c:      cl,
		up:     manager.NewUploader(cl),
		bucket: bucket,
	}, nil
}

func (a *awsClient) stat(ctx context.Context, key string) (*objectInfo, error) {
	head, err := a.c.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return nil, omnifs.ErrNotFound
		}
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, omnifs.ErrNotFound
		}
		return nil, err
	}
	return &objectInfo{
		key:          key,
		size:         aws.ToInt64(head.ContentLength),
		lastModified: aws.ToTime(head.LastModified),
	}, nil
}

func (a *awsClient) get(ctx context.Context, key string, off, length int64) (io.ReadCloser, error) {
	var rng string
	if length < 0 {
		rng = fmt.Sprintf("bytes=%d-", off)
	} else {
		rng = fmt.Sprintf("bytes=%d-%d", off, off+length-1)
	}
	resp, err := a.c.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Range:  aws.String(rng),
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (a *awsClient) put(ctx context.Context, key string, r io.Reader, _ int64) error {
	_, err := a.up.Upload(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   r,
	})
	return err
}

func (a *awsClient) del(ctx context.Context, key string) error {
	_, err := a.c.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	return err
}

func (a *awsClient) copyObject(ctx context.Context, src, dst string) error {
	_, err := a.c.CopyObject(ctx, &awss3.CopyObjectInput{
		Bucket:     aws.String(a.bucket),
		Key:        aws.String(dst),
		CopySource: aws.String(a.bucket + "/" + src),
	})
	return err
}

func (a *awsClient) list(ctx context.Context, prefix string, recursive bool, max int) ([]objectInfo, error) {
	input := &awss3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
		Prefix: aws.String(prefix),
	}
	if !recursive {
		input.Delimiter = aws.String("/")
	}
	if max > 0 {
		input.MaxKeys = aws.Int32(int32(max))
	}

	var infos []objectInfo
	paginator := awss3.NewListObjectsV2Paginator(a.c, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			infos = append(infos, objectInfo{
				key:          aws.ToString(obj.Key),
				size:         aws.ToInt64(obj.Size),
				lastModified: aws.ToTime(obj.LastModified),
			})
		}
		for _, cp := range page.CommonPrefixes {
			infos = append(infos, objectInfo{
				key:      aws.ToString(cp.Prefix),
				isPrefix: true,
			})
		}
		if max > 0 && len(infos) >= max {
			return infos[:max], nil
		}
	}
	return infos, nil
}
