package vault

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"bt-catalog/internal/bt"
)

// versionMetadataKey is the user metadata key carrying a metadata item's version.
const versionMetadataKey = "bt-version"

// s3API is the subset of *s3.Client the vault uses.
type s3API interface {
	s3.ListObjectsV2APIClient
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

type s3Uploader interface {
	Upload(ctx context.Context, in *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Options configures an S3Vault.
type S3Options struct {
	Name            string
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// S3Vault stores archives and metadata in an S3 bucket, using the same
// layout as FileSystemVault below an optional key prefix.
type S3Vault struct {
	name     string
	bucket   string
	prefix   string
	region   string
	client   s3API
	uploader s3Uploader
}

// NewS3Vault loads AWS configuration and builds a vault for opts.Bucket.
func NewS3Vault(ctx context.Context, opts S3Options) (*S3Vault, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 vault requires s3_bucket to be set")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	opts.Region = cfg.Region
	return newS3Vault(opts, client, manager.NewUploader(client)), nil
}

func newS3Vault(opts S3Options, client s3API, uploader s3Uploader) *S3Vault {
	return &S3Vault{
		name:     opts.Name,
		bucket:   opts.Bucket,
		prefix:   strings.Trim(opts.Prefix, "/"),
		region:   opts.Region,
		client:   client,
		uploader: uploader,
	}
}

func (v *S3Vault) key(p string) string {
	if v.prefix == "" {
		return p
	}
	return v.prefix + "/" + p
}

// Describe returns the vault identity.
func (v *S3Vault) Describe() bt.VaultRegistration {
	return bt.VaultRegistration{
		Name:      v.name,
		Region:    v.region,
		VaultName: v.bucket,
		VaultARN:  "arn:aws:s3:::" + v.bucket,
	}
}

// PutArchive uploads an archive with an S3-computed CRC32 checksum.
func (v *S3Vault) PutArchive(name string, r io.Reader, size int64) error {
	cloudPath, err := archivePath(name)
	if err != nil {
		return err
	}
	return v.upload(cloudPath, r, size, nil)
}

func (v *S3Vault) upload(cloudPath string, r io.Reader, size int64, metadata map[string]string) error {
	cr := &countingReader{r: r}
	_, err := v.uploader.Upload(context.Background(), &s3.PutObjectInput{
		Bucket:            aws.String(v.bucket),
		Key:               aws.String(v.key(cloudPath)),
		Body:              cr,
		Metadata:          metadata,
		ChecksumAlgorithm: types.ChecksumAlgorithmCrc32,
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", cloudPath, err)
	}
	if cr.n != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, cr.n)
	}
	return nil
}

// Inventory lists every object under archives/. Each object is headed to
// read its stored CRC32.
func (v *S3Vault) Inventory(ctx context.Context) ([]bt.RemoteArchive, error) {
	root := v.key("")

	var out []bt.RemoteArchive
	p := s3.NewListObjectsV2Paginator(v.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(v.bucket),
		Prefix: aws.String(v.key(archivePrefix)),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing archives: %w", err)
		}
		for _, obj := range page.Contents {
			head, err := v.client.HeadObject(ctx, &s3.HeadObjectInput{
				Bucket:       aws.String(v.bucket),
				Key:          obj.Key,
				ChecksumMode: types.ChecksumModeEnabled,
			})
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", aws.ToString(obj.Key), err)
			}
			modified := aws.ToTime(obj.LastModified).UTC()
			out = append(out, bt.RemoteArchive{
				CloudPath:    strings.TrimPrefix(aws.ToString(obj.Key), root),
				RemoteID:     strings.Trim(aws.ToString(obj.ETag), `"`),
				CreationDate: modified,
				Size:         aws.ToInt64(obj.Size),
				CRC32:        decodeCRC32(aws.ToString(head.ChecksumCRC32)),
				ModifiedTime: modified,
			})
		}
	}
	return out, nil
}

// decodeCRC32 decodes S3's base64 big-endian CRC32. Composite multipart
// checksums ("<b64>-<parts>") do not describe the whole object and read as 0.
func decodeCRC32(s string) uint32 {
	if s == "" || strings.Contains(s, "-") {
		return 0
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil || len(raw) != 4 {
		return 0
	}
	return binary.BigEndian.Uint32(raw)
}

// PutMetadata uploads a metadata item with its version as user metadata.
func (v *S3Vault) PutMetadata(hostID string, name string, r io.Reader, size int64, version int64) error {
	p, err := metadataPath(hostID, name)
	if err != nil {
		return err
	}
	return v.upload(p, r, size, map[string]string{versionMetadataKey: strconv.FormatInt(version, 10)})
}

// GetMetadata downloads a metadata item and writes it to w.
func (v *S3Vault) GetMetadata(hostID string, name string, w io.Writer) error {
	p, err := metadataPath(hostID, name)
	if err != nil {
		return err
	}
	out, err := v.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.key(p)),
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("metadata %q not found for host: %s", name, hostID)
		}
		return fmt.Errorf("downloading %s: %w", p, err)
	}
	defer out.Body.Close()

	if _, err := io.Copy(w, out.Body); err != nil {
		return fmt.Errorf("failed to read metadata: %w", err)
	}
	return nil
}

// GetMetadataVersion returns 0 if the item does not exist.
func (v *S3Vault) GetMetadataVersion(hostID string, name string) (int64, error) {
	p, err := metadataPath(hostID, name)
	if err != nil {
		return 0, err
	}
	head, err := v.client.HeadObject(context.Background(), &s3.HeadObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.key(p)),
	})
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading %s: %w", p, err)
	}

	raw, ok := head.Metadata[versionMetadataKey]
	if !ok {
		return 0, nil
	}
	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing version: %w", err)
	}
	return version, nil
}

// ValidateSetup verifies that the bucket is reachable with the configured credentials.
func (v *S3Vault) ValidateSetup() error {
	if _, err := v.client.HeadBucket(context.Background(), &s3.HeadBucketInput{Bucket: aws.String(v.bucket)}); err != nil {
		return fmt.Errorf("bucket %s not accessible: %w", v.bucket, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var (
		noKey    *types.NoSuchKey
		notFound *types.NotFound
	)
	return errors.As(err, &noKey) || errors.As(err, &notFound)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Compile-time check that S3Vault implements bt.Vault interface
var _ bt.Vault = (*S3Vault)(nil)
