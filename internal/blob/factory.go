package blob

import (
	"context"
	"fmt"
	"os"
	"strings"

	fsstore "phylotree/internal/infra/blob/fs"
	memorystore "phylotree/internal/infra/blob/memory"
	s3store "phylotree/internal/infra/blob/s3"
)

// S3Config holds the bucket settings for the s3 driver.
type S3Config = s3store.Config

// Config selects and configures a driver.
type Config struct {
	Driver Driver
	FSRoot string
	S3     S3Config
}

// Open constructs the store described by cfg. An empty driver is fs.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverFilesystem:
		return fsstore.New(cfg.FSRoot)
	case DriverS3:
		return s3store.New(ctx, cfg.S3)
	case DriverMemory:
		return memorystore.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.Driver)
	}
}

// ConfigFromEnv reads the driver settings from the process environment.
//
//	PHYLOTREE_BLOB_DRIVER: fs|s3|memory (default fs)
//	PHYLOTREE_BLOB_FS_ROOT: directory root when driver=fs (default ./blobdata)
//	PHYLOTREE_BLOB_S3_BUCKET, PHYLOTREE_BLOB_S3_REGION,
//	PHYLOTREE_BLOB_S3_ENDPOINT, PHYLOTREE_BLOB_S3_PATH_STYLE
func ConfigFromEnv() Config {
	return Config{
		Driver: Driver(os.Getenv("PHYLOTREE_BLOB_DRIVER")),
		FSRoot: os.Getenv("PHYLOTREE_BLOB_FS_ROOT"),
		S3: S3Config{
			Bucket:    os.Getenv("PHYLOTREE_BLOB_S3_BUCKET"),
			Region:    os.Getenv("PHYLOTREE_BLOB_S3_REGION"),
			Endpoint:  os.Getenv("PHYLOTREE_BLOB_S3_ENDPOINT"),
			PathStyle: strings.EqualFold(os.Getenv("PHYLOTREE_BLOB_S3_PATH_STYLE"), "true"),
		},
	}
}

// NewMemory returns an in-memory store.
func NewMemory() Store { return memorystore.New() }

// NewMockS3ForTests returns an S3 store backed by an in-process fake transport.
func NewMockS3ForTests() Store { return s3store.NewMockForTests() }
