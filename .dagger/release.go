package main

import (
	"context"
	"fmt"
	"path"

	"dagger/langchat/internal/dagger"
)

// bucketCreds are the S3-compatible bucket secrets used by every upload.
type bucketCreds struct {
	endpoint        *dagger.Secret
	bucket          *dagger.Secret
	accessKeyId     *dagger.Secret
	secretAccessKey *dagger.Secret
}

// upload syncs artifacts to the bucket under prefix.
func (l *Langchat) upload(ctx context.Context, artifacts *dagger.Directory, prefix string, creds bucketCreds) error {
	bucketName, err := creds.bucket.Plaintext(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bucket name: %w", err)
	}

	endpointUrl, err := creds.endpoint.Plaintext(ctx)
	if err != nil {
		return fmt.Errorf("failed to get endpoint: %w", err)
	}

	_, err = dag.Container().
		From("amazon/aws-cli:latest").
		WithSecretVariable("AWS_ACCESS_KEY_ID", creds.accessKeyId).
		WithSecretVariable("AWS_SECRET_ACCESS_KEY", creds.secretAccessKey).
		WithEnvVariable("AWS_DEFAULT_REGION", "auto").
		WithDirectory("/artifacts", artifacts).
		WithWorkdir("/artifacts").
		WithExec([]string{
			"aws", "s3", "sync", ".",
			fmt.Sprintf("s3://%s", path.Join(bucketName, prefix)),
			"--endpoint-url", endpointUrl,
		}).
		Sync(ctx)
	if err != nil {
		return fmt.Errorf("failed to upload artifacts: %w", err)
	}

	return nil
}

// Release builds release binaries and uploads them under both the version
// prefix and "latest".
func (l *Langchat) Release(
	ctx context.Context,

	// Version string (e.g., "v1.0.0")
	version string,

	// Git commit SHA
	commit string,

	// Bucket endpoint URL
	endpoint *dagger.Secret,

	// Bucket name
	bucket *dagger.Secret,

	// Bucket access key ID
	accessKeyId *dagger.Secret,

	// Bucket secret access key
	secretAccessKey *dagger.Secret,
) (*dagger.Directory, error) {
	creds := bucketCreds{endpoint, bucket, accessKeyId, secretAccessKey}
	artifacts := l.BuildRelease(ctx, version, commit)

	for _, prefix := range []string{version, "latest"} {
		if err := l.upload(ctx, artifacts, prefix, creds); err != nil {
			return artifacts, fmt.Errorf("could not upload %s release artifacts: %w", prefix, err)
		}
	}

	return artifacts, nil
}
