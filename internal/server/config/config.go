// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Blob store kinds.
const (
	BlobStoreMemory = "memory"
	BlobStoreS3     = "s3"
)

// Config holds runtime settings for the GophDrive server.
//
// Fields:
//   - HTTPAddr: bind address for the HTTP API.
//   - GRPCAddr: bind address for the gRPC health endpoint.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects in-memory repositories.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use test defaults in prod.
//   - TokenValidityDuration: access token lifetime.
//   - KeyPath: PEM file with the RSA private key; generated when missing.
//   - StorageSecret: input for the key that seals chunks at rest.
//   - BlobStore: "memory" or "s3".
//   - S3RootUser / S3RootPassword: credentials for the S3-compatible backend.
//   - S3Bucket / S3Region / S3BaseEndpoint: object storage settings.
type Config struct {
	HTTPAddr              string
	GRPCAddr              string
	DatabaseDSN           string
	SecretKey             string
	TokenValidityDuration time.Duration
	KeyPath               string
	StorageSecret         string
	BlobStore             string
	S3RootUser            string
	S3RootPassword        string
	S3Bucket              string
	S3Region              string
	S3BaseEndpoint        string
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.GRPCAddr = ":50051"
	c.DatabaseDSN = ""
	c.SecretKey = "secretKey"
	c.TokenValidityDuration = 60 * time.Minute
	c.KeyPath = "server_key.pem"
	c.StorageSecret = "storageSecret"
	c.BlobStore = BlobStoreMemory
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "gophdrive"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
