package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// UploadPolicy selects how the upload endpoint treats attached media.
// The source system shipped both behaviors across revisions, so the choice
// is explicit configuration rather than a hardcoded pick.
type UploadPolicy string

const (
	// UploadPolicyTextFirst always escalates to the provider with text only;
	// media is recorded but never sent.
	UploadPolicyTextFirst UploadPolicy = "text-first"
	// UploadPolicyMediaAware checks the knowledge base first and sends the
	// hosted media reference to the provider on a miss.
	UploadPolicyMediaAware UploadPolicy = "media-aware"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"askbase-media"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	OpenAIModel  string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`

	UploadDir    string       `envconfig:"UPLOAD_DIR" default:"uploads"`
	UploadPolicy UploadPolicy `envconfig:"UPLOAD_POLICY" default:"text-first"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("ASKBASE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) validate() error {
	switch c.UploadPolicy {
	case UploadPolicyTextFirst, UploadPolicyMediaAware:
	default:
		return fmt.Errorf("invalid upload policy %q (expected %q or %q)",
			c.UploadPolicy, UploadPolicyTextFirst, UploadPolicyMediaAware)
	}

	if c.UploadPolicy == UploadPolicyMediaAware && !c.HasS3() {
		return fmt.Errorf("upload policy %q requires S3 media hosting (S3_ENDPOINT, S3_ACCESS_KEY_ID, S3_SECRET_ACCESS_KEY)", c.UploadPolicy)
	}

	return nil
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}
