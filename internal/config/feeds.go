package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// FeedConfig describes where one GTFS feed is loaded from. Exactly one of
// Path, URL or the S3 bucket and key pair is expected.
type FeedConfig struct {
	Name     string `yaml:"name" validate:"required"`
	Path     string `yaml:"path" validate:"required_without_all=URL S3Bucket"`
	URL      string `yaml:"url" validate:"omitempty,url"`
	S3Bucket string `yaml:"s3Bucket" validate:"required_with=S3Key"`
	S3Key    string `yaml:"s3Key" validate:"required_with=S3Bucket"`
	TimeZone string `yaml:"timeZone" validate:"omitempty,timezone"`
}

// FeedsFile is the multi-feed configuration file
type FeedsFile struct {
	Feeds []FeedConfig `yaml:"feeds" validate:"required,min=1,dive"`
}

// LoadFeedsFile reads and validates a feeds YAML file
func LoadFeedsFile(path string) (*FeedsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading feeds config: %w", err)
	}
	return ParseFeeds(data)
}

// ParseFeeds decodes and validates feeds YAML
func ParseFeeds(data []byte) (*FeedsFile, error) {
	var file FeedsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing feeds config: %w", err)
	}

	if err := validator.New().Struct(file); err != nil {
		return nil, fmt.Errorf("validating feeds config: %w", err)
	}

	seen := make(map[string]bool, len(file.Feeds))
	for _, f := range file.Feeds {
		if seen[f.Name] {
			return nil, fmt.Errorf("duplicate feed name %q", f.Name)
		}
		seen[f.Name] = true
	}

	return &file, nil
}

// SelectFeed chooses a feed by name and falls back to the first feed
func (f *FeedsFile) SelectFeed(name string) (FeedConfig, bool) {
	if len(f.Feeds) == 0 {
		return FeedConfig{}, false
	}
	if name != "" {
		for _, feed := range f.Feeds {
			if feed.Name == name {
				return feed, true
			}
		}
	}
	return f.Feeds[0], true
}
