package cache

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bbernstein/nextdeparture/internal/config"
)

func TestNewDynamoClient(t *testing.T) {
	t.Setenv("AWS_REGION", "eu-north-1")

	tests := []struct {
		name         string
		endpoint     string
		wantEndpoint *string
		wantRegion   string
	}{
		{
			name:         "local development setup",
			endpoint:     "http://localhost:8000",
			wantEndpoint: aws.String("http://localhost:8000"),
			wantRegion:   "local",
		},
		{
			name:       "production setup",
			endpoint:   "",
			wantRegion: "eu-north-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewDynamoClient(context.Background(), &config.CacheConfig{DynamoEndpoint: tt.endpoint})
			require.NoError(t, err)
			require.NotNil(t, client)

			opts := client.Options()
			assert.Equal(t, tt.wantEndpoint, opts.BaseEndpoint)
			assert.Equal(t, tt.wantRegion, opts.Region)
		})
	}
}
