package artifact_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/model"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/infrastructure/artifact"
)

const (
	schemaPath = "../../../configs/feature_schema.yaml"
	bundlePath = "../../../configs/churn_model.json"
)

func newLoader(source artifact.Source) *artifact.Loader {
	return artifact.NewLoader(source, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoader_LoadsShippedArtifacts(t *testing.T) {
	loader := newLoader(artifact.NewRouter(nil))

	a, err := loader.Load(context.Background(), schemaPath, "file://"+bundlePath)
	require.NoError(t, err)

	assert.Equal(t, 18, a.Schema.Len())
	assert.Equal(t, "Tenure", a.Schema.Columns()[0])
	assert.Equal(t, "MaritalStatus", a.Schema.Columns()[17])
	assert.Equal(t, "logreg-2024.05", a.Pipeline.Version())
}

func TestLoader_FailuresAreSchemaLoadErrors(t *testing.T) {
	tests := []struct {
		name     string
		schema   string
		bundle   string
		artifact string
	}{
		{
			name:     "missing schema file",
			schema:   "/nonexistent/schema.yaml",
			bundle:   bundlePath,
			artifact: "feature schema",
		},
		{
			name:     "empty schema",
			schema:   "empty.yaml::",
			bundle:   bundlePath,
			artifact: "feature schema",
		},
		{
			name:     "unknown schema key",
			schema:   "extra.yaml::numerical_cols: [a]\ncategorical_cols: [b]\ntarget: Churn\n",
			bundle:   bundlePath,
			artifact: "feature schema",
		},
		{
			name:     "duplicate columns",
			schema:   "dup.yaml::numerical_cols: [a, a]\ncategorical_cols: [b]\n",
			bundle:   bundlePath,
			artifact: "feature schema",
		},
		{
			name:     "bundle does not match schema",
			schema:   "small.yaml::numerical_cols: [a]\ncategorical_cols: [b]\n",
			bundle:   bundlePath,
			artifact: "model bundle",
		},
		{
			name:     "corrupt bundle",
			schema:   schemaPath,
			bundle:   "bundle.json::{\"version\":",
			artifact: "model bundle",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schemaURI := materialize(t, tt.schema)
			bundleURI := materialize(t, tt.bundle)

			_, err := newLoader(artifact.NewRouter(nil)).Load(context.Background(), schemaURI, bundleURI)

			var loadErr *model.SchemaLoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, tt.artifact, loadErr.Artifact)
		})
	}
}

// materialize turns "name::content" into a temp file path and leaves plain paths alone.
func materialize(t *testing.T, spec string) string {
	name, content, ok := strings.Cut(spec, "::")
	if !ok {
		return spec
	}
	return writeFile(t, name, content)
}

type fakeS3 struct {
	objects map[string]string
	calls   []string
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := *in.Bucket + "/" + *in.Key
	f.calls = append(f.calls, key)
	body, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestS3Source(t *testing.T) {
	schema, err := os.ReadFile(schemaPath)
	require.NoError(t, err)
	bundle, err := os.ReadFile(bundlePath)
	require.NoError(t, err)

	client := &fakeS3{objects: map[string]string{
		"models/churn/schema.yaml": string(schema),
		"models/churn/v1.json":     string(bundle),
	}}
	loader := newLoader(artifact.NewRouter(artifact.NewS3Source(client)))

	a, err := loader.Load(context.Background(), "s3://models/churn/schema.yaml", "s3://models/churn/v1.json")
	require.NoError(t, err)
	assert.Equal(t, 18, a.Schema.Len())
	assert.Equal(t, []string{"models/churn/schema.yaml", "models/churn/v1.json"}, client.calls)

	_, err = loader.LoadSchema(context.Background(), "s3://models/churn/missing.yaml")
	assert.Error(t, err)
}

func TestS3Source_RejectsMalformedURIs(t *testing.T) {
	src := artifact.NewS3Source(&fakeS3{})

	for _, uri := range []string{"s3://bucket-only", "s3:///key", "http://bucket/key"} {
		t.Run(uri, func(t *testing.T) {
			_, err := src.Open(context.Background(), uri)
			assert.Error(t, err)
		})
	}
}

func TestRouter_WithoutS3(t *testing.T) {
	_, err := artifact.NewRouter(nil).Open(context.Background(), "s3://bucket/key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no S3 source")
}

func TestIsS3(t *testing.T) {
	assert.True(t, artifact.IsS3("configs/a.yaml", "s3://b/k"))
	assert.False(t, artifact.IsS3("configs/a.yaml", "file:///tmp/b.json"))
}
