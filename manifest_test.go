package appforge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadManifest(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, `app: blog
resources:
  - name: post
    attributes:
      - {name: title, kind: text}
      - {name: published, kind: boolean}
  - name: page
`)
	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "blog", m.App)

	resources, err := m.Descriptors()
	require.NoError(t, err)
	require.Len(t, resources, 2)
	assert.Equal(t, "post", resources[0].Name)
	assert.Equal(t, []Attribute{
		{Name: "title", Kind: KindText},
		{Name: "published", Kind: KindBoolean},
	}, resources[0].Attributes)
	assert.Equal(t, "page", resources[1].Name)
	assert.Empty(t, resources[1].Attributes)
}

func TestLoadManifestMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadManifest(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absent.yaml")
}

func TestLoadManifestBadYAML(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, "resources: [\n")
	_, err := LoadManifest(path)
	assert.Error(t, err)
}

func TestDescriptorsValidation(t *testing.T) {
	t.Parallel()

	t.Run("unknown kind", func(t *testing.T) {
		path := writeManifest(t, `resources:
  - name: post
    attributes:
      - {name: title, kind: varchar}
`)
		m, err := LoadManifest(path)
		require.NoError(t, err)
		_, err = m.Descriptors()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "post")
	})

	t.Run("bad resource name", func(t *testing.T) {
		path := writeManifest(t, `resources:
  - name: "my post"
`)
		m, err := LoadManifest(path)
		require.NoError(t, err)
		_, err = m.Descriptors()
		assert.True(t, IsInvalidIdentifier(err))
	})
}
