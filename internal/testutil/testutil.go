// Package testutil provides shared test helpers for creating config files and content fixtures.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/lectio-edu/lectio/internal/content"
)

// TestJWTSecret is the signing secret written by SetupTestConfig.
const TestJWTSecret = "test-secret"

// SetupTestConfig creates a minimal config file that points at a SQLite database inside tmpDir.
// Returns the path to the generated config file.
func SetupTestConfig(t *testing.T, tmpDir string) string {
	t.Helper()

	configContent := fmt.Sprintf(`database:
  driver: sqlite
  dsn: %s
auth:
  jwt_secret: %s
log:
  level: debug
`,
		filepath.Join(tmpDir, "lectio.db"),
		TestJWTSecret,
	)

	cfgPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configContent), 0644))
	return cfgPath
}

// SetupTestConfigWithAPIKey creates a config file with a fake OpenAI API key for tests
// that require API key validation to pass.
func SetupTestConfigWithAPIKey(t *testing.T, tmpDir string) string {
	t.Helper()
	cfgPath := SetupTestConfig(t, tmpDir)

	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	data = append(data, []byte("openai:\n  api_key: fake-key-for-testing\n  model: gpt-4o-mini\n")...)
	require.NoError(t, os.WriteFile(cfgPath, data, 0644))
	return cfgPath
}

// BiologySubject is a small subject tree with one book of two chapters.
func BiologySubject() content.Subject {
	return content.Subject{
		Title: "Biology",
		Books: []content.Book{
			{
				Title:  "Cells",
				Author: "A. Author",
				Chapters: []content.Chapter{
					{
						Title: "Membrane",
						Order: 1,
						Topics: []content.Topic{
							{
								Title: "Structure",
								Paragraphs: []content.Paragraph{
									{Order: 1, Text: "The membrane is a lipid bilayer.", Pages: []int{12}},
									{Order: 2, Text: "It is selectively permeable.", Pages: []int{13}},
								},
							},
						},
					},
					{
						Title: "Nucleus",
						Order: 2,
						Topics: []content.Topic{
							{
								Title: "DNA",
								Paragraphs: []content.Paragraph{
									{Order: 1, Text: "The nucleus stores DNA.", Pages: []int{30}},
								},
							},
						},
					},
				},
			},
		},
	}
}

// CreateContentFile writes subjects as an importable YAML file in dir and returns its path.
func CreateContentFile(t *testing.T, dir string, subjects ...content.Subject) string {
	t.Helper()

	data, err := yaml.Marshal(map[string][]content.Subject{"subjects": subjects})
	require.NoError(t, err)

	path := filepath.Join(dir, "content.yml")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}
