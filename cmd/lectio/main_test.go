package main

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectio-edu/lectio/internal/auth"
	"github.com/lectio-edu/lectio/internal/quiz"
	"github.com/lectio-edu/lectio/internal/statistics"
	"github.com/lectio-edu/lectio/internal/testutil"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name      string
		debugMode bool
		wantLevel slog.Level
	}{
		{
			name:      "debug mode enabled",
			debugMode: true,
			wantLevel: slog.LevelDebug,
		},
		{
			name:      "debug mode disabled",
			debugMode: false,
			wantLevel: slog.LevelInfo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupLogger(tt.debugMode)
			logger := slog.Default()
			assert.NotNil(t, logger)
			assert.Equal(t, tt.wantLevel <= slog.LevelDebug, logger.Enabled(context.Background(), slog.LevelDebug))
		})
	}
}

func TestNewRootCommand(t *testing.T) {
	cmd := newRootCommand()

	assert.Equal(t, "lectio", cmd.Use)
	assert.True(t, cmd.SilenceUsage)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("debug"))

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"migrate", "content", "token", "test", "history", "stats"}, names)
}

func TestNewContentCommand(t *testing.T) {
	cmd := newContentCommand()

	assert.Equal(t, "content", cmd.Use)
	assert.Equal(t, "Content administration commands", cmd.Short)
	assert.True(t, cmd.HasSubCommands())
}

func TestRoleFlag_Set(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    RoleFlag
		wantErr bool
	}{
		{name: "user", value: "user", want: RoleFlag(auth.RoleUser)},
		{name: "admin", value: "admin", want: RoleFlag(auth.RoleAdmin)},
		{name: "unknown", value: "root", want: RoleFlag(auth.RoleUser), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := RoleFlag(auth.RoleUser)
			err := flag.Set(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, flag)
			assert.Equal(t, string(tt.want), flag.String())
			assert.Equal(t, "RoleFlag", flag.Type())
		})
	}
}

func TestMigrateAndContentCommands(t *testing.T) {
	t.Setenv("LECTIO_JWT_SECRET", "")
	tmpDir := t.TempDir()
	cfgPath := testutil.SetupTestConfig(t, tmpDir)
	contentPath := testutil.CreateContentFile(t, tmpDir, testutil.BiologySubject())

	out, err := executeCommand(t, "--config", cfgPath, "migrate")
	require.NoError(t, err)
	assert.Equal(t, "Schema is up to date (sqlite)\n", out)

	out, err = executeCommand(t, "--config", cfgPath, "content", "import", contentPath)
	require.NoError(t, err)
	assert.Contains(t, out, "imported Biology (")
	assert.Contains(t, out, "  book Cells (")
	assert.Contains(t, out, "2 chapters")

	out, err = executeCommand(t, "--config", cfgPath, "content", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "Biology ("))
	assert.True(t, strings.HasPrefix(lines[1], "  Cells ("))
	assert.True(t, strings.HasPrefix(lines[2], "    1. Membrane ("))
	assert.True(t, strings.HasPrefix(lines[3], "    2. Nucleus ("))

	out, err = executeCommand(t, "--config", cfgPath, "history", "--user", "u-1")
	require.NoError(t, err)
	assert.Equal(t, "No test attempts yet.\n", out)

	out, err = executeCommand(t, "--config", cfgPath, "stats", "--user", "u-1")
	require.NoError(t, err)
	assert.Equal(t, "Tests taken: 0, average score: 0%\n", out)

	_, err = executeCommand(t, "--config", cfgPath, "history", "--user", "u-1", "--sort", "title")
	assert.ErrorContains(t, err, "sortBy must be one of createdAt, scorePercent")
}

func TestContentImport_MissingFile(t *testing.T) {
	cfgPath := testutil.SetupTestConfig(t, t.TempDir())

	_, err := executeCommand(t, "--config", cfgPath, "content", "import", "missing.yml")
	assert.ErrorContains(t, err, "content.LoadYAML()")
}

func TestTokenIssueCommand(t *testing.T) {
	t.Setenv("LECTIO_JWT_SECRET", "")
	cfgPath := testutil.SetupTestConfig(t, t.TempDir())

	out, err := executeCommand(t, "--config", cfgPath, "token", "issue", "--user", "u-1", "--role", "admin")
	require.NoError(t, err)

	user, err := auth.NewService(testutil.TestJWTSecret).Parse(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, auth.User{ID: "u-1", Role: auth.RoleAdmin}, user)

	_, err = executeCommand(t, "--config", cfgPath, "token", "issue", "--user", "u-1", "--role", "root")
	assert.ErrorContains(t, err, `invalid value "root"`)

	_, err = executeCommand(t, "--config", cfgPath, "token", "issue")
	assert.ErrorContains(t, err, `required flag(s) "user" not set`)
}

func TestWriteHistory(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var out bytes.Buffer
	err := writeHistory(&out, []quiz.HistoryEntry{
		{
			ID:        "h-1",
			SubjectID: "s-bio",
			BookID:    "b-cells",
			ChapterID: "c-membrane",
			Result:    quiz.Result{TotalQuestions: 10, CorrectAnswers: 6, ScorePercent: 60},
			CreatedAt: time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
		},
		{
			ID:        "h-2",
			SubjectID: "s-bio",
			BookID:    "b-cells",
			Result:    quiz.Result{TotalQuestions: 10, CorrectAnswers: 10, ScorePercent: 100},
			CreatedAt: time.Date(2025, 3, 2, 9, 30, 0, 0, time.UTC),
		},
	})
	require.NoError(t, err)
	assert.Equal(t,
		"2025-03-01 09:30  h-1  s-bio/b-cells/c-membrane   60% (6/10)\n"+
			"2025-03-02 09:30  h-2  s-bio/b-cells  100% (10/10)\n",
		out.String())
}

func TestWriteStats(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	var out bytes.Buffer
	err := writeStats(&out, statistics.UserStats{
		TotalTests:   2,
		AverageScore: 80,
		TestsBySubject: map[string]statistics.SubjectStats{
			"s-chem": {Count: 1, AverageScore: 100},
			"s-bio":  {Count: 1, AverageScore: 60},
		},
		BestResult:  &statistics.ResultPoint{Score: 100, Date: day.AddDate(0, 0, 1)},
		WorstResult: &statistics.ResultPoint{Score: 60, Date: day},
		RecentProgress: []statistics.ResultPoint{
			{Score: 60, Date: day},
			{Score: 100, Date: day.AddDate(0, 0, 1)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t,
		"Tests taken: 2, average score: 80%\n"+
			"Best:  100% 2025-03-02\n"+
			"Worst: 60% 2025-03-01\n"+
			"  s-bio: 1 tests, average 60.0%\n"+
			"  s-chem: 1 tests, average 100.0%\n"+
			"Recent: 60% 100%\n",
		out.String())
}
