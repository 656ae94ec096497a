package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"todoTracker/internal/app"
	"todoTracker/internal/cli"
	"todoTracker/internal/models/task"
	"todoTracker/internal/repository/task/sqlite"
	"todoTracker/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	configPath string
	dbPath     string
}

func newEnv(t *testing.T, repoType string) env {
	t.Helper()
	dir := t.TempDir()
	e := env{
		configPath: filepath.Join(dir, "config.yml"),
		dbPath:     filepath.Join(dir, "todo.db"),
	}
	body := "logging:\n  development: false\n  level: error\n" +
		"repository:\n  type: " + repoType + "\n" +
		"sqlite:\n  path: " + e.dbPath + "\n"
	require.NoError(t, os.WriteFile(e.configPath, []byte(body), 0o600))
	return e
}

func (e env) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := cli.NewRootCommand().Command()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func (e env) seed(t *testing.T, names ...string) {
	t.Helper()
	storage, err := sqlite.New(context.Background(), e.dbPath)
	require.NoError(t, err)
	defer storage.Close()

	svc := service.NewTaskService(storage, service.SQLiteType)
	for _, name := range names {
		_, err := svc.CreateTask(context.Background(), task.New(name,
			task.WithPriority(task.PriorityMedium),
			task.WithCategory(task.CategoryWork),
		))
		require.NoError(t, err)
	}
}

func TestMigrateCommands(t *testing.T) {
	e := newEnv(t, "sqlite")

	out, err := e.run(t, "", "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version: 2")

	out, err = e.run(t, "", "migrate", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "version: 2, dirty: false")

	out, err = e.run(t, "", "migrate", "steps", "--", "-1")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version: 1")

	_, err = e.run(t, "", "migrate", "steps", "zero")
	assert.Error(t, err)

	out, err = e.run(t, "", "migrate", "down")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version: 0")
}

func TestMigrate_InMemoryRejected(t *testing.T) {
	e := newEnv(t, "inmemory")

	_, err := e.run(t, "", "migrate", "up")
	assert.Error(t, err)
}

func TestExportCommand(t *testing.T) {
	e := newEnv(t, "sqlite")
	_, err := e.run(t, "", "migrate", "up")
	require.NoError(t, err)
	e.seed(t, "Write docs", "Ship release")

	out, err := e.run(t, "", "export")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Write docs"`)
	assert.Contains(t, out, `"priority": "MEDIUM"`)

	out, err = e.run(t, "", "export", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: Ship release")
	assert.Contains(t, out, "category: WORK")

	_, err = e.run(t, "", "export", "-f", "xml")
	assert.Error(t, err)
}

func TestConsoleCommand(t *testing.T) {
	e := newEnv(t, "sqlite")
	_, err := e.run(t, "", "migrate", "up")
	require.NoError(t, err)
	e.seed(t, "Write docs")

	out, err := e.run(t, "4\n0\n", "console", "--notify=false")
	require.NoError(t, err)
	assert.Contains(t, out, "ID: 1 ---- Task{name='Write docs'")
	assert.Contains(t, out, "Thank you for using my Todo List Application!")
}

func TestInvalidConfig(t *testing.T) {
	e := newEnv(t, "mongo")

	_, err := e.run(t, "", "export")
	assert.Error(t, err)
}

func fixedClock() time.Time {
	return time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
}

func TestConsoleCommand_WithReminders(t *testing.T) {
	e := newEnv(t, "sqlite")
	_, err := e.run(t, "", "migrate", "up")
	require.NoError(t, err)

	storage, err := sqlite.New(context.Background(), e.dbPath)
	require.NoError(t, err)
	svc := service.NewTaskService(storage, service.SQLiteType, service.WithClock(fixedClock))
	tomorrow := task.NewDate(2025, time.March, 11)
	_, err = svc.CreateTask(context.Background(), task.New("Study Java",
		task.WithDueDate(&tomorrow),
		task.WithPriority(task.PriorityHigh),
		task.WithCategory(task.CategoryStudy),
	))
	require.NoError(t, err)
	require.NoError(t, storage.Close())

	root := cli.NewRootCommand(app.WithClock(fixedClock)).Command()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader("4\n0\n"))
	root.SetArgs([]string{"--config", e.configPath, "console", "--notify"})
	require.NoError(t, root.Execute())

	// первый проход напоминаний выполняется при старте и завершается до выхода из команды
	assert.Contains(t, out.String(), "Reminder: Task 'Study Java' is due tomorrow!\n")
	assert.Contains(t, out.String(), "ID: 1 ---- Task{name='Study Java'")
	assert.Contains(t, out.String(), "Thank you for using my Todo List Application!")
}
