package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alexanderramin/waypoint/internal/config"
	"github.com/alexanderramin/waypoint/internal/contract"
	"github.com/alexanderramin/waypoint/internal/service"
	"github.com/alexanderramin/waypoint/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	demoFixture = "../importer/testdata/demo.json"
	demoCourse  = "course-v1:Demo+CS101+2026"
)

// testApp wires a full App backed by an in-memory DB for CLI integration tests.
func testApp(t *testing.T, tty bool) *App {
	t.Helper()
	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)

	return &App{
		Reports:  service.NewReportService(uow, config.DefaultSettings(), 2),
		Import:   service.NewImportService(uow),
		HTTPAddr: "127.0.0.1:0",
		IsTTY:    func() bool { return tty },
	}
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func importedApp(t *testing.T, tty bool) *App {
	t.Helper()
	app := testApp(t, tty)
	_, err := executeCmd(t, app, "import", demoFixture)
	require.NoError(t, err)
	return app
}

func TestImportCmd_Table(t *testing.T) {
	app := testApp(t, true)

	out, err := executeCmd(t, app, "import", demoFixture)
	require.NoError(t, err)
	assert.Contains(t, out, "IMPORTED")
	assert.Contains(t, out, demoCourse)
	assert.Contains(t, out, "10 blocks")
	assert.Contains(t, out, "2 completions")
}

func TestImportCmd_JSON(t *testing.T) {
	app := testApp(t, true)

	out, err := executeCmd(t, app, "import", demoFixture, "--json")
	require.NoError(t, err)

	var summary contract.ImportSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, demoCourse, summary.CourseID)
	assert.Equal(t, 10, summary.Blocks)
	assert.Equal(t, 3, summary.Users)
	assert.Equal(t, 2, summary.Completions)
}

func TestImportCmd_Errors(t *testing.T) {
	app := testApp(t, true)

	_, err := executeCmd(t, app, "import", "testdata/nope.json")
	require.Error(t, err)
	assert.Equal(t, ExitInvalidInput, ExitCodeOf(err))

	_, err = executeCmd(t, app, "import")
	require.Error(t, err, "file argument is required")
}

func TestReportCompletion_Table(t *testing.T) {
	app := importedApp(t, true)

	out, err := executeCmd(t, app, "report", "completion", "--course", demoCourse, "--course", "not-a-course")
	require.NoError(t, err)
	assert.Contains(t, out, "COMPLETION REPORT")
	assert.Contains(t, out, "Unit 1")
	assert.Contains(t, out, "ana")
	assert.Contains(t, out, "ben")
	assert.NotContains(t, out, "staff ")
	assert.Contains(t, out, "SKIPPED")
	assert.Contains(t, out, "invalid_course_key")
}

func TestReportCompletion_JSON(t *testing.T) {
	app := importedApp(t, true)

	out, err := executeCmd(t, app, "report", "completion",
		"--course", demoCourse, "--filter", "problem", "--email", "ana@example.com", "--json")
	require.NoError(t, err)

	var body struct {
		CompletionData map[string][]map[string]json.RawMessage `json:"completion_data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	users := body.CompletionData[demoCourse]
	require.Len(t, users, 1)
	assert.JSONEq(t, `"ana"`, string(users[0]["username"]))

	var problems []map[string]any
	require.NoError(t, json.Unmarshal(users[0]["problem"], &problems))
	require.Len(t, problems, 3)
	assert.Equal(t, true, problems[0]["complete"])
	assert.Equal(t, false, problems[1]["complete"])
}

func TestReportCompletion_DefaultsToJSONWhenPiped(t *testing.T) {
	app := importedApp(t, false)

	out, err := executeCmd(t, app, "report", "completion", "--course", demoCourse)
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(out)), out)
}

func TestReportCompletion_InvalidRequest(t *testing.T) {
	app := importedApp(t, true)

	_, err := executeCmd(t, app, "report", "completion", "--course", demoCourse, "--offset", "-1")
	require.Error(t, err)
	assert.Equal(t, ExitInvalidInput, ExitCodeOf(err))

	_, err = executeCmd(t, app, "report", "completion", "--course", demoCourse, "--filter", "hologram")
	require.Error(t, err)
	assert.Equal(t, ExitInvalidInput, ExitCodeOf(err))

	_, err = executeCmd(t, app, "report", "completion")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "course")
}

func TestReportLastPage(t *testing.T) {
	app := importedApp(t, true)

	out, err := executeCmd(t, app, "report", "last-page", "--course", demoCourse)
	require.NoError(t, err)
	assert.Contains(t, out, "LAST PAGE ACCESSED")
	assert.Contains(t, out, "Chapter 1-Seq 1-Unit 1-Problem 1")
	assert.Contains(t, out, "Chapter 2-Seq 2-Unit 2-Problem 3")

	out, err = executeCmd(t, app, "report", "last-page", "--course", demoCourse, "--json")
	require.NoError(t, err)
	var body contract.LastPageReportBody
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Len(t, body.LastPageData[demoCourse], 2)
	assert.Len(t, body.ExitCountData[demoCourse], 2)
}

func TestOutlineCmd(t *testing.T) {
	app := importedApp(t, true)

	out, err := executeCmd(t, app, "outline", "--course", demoCourse)
	require.NoError(t, err)
	assert.Contains(t, out, "#1 Chapter 2")
	assert.Contains(t, out, "└─ ")
	assert.Contains(t, out, "graded")

	_, err = executeCmd(t, app, "outline", "--course", "course-v1:Nope+N1+2026")
	require.Error(t, err)
	assert.Equal(t, ExitNotFound, ExitCodeOf(err))

	_, err = executeCmd(t, app, "outline", "--course", "garbage")
	require.Error(t, err)
	assert.Equal(t, ExitInvalidInput, ExitCodeOf(err))
}

func TestServeCmd_StopsOnCancel(t *testing.T) {
	app := testApp(t, true)
	root := NewRootCmd(app)
	root.SetArgs([]string{"serve", "--addr", "127.0.0.1:0"})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	assert.NoError(t, root.ExecuteContext(ctx))
}

func TestServeCmd_BadAddr(t *testing.T) {
	app := testApp(t, true)

	_, err := executeCmd(t, app, "serve", "--addr", "not an address")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listening on")
}
