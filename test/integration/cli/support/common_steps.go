package support

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/cucumber/godog"
)

// binaryPath returns the CLI binary built by TestMain.
func binaryPath() string {
	if bin := os.Getenv("DOCEXTRACT_BIN"); bin != "" {
		return bin
	}
	return "docextract"
}

// iRunCommand runs a docextract command line.
func (testCtx *TestContext) iRunCommand(command string) error {
	return testCtx.run(command, "")
}

// iRunCommandWithInput runs a command with the doc string on stdin.
func (testCtx *TestContext) iRunCommandWithInput(command string, input *godog.DocString) error {
	return testCtx.run(command, input.Content)
}

func (testCtx *TestContext) run(command, stdin string) error {
	command = testCtx.substituteCommandVariables(command)

	testCtx.LastCommand = command
	testCtx.LastStartTime = time.Now()

	parts := strings.Fields(command)
	if len(parts) == 0 {
		return errors.New("empty command")
	}
	if parts[0] == "docextract" {
		parts[0] = binaryPath()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Dir = testCtx.TempDir
	cmd.Env = append(os.Environ(), testCtx.EnvVars...)
	cmd.Stdin = strings.NewReader(stdin)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	testCtx.LastStdout = stdout.String()
	testCtx.LastOutput = stdout.String() + stderr.String()
	testCtx.LastError = err
	testCtx.LastDuration = time.Since(testCtx.LastStartTime)

	if err != nil {
		exitError := &exec.ExitError{}
		if errors.As(err, &exitError) {
			testCtx.LastExitCode = exitError.ExitCode()
		} else {
			testCtx.LastExitCode = -1
		}
	} else {
		testCtx.LastExitCode = 0
	}

	return nil
}

// substituteCommandVariables replaces {tmp} with the scenario's temporary directory.
func (testCtx *TestContext) substituteCommandVariables(command string) string {
	return strings.ReplaceAll(command, "{tmp}", testCtx.TempDir)
}

// theEnvironmentVariableIs sets a variable for the commands of this scenario.
func (testCtx *TestContext) theEnvironmentVariableIs(name, value string) error {
	testCtx.AddEnvVar(name, value)
	return nil
}

// theCommandShouldSucceed verifies the command succeeded.
func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastExitCode != 0 {
		return fmt.Errorf("command failed with exit code %d: %w\nOutput: %s",
			testCtx.LastExitCode, testCtx.LastError, testCtx.LastOutput)
	}
	return nil
}

// theCommandShouldFail verifies the command failed.
func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastExitCode == 0 {
		return fmt.Errorf("command succeeded when it should have failed\nOutput: %s", testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldContain verifies the output contains specific text.
func (testCtx *TestContext) theOutputShouldContain(expectedText string) error {
	if !strings.Contains(testCtx.LastOutput, expectedText) {
		return fmt.Errorf("output does not contain '%s'\nActual output: %s", expectedText, testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldNotContain verifies the output lacks specific text.
func (testCtx *TestContext) theOutputShouldNotContain(text string) error {
	if strings.Contains(testCtx.LastOutput, text) {
		return fmt.Errorf("output unexpectedly contains '%s'\nActual output: %s", text, testCtx.LastOutput)
	}
	return nil
}

// theStdoutShouldBe compares stdout with the doc string, ignoring trailing newlines.
func (testCtx *TestContext) theStdoutShouldBe(expected *godog.DocString) error {
	got := strings.TrimRight(testCtx.LastStdout, "\n")
	want := strings.TrimRight(expected.Content, "\n")
	if got != want {
		return fmt.Errorf("stdout mismatch\nwant:\n%s\ngot:\n%s", want, got)
	}
	return nil
}

// theOutputShouldBeValidJSON verifies stdout is valid JSON.
func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	var v interface{}
	if err := json.Unmarshal([]byte(testCtx.LastStdout), &v); err != nil {
		return fmt.Errorf("output is not valid JSON: %w\nOutput: %s", err, testCtx.LastStdout)
	}
	return nil
}

// theJSONFieldShouldBe checks a top-level numeric or string JSON field.
func (testCtx *TestContext) theJSONFieldShouldBe(field, expected string) error {
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(testCtx.LastStdout), &data); err != nil {
		return fmt.Errorf("output is not a JSON object: %w", err)
	}
	value, ok := data[field]
	if !ok {
		return fmt.Errorf("JSON does not contain field '%s'", field)
	}
	if got := fmt.Sprint(value); got != expected {
		return fmt.Errorf("JSON field '%s' is %s, expected %s", field, got, expected)
	}
	return nil
}

// theErrorShouldMention verifies the failed command mentions errorText.
func (testCtx *TestContext) theErrorShouldMention(errorText string) error {
	if testCtx.LastError == nil && testCtx.LastExitCode == 0 {
		return fmt.Errorf("no error occurred, but expected error containing '%s'", errorText)
	}
	if !strings.Contains(strings.ToLower(testCtx.LastOutput), strings.ToLower(errorText)) {
		return fmt.Errorf("error does not contain '%s'\nActual output: %s", errorText, testCtx.LastOutput)
	}
	return nil
}

// aWarningShouldBeLogged verifies a JSON log record at WARN level mentions text.
func (testCtx *TestContext) aWarningShouldBeLogged(text string) error {
	for _, line := range strings.Split(testCtx.LastOutput, "\n") {
		if strings.Contains(line, `"level":"WARN"`) && strings.Contains(line, text) {
			return nil
		}
	}
	return fmt.Errorf("no warning mentioning '%s'\nOutput: %s", text, testCtx.LastOutput)
}

// theFileShouldExist checks a file relative to the scenario directory.
func (testCtx *TestContext) theFileShouldExist(filename string) error {
	fullPath := testCtx.resolve(filename)
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", fullPath)
	}
	return nil
}

// theFileShouldNotExist checks a file is absent.
func (testCtx *TestContext) theFileShouldNotExist(filename string) error {
	fullPath := testCtx.resolve(filename)
	if _, err := os.Stat(fullPath); err == nil {
		return fmt.Errorf("file exists: %s", fullPath)
	}
	return nil
}

// theFileShouldContain verifies a file contains specific content.
func (testCtx *TestContext) theFileShouldContain(filename, expectedContent string) error {
	fullPath := testCtx.resolve(filename)
	content, err := os.ReadFile(fullPath) //nolint:gosec // G304: Test file reading with controlled path
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", fullPath, err)
	}
	if !strings.Contains(string(content), expectedContent) {
		return fmt.Errorf("file %s does not contain '%s'\nActual content: %s",
			filename, expectedContent, string(content))
	}
	return nil
}

func (testCtx *TestContext) resolve(filename string) string {
	filename = testCtx.substituteCommandVariables(filename)
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(testCtx.TempDir, filename)
}

// RegisterCommonSteps registers command and output steps.
func (testCtx *TestContext) RegisterCommonSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the environment variable "([^"]*)" is "([^"]*)"$`, testCtx.theEnvironmentVariableIs)
	sc.Step(`^I run "([^"]*)"$`, testCtx.iRunCommand)
	sc.Step(`^I run "([^"]*)" with input:$`, testCtx.iRunCommandWithInput)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)

	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should not contain "([^"]*)"$`, testCtx.theOutputShouldNotContain)
	sc.Step(`^the output should be:$`, testCtx.theStdoutShouldBe)
	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^the JSON field "([^"]*)" should be "([^"]*)"$`, testCtx.theJSONFieldShouldBe)
	sc.Step(`^the error should mention "([^"]*)"$`, testCtx.theErrorShouldMention)
	sc.Step(`^a warning should be logged about "([^"]*)"$`, testCtx.aWarningShouldBeLogged)

	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the file "([^"]*)" should not exist$`, testCtx.theFileShouldNotExist)
	sc.Step(`^the file "([^"]*)" should contain "([^"]*)"$`, testCtx.theFileShouldContain)
}
