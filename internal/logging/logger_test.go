package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func resetLogging() {
	CloseAll()
	CloseAudit()
	settings = Settings{}
	logLevel = LevelInfo
	auditLogger = nil
}

// TestAllCategoriesLog tests that all categories create log files when
// logging is enabled.
func TestAllCategoriesLog(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "logging_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	resetLogging()
	defer resetLogging()

	err = Configure(Settings{
		Enabled:   true,
		Directory: filepath.Join(tempDir, "logs"),
		Level:     "debug",
	})
	if err != nil {
		t.Fatalf("Failed to configure logging: %v", err)
	}

	if !IsEnabled() {
		t.Error("Expected logging to be enabled")
	}

	categories := []Category{
		CategoryBoot,
		CategoryAPI,
		CategoryStore,
		CategoryWords,
	}

	for _, cat := range categories {
		if !IsCategoryEnabled(cat) {
			t.Errorf("Category %s should be enabled", cat)
		}

		logger := Get(cat)
		logger.Info("Test info message for %s", cat)
		logger.Debug("Test debug message for %s", cat)
		logger.Warn("Test warn message for %s", cat)
		logger.Error("Test error message for %s", cat)
	}

	// Also test convenience functions
	Boot("Convenience boot log")
	API("Convenience api log")
	Store("Convenience store log")
	Words("Convenience words log")

	// Close all loggers to flush
	CloseAll()

	logsPath := filepath.Join(tempDir, "logs")
	entries, err := os.ReadDir(logsPath)
	if err != nil {
		t.Fatalf("Failed to read logs dir: %v", err)
	}

	for _, cat := range categories {
		found := false
		for _, entry := range entries {
			if strings.Contains(entry.Name(), string(cat)+".log") {
				found = true
				content, err := os.ReadFile(filepath.Join(logsPath, entry.Name()))
				if err != nil {
					t.Errorf("Failed to read log file for %s: %v", cat, err)
					continue
				}
				if len(content) == 0 {
					t.Errorf("Log file for %s is empty", cat)
				}
				break
			}
		}
		if !found {
			t.Errorf("No log file found for category: %s", cat)
		}
	}
}

// TestLoggingDisabled tests that no logs are created when logging is off.
func TestLoggingDisabled(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "logging_test_disabled")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	resetLogging()
	defer resetLogging()

	logsPath := filepath.Join(tempDir, "logs")
	if err := Configure(Settings{Enabled: false, Directory: logsPath}); err != nil {
		t.Fatalf("Failed to configure logging: %v", err)
	}

	if IsEnabled() {
		t.Error("Expected logging to be disabled")
	}
	if IsCategoryEnabled(CategoryBoot) {
		t.Error("Categories should be disabled when logging is off")
	}

	// All of these should be no-ops
	Boot("This should NOT be logged")
	Store("This should NOT be logged")
	logger := Get(CategoryAPI)
	logger.Info("This should NOT be logged")
	logger.Error("This should NOT be logged")

	CloseAll()

	if _, err := os.Stat(logsPath); !os.IsNotExist(err) {
		entries, _ := os.ReadDir(logsPath)
		if len(entries) > 0 {
			t.Errorf("Expected no log files when disabled, found %d", len(entries))
		}
	}
}

// TestCategoryToggle tests individual category enable/disable.
func TestCategoryToggle(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "logging_test_category")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	resetLogging()
	defer resetLogging()

	err = Configure(Settings{
		Enabled:   true,
		Directory: filepath.Join(tempDir, "logs"),
		Level:     "debug",
		Categories: map[string]bool{
			"boot":  true,
			"api":   true,
			"store": false,
		},
	})
	if err != nil {
		t.Fatalf("Failed to configure logging: %v", err)
	}

	if !IsCategoryEnabled(CategoryBoot) {
		t.Error("boot should be enabled")
	}
	if IsCategoryEnabled(CategoryStore) {
		t.Error("store should be DISABLED")
	}
	// Not listed in the map: defaults to enabled
	if !IsCategoryEnabled(CategoryWords) {
		t.Error("words (not in config) should default to enabled")
	}

	Boot("This SHOULD be logged")
	Store("This should NOT be logged")
	Words("This SHOULD be logged (default enabled)")

	CloseAll()

	entries, _ := os.ReadDir(filepath.Join(tempDir, "logs"))
	hasStoreLog := false
	hasBootLog := false
	for _, e := range entries {
		if strings.Contains(e.Name(), "store") {
			hasStoreLog = true
		}
		if strings.Contains(e.Name(), "boot") {
			hasBootLog = true
		}
	}
	if !hasBootLog {
		t.Error("Expected boot log file")
	}
	if hasStoreLog {
		t.Error("Should NOT have store log file (disabled)")
	}
}

// TestSetLevel tests runtime level changes.
func TestSetLevel(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "logging_test_level")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	resetLogging()
	defer resetLogging()

	logsPath := filepath.Join(tempDir, "logs")
	if err := Configure(Settings{Enabled: true, Directory: logsPath, Level: "error"}); err != nil {
		t.Fatalf("Failed to configure logging: %v", err)
	}

	Store("info message suppressed at error level")
	SetLevel("debug")
	StoreDebug("debug message visible after SetLevel")

	CloseAll()

	entries, _ := os.ReadDir(logsPath)
	for _, e := range entries {
		if !strings.Contains(e.Name(), "store") {
			continue
		}
		content, _ := os.ReadFile(filepath.Join(logsPath, e.Name()))
		text := string(content)
		if strings.Contains(text, "suppressed") {
			t.Error("Info message should be suppressed at error level")
		}
		if !strings.Contains(text, "visible after SetLevel") {
			t.Error("Debug message should be written after SetLevel(debug)")
		}
		return
	}
	t.Error("No store log file found")
}

// TestRequestLogger tests request-scoped correlation IDs.
func TestRequestLogger(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "logging_test_request")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	resetLogging()
	defer resetLogging()

	logsPath := filepath.Join(tempDir, "logs")
	if err := Configure(Settings{Enabled: true, Directory: logsPath, Level: "debug"}); err != nil {
		t.Fatalf("Failed to configure logging: %v", err)
	}

	rl := WithRequestID(CategoryAPI, "req-123")
	rl.Info("handling request")
	rl.WithField("status", 200).Info("request done")

	CloseAll()

	entries, _ := os.ReadDir(logsPath)
	for _, e := range entries {
		if !strings.Contains(e.Name(), "api") {
			continue
		}
		content, _ := os.ReadFile(filepath.Join(logsPath, e.Name()))
		if !strings.Contains(string(content), "[req:req-123]") {
			t.Error("Expected request ID prefix in log output")
		}
		return
	}
	t.Error("No api log file found")
}

// TestTimerLogging tests the timing helper.
func TestTimerLogging(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "logging_test_timer")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	resetLogging()
	defer resetLogging()

	if err := Configure(Settings{
		Enabled:   true,
		Directory: filepath.Join(tempDir, "logs"),
		Level:     "debug",
	}); err != nil {
		t.Fatalf("Failed to configure logging: %v", err)
	}

	timer := StartTimer(CategoryStore, "TestOperation")
	time.Sleep(time.Millisecond)
	elapsed := timer.Stop()

	if elapsed <= 0 {
		t.Error("Timer should have recorded non-zero duration")
	}

	CloseAll()
}
